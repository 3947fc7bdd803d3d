package pool

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
	_ "modernc.org/sqlite" // SQLite driver
)

const driverName = "sqlite"

// releaseTimeout bounds the implicit rollback run by Release.
const releaseTimeout = 5 * time.Second

// Pool multiplexes a bounded number of SQLite connections across callers.
//
// Capacity is enforced with a weighted semaphore holding one permit per
// checked-out connection; the idle queue and counters are guarded by mu.
// idle + checked out never exceeds MaxConnections.
type Pool struct {
	cfg    Config
	db     *sql.DB
	sem    *semaphore.Weighted
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	idle      []*Conn
	created   int
	closed    bool
	waitCount int64
	timeouts  int64
	discarded int64
}

// Option customises a Pool.
type Option func(*Pool)

// WithLogger sets the logger used for connection lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock overrides the time source used to stamp new connections.
func WithClock(now func() time.Time) Option {
	return func(p *Pool) {
		if now != nil {
			p.now = now
		}
	}
}

// Stats is a point-in-time snapshot of pool accounting.
type Stats struct {
	MaxConnections int
	Created        int
	Idle           int
	InUse          int
	WaitCount      int64 // Acquire calls that had to wait for a permit
	Timeouts       int64 // Acquire calls that failed with ErrPoolTimeout
	Discarded      int64 // Connections closed because their state was untrustworthy
}

// New validates cfg and returns a pool. No connection is opened until the
// first Acquire.
func New(cfg Config, opts ...Option) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.AcquireTimeout == 0 {
		cfg.AcquireTimeout = DefaultConfig(cfg.Path, cfg.MaxConnections).AcquireTimeout
	}
	if err := cfg.ensureDatabaseDir(); err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxConnections)
	// Connections handed back to database/sql are physically closed; reuse
	// happens only through the pool's idle queue.
	db.SetMaxIdleConns(0)

	p := &Pool{
		cfg:    cfg,
		db:     db,
		sem:    semaphore.NewWeighted(int64(cfg.MaxConnections)),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "pool")
	return p, nil
}

// Config returns the configuration the pool was created with.
func (p *Pool) Config() Config {
	return p.cfg
}

// Acquire returns an idle connection, opens a new one while below capacity,
// or waits until another caller releases one. A timeout <= 0 uses
// Config.AcquireTimeout. Expiry yields ErrPoolTimeout without changing pool
// state; cancellation of ctx yields ctx.Err().
func (p *Pool) Acquire(ctx context.Context, timeout time.Duration) (*Conn, error) {
	if timeout <= 0 {
		timeout = p.cfg.AcquireTimeout
	}

	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil, ErrPoolClosed
	}

	if !p.sem.TryAcquire(1) {
		p.mu.Lock()
		p.waitCount++
		p.mu.Unlock()

		waitCtx, cancel := context.WithTimeout(ctx, timeout)
		err := p.sem.Acquire(waitCtx, 1)
		cancel()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			p.mu.Lock()
			p.timeouts++
			p.mu.Unlock()
			p.logger.Warn("no connection available", "timeout", timeout, "max_connections", p.cfg.MaxConnections)
			return nil, fmt.Errorf("%w after %s", ErrPoolTimeout, timeout)
		}
	}

	conn, err := p.checkout(ctx)
	if err != nil {
		p.sem.Release(1)
		return nil, err
	}
	return conn, nil
}

// checkout runs while holding a permit.
func (p *Pool) checkout(ctx context.Context) (*Conn, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if len(p.idle) > 0 {
		conn := p.idle[0]
		p.idle[0] = nil
		p.idle = p.idle[1:]
		conn.state = stateCheckedOut
		p.mu.Unlock()
		return conn, nil
	}
	if p.created >= p.cfg.MaxConnections {
		p.mu.Unlock()
		return nil, fmt.Errorf("pool: capacity accounting exceeded %d connections", p.cfg.MaxConnections)
	}
	p.created++
	p.mu.Unlock()

	conn, err := p.open(ctx)
	if err != nil {
		p.mu.Lock()
		p.created--
		p.mu.Unlock()
		return nil, err
	}
	conn.state = stateCheckedOut
	return conn, nil
}

func (p *Pool) open(ctx context.Context) (*Conn, error) {
	raw, err := p.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}
	for _, stmt := range p.cfg.pragmas() {
		if _, err := raw.ExecContext(ctx, stmt); err != nil {
			_ = raw.Close()
			return nil, fmt.Errorf("failed to configure connection (%s): %w", stmt, err)
		}
	}

	conn := &Conn{
		id:        uuid.NewString(),
		raw:       raw,
		pool:      p,
		createdAt: p.now(),
	}
	p.logger.Debug("opened connection", "conn_id", conn.id)
	return conn, nil
}

// Release returns conn to the idle set and lets one waiting Acquire proceed.
// Any open transaction is rolled back first, whether it was opened by
// RunTransactional or by a BEGIN statement run on the connection. A connection whose transaction
// state could not be cleaned up is closed instead of pooled, as is any
// connection released after Close.
func (p *Pool) Release(conn *Conn) {
	if conn == nil {
		return
	}
	if conn.pool != p {
		p.logger.Warn("ignoring release of connection from another pool", "conn_id", conn.id)
		return
	}

	p.mu.Lock()
	if conn.state != stateCheckedOut {
		p.mu.Unlock()
		p.logger.Warn("ignoring release of connection that is not checked out", "conn_id", conn.id)
		return
	}
	conn.state = stateReleasing
	p.mu.Unlock()

	resetCtx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	if err := conn.reset(resetCtx); err != nil {
		p.logger.Warn("implicit rollback failed", "conn_id", conn.id, "error", err)
	}
	cancel()

	p.mu.Lock()
	discard := conn.broken || p.closed
	if discard {
		conn.state = stateClosed
		p.created--
		if conn.broken {
			p.discarded++
		}
	} else {
		conn.state = stateIdle
		p.idle = append(p.idle, conn)
	}
	p.mu.Unlock()

	if discard {
		if err := conn.raw.Close(); err != nil {
			p.logger.Warn("failed to close connection", "conn_id", conn.id, "error", err)
		}
		p.logger.Debug("closed connection on release", "conn_id", conn.id, "broken", conn.broken)
	}
	p.sem.Release(1)
}

// WithConnection acquires a connection, runs fn with it and releases it on
// every exit path, including panics.
func (p *Pool) WithConnection(ctx context.Context, timeout time.Duration, fn func(ctx context.Context, conn *Conn) error) error {
	conn, err := p.Acquire(ctx, timeout)
	if err != nil {
		return err
	}
	defer p.Release(conn)
	return fn(ctx, conn)
}

// WithConnectionValue is WithConnection for units of work that produce a value.
func WithConnectionValue[T any](ctx context.Context, p *Pool, timeout time.Duration, fn func(ctx context.Context, conn *Conn) (T, error)) (T, error) {
	var result T
	err := p.WithConnection(ctx, timeout, func(ctx context.Context, conn *Conn) error {
		var err error
		result, err = fn(ctx, conn)
		return err
	})
	return result, err
}

// Close closes every idle connection and the underlying database handle.
// Checked-out connections are closed when their holders release them.
// Close is idempotent.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.created -= len(idle)
	for _, conn := range idle {
		conn.state = stateClosed
	}
	inUse := p.created
	p.mu.Unlock()

	var errs []error
	for _, conn := range idle {
		if err := conn.raw.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close connection %s: %w", conn.id, err))
		}
	}
	if err := p.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}
	p.logger.Debug("pool closed", "closed_idle", len(idle), "still_checked_out", inUse)
	return errors.Join(errs...)
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		MaxConnections: p.cfg.MaxConnections,
		Created:        p.created,
		Idle:           len(p.idle),
		InUse:          p.created - len(p.idle),
		WaitCount:      p.waitCount,
		Timeouts:       p.timeouts,
		Discarded:      p.discarded,
	}
}
