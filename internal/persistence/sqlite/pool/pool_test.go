package pool

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newTestPool(t *testing.T, maxConnections int) *Pool {
	t.Helper()

	cfg := DefaultConfig(filepath.Join(t.TempDir(), "pool.db"), maxConnections)
	cfg.AcquireTimeout = 2 * time.Second
	p, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestNew_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "empty path", cfg: Config{Path: "", MaxConnections: 1}},
		{name: "blank path", cfg: Config{Path: "   ", MaxConnections: 1}},
		{name: "zero connections", cfg: Config{Path: MemoryPath, MaxConnections: 0}},
		{name: "negative connections", cfg: Config{Path: MemoryPath, MaxConnections: -3}},
		{name: "negative acquire timeout", cfg: Config{Path: MemoryPath, MaxConnections: 1, AcquireTimeout: -time.Second}},
		{name: "negative busy timeout", cfg: Config{Path: MemoryPath, MaxConnections: 1, BusyTimeout: -time.Second}},
		{name: "unknown journal mode", cfg: Config{Path: MemoryPath, MaxConnections: 1, JournalMode: "SIDEWAYS"}},
		{name: "unknown synchronous mode", cfg: Config{Path: MemoryPath, MaxConnections: 1, Synchronous: "SOMETIMES"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.cfg)
			require.ErrorIs(t, err, ErrInvalidConfiguration)
			assert.Nil(t, p)
		})
	}
}

func TestAcquire_ReusesIdleConnection(t *testing.T) {
	ctx := context.Background()
	p := newTestPool(t, 2)

	first, err := p.Acquire(ctx, 0)
	require.NoError(t, err)
	id := first.ID()
	p.Release(first)

	second, err := p.Acquire(ctx, 0)
	require.NoError(t, err)
	defer p.Release(second)

	assert.Equal(t, id, second.ID())
	assert.Equal(t, 1, p.Stats().Created)
}

func TestAcquire_AtCapacityTimesOut(t *testing.T) {
	ctx := context.Background()
	p := newTestPool(t, 2)

	a, err := p.Acquire(ctx, 0)
	require.NoError(t, err)
	b, err := p.Acquire(ctx, 0)
	require.NoError(t, err)
	before := p.Stats()

	started := time.Now()
	c, err := p.Acquire(ctx, 50*time.Millisecond)
	require.ErrorIs(t, err, ErrPoolTimeout)
	assert.Nil(t, c)
	assert.GreaterOrEqual(t, time.Since(started), 50*time.Millisecond)

	after := p.Stats()
	assert.Equal(t, before.Created, after.Created)
	assert.Equal(t, before.Idle, after.Idle)
	assert.Equal(t, 2, after.InUse)
	assert.Equal(t, int64(1), after.Timeouts)

	for _, conn := range []*Conn{a, b} {
		assert.False(t, conn.InTransaction())
		require.NoError(t, conn.PingContext(ctx))
		p.Release(conn)
	}
	assert.Equal(t, 2, p.Stats().Idle)
}

func TestRelease_UnblocksWaiter(t *testing.T) {
	ctx := context.Background()
	p := newTestPool(t, 1)

	held, err := p.Acquire(ctx, 0)
	require.NoError(t, err)

	type result struct {
		conn *Conn
		err  error
	}
	done := make(chan result, 1)
	go func() {
		conn, err := p.Acquire(ctx, 2*time.Second)
		done <- result{conn: conn, err: err}
	}()

	select {
	case <-done:
		t.Fatal("waiter proceeded while the only connection was checked out")
	case <-time.After(50 * time.Millisecond):
	}

	heldID := held.ID()
	p.Release(held)

	select {
	case res := <-done:
		require.NoError(t, res.err)
		assert.Equal(t, heldID, res.conn.ID())
		p.Release(res.conn)
	case <-time.After(2 * time.Second):
		t.Fatal("waiter was not woken after release")
	}
	assert.Equal(t, int64(1), p.Stats().WaitCount)
}

func TestAcquire_ContextCancelled(t *testing.T) {
	p := newTestPool(t, 1)

	held, err := p.Acquire(context.Background(), 0)
	require.NoError(t, err)
	defer p.Release(held)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err = p.Acquire(ctx, 5*time.Second)
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrPoolTimeout)
	assert.Equal(t, int64(0), p.Stats().Timeouts)
}

func TestWithConnection_ReleasesOnError(t *testing.T) {
	ctx := context.Background()
	p := newTestPool(t, 1)
	errWork := errors.New("unit of work failed")

	err := p.WithConnection(ctx, 0, func(ctx context.Context, conn *Conn) error {
		return errWork
	})
	require.ErrorIs(t, err, errWork)

	conn, err := p.Acquire(ctx, 50*time.Millisecond)
	require.NoError(t, err)
	p.Release(conn)
}

func TestWithConnection_ReleasesOnPanic(t *testing.T) {
	ctx := context.Background()
	p := newTestPool(t, 1)

	require.Panics(t, func() {
		_ = p.WithConnection(ctx, 0, func(ctx context.Context, conn *Conn) error {
			panic("boom")
		})
	})

	conn, err := p.Acquire(ctx, 50*time.Millisecond)
	require.NoError(t, err)
	p.Release(conn)
}

func TestWithConnectionValue(t *testing.T) {
	ctx := context.Background()
	p := newTestPool(t, 1)

	got, err := WithConnectionValue(ctx, p, 0, func(ctx context.Context, conn *Conn) (int, error) {
		var n int
		err := conn.QueryRowContext(ctx, "SELECT 40 + 2").Scan(&n)
		return n, err
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 1, p.Stats().Idle)
}

func TestPool_NeverExceedsCapacity(t *testing.T) {
	const maxConnections = 3
	ctx := context.Background()
	p := newTestPool(t, maxConnections)

	var current, peak atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < 24; i++ {
		g.Go(func() error {
			return p.WithConnection(gctx, 5*time.Second, func(ctx context.Context, conn *Conn) error {
				n := current.Add(1)
				defer current.Add(-1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				if s := p.Stats(); s.Created > maxConnections {
					return errors.New("created connections exceed capacity")
				}
				time.Sleep(5 * time.Millisecond)
				return conn.PingContext(ctx)
			})
		})
	}
	require.NoError(t, g.Wait())

	assert.LessOrEqual(t, peak.Load(), int64(maxConnections))
	stats := p.Stats()
	assert.LessOrEqual(t, stats.Created, maxConnections)
	assert.Equal(t, 0, stats.InUse)
	assert.Equal(t, stats.Created, stats.Idle)
}

func TestRelease_RollsBackOpenTransaction(t *testing.T) {
	ctx := context.Background()
	p := newTestPool(t, 1)

	conn, err := p.Acquire(ctx, 0)
	require.NoError(t, err)
	_, err = conn.ExecContext(ctx, "CREATE TABLE notes (body TEXT)")
	require.NoError(t, err)

	tx, err := conn.raw.BeginTx(ctx, nil)
	require.NoError(t, err)
	conn.tx = tx
	_, err = conn.ExecContext(ctx, "INSERT INTO notes (body) VALUES ('pending')")
	require.NoError(t, err)
	p.Release(conn)

	conn, err = p.Acquire(ctx, 0)
	require.NoError(t, err)
	defer p.Release(conn)
	assert.False(t, conn.InTransaction())

	var count int
	require.NoError(t, conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM notes").Scan(&count))
	assert.Zero(t, count)
}

func TestRelease_RollsBackRawBegin(t *testing.T) {
	ctx := context.Background()
	p := newTestPool(t, 1)

	conn, err := p.Acquire(ctx, 0)
	require.NoError(t, err)
	firstID := conn.ID()
	_, err = conn.ExecContext(ctx, "CREATE TABLE notes (body TEXT)")
	require.NoError(t, err)
	_, err = conn.ExecContext(ctx, "BEGIN")
	require.NoError(t, err)
	_, err = conn.ExecContext(ctx, "INSERT INTO notes (body) VALUES ('pending')")
	require.NoError(t, err)
	p.Release(conn)

	conn, err = p.Acquire(ctx, 0)
	require.NoError(t, err)
	defer p.Release(conn)
	assert.Equal(t, firstID, conn.ID())
	assert.Zero(t, p.Stats().Discarded)

	var count int
	require.NoError(t, conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM notes").Scan(&count))
	assert.Zero(t, count)

	err = RunTransactional(ctx, conn, func(ctx context.Context, conn *Conn) error {
		_, err := conn.ExecContext(ctx, "INSERT INTO notes (body) VALUES ('committed')")
		return err
	})
	require.NoError(t, err)
}

func TestRelease_CleanConnectionStaysPooled(t *testing.T) {
	ctx := context.Background()
	p := newTestPool(t, 1)

	for i := 0; i < 3; i++ {
		conn, err := p.Acquire(ctx, 0)
		require.NoError(t, err)
		require.NoError(t, conn.PingContext(ctx))
		p.Release(conn)
	}

	stats := p.Stats()
	assert.Equal(t, 1, stats.Created)
	assert.Equal(t, 1, stats.Idle)
	assert.Zero(t, stats.Discarded)
}

func TestRelease_DiscardsBrokenConnection(t *testing.T) {
	ctx := context.Background()
	p := newTestPool(t, 1)

	conn, err := p.Acquire(ctx, 0)
	require.NoError(t, err)
	brokenID := conn.ID()
	conn.broken = true
	p.Release(conn)

	stats := p.Stats()
	assert.Equal(t, 0, stats.Created)
	assert.Equal(t, 0, stats.Idle)
	assert.Equal(t, int64(1), stats.Discarded)

	fresh, err := p.Acquire(ctx, 50*time.Millisecond)
	require.NoError(t, err)
	defer p.Release(fresh)
	assert.NotEqual(t, brokenID, fresh.ID())
}

func TestRelease_IgnoresDoubleRelease(t *testing.T) {
	ctx := context.Background()
	p := newTestPool(t, 1)

	conn, err := p.Acquire(ctx, 0)
	require.NoError(t, err)
	p.Release(conn)
	require.NotPanics(t, func() { p.Release(conn) })

	held, err := p.Acquire(ctx, 0)
	require.NoError(t, err)
	defer p.Release(held)

	_, err = p.Acquire(ctx, 30*time.Millisecond)
	require.ErrorIs(t, err, ErrPoolTimeout)
	assert.Equal(t, 1, p.Stats().Created)
}

func TestRelease_IgnoresForeignConnection(t *testing.T) {
	ctx := context.Background()
	owner := newTestPool(t, 1)
	other := newTestPool(t, 1)

	conn, err := owner.Acquire(ctx, 0)
	require.NoError(t, err)
	other.Release(conn)
	assert.Equal(t, 1, owner.Stats().InUse)
	owner.Release(conn)
	assert.Equal(t, 1, owner.Stats().Idle)
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	p := newTestPool(t, 2)

	idle, err := p.Acquire(ctx, 0)
	require.NoError(t, err)
	held, err := p.Acquire(ctx, 0)
	require.NoError(t, err)
	p.Release(idle)

	require.NoError(t, p.Close())
	stats := p.Stats()
	assert.Equal(t, 0, stats.Idle)
	assert.Equal(t, 1, stats.Created)

	p.Release(held)
	assert.Equal(t, 0, p.Stats().Created)

	require.NoError(t, p.Close())
	_, err = p.Acquire(ctx, 0)
	require.ErrorIs(t, err, ErrPoolClosed)
}

func TestMemoryConfig(t *testing.T) {
	cfg := InMemoryTestConfig()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.IsMemory())
	assert.True(t, Config{Path: "file:test?mode=memory"}.IsMemory())
	assert.False(t, Config{Path: "/var/lib/bot.db"}.IsMemory())

	p, err := New(cfg)
	require.NoError(t, err)
	defer p.Close()

	err = p.WithConnection(context.Background(), 0, func(ctx context.Context, conn *Conn) error {
		_, err := conn.ExecContext(ctx, "CREATE TABLE t (v TEXT)")
		return err
	})
	require.NoError(t, err)
}
