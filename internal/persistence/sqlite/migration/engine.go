package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/volunteer-bot/internal/persistence/sqlite/pool"
)

const (
	ledgerExistsSQL   = `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`
	createLedgerSQL   = `CREATE TABLE ` + LedgerTable + ` (version TEXT)`
	currentVersionSQL = `SELECT version FROM ` + LedgerTable + ` ORDER BY rowid DESC LIMIT 1`
	appliedSQL        = `SELECT version FROM ` + LedgerTable + ` ORDER BY rowid`
	recordSQL         = `INSERT INTO ` + LedgerTable + ` (version) VALUES (?)`
)

// Engine brings a database up to date with a migration source.
type Engine struct {
	source Source
	logger *slog.Logger
	now    func() time.Time
}

// Option customises an Engine.
type Option func(*Engine)

// WithLogger sets the logger for migration progress.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock overrides the time source used to measure migration durations.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an engine reading migrations from source.
func NewEngine(source Source, opts ...Option) *Engine {
	e := &Engine{
		source: source,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "migration")
	return e
}

// ApplyAll reads the migrations from root on disk and applies the pending ones.
func ApplyAll(ctx context.Context, conn *pool.Conn, root string) (bool, error) {
	return NewEngine(NewDirSource(root)).ApplyAll(ctx, conn)
}

// ApplyAll applies every migration whose version is greater than the current
// one, in ascending order, and reports whether anything was applied.
//
// The source is loaded before the database is touched. Up scripts run outside
// a transaction; each ledger row is inserted in its own transaction once its
// script has run. The first failing statement aborts the run and leaves the
// ledger rows of earlier migrations in place.
func (e *Engine) ApplyAll(ctx context.Context, conn *pool.Conn) (bool, error) {
	start := e.now()
	e.logState(StateUninitialized)

	migrations, err := e.source.Load()
	if err != nil {
		e.logger.Error("failed to load migrations", "error", err)
		return false, err
	}

	if err := e.EnsureLedger(ctx, conn); err != nil {
		return false, err
	}
	current, err := e.CurrentVersion(ctx, conn)
	if err != nil {
		return false, err
	}
	e.logState(StateLedgerReady, "current_version", current, "discovered", len(migrations))

	if len(migrations) == 0 {
		e.logger.Info("no migrations found")
		return false, nil
	}

	applied := 0
	for _, m := range migrations {
		if m.Version <= current {
			e.logger.Debug("skipping applied migration", "version", m.Version)
			continue
		}

		if err := e.apply(ctx, conn, m); err != nil {
			return applied > 0, err
		}
		current = m.Version
		applied++
	}

	e.logState(StateComplete,
		"current_version", current,
		"applied", applied,
		"duration", e.now().Sub(start))
	return applied > 0, nil
}

func (e *Engine) apply(ctx context.Context, conn *pool.Conn, m Migration) error {
	start := e.now()
	e.logState(StateApplying, "version", m.Version, "name", m.Name, "checksum", m.Checksum)

	for i, stmt := range SplitStatements(m.Up) {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			dbErr := NewDatabaseError(m.Version, stmt, fmt.Sprintf("execute statement %d", i+1), err)
			e.logger.Error("migration statement failed", "version", m.Version, "statement", i+1, "error", err)
			return NewMigrationError(m.Version, m.Dir, "apply", fmt.Errorf("%w: %w", ErrMigrationApplyFailed, dbErr))
		}
	}

	err := pool.RunTransactional(ctx, conn, func(ctx context.Context, conn *pool.Conn) error {
		_, err := conn.ExecContext(ctx, recordSQL, m.Version)
		return err
	})
	if err != nil {
		e.logger.Error("failed to record migration", "version", m.Version, "error", err)
		return NewMigrationError(m.Version, m.Dir, "record", NewDatabaseError(m.Version, recordSQL, "insert ledger row", err))
	}

	e.logState(StateApplied, "version", m.Version, "duration", e.now().Sub(start))
	return nil
}

// EnsureLedger creates the ledger table when it does not exist yet.
func (e *Engine) EnsureLedger(ctx context.Context, conn *pool.Conn) error {
	exists, err := ledgerExists(ctx, conn)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	err = pool.RunTransactional(ctx, conn, func(ctx context.Context, conn *pool.Conn) error {
		_, err := conn.ExecContext(ctx, createLedgerSQL)
		return err
	})
	if err != nil {
		return NewDatabaseError("", createLedgerSQL, "create ledger table", err)
	}
	e.logger.Info("created ledger table", "table", LedgerTable)
	return nil
}

// CurrentVersion returns the last recorded version, or ZeroVersion when the
// ledger is missing or empty.
func (e *Engine) CurrentVersion(ctx context.Context, conn *pool.Conn) (string, error) {
	exists, err := ledgerExists(ctx, conn)
	if err != nil || !exists {
		return ZeroVersion, err
	}

	var version string
	err = conn.QueryRowContext(ctx, currentVersionSQL).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return ZeroVersion, nil
	}
	if err != nil {
		return "", NewDatabaseError("", currentVersionSQL, "read current version", err)
	}
	return version, nil
}

// AppliedVersions returns the ledger rows in insertion order.
func (e *Engine) AppliedVersions(ctx context.Context, conn *pool.Conn) ([]string, error) {
	exists, err := ledgerExists(ctx, conn)
	if err != nil || !exists {
		return nil, err
	}

	rows, err := conn.QueryContext(ctx, appliedSQL)
	if err != nil {
		return nil, NewDatabaseError("", appliedSQL, "query applied versions", err)
	}
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, NewDatabaseError("", appliedSQL, "scan applied version", err)
		}
		versions = append(versions, version)
	}
	if err := rows.Err(); err != nil {
		return nil, NewDatabaseError("", appliedSQL, "iterate applied versions", err)
	}
	return versions, nil
}

// Status reports the ledger and the migrations ApplyAll would run. It never
// creates the ledger table.
func (e *Engine) Status(ctx context.Context, conn *pool.Conn) (Status, error) {
	migrations, err := e.source.Load()
	if err != nil {
		return Status{}, err
	}
	applied, err := e.AppliedVersions(ctx, conn)
	if err != nil {
		return Status{}, err
	}
	current, err := e.CurrentVersion(ctx, conn)
	if err != nil {
		return Status{}, err
	}

	status := Status{CurrentVersion: current, Applied: applied}
	for _, m := range migrations {
		if m.Version > current {
			status.Pending = append(status.Pending, m)
		}
	}
	return status, nil
}

func (e *Engine) logState(state State, args ...any) {
	e.logger.Info("migration state", append([]any{"state", string(state)}, args...)...)
}

func ledgerExists(ctx context.Context, conn *pool.Conn) (bool, error) {
	var name string
	err := conn.QueryRowContext(ctx, ledgerExistsSQL, LedgerTable).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, NewDatabaseError("", ledgerExistsSQL, "check ledger table", err)
	}
	return true, nil
}
