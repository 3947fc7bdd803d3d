// Package sqlite stores the bot's participants, roles, events and volunteer
// assignments in a SQLite file accessed through a bounded connection pool.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/volunteer-bot/internal/persistence/sqlite/migration"
	"github.com/example/volunteer-bot/internal/persistence/sqlite/pool"
	"github.com/example/volunteer-bot/migrations"
)

// Options configures Open.
type Options struct {
	Pool pool.Config

	// MigrationsDir is a migration tree on disk. When empty the migrations
	// embedded in the binary are used.
	MigrationsDir string

	// Migrations overrides MigrationsDir when set.
	Migrations migration.Source

	// Retry controls how UseConnection retries transient failures. The zero
	// value makes a single attempt.
	Retry pool.RetryConfig

	Logger *slog.Logger

	// Now overrides the clock of the pool and the migration engine.
	Now func() time.Time
}

// Storage owns the connection pool and the migration engine of one database.
type Storage struct {
	pool   *pool.Pool
	engine *migration.Engine
	retry  *pool.RetryHelper
	mapper *ErrorMapper
	logger *slog.Logger

	participants *ParticipantRepository
	roles        *RoleRepository
	events       *EventRepository
	volunteers   *VolunteerRepository
}

// Open creates the pool for opts.Pool. The schema is not touched until
// Migrate is called.
func Open(opts Options) (*Storage, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p, err := pool.New(opts.Pool, pool.WithLogger(logger), pool.WithClock(opts.Now))
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	source := opts.Migrations
	if source == nil {
		if opts.MigrationsDir != "" {
			source = migration.NewDirSource(opts.MigrationsDir)
		} else {
			source = migration.NewFSSource(migrations.FS, ".")
		}
	}

	s := &Storage{
		pool:   p,
		engine: migration.NewEngine(source, migration.WithLogger(logger), migration.WithClock(opts.Now)),
		retry:  pool.NewRetryHelper(opts.Retry),
		mapper: NewErrorMapper(),
		logger: logger.With("component", "storage"),
	}
	s.participants = NewParticipantRepository(s)
	s.roles = NewRoleRepository(s)
	s.events = NewEventRepository(s)
	s.volunteers = NewVolunteerRepository(s)

	s.logger.Info("storage opened",
		"path", opts.Pool.Path,
		"max_connections", opts.Pool.MaxConnections,
		"memory", opts.Pool.IsMemory())
	return s, nil
}

// Close closes the pool.
func (s *Storage) Close() error {
	return s.pool.Close()
}

// Pool returns the underlying connection pool.
func (s *Storage) Pool() *pool.Pool {
	return s.pool
}

// Participants returns the participant repository.
func (s *Storage) Participants() *ParticipantRepository {
	return s.participants
}

// Roles returns the role repository.
func (s *Storage) Roles() *RoleRepository {
	return s.roles
}

// Events returns the event repository.
func (s *Storage) Events() *EventRepository {
	return s.events
}

// Volunteers returns the volunteer repository.
func (s *Storage) Volunteers() *VolunteerRepository {
	return s.volunteers
}

// Migrate applies pending migrations on a single connection and reports
// whether any were applied.
func (s *Storage) Migrate(ctx context.Context) (bool, error) {
	return pool.WithConnectionValue(ctx, s.pool, 0, func(ctx context.Context, conn *pool.Conn) (bool, error) {
		return s.engine.ApplyAll(ctx, conn)
	})
}

// Status reports applied and pending migrations without changing the schema.
func (s *Storage) Status(ctx context.Context) (migration.Status, error) {
	return pool.WithConnectionValue(ctx, s.pool, 0, func(ctx context.Context, conn *pool.Conn) (migration.Status, error) {
		return s.engine.Status(ctx, conn)
	})
}

// Ping checks that a pooled connection can reach the database.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.WithConnection(ctx, 0, func(ctx context.Context, conn *pool.Conn) error {
		return conn.PingContext(ctx)
	})
}

// UseConnection runs fn inside a transaction on a pooled connection. The
// whole unit is retried when the pool is exhausted or the database is locked.
func (s *Storage) UseConnection(ctx context.Context, fn pool.TransactionFunc) error {
	return s.retry.WithRetry(ctx, func() error {
		return s.pool.WithConnection(ctx, 0, func(ctx context.Context, conn *pool.Conn) error {
			return pool.RunTransactional(ctx, conn, fn)
		})
	})
}

// run is UseConnection for repositories: a unit of work that failed cleanly
// returns its own error rather than the transaction wrapper.
func (s *Storage) run(ctx context.Context, fn pool.TransactionFunc) error {
	err := s.UseConnection(ctx, fn)
	var txErr *pool.TransactionError
	if errors.As(err, &txErr) && txErr.Op == "execute" && txErr.RollbackErr == nil {
		return txErr.Err
	}
	return err
}

func runValue[T any](ctx context.Context, s *Storage, fn func(ctx context.Context, conn *pool.Conn) (T, error)) (T, error) {
	var result T
	err := s.run(ctx, func(ctx context.Context, conn *pool.Conn) error {
		var err error
		result, err = fn(ctx, conn)
		return err
	})
	return result, err
}
