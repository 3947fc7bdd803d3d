package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/volunteer-bot/internal/persistence"
	"github.com/example/volunteer-bot/internal/persistence/sqlite"
	"github.com/example/volunteer-bot/internal/persistence/sqlite/pool"
)

// SQLiteHarness provides repository access backed by a temporary, migrated
// SQLite file.
type SQLiteHarness struct {
	Storage      *sqlite.Storage
	Participants persistence.ParticipantRepository
	Roles        persistence.RoleRepository
	Events       persistence.EventRepository
	Volunteers   persistence.VolunteerRepository
	Path         string

	cleanup func()
}

// HarnessOption adjusts the storage options before the harness opens it.
type HarnessOption func(*sqlite.Options)

// WithMaxConnections sets the pool capacity.
func WithMaxConnections(n int) HarnessOption {
	return func(opts *sqlite.Options) {
		opts.Pool.MaxConnections = n
	}
}

// WithMigrationsDir migrates from a tree on disk instead of the embedded one.
func WithMigrationsDir(dir string) HarnessOption {
	return func(opts *sqlite.Options) {
		opts.MigrationsDir = dir
	}
}

// WithHarnessLogger routes storage logs to logger.
func WithHarnessLogger(logger *slog.Logger) HarnessOption {
	return func(opts *sqlite.Options) {
		opts.Logger = logger
	}
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness opens and migrates storage on a temporary file. Callers
// may invoke Close; a cleanup callback is also registered with tb.
func NewSQLiteHarness(tb testing.TB, opts ...HarnessOption) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "volunteers.db")
	poolCfg := pool.DefaultConfig(path, 3)
	poolCfg.AcquireTimeout = 2 * time.Second

	options := sqlite.Options{
		Pool:   poolCfg,
		Retry:  pool.RetryConfig{MaxRetries: 2, InitialDelay: 10 * time.Millisecond, MaxDelay: 50 * time.Millisecond, BackoffFactor: 2},
		Logger: DiscardLogger(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	storage, err := sqlite.Open(options)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if _, err := storage.Migrate(context.Background()); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Storage:      storage,
		Participants: storage.Participants(),
		Roles:        storage.Roles(),
		Events:       storage.Events(),
		Volunteers:   storage.Volunteers(),
		Path:         path,
		cleanup: func() {
			_ = storage.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// WithHarnessClock drives connection timestamps and migration durations
// from clock.
func WithHarnessClock(clock *Clock) HarnessOption {
	return func(opts *sqlite.Options) {
		opts.Now = clock.Now
	}
}
