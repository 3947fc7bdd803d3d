package pool

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// MemoryPath selects an ephemeral in-memory database.
const MemoryPath = ":memory:"

// Config holds the connection pool and SQLite connection settings.
type Config struct {
	// Path is the database file path or DSN. MemoryPath (or any DSN with
	// mode=memory) creates a private database for every physical connection,
	// so state is not shared between pooled connections. Use a file path, or
	// MaxConnections = 1, when callers must see each other's writes.
	Path string

	// MaxConnections caps the number of physical connections.
	MaxConnections int

	// AcquireTimeout is used by Acquire when the caller passes no timeout.
	AcquireTimeout time.Duration

	// BusyTimeout sets how long SQLite waits for database locks
	BusyTimeout time.Duration

	// EnableForeignKeys enables foreign key constraint checking
	EnableForeignKeys bool

	// JournalMode sets the SQLite journal mode (WAL, DELETE, TRUNCATE, etc.)
	JournalMode string

	// Synchronous sets the synchronous mode (FULL, NORMAL, OFF)
	Synchronous string

	// CacheSize sets the page cache size in KB (negative for pages)
	CacheSize int
}

// DefaultConfig returns a configuration with sensible defaults for path.
func DefaultConfig(path string, maxConnections int) Config {
	return Config{
		Path:              path,
		MaxConnections:    maxConnections,
		AcquireTimeout:    10 * time.Second,
		BusyTimeout:       5 * time.Second,
		EnableForeignKeys: true,
		JournalMode:       "WAL",
		Synchronous:       "NORMAL",
	}
}

// InMemoryTestConfig returns a single-connection in-memory configuration.
func InMemoryTestConfig() Config {
	return Config{
		Path:              MemoryPath,
		MaxConnections:    1,
		AcquireTimeout:    time.Second,
		BusyTimeout:       time.Second,
		EnableForeignKeys: true,
		JournalMode:       "MEMORY",
		Synchronous:       "OFF",
	}
}

var (
	validJournalModes = map[string]bool{
		"DELETE":   true,
		"TRUNCATE": true,
		"PERSIST":  true,
		"MEMORY":   true,
		"WAL":      true,
		"OFF":      true,
	}
	validSyncModes = map[string]bool{
		"OFF":    true,
		"NORMAL": true,
		"FULL":   true,
		"EXTRA":  true,
	}
)

// Validate reports the first malformed setting wrapped in ErrInvalidConfiguration.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Path) == "" {
		return fmt.Errorf("%w: empty database path", ErrInvalidConfiguration)
	}
	if c.MaxConnections < 1 {
		return fmt.Errorf("%w: max connections must be greater than 0, got %d", ErrInvalidConfiguration, c.MaxConnections)
	}
	if c.AcquireTimeout < 0 {
		return fmt.Errorf("%w: acquire timeout cannot be negative", ErrInvalidConfiguration)
	}
	if c.BusyTimeout < 0 {
		return fmt.Errorf("%w: busy timeout cannot be negative", ErrInvalidConfiguration)
	}
	if c.JournalMode != "" && !validJournalModes[strings.ToUpper(c.JournalMode)] {
		return fmt.Errorf("%w: invalid journal mode: %s", ErrInvalidConfiguration, c.JournalMode)
	}
	if c.Synchronous != "" && !validSyncModes[strings.ToUpper(c.Synchronous)] {
		return fmt.Errorf("%w: invalid synchronous mode: %s", ErrInvalidConfiguration, c.Synchronous)
	}
	return nil
}

// IsMemory reports whether Path denotes an ephemeral database.
func (c Config) IsMemory() bool {
	return c.Path == MemoryPath || strings.Contains(c.Path, "mode=memory")
}

// pragmas returns the per-connection PRAGMA statements derived from c.
func (c Config) pragmas() []string {
	var stmts []string
	if c.BusyTimeout > 0 {
		stmts = append(stmts, fmt.Sprintf("PRAGMA busy_timeout = %d", c.BusyTimeout.Milliseconds()))
	}
	if c.JournalMode != "" {
		stmts = append(stmts, fmt.Sprintf("PRAGMA journal_mode = %s", strings.ToUpper(c.JournalMode)))
	}
	if c.Synchronous != "" {
		stmts = append(stmts, fmt.Sprintf("PRAGMA synchronous = %s", strings.ToUpper(c.Synchronous)))
	}
	if c.EnableForeignKeys {
		stmts = append(stmts, "PRAGMA foreign_keys = ON")
	}
	if c.CacheSize != 0 {
		stmts = append(stmts, fmt.Sprintf("PRAGMA cache_size = %d", c.CacheSize))
	}
	return stmts
}

// ensureDatabaseDir creates the parent directory of a file-backed database.
func (c Config) ensureDatabaseDir() error {
	if c.IsMemory() || strings.HasPrefix(c.Path, "file:") {
		return nil
	}
	dir := filepath.Dir(c.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}
	return nil
}
