package migration

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/volunteer-bot/internal/persistence/sqlite/pool"
)

// scripts maps a migration directory name to its files.
type scripts map[string]map[string]string

func writeTree(t *testing.T, root string, tree scripts) {
	t.Helper()
	for dir, files := range tree {
		path := filepath.Join(root, dir)
		if err := os.MkdirAll(path, 0o755); err != nil {
			t.Fatalf("Failed to create %s: %v", path, err)
		}
		for name, content := range files {
			if err := os.WriteFile(filepath.Join(path, name), []byte(content), 0o644); err != nil {
				t.Fatalf("Failed to write %s/%s: %v", dir, name, err)
			}
		}
	}
}

func pair(up, down string) map[string]string {
	return map[string]string{upScript: up, downScript: down}
}

// fixtureTree mirrors the five migrations the bot was first tested against.
func fixtureTree() scripts {
	return scripts{
		"20231110_080000-name1": pair("create table a(field text)", "drop table a"),
		"20231110_100000-name2": pair("create table b(field text)", "drop table b"),
		"20231111_080000-name3": pair("create table c(field text)", "drop table c"),
		"20231112_080000-name4": pair("drop table b;\ncreate table d(field text)", "create table b(field text);\ndrop table d"),
		"20231113_080000-name5": pair("drop table a", "create table a(field text)"),
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// openTestConn returns a connection to a fresh file database that stays
// checked out for the duration of the test.
func openTestPool(t *testing.T, maxConnections int) *pool.Pool {
	t.Helper()

	cfg := pool.DefaultConfig(filepath.Join(t.TempDir(), "migrations.db"), maxConnections)
	p, err := pool.New(cfg, pool.WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("Failed to create pool: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func openTestConn(t *testing.T) (*pool.Pool, *pool.Conn) {
	t.Helper()

	p := openTestPool(t, 1)
	conn, err := p.Acquire(context.Background(), 0)
	if err != nil {
		t.Fatalf("Failed to acquire connection: %v", err)
	}
	t.Cleanup(func() { p.Release(conn) })
	return p, conn
}

func tableExists(t *testing.T, conn *pool.Conn, name string) bool {
	t.Helper()
	var count int
	err := conn.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&count)
	if err != nil {
		t.Fatalf("Failed to check table %s: %v", name, err)
	}
	return count > 0
}

func ledger(t *testing.T, conn *pool.Conn) []string {
	t.Helper()
	versions, err := NewEngine(nil, WithLogger(quietLogger())).AppliedVersions(context.Background(), conn)
	if err != nil {
		t.Fatalf("Failed to read ledger: %v", err)
	}
	return versions
}
