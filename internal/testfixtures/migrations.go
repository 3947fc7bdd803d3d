package testfixtures

import (
	"os"
	"path/filepath"
	"testing"
)

// MigrationScripts holds the up and down scripts of one migration directory.
type MigrationScripts struct {
	Up   string
	Down string
}

// WriteMigrationTree creates <root>/<dir>/up.sql and down.sql for every
// entry. An empty Down omits down.sql, which makes the directory incomplete.
func WriteMigrationTree(tb testing.TB, root string, tree map[string]MigrationScripts) {
	tb.Helper()

	for dir, scripts := range tree {
		path := filepath.Join(root, dir)
		if err := os.MkdirAll(path, 0o755); err != nil {
			tb.Fatalf("failed to create %s: %v", path, err)
		}
		if err := os.WriteFile(filepath.Join(path, "up.sql"), []byte(scripts.Up), 0o644); err != nil {
			tb.Fatalf("failed to write %s/up.sql: %v", dir, err)
		}
		if scripts.Down == "" {
			continue
		}
		if err := os.WriteFile(filepath.Join(path, "down.sql"), []byte(scripts.Down), 0o644); err != nil {
			tb.Fatalf("failed to write %s/down.sql: %v", dir, err)
		}
	}
}
