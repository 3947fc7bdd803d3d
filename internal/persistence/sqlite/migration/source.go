package migration

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// DirSource discovers migrations in the immediate subdirectories of a root.
// Every run re-reads the tree; nothing is cached between loads.
type DirSource struct {
	fsys fs.FS
	dir  string
	root string
}

// NewDirSource reads migrations from a directory on disk.
func NewDirSource(root string) *DirSource {
	return &DirSource{root: root}
}

// NewFSSource reads migrations from dir inside fsys, e.g. an embed.FS.
func NewFSSource(fsys fs.FS, dir string) *DirSource {
	if dir == "" {
		dir = "."
	}
	return &DirSource{fsys: fsys, dir: dir, root: dir}
}

// Load reads the migration tree at root from disk.
func Load(root string) ([]Migration, error) {
	return NewDirSource(root).Load()
}

// Root returns the location migrations are read from.
func (s *DirSource) Root() string {
	return s.root
}

// Load returns the migrations sorted by ascending version. A root that is
// missing or not a directory fails with ErrInvalidMigrationsPath.
// Subdirectories holding only one of up.sql and down.sql are skipped.
// Duplicate or empty versions are rejected.
func (s *DirSource) Load() ([]Migration, error) {
	fsys, dir, err := s.open()
	if err != nil {
		return nil, err
	}

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, NewFileSystemError(s.root, "read directory", err)
	}

	var migrations []Migration
	seen := make(map[string]string) // version -> directory for duplicate detection

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		migrationDir := path.Join(dir, entry.Name())
		m, ok, err := s.readMigration(fsys, migrationDir, entry.Name())
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		if existing, exists := seen[m.Version]; exists {
			return nil, NewMigrationError(m.Version, m.Dir, "check duplicates",
				fmt.Errorf("%w: version %s found in both %s and %s", ErrDuplicateVersion, m.Version, existing, entry.Name()))
		}
		seen[m.Version] = entry.Name()
		migrations = append(migrations, m)
	}

	sort.SliceStable(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

func (s *DirSource) open() (fs.FS, string, error) {
	if s.fsys != nil {
		info, err := fs.Stat(s.fsys, s.dir)
		if err != nil {
			return nil, "", NewFileSystemError(s.root, "open migrations root", fmt.Errorf("%w: %v", ErrInvalidMigrationsPath, err))
		}
		if !info.IsDir() {
			return nil, "", NewFileSystemError(s.root, "open migrations root", fmt.Errorf("%w: not a directory", ErrInvalidMigrationsPath))
		}
		return s.fsys, s.dir, nil
	}

	if strings.TrimSpace(s.root) == "" {
		return nil, "", NewFileSystemError(s.root, "open migrations root", fmt.Errorf("%w: empty path", ErrInvalidMigrationsPath))
	}
	info, err := os.Stat(s.root)
	if err != nil {
		return nil, "", NewFileSystemError(s.root, "open migrations root", fmt.Errorf("%w: %v", ErrInvalidMigrationsPath, err))
	}
	if !info.IsDir() {
		return nil, "", NewFileSystemError(s.root, "open migrations root", fmt.Errorf("%w: not a directory", ErrInvalidMigrationsPath))
	}
	return os.DirFS(s.root), ".", nil
}

// readMigration returns ok=false when the directory is not a complete migration.
func (s *DirSource) readMigration(fsys fs.FS, dir, dirName string) (Migration, bool, error) {
	up, err := fs.ReadFile(fsys, path.Join(dir, upScript))
	if errors.Is(err, fs.ErrNotExist) {
		return Migration{}, false, nil
	}
	if err != nil {
		return Migration{}, false, NewFileSystemError(path.Join(s.root, dirName, upScript), "read file", err)
	}

	down, err := fs.ReadFile(fsys, path.Join(dir, downScript))
	if errors.Is(err, fs.ErrNotExist) {
		return Migration{}, false, nil
	}
	if err != nil {
		return Migration{}, false, NewFileSystemError(path.Join(s.root, dirName, downScript), "read file", err)
	}

	version, name := ParseDirName(dirName)
	if version == "" {
		return Migration{}, false, NewMigrationError("", path.Join(s.root, dirName), "parse version",
			fmt.Errorf("%w: directory %q has no version before '-'", ErrInvalidVersion, dirName))
	}

	return Migration{
		Version:  version,
		Name:     name,
		Up:       string(up),
		Down:     string(down),
		Dir:      path.Join(s.root, dirName),
		Checksum: Checksum(string(up), string(down)),
	}, true, nil
}

// ParseDirName splits "<version>-<name>" at the first '-'. A name without
// '-' is all version.
func ParseDirName(dirName string) (version, name string) {
	version, name, _ = strings.Cut(dirName, "-")
	return version, name
}

// Checksum returns the hex BLAKE2b-256 digest of a migration's scripts.
func Checksum(up, down string) string {
	sum := blake2b.Sum256([]byte(up + "\x00" + down))
	return hex.EncodeToString(sum[:])
}

// SplitStatements splits a script on ';'. Statement text is kept as written
// apart from surrounding whitespace; fragments that are empty or contain only
// "--" comments are dropped.
func SplitStatements(script string) []string {
	var statements []string
	for _, stmt := range strings.Split(script, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" || commentOnly(stmt) {
			continue
		}
		statements = append(statements, stmt)
	}
	return statements
}

func commentOnly(fragment string) bool {
	for _, line := range strings.Split(fragment, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && !strings.HasPrefix(trimmed, "--") {
			return false
		}
	}
	return true
}
