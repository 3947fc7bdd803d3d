// Package migration discovers versioned SQLite schema migrations and applies
// the pending ones exactly once.
//
// A migration tree looks like:
//
//	<root>/<version>-<name>/up.sql
//	<root>/<version>-<name>/down.sql
//
// The version is the part of the directory name before the first '-' and
// must sort lexicographically in chronological order, e.g.
// "20231110_080000-create_participant". Directories that lack either script
// are skipped. Scripts hold statements separated by ';'.
//
// Applied versions are recorded in the migration_version table, one row per
// version in application order. The engine treats the last recorded version
// as current and applies every discovered migration with a greater version.
//
// Example usage:
//
//	engine := migration.NewEngine(migration.NewDirSource("db/migrations"), migration.WithLogger(logger))
//	err := p.WithConnection(ctx, 0, func(ctx context.Context, conn *pool.Conn) error {
//		_, err := engine.ApplyAll(ctx, conn)
//		return err
//	})
package migration
