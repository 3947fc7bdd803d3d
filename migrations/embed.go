// Package migrations embeds the schema migrations so the binary can migrate
// a database without the tree on disk.
package migrations

import "embed"

// FS holds one directory per migration, each with up.sql and down.sql.
//
//go:embed */*.sql
var FS embed.FS
