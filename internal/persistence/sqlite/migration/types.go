package migration

// LedgerTable is the reserved table recording applied versions.
const LedgerTable = "migration_version"

// ZeroVersion is the current version of a database with an empty ledger.
const ZeroVersion = "0"

const (
	upScript   = "up.sql"
	downScript = "down.sql"
)

// Migration describes one versioned migration directory.
type Migration struct {
	Version  string // Directory name before the first '-'
	Name     string // Remainder of the directory name
	Up       string // Forward script
	Down     string // Reverse script; loaded but never executed by the engine
	Dir      string // Path of the migration directory within its source
	Checksum string // BLAKE2b-256 of the up and down scripts
}

// Source produces the ordered migrations of one tree.
type Source interface {
	Load() ([]Migration, error)
}

// Status describes a database relative to a migration source.
type Status struct {
	CurrentVersion string      // Last ledger row, or ZeroVersion
	Applied        []string    // Ledger rows in insertion order
	Pending        []Migration // Migrations newer than CurrentVersion
}

// State is a step in a migration run.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateLedgerReady   State = "ledger_ready"
	StateApplying      State = "applying"
	StateApplied       State = "applied"
	StateComplete      State = "complete"
)
