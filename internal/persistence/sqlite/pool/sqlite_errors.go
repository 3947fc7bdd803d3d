package pool

import (
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ResultCode returns the extended SQLite result code carried by err, if any.
func ResultCode(err error) (int, bool) {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return 0, false
	}
	return sqliteErr.Code(), true
}

// PrimaryCode returns the primary result code carried by err, stripping the
// extended bits. SQLITE_CONSTRAINT_UNIQUE maps to SQLITE_CONSTRAINT.
func PrimaryCode(err error) (int, bool) {
	code, ok := ResultCode(err)
	if !ok {
		return 0, false
	}
	return code & 0xff, true
}

func isBusy(err error) bool {
	code, ok := PrimaryCode(err)
	return ok && (code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED)
}

// isNoActiveTransaction reports whether a ROLLBACK failed only because the
// connection was already in autocommit mode. SQLite reports this as a
// generic SQLITE_ERROR, so the message disambiguates.
func isNoActiveTransaction(err error) bool {
	code, ok := PrimaryCode(err)
	return ok && code == sqlite3.SQLITE_ERROR && strings.Contains(err.Error(), "no transaction is active")
}
