package pool

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type connState int

const (
	stateIdle connState = iota
	stateCheckedOut
	stateReleasing
	stateClosed
)

// Conn is one physical database connection owned by a Pool. It is only valid
// between Acquire and Release and must not be shared across goroutines.
//
// While a RunTransactional scope is open, ExecContext, QueryContext and
// QueryRowContext run inside that transaction.
type Conn struct {
	id        string
	raw       *sql.Conn
	pool      *Pool
	tx        *sql.Tx
	state     connState
	broken    bool
	createdAt time.Time
}

// ID returns the identifier used in logs for this connection.
func (c *Conn) ID() string {
	return c.id
}

// CreatedAt returns when the physical connection was opened.
func (c *Conn) CreatedAt() time.Time {
	return c.createdAt
}

// InTransaction reports whether a transaction scope is open on the connection.
func (c *Conn) InTransaction() bool {
	return c.tx != nil
}

// ExecContext executes a statement that returns no rows.
func (c *Conn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if c.tx != nil {
		return c.tx.ExecContext(ctx, query, args...)
	}
	return c.raw.ExecContext(ctx, query, args...)
}

// QueryContext executes a query that returns rows.
func (c *Conn) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if c.tx != nil {
		return c.tx.QueryContext(ctx, query, args...)
	}
	return c.raw.QueryContext(ctx, query, args...)
}

// QueryRowContext executes a query that is expected to return at most one row.
func (c *Conn) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	if c.tx != nil {
		return c.tx.QueryRowContext(ctx, query, args...)
	}
	return c.raw.QueryRowContext(ctx, query, args...)
}

// PingContext verifies the connection is still alive.
func (c *Conn) PingContext(ctx context.Context) error {
	return c.raw.PingContext(ctx)
}

// discardTx rolls back a transaction left open on the connection. A failed
// rollback marks the connection broken.
func (c *Conn) discardTx() error {
	if c.tx == nil {
		return nil
	}
	tx := c.tx
	c.tx = nil
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		c.broken = true
		return err
	}
	return nil
}

// reset returns the connection to autocommit mode before it is pooled. A
// scope opened by RunTransactional is rolled back through its *sql.Tx; a
// transaction begun with a raw BEGIN statement is rolled back with ROLLBACK.
// A failed rollback marks the connection broken.
func (c *Conn) reset(ctx context.Context) error {
	if c.tx != nil {
		return c.discardTx()
	}
	if _, err := c.raw.ExecContext(ctx, "ROLLBACK"); err != nil && !isNoActiveTransaction(err) {
		c.broken = true
		return err
	}
	return nil
}
