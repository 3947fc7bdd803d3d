package pool

import (
	"context"
	"database/sql"
	"errors"
)

// TransactionFunc is a unit of work executed inside RunTransactional.
type TransactionFunc func(ctx context.Context, conn *Conn) error

// RunTransactional begins a transaction on conn, runs fn and commits when fn
// succeeds. When fn fails the transaction is rolled back and the cause is
// returned inside a *TransactionError, which matches both
// ErrTransactionFailed and the original error under errors.Is.
//
// A failed rollback or commit marks the connection broken so that Release
// closes it instead of pooling it. Opening a scope on a connection that is
// already inside one returns ErrNestedTransaction.
func RunTransactional(ctx context.Context, conn *Conn, fn TransactionFunc) error {
	if conn.tx != nil {
		return ErrNestedTransaction
	}

	tx, err := conn.raw.BeginTx(ctx, nil)
	if err != nil {
		return &TransactionError{Op: "begin", Err: err}
	}
	conn.tx = tx

	defer func() {
		if p := recover(); p != nil {
			if rbErr := conn.discardTx(); rbErr != nil {
				conn.pool.logger.Error("rollback after panic failed", "conn_id", conn.id, "error", rbErr)
			}
			panic(p)
		}
	}()

	if fnErr := fn(ctx, conn); fnErr != nil {
		if rbErr := conn.discardTx(); rbErr != nil {
			return &TransactionError{Op: "execute", Err: fnErr, RollbackErr: rbErr}
		}
		return &TransactionError{Op: "execute", Err: fnErr}
	}

	conn.tx = nil
	if cErr := tx.Commit(); cErr != nil {
		if !errors.Is(cErr, sql.ErrTxDone) {
			conn.broken = true
		}
		return &TransactionError{Op: "commit", Err: cErr}
	}
	return nil
}
