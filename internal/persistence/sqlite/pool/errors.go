package pool

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration indicates malformed pool construction arguments.
	ErrInvalidConfiguration = errors.New("pool: invalid configuration")

	// ErrPoolTimeout indicates no connection became available before the deadline.
	ErrPoolTimeout = errors.New("pool: timeout waiting for a connection")

	// ErrPoolClosed is returned by Acquire after Close.
	ErrPoolClosed = errors.New("pool: closed")

	// ErrTransactionFailed indicates a transactional unit of work did not commit.
	ErrTransactionFailed = errors.New("pool: transaction failed")

	// ErrNestedTransaction is returned when a transaction scope is opened on a
	// connection that is already inside one.
	ErrNestedTransaction = errors.New("pool: nested transactions are not supported")
)

// TransactionError wraps the cause of a failed transaction scope.
type TransactionError struct {
	Op          string // begin, execute or commit
	Err         error  // Cause reported by the unit of work or the driver
	RollbackErr error  // Set when the rollback itself failed
}

// Error implements the error interface
func (e *TransactionError) Error() string {
	if e.RollbackErr != nil {
		return fmt.Sprintf("transaction failed during %s: %v (rollback error: %v)", e.Op, e.Err, e.RollbackErr)
	}
	return fmt.Sprintf("transaction failed during %s: %v", e.Op, e.Err)
}

// Unwrap exposes both ErrTransactionFailed and the original cause.
func (e *TransactionError) Unwrap() []error {
	errs := []error{ErrTransactionFailed, e.Err}
	if e.RollbackErr != nil {
		errs = append(errs, e.RollbackErr)
	}
	return errs
}

// Fatal reports whether the connection state can no longer be trusted.
func (e *TransactionError) Fatal() bool {
	return e.RollbackErr != nil || e.Op == "commit"
}
