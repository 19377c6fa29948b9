package store

import "errors"

var (
	// ErrNotFound is returned when no record exists at the requested key.
	ErrNotFound = errors.New("weft: record not found")

	// ErrConditionFailed is returned when a conditional write fails and the
	// failing item carried no domain sentinel.
	ErrConditionFailed = errors.New("weft: conditional check failed")

	// ErrTransactionAborted is returned when a transaction is cancelled for
	// a reason other than a conditional check failure.
	ErrTransactionAborted = errors.New("weft: transaction aborted")

	// ErrTooManyItems is returned when a transaction exceeds MaxTransactItems.
	ErrTooManyItems = errors.New("weft: too many transaction items")

	// ErrCounterUnderflow is returned when a guarded counter decrement would
	// drive the counter negative. Counter decrement builders attach it to
	// their transaction items.
	ErrCounterUnderflow = errors.New("weft: counter would go negative")
)
