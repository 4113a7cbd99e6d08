package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCart is returned by finalize when there is nothing to commit.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrMissingContext is returned by finalize when the service context
	// lacks a table, an attendant or a party size.
	ErrMissingContext = errors.New("service context is incomplete")

	// ErrNotFound is returned by stores when an order id does not exist.
	ErrNotFound = errors.New("order not found")
)

// PersistenceError wraps a failure of the durable store. Callers can rely on
// the invariant that an operation reporting a PersistenceError changed
// nothing: no partial record, no cart clear, no cache replacement.
type PersistenceError struct {
	Op  string // store operation, e.g. "insert", "list", "update_status"
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("order store: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// InvalidTransitionError reports an attempt to move an order from a state
// that does not permit the requested transition, typically a terminal one.
type InvalidTransitionError struct {
	OrderID string
	From    Status
	To      Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("order %s: invalid transition %s -> %s", e.OrderID, e.From, e.To)
}
