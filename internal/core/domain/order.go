// Package domain holds the entities of the order-taking core: line items and
// the cart merge rule, finalized orders and the status lifecycle.
//
// Orders are immutable after creation except for Status and CompletedAt,
// which only move forward along the transition table below. TotalValue is
// computed once when the cart is snapshotted and never recomputed; it is a
// frozen price even if the menu changes later.
package domain

import "time"

// Status is the delivery lifecycle state of a finalized order.
type Status string

const (
	StatusPending       Status = "pending"
	StatusInPreparation Status = "in-preparation"
	StatusDelivered     Status = "delivered"
	StatusCancelled     Status = "cancelled"
)

// Terminal reports whether no further transitions are permitted.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInPreparation, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo implements the lifecycle state machine:
//
//	pending -> in-preparation -> delivered
//
// with cancelled reachable from any non-terminal state. Terminal states
// accept nothing.
func (s Status) CanTransitionTo(next Status) bool {
	if s.Terminal() || !next.Valid() {
		return false
	}
	switch next {
	case StatusInPreparation:
		return s == StatusPending
	case StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Order is the durable record produced by finalizing a cart for one table.
type Order struct {
	ID             string
	Table          string
	AttendantBadge string
	AttendantName  string
	PartySize      int
	Items          []LineItem
	TotalValue     float64
	CreatedAt      time.Time
	Status         Status
	CompletedAt    *time.Time // set exactly when Status turns terminal
}

// ItemCount is the total quantity across all lines of the order.
func (o Order) ItemCount() int {
	var n int
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

// CloneItems returns a deep copy of the order's lines, so callers can hand
// them out without exposing the stored snapshot to mutation.
func (o Order) CloneItems() []LineItem {
	out := make([]LineItem, len(o.Items))
	for n, it := range o.Items {
		out[n] = it.Clone()
	}
	return out
}
