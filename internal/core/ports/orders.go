package ports

import (
	"context"
	"time"

	"github.com/jportela/comanda/internal/core/domain"
)

// OrderStore is the port (interface) for the durable order record store.
// The order service depends on this abstraction, not on SQLite directly,
// so the backing can be swapped for Postgres or in-memory (dev/tests).
//
// The store carries no business rules. Its one promise is durability on
// success: if Insert or UpdateStatus return nil, the record is recoverable
// after a process restart. Writes are atomic per record: a failed Insert
// leaves no partial row behind.
type OrderStore interface {
	// Insert durably commits a new order record. Wraps failures in
	// *domain.PersistenceError.
	Insert(ctx context.Context, order *domain.Order) error

	// GetByID returns a single order, or domain.ErrNotFound.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// ListByStatus returns every order whose status is one of the given
	// statuses. The store guarantees no particular ordering; callers that
	// need one sort on their side.
	ListByStatus(ctx context.Context, statuses ...domain.Status) ([]*domain.Order, error)

	// UpdateStatus overwrites status (and completedAt when non-nil) of an
	// existing record, leaving every other field untouched. Returns
	// domain.ErrNotFound for unknown ids.
	UpdateStatus(ctx context.Context, id string, status domain.Status, completedAt *time.Time) error
}
