// Package orders implements the order aggregation core: finalizing a cart
// into a durable order, keeping the in-memory view synchronized with the
// store, grouping pending orders by table and advancing the delivery
// lifecycle.
//
// The durable store is the sole owner of finalized orders. The cached list
// held here is a read view, replaced wholesale from the store after every
// mutation; it never originates a write. That reload-after-write discipline
// is what keeps several screens observing the same store from diverging.
package orders

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jportela/comanda/internal/cart"
	"github.com/jportela/comanda/internal/core/domain"
	"github.com/jportela/comanda/internal/core/ports"
)

// pendingLike are the non-terminal statuses shown on the pending screen.
var pendingLike = []domain.Status{domain.StatusPending, domain.StatusInPreparation}

// FinalizeContext carries everything beyond the cart that an order needs:
// the table being served and who is serving it. Supplied by the session,
// passed in explicitly.
type FinalizeContext struct {
	Table          string
	AttendantBadge string
	AttendantName  string
	PartySize      int
}

// Service is the single entry point for order mutations and the cached
// pending view. Not safe for concurrent use; callers serialize operations
// per the single-UI-actor model.
type Service struct {
	store  ports.OrderStore
	now    func() time.Time
	lastID int64
	cached []*domain.Order // pending-like orders, rebuilt by Reload
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the wall clock, for deterministic ids and timestamps
// in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService returns a Service over the given store. The cache starts empty;
// call Reload before reading views.
func NewService(store ports.OrderStore, opts ...Option) *Service {
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// nextID derives an order id from creation time (milliseconds), bumped past
// the previous id when two orders land in the same millisecond. Ids stay
// monotonically distinguishable within a process.
func (s *Service) nextID(now time.Time) string {
	n := now.UnixMilli()
	if n <= s.lastID {
		n = s.lastID + 1
	}
	s.lastID = n
	return strconv.FormatInt(n, 10)
}

// Reload replaces the cached pending view with the current store contents.
// On failure the previous cache is kept (a stale view beats a broken one)
// and the store error is surfaced to the caller.
func (s *Service) Reload(ctx context.Context) error {
	list, err := s.store.ListByStatus(ctx, pendingLike...)
	if err != nil {
		return err
	}
	s.cached = list
	return nil
}

// Pending returns the cached pending-like orders. No I/O happens here; the
// view is only as fresh as the last Reload. Treat the result as read-only.
func (s *Service) Pending() []*domain.Order {
	out := make([]*domain.Order, len(s.cached))
	copy(out, s.cached)
	return out
}

// ListDelivered reads the delivered history straight from the store. The
// history screen is a read-side filter, not a separate store.
func (s *Service) ListDelivered(ctx context.Context) ([]*domain.Order, error) {
	return s.store.ListByStatus(ctx, domain.StatusDelivered)
}

// Get returns one order by id.
func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	return s.store.GetByID(ctx, id)
}

// Finalize snapshots the cart into a pending order bound to the given
// context and commits it. The sequence is strict: the store must acknowledge
// the insert before the cart is cleared, so a failed insert leaves the cart
// and the store exactly as they were. The pending cache is reloaded before
// returning.
func (s *Service) Finalize(ctx context.Context, c *cart.Cart, fc FinalizeContext) (*domain.Order, error) {
	if c.Empty() {
		return nil, domain.ErrEmptyCart
	}
	switch {
	case fc.Table == "":
		return nil, fmt.Errorf("%w: table", domain.ErrMissingContext)
	case fc.AttendantBadge == "" || fc.AttendantName == "":
		return nil, fmt.Errorf("%w: attendant", domain.ErrMissingContext)
	case fc.PartySize < 1:
		return nil, fmt.Errorf("%w: party size", domain.ErrMissingContext)
	}

	now := s.now().UTC()
	order := &domain.Order{
		ID:             s.nextID(now),
		Table:          fc.Table,
		AttendantBadge: fc.AttendantBadge,
		AttendantName:  fc.AttendantName,
		PartySize:      fc.PartySize,
		Items:          c.Items(), // deep copy, never aliases the live cart
		TotalValue:     c.TotalValue(),
		CreatedAt:      now,
		Status:         domain.StatusPending,
	}

	if err := s.store.Insert(ctx, order); err != nil {
		return nil, err
	}
	c.Clear(ctx)

	if err := s.Reload(ctx); err != nil {
		// The record is durable and the cart is cleared; a stale cache is
		// the lesser failure here and the next reload will catch up.
		slog.Warn("orders: reload after finalize failed", "order_id", order.ID, "error", err)
	}
	slog.Info("orders: finalized", "order_id", order.ID, "table", order.Table,
		"total_value", order.TotalValue, "items", len(order.Items))
	return order, nil
}

// StartPreparation moves a pending order into in-preparation.
func (s *Service) StartPreparation(ctx context.Context, id string) error {
	return s.transition(ctx, id, domain.StatusInPreparation)
}

// MarkDelivered completes an order: status delivered, completion timestamp
// set. Valid from any non-terminal state.
func (s *Service) MarkDelivered(ctx context.Context, id string) error {
	return s.transition(ctx, id, domain.StatusDelivered)
}

// Cancel voids a non-terminal order. Like delivery it is terminal and sets
// the completion timestamp.
func (s *Service) Cancel(ctx context.Context, id string) error {
	return s.transition(ctx, id, domain.StatusCancelled)
}

func (s *Service) transition(ctx context.Context, id string, to domain.Status) error {
	order, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !order.Status.CanTransitionTo(to) {
		return &domain.InvalidTransitionError{OrderID: id, From: order.Status, To: to}
	}

	var completedAt *time.Time
	if to.Terminal() {
		t := s.now().UTC()
		completedAt = &t
	}
	if err := s.store.UpdateStatus(ctx, id, to, completedAt); err != nil {
		return err
	}

	if err := s.Reload(ctx); err != nil {
		slog.Warn("orders: reload after transition failed", "order_id", id, "error", err)
	}
	slog.Info("orders: status changed", "order_id", id, "from", order.Status, "to", to)
	return nil
}
