// Package memory provides an in-memory ports.OrderStore for local
// development and tests. Nothing survives a restart; do not run a real
// service on it.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jportela/comanda/internal/core/domain"
	"github.com/jportela/comanda/internal/core/ports"
)

var _ ports.OrderStore = (*Store)(nil)

// Store keeps orders in a map guarded by a mutex.
type Store struct {
	mu     sync.Mutex
	orders map[string]*domain.Order

	// FailNext, when set, makes the next operation whose name matches
	// FailOp (any operation when FailOp is empty) fail with the given
	// error. Lets tests exercise the all-or-nothing guarantees.
	FailNext error
	FailOp   string // "insert", "get", "list", "update_status"
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{orders: make(map[string]*domain.Order)}
}

func (s *Store) failNext(op string) error {
	if s.FailNext == nil || (s.FailOp != "" && s.FailOp != op) {
		return nil
	}
	err := s.FailNext
	s.FailNext = nil
	return &domain.PersistenceError{Op: op, Err: err}
}

func (s *Store) Insert(_ context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failNext("insert"); err != nil {
		return err
	}
	if _, exists := s.orders[order.ID]; exists {
		return &domain.PersistenceError{Op: "insert", Err: fmt.Errorf("duplicate id %s", order.ID)}
	}
	s.orders[order.ID] = clone(order)
	return nil
}

func (s *Store) GetByID(_ context.Context, id string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failNext("get"); err != nil {
		return nil, err
	}
	order, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	return clone(order), nil
}

func (s *Store) ListByStatus(_ context.Context, statuses ...domain.Status) ([]*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failNext("list"); err != nil {
		return nil, err
	}
	var out []*domain.Order
	for _, order := range s.orders {
		for _, st := range statuses {
			if order.Status == st {
				out = append(out, clone(order))
				break
			}
		}
	}
	return out, nil
}

func (s *Store) UpdateStatus(_ context.Context, id string, status domain.Status, completedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failNext("update_status"); err != nil {
		return err
	}
	order, ok := s.orders[id]
	if !ok {
		return fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	order.Status = status
	if completedAt != nil {
		t := *completedAt
		order.CompletedAt = &t
	}
	return nil
}

// clone copies the record on the way in and out so callers never share
// memory with the store, the same isolation a real substrate gives.
func clone(o *domain.Order) *domain.Order {
	out := *o
	out.Items = o.CloneItems()
	if o.CompletedAt != nil {
		t := *o.CompletedAt
		out.CompletedAt = &t
	}
	return &out
}
