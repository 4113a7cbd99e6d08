// Package session owns the mutable per-device state that used to live as
// ambient globals in this kind of app: who is logged in and which table is
// being served. It is explicit, injected state with a defined lifecycle
// (created on login / start-of-service, cleared on logout / end-of-service)
// and is persisted in the device state store so a restart resumes where the
// attendant left off.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jportela/comanda/internal/core/ports"
)

const (
	attendantKey = "attendant"
	serviceKey   = "service"
)

// Attendant identifies the logged-in member of staff. This is identity
// bookkeeping only; authenticating the badge is out of scope.
type Attendant struct {
	SessionID string `json:"session_id"`
	Badge     string `json:"badge"`
	Name      string `json:"name"`
}

// Service is the context of the table currently being served. It is the
// input the order finalizer needs beyond the cart itself.
type Service struct {
	Table     string `json:"table"`
	PartySize int    `json:"party_size"`
}

// Manager holds and persists the current attendant and service context.
// Not safe for concurrent use; the caller serializes operations.
type Manager struct {
	store     ports.StateStore
	attendant *Attendant
	service   *Service
}

// New returns an empty manager backed by the given state store.
func New(store ports.StateStore) *Manager {
	return &Manager{store: store}
}

// Load restores attendant and service context from the state store. Missing
// or unreadable entries simply leave the corresponding state unset.
func Load(ctx context.Context, store ports.StateStore) *Manager {
	m := New(store)
	if store == nil {
		return m
	}
	m.attendant = restore[Attendant](ctx, store, attendantKey)
	m.service = restore[Service](ctx, store, serviceKey)
	return m
}

func restore[T any](ctx context.Context, store ports.StateStore, key string) *T {
	raw, err := store.Load(ctx, key)
	if err != nil {
		slog.Error("session: restore failed", "key", key, "error", err)
		return nil
	}
	if raw == nil {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		slog.Error("session: corrupt entry", "key", key, "error", err)
		return nil
	}
	return &v
}

// Login records the attendant and opens a fresh session id.
func (m *Manager) Login(ctx context.Context, badge, name string) (*Attendant, error) {
	if badge == "" || name == "" {
		return nil, fmt.Errorf("session: badge and name are required")
	}
	a := &Attendant{SessionID: uuid.NewString(), Badge: badge, Name: name}
	if err := m.save(ctx, attendantKey, a); err != nil {
		return nil, err
	}
	m.attendant = a
	return a, nil
}

// Logout clears the attendant and any service context with it.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.EndService(ctx); err != nil {
		return err
	}
	if err := m.delete(ctx, attendantKey); err != nil {
		return err
	}
	m.attendant = nil
	return nil
}

// Attendant returns the logged-in attendant, or nil when nobody is.
func (m *Manager) Attendant() *Attendant { return m.attendant }

// StartService binds the session to a table and party size. Requires a
// logged-in attendant.
func (m *Manager) StartService(ctx context.Context, table string, partySize int) (*Service, error) {
	if m.attendant == nil {
		return nil, fmt.Errorf("session: no attendant logged in")
	}
	if table == "" || partySize < 1 {
		return nil, fmt.Errorf("session: table and party size are required")
	}
	s := &Service{Table: table, PartySize: partySize}
	if err := m.save(ctx, serviceKey, s); err != nil {
		return nil, err
	}
	m.service = s
	return s, nil
}

// ResumeTable rebinds the service context to a table that already has open
// orders, so the attendant can add more items to it. A party size below 1
// keeps the previous value when a service is open.
func (m *Manager) ResumeTable(ctx context.Context, table string, partySize int) (*Service, error) {
	if partySize < 1 && m.service != nil {
		partySize = m.service.PartySize
	}
	return m.StartService(ctx, table, partySize)
}

// Service returns the current service context, or nil when none is open.
func (m *Manager) Service() *Service { return m.service }

// EndService clears the service context, leaving the attendant logged in.
func (m *Manager) EndService(ctx context.Context) error {
	if err := m.delete(ctx, serviceKey); err != nil {
		return err
	}
	m.service = nil
	return nil
}

func (m *Manager) save(ctx context.Context, key string, v any) error {
	if m.store == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("session: marshal %q: %w", key, err)
	}
	if err := m.store.Save(ctx, key, raw); err != nil {
		return fmt.Errorf("session: save %q: %w", key, err)
	}
	return nil
}

func (m *Manager) delete(ctx context.Context, key string) error {
	if m.store == nil {
		return nil
	}
	if err := m.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("session: delete %q: %w", key, err)
	}
	return nil
}
