// Package postgres provides the pgx-backed implementation of
// ports.OrderStore, for venues that point every till at one central
// database instead of keeping records per device. Same contract as the
// sqlite store; only the substrate changes.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jportela/comanda/internal/core/domain"
	"github.com/jportela/comanda/internal/core/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS orders (
    id              TEXT PRIMARY KEY,
    table_name      TEXT             NOT NULL,
    attendant_badge TEXT             NOT NULL,
    attendant_name  TEXT             NOT NULL,
    party_size      INTEGER          NOT NULL,
    items           JSONB            NOT NULL,
    total_value     DOUBLE PRECISION NOT NULL,
    created_at      TIMESTAMPTZ      NOT NULL,
    status          TEXT             NOT NULL,
    completed_at    TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
`

var _ ports.OrderStore = (*Store)(nil)

// Store is the Postgres implementation of ports.OrderStore.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to the database described by the DSN and applies the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Insert(ctx context.Context, order *domain.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return &domain.PersistenceError{Op: "insert", Err: err}
	}

	const q = `
		INSERT INTO orders
			(id, table_name, attendant_badge, attendant_name, party_size,
			 items, total_value, created_at, status, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = s.pool.Exec(ctx, q,
		order.ID,
		order.Table,
		order.AttendantBadge,
		order.AttendantName,
		order.PartySize,
		items,
		order.TotalValue,
		order.CreatedAt,
		string(order.Status),
		order.CompletedAt,
	)
	if err != nil {
		return &domain.PersistenceError{Op: "insert", Err: err}
	}
	return nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	const q = selectColumns + ` WHERE id = $1`

	order, err := scanOrder(s.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, &domain.PersistenceError{Op: "get", Err: err}
	}
	return order, nil
}

func (s *Store) ListByStatus(ctx context.Context, statuses ...domain.Status) ([]*domain.Order, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	const q = selectColumns + ` WHERE status = ANY($1)`
	args := make([]string, len(statuses))
	for n, st := range statuses {
		args[n] = string(st)
	}

	rows, err := s.pool.Query(ctx, q, args)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "list", Err: err}
	}
	defer rows.Close()

	var out []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, &domain.PersistenceError{Op: "list", Err: err}
		}
		out = append(out, order)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "list", Err: err}
	}
	return out, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id string, status domain.Status, completedAt *time.Time) error {
	const q = `UPDATE orders SET status = $1, completed_at = COALESCE($2, completed_at) WHERE id = $3`

	tag, err := s.pool.Exec(ctx, q, string(status), completedAt, id)
	if err != nil {
		return &domain.PersistenceError{Op: "update_status", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

const selectColumns = `
	SELECT id, table_name, attendant_badge, attendant_name, party_size,
	       items, total_value, created_at, status, completed_at
	FROM   orders`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		order  domain.Order
		items  []byte
		status string
	)
	err := row.Scan(
		&order.ID,
		&order.Table,
		&order.AttendantBadge,
		&order.AttendantName,
		&order.PartySize,
		&items,
		&order.TotalValue,
		&order.CreatedAt,
		&status,
		&order.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &order.Items); err != nil {
		return nil, fmt.Errorf("decode items for %q: %w", order.ID, err)
	}
	order.Status = domain.Status(status)
	return &order, nil
}
