// Package sqlite provides the SQLite-backed implementation of
// ports.OrderStore, the default durable store for a single device.
//
// WAL mode is enabled on Open so the history screen can read while a
// finalize is writing. One record is one row; SQLite makes the insert
// atomic, which is exactly the per-record atomicity the store contract
// asks for.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jportela/comanda/internal/core/domain"
	"github.com/jportela/comanda/internal/core/ports"

	// Pure-Go SQLite driver. No CGO, so the binary cross-compiles to
	// whatever the till hardware runs.
	_ "modernc.org/sqlite"
)

// schema is the DDL executed once on startup. Idempotent due to IF NOT EXISTS.
const schema = `
CREATE TABLE IF NOT EXISTS orders (
    -- Creation-time-derived id generated by the order service.
    id              TEXT PRIMARY KEY,

    -- Table identifier as entered by the attendant, usually numeric.
    table_name      TEXT    NOT NULL,

    attendant_badge TEXT    NOT NULL,
    attendant_name  TEXT    NOT NULL,
    party_size      INTEGER NOT NULL,

    -- JSON snapshot of the cart lines at finalize time. Never updated.
    items           TEXT    NOT NULL,

    -- Frozen at creation; not recomputed when menu prices change.
    total_value     REAL    NOT NULL,

    -- RFC3339 stored as TEXT, SQLite idiom.
    created_at      TEXT    NOT NULL,

    status          TEXT    NOT NULL,

    -- Set exactly when status turns terminal, NULL before that.
    completed_at    TEXT
);

-- The pending screen and the history screen both filter by status.
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
`

var _ ports.OrderStore = (*Store)(nil)

// Store is the SQLite implementation of ports.OrderStore.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at the given path and applies the
// schema.
//
//	store, err := sqlite.Open("./data/orders.db")
func Open(path string) (*Store, error) {
	// _pragma query parameters configure connection state for the modernc
	// driver. WAL allows concurrent readers; busy_timeout waits for locks
	// instead of failing immediately.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// SQLite supports a single writer; serialize through one connection to
	// avoid SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database connection. Call it with defer in main().
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert durably commits a new order. The single INSERT is atomic: either
// the whole row exists afterwards or none of it does.
func (s *Store) Insert(ctx context.Context, order *domain.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return &domain.PersistenceError{Op: "insert", Err: err}
	}

	const q = `
		INSERT INTO orders
			(id, table_name, attendant_badge, attendant_name, party_size,
			 items, total_value, created_at, status, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, q,
		order.ID,
		order.Table,
		order.AttendantBadge,
		order.AttendantName,
		order.PartySize,
		string(items),
		order.TotalValue,
		formatTime(order.CreatedAt),
		string(order.Status),
		nullableTime(order.CompletedAt),
	)
	if err != nil {
		return &domain.PersistenceError{Op: "insert", Err: err}
	}
	return nil
}

// GetByID returns a single order, or domain.ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	const q = selectColumns + ` WHERE id = ?`

	order, err := scanOrder(s.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, &domain.PersistenceError{Op: "get", Err: err}
	}
	return order, nil
}

// ListByStatus returns all orders matching any of the given statuses. No
// ordering is promised; display ordering is the caller's concern.
func (s *Store) ListByStatus(ctx context.Context, statuses ...domain.Status) ([]*domain.Order, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(statuses)), ",")
	q := selectColumns + ` WHERE status IN (` + placeholders + `)`
	args := make([]any, len(statuses))
	for n, st := range statuses {
		args[n] = string(st)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
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

// UpdateStatus overwrites status and, when given, the completion timestamp.
// Everything else in the row stays as written at insert time.
func (s *Store) UpdateStatus(ctx context.Context, id string, status domain.Status, completedAt *time.Time) error {
	const q = `UPDATE orders SET status = ?, completed_at = COALESCE(?, completed_at) WHERE id = ?`

	res, err := s.db.ExecContext(ctx, q, string(status), nullableTime(completedAt), id)
	if err != nil {
		return &domain.PersistenceError{Op: "update_status", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &domain.PersistenceError{Op: "update_status", Err: err}
	}
	if n == 0 {
		return fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

const selectColumns = `
	SELECT id, table_name, attendant_badge, attendant_name, party_size,
	       items, total_value, created_at, status, completed_at
	FROM   orders`

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		order       domain.Order
		items       string
		createdAt   string
		status      string
		completedAt sql.NullString
	)
	err := row.Scan(
		&order.ID,
		&order.Table,
		&order.AttendantBadge,
		&order.AttendantName,
		&order.PartySize,
		&items,
		&order.TotalValue,
		&createdAt,
		&status,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(items), &order.Items); err != nil {
		return nil, fmt.Errorf("decode items for %q: %w", order.ID, err)
	}
	order.Status = domain.Status(status)
	if order.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t, err := parseTime(completedAt.String)
		if err != nil {
			return nil, err
		}
		order.CompletedAt = &t
	}
	return &order, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// nullableTime returns nil for absent timestamps so SQLite stores NULL.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

// parseTime parses the RFC3339 TEXT timestamps stored in SQLite.
func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
