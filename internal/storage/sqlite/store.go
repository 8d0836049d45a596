// Package sqlite stores tickets in an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ramachandrajr/ticket-boy/internal/clock"
	"github.com/ramachandrajr/ticket-boy/internal/domain"
)

// timeLayout is fixed width so that text comparison orders instants.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const ticketColumns = `id, tag, start_at, end_at, payload, created_at`

// TicketStore implements the ticket repository on SQLite.
type TicketStore struct {
	db    *sql.DB
	clock clock.Clock
}

// Open opens (or creates) the database at path and migrates it.
func Open(path string, clk clock.Clock) (*TicketStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ticket store: open: %w", err)
	}
	// A single connection keeps transactions and plain calls from
	// contending for the write lock. For ":memory:" it also holds the
	// whole database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("ticket store: wal: %w", err)
	}

	s := &TicketStore{db: db, clock: clk}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *TicketStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS tickets (
			id         TEXT PRIMARY KEY,
			tag        TEXT,
			start_at   TEXT NOT NULL,
			end_at     TEXT,
			payload    BLOB NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_tickets_tag ON tickets(tag);
		CREATE INDEX IF NOT EXISTS idx_tickets_end_at ON tickets(end_at);
	`)
	if err != nil {
		return fmt.Errorf("ticket store: migrate: %w", err)
	}
	return nil
}

// Close releases the database.
func (s *TicketStore) Close() error {
	return s.db.Close()
}

type txKey struct{}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *TicketStore) conn(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return s.db
}

func (s *TicketStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin", err)
	}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return storeErr("commit", err)
	}
	return nil
}

func (s *TicketStore) Insert(ctx context.Context, t domain.Ticket) (domain.Ticket, error) {
	t.ID = uuid.NewString()
	t.CreatedAt = s.clock.Now().UTC()
	if t.Payload == nil {
		t.Payload = map[string]any{}
	}

	payload, err := encodePayload(t.Payload)
	if err != nil {
		return domain.Ticket{}, storeErr("insert", err)
	}
	_, err = s.conn(ctx).ExecContext(ctx,
		`INSERT INTO tickets (`+ticketColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, nullableTag(t.Tag), formatTime(t.Start), formatTimePtr(t.End), payload, formatTime(t.CreatedAt))
	if err != nil {
		return domain.Ticket{}, storeErr("insert", err)
	}
	return s.FindByID(ctx, t.ID)
}

func (s *TicketStore) FindByID(ctx context.Context, id string) (domain.Ticket, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = ?`, id)
	t, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Ticket{}, domain.ErrTicketNotFound
		}
		return domain.Ticket{}, storeErr("find by id", err)
	}
	return t, nil
}

func (s *TicketStore) Find(ctx context.Context, filter domain.Filter) ([]domain.Ticket, error) {
	where, args := whereClause(filter)
	rows, err := s.conn(ctx).QueryContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets`+where+` ORDER BY created_at, rowid`, args...)
	if err != nil {
		return nil, storeErr("find", err)
	}
	defer rows.Close()

	tickets := []domain.Ticket{}
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, storeErr("find", err)
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("find", err)
	}
	return tickets, nil
}

func (s *TicketStore) Save(ctx context.Context, t domain.Ticket) (domain.Ticket, error) {
	payload, err := encodePayload(t.Payload)
	if err != nil {
		return domain.Ticket{}, storeErr("save", err)
	}
	result, err := s.conn(ctx).ExecContext(ctx,
		`UPDATE tickets SET tag = ?, start_at = ?, end_at = ?, payload = ? WHERE id = ?`,
		nullableTag(t.Tag), formatTime(t.Start), formatTimePtr(t.End), payload, t.ID)
	if err != nil {
		return domain.Ticket{}, storeErr("save", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.Ticket{}, domain.ErrTicketNotFound
	}
	return s.FindByID(ctx, t.ID)
}

func (s *TicketStore) RemoveByID(ctx context.Context, id string) (int64, error) {
	result, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM tickets WHERE id = ?`, id)
	if err != nil {
		return 0, storeErr("remove by id", err)
	}
	return affected("remove by id", result)
}

func (s *TicketStore) RemoveByFilter(ctx context.Context, filter domain.Filter) (int64, error) {
	if filter.IsZero() {
		return 0, storeErr("remove by filter", errors.New("refusing to remove with an empty filter"))
	}
	where, args := whereClause(filter)
	result, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM tickets`+where, args...)
	if err != nil {
		return 0, storeErr("remove by filter", err)
	}
	return affected("remove by filter", result)
}

// --- helpers ---

func whereClause(filter domain.Filter) (string, []any) {
	var conds []string
	var args []any
	if filter.Tag != "" {
		conds = append(conds, "tag = ?")
		args = append(args, filter.Tag)
	}
	if filter.EndAtOrBefore != nil {
		conds = append(conds, "end_at IS NOT NULL AND end_at <= ?")
		args = append(args, formatTime(*filter.EndAtOrBefore))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type scannable interface {
	Scan(dest ...any) error
}

func scanTicket(row scannable) (domain.Ticket, error) {
	var t domain.Ticket
	var tag, endAt sql.NullString
	var startAt, createdAt string
	var payload []byte

	if err := row.Scan(&t.ID, &tag, &startAt, &endAt, &payload, &createdAt); err != nil {
		return domain.Ticket{}, err
	}

	var err error
	t.Tag = tag.String
	if t.Start, err = time.Parse(timeLayout, startAt); err != nil {
		return domain.Ticket{}, fmt.Errorf("parse start_at: %w", err)
	}
	if endAt.Valid {
		end, err := time.Parse(timeLayout, endAt.String)
		if err != nil {
			return domain.Ticket{}, fmt.Errorf("parse end_at: %w", err)
		}
		t.End = &end
	}
	if t.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return domain.Ticket{}, fmt.Errorf("parse created_at: %w", err)
	}
	if t.Payload, err = decodePayload(payload); err != nil {
		return domain.Ticket{}, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func nullableTag(tag string) any {
	if tag == "" {
		return nil
	}
	return tag
}

func affected(op string, result sql.Result) (int64, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return 0, storeErr(op, err)
	}
	return n, nil
}

func storeErr(op string, err error) error {
	return &domain.StoreError{Op: op, Err: err}
}
