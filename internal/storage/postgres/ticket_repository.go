package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ramachandrajr/ticket-boy/internal/domain"
)

const ticketColumns = `id, tag, start_at, end_at, payload, created_at`

type TicketRepository struct {
	pool *pgxpool.Pool
}

func NewTicketRepository(pool *pgxpool.Pool) *TicketRepository {
	return &TicketRepository{pool: pool}
}

func (r *TicketRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *TicketRepository) Insert(ctx context.Context, t domain.Ticket) (domain.Ticket, error) {
	const stmt = `
INSERT INTO tickets (tag, start_at, end_at, payload)
VALUES ($1, $2, $3, $4)
RETURNING ` + ticketColumns

	created, err := scanTicket(r.queryRow(ctx, stmt, nullableTag(t.Tag), t.Start, t.End, payloadOrEmpty(t.Payload)))
	if err != nil {
		return domain.Ticket{}, storeErr("insert", err)
	}
	return created, nil
}

func (r *TicketRepository) FindByID(ctx context.Context, id string) (domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`

	t, err := scanTicket(r.queryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return domain.Ticket{}, domain.ErrTicketNotFound
		}
		return domain.Ticket{}, storeErr("find by id", err)
	}
	return t, nil
}

func (r *TicketRepository) Find(ctx context.Context, filter domain.Filter) ([]domain.Ticket, error) {
	where, args := whereClause(filter)
	query := `SELECT ` + ticketColumns + ` FROM tickets` + where + ` ORDER BY created_at, id`

	rows, err := r.query(ctx, query, args...)
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

func (r *TicketRepository) Save(ctx context.Context, t domain.Ticket) (domain.Ticket, error) {
	const stmt = `
UPDATE tickets
SET tag = $2, start_at = $3, end_at = $4, payload = $5
WHERE id = $1
RETURNING ` + ticketColumns

	saved, err := scanTicket(r.queryRow(ctx, stmt, t.ID, nullableTag(t.Tag), t.Start, t.End, payloadOrEmpty(t.Payload)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return domain.Ticket{}, domain.ErrTicketNotFound
		}
		return domain.Ticket{}, storeErr("save", err)
	}
	return saved, nil
}

func (r *TicketRepository) RemoveByID(ctx context.Context, id string) (int64, error) {
	tag, err := r.exec(ctx, `DELETE FROM tickets WHERE id = $1`, id)
	if err != nil {
		if isInvalidUUID(err) {
			return 0, nil
		}
		return 0, storeErr("remove by id", err)
	}
	return tag.RowsAffected(), nil
}

func (r *TicketRepository) RemoveByFilter(ctx context.Context, filter domain.Filter) (int64, error) {
	if filter.IsZero() {
		return 0, storeErr("remove by filter", errors.New("refusing to remove with an empty filter"))
	}
	where, args := whereClause(filter)

	tag, err := r.exec(ctx, `DELETE FROM tickets`+where, args...)
	if err != nil {
		return 0, storeErr("remove by filter", err)
	}
	return tag.RowsAffected(), nil
}

func whereClause(filter domain.Filter) (string, []any) {
	var conds []string
	var args []any
	if filter.Tag != "" {
		args = append(args, filter.Tag)
		conds = append(conds, fmt.Sprintf("tag = $%d", len(args)))
	}
	if filter.EndAtOrBefore != nil {
		args = append(args, *filter.EndAtOrBefore)
		conds = append(conds, fmt.Sprintf("end_at <= $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanTicket(row pgx.Row) (domain.Ticket, error) {
	var t domain.Ticket
	var tag *string
	var end *time.Time
	if err := row.Scan(&t.ID, &tag, &t.Start, &end, &t.Payload, &t.CreatedAt); err != nil {
		return domain.Ticket{}, err
	}
	if tag != nil {
		t.Tag = *tag
	}
	if end != nil {
		v := end.UTC()
		t.End = &v
	}
	t.Start = t.Start.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
	t.Payload = payloadOrEmpty(t.Payload)
	return t, nil
}

func nullableTag(tag string) *string {
	if tag == "" {
		return nil
	}
	return &tag
}

func payloadOrEmpty(p map[string]any) map[string]any {
	if p == nil {
		return map[string]any{}
	}
	return p
}

func (r *TicketRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *TicketRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *TicketRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
