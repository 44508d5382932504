package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	cf "github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain/confirmation"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain/tool"
)

// Store implements approvalstore.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const ticketColumns = `id, tool, args, summary, initial, decision, responder, channel, reason, created_at, resolved_at`

// Save inserts a ticket or updates the decision fields of an existing one.
// A ticket that is already terminal in the database is never reopened.
func (s *Store) Save(ctx context.Context, t *cf.Ticket) error {
	const q = `
		INSERT INTO confirmation_tickets (` + ticketColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			decision    = EXCLUDED.decision,
			responder   = EXCLUDED.responder,
			channel     = EXCLUDED.channel,
			reason      = EXCLUDED.reason,
			resolved_at = EXCLUDED.resolved_at,
			updated_at  = now()
		WHERE confirmation_tickets.decision NOT IN ('approved', 'denied')`

	args := t.Call.Args()
	if args == nil {
		args = map[string]any{}
	}
	_, err := s.pool.Exec(ctx, q,
		t.ID, t.Call.Name(), args, t.Summary,
		string(t.Initial), string(t.Decision), t.Responder, string(t.Channel), t.Reason,
		t.CreatedAt, nullTime(t.ResolvedAt),
	)
	if err != nil {
		return fmt.Errorf("save ticket %s: %w", t.ID, err)
	}
	return nil
}

// Get returns a ticket by ID.
func (s *Store) Get(ctx context.Context, id string) (*cf.Ticket, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM confirmation_tickets WHERE id = $1`, id)
	t, err := scanTicket(row)
	if err != nil {
		return nil, notFoundWrap(err, "get ticket %s", id)
	}
	return &t, nil
}

// ListRecent returns up to limit tickets, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]cf.Ticket, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+ticketColumns+` FROM confirmation_tickets ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	var result []cf.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func scanTicket(row scannable) (cf.Ticket, error) {
	var (
		t          cf.Ticket
		name       string
		args       map[string]any
		initial    string
		decision   string
		channel    string
		resolvedAt *time.Time
	)
	err := row.Scan(
		&t.ID, &name, &args, &t.Summary, &initial, &decision,
		&t.Responder, &channel, &t.Reason, &t.CreatedAt, &resolvedAt,
	)
	if err != nil {
		return cf.Ticket{}, err
	}
	t.Call = tool.NewCall(name, args)
	t.Initial = cf.Decision(initial)
	t.Decision = cf.Decision(decision)
	t.Channel = cf.Channel(channel)
	if resolvedAt != nil {
		t.ResolvedAt = *resolvedAt
	}
	return t, nil
}
