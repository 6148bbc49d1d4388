package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/domain"
)

// ticketSelect joins the display associations a gate operator sees
const ticketSelect = `
	SELECT t.id, t.code, t.status::text, t.checked_in_at, t.checked_in_by,
		s.id, s.start_time, s.end_time,
		e.id, e.name, e.venue_id,
		CASE WHEN st.id IS NULL THEN NULL ELSE st.row_label || '-' || st.seat_number END AS seat_label,
		pt.name AS tier_name,
		COALESCE(t.holder_name, ''), COALESCE(t.holder_email, ''), COALESCE(t.holder_phone, '')
	FROM tickets t
	JOIN sessions s ON s.id = t.session_id
	JOIN events e ON e.id = s.event_id
	LEFT JOIN seats st ON st.id = t.seat_id
	LEFT JOIN price_tiers pt ON pt.id = t.price_tier_id`

// PostgresTicketRepository implements TicketRepository using PostgreSQL
type PostgresTicketRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresTicketRepository creates a new PostgresTicketRepository
func NewPostgresTicketRepository(pool *pgxpool.Pool) *PostgresTicketRepository {
	return &PostgresTicketRepository{pool: pool}
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	t := &domain.Ticket{}
	var status string
	err := row.Scan(
		&t.ID,
		&t.Code,
		&status,
		&t.CheckedInAt,
		&t.CheckedInBy,
		&t.SessionID,
		&t.SessionStart,
		&t.SessionEnd,
		&t.EventID,
		&t.EventName,
		&t.VenueID,
		&t.SeatLabel,
		&t.TierName,
		&t.Holder.Name,
		&t.Holder.Email,
		&t.Holder.Phone,
	)
	if err != nil {
		return nil, err
	}
	t.Status = domain.TicketStatus(status)
	return t, nil
}

// FindByCode retrieves a ticket by its scanner code
func (r *PostgresTicketRepository) FindByCode(ctx context.Context, code string) (*domain.Ticket, error) {
	t, err := scanTicket(r.pool.QueryRow(ctx, ticketSelect+` WHERE t.code = $1`, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

// ConditionalSetAdmission writes the admission record in one statement
// guarded by checked_in_at IS NULL, so concurrent admits cannot both land
func (r *PostgresTicketRepository) ConditionalSetAdmission(ctx context.Context, ticketID string, at time.Time, operatorID string) (int64, error) {
	query := `
		UPDATE tickets
		SET checked_in_at = $2, checked_in_by = $3, updated_at = NOW()
		WHERE id = $1 AND checked_in_at IS NULL
	`
	tag, err := r.pool.Exec(ctx, query, ticketID, at, operatorID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ClearAdmission clears both admission fields together
func (r *PostgresTicketRepository) ClearAdmission(ctx context.Context, ticketID string) (int64, error) {
	query := `
		UPDATE tickets
		SET checked_in_at = NULL, checked_in_by = NULL, updated_at = NOW()
		WHERE id = $1 AND checked_in_at IS NOT NULL
	`
	tag, err := r.pool.Exec(ctx, query, ticketID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListBySession retrieves every ticket issued for a session
func (r *PostgresTicketRepository) ListBySession(ctx context.Context, sessionID string) ([]*domain.Ticket, error) {
	rows, err := r.pool.Query(ctx, ticketSelect+` WHERE t.session_id = $1 ORDER BY t.code`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []*domain.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}
