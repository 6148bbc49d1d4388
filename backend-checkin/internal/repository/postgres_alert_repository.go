package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/domain"
)

const alertColumns = `id, venue_id, COALESCE(name, ''), category, threshold::float8,
	COALESCE(notify_emails, '{}'), is_active, last_triggered_at`

// PostgresAlertRepository implements AlertRepository using PostgreSQL
type PostgresAlertRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresAlertRepository creates a new PostgresAlertRepository
func NewPostgresAlertRepository(pool *pgxpool.Pool) *PostgresAlertRepository {
	return &PostgresAlertRepository{pool: pool}
}

func scanAlert(row pgx.Row) (*domain.AlertDefinition, error) {
	a := &domain.AlertDefinition{}
	var category string
	err := row.Scan(
		&a.ID,
		&a.VenueID,
		&a.Name,
		&category,
		&a.Threshold,
		&a.NotifyEmails,
		&a.IsActive,
		&a.LastTriggeredAt,
	)
	if err != nil {
		return nil, err
	}
	a.Category = domain.AlertCategory(category)
	return a, nil
}

// GetByID retrieves an alert definition by ID
func (r *PostgresAlertRepository) GetByID(ctx context.Context, id string) (*domain.AlertDefinition, error) {
	a, err := scanAlert(r.pool.QueryRow(ctx, `SELECT `+alertColumns+` FROM alerts WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

// ListActiveByVenue retrieves active alert definitions for a venue
func (r *PostgresAlertRepository) ListActiveByVenue(ctx context.Context, venueID string) ([]*domain.AlertDefinition, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+alertColumns+` FROM alerts WHERE venue_id = $1 AND is_active = TRUE ORDER BY name`, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*domain.AlertDefinition
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// MarkTriggered stamps last_triggered_at
func (r *PostgresAlertRepository) MarkTriggered(ctx context.Context, id string, at time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE alerts SET last_triggered_at = $2, updated_at = NOW() WHERE id = $1`, id, at)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// PostgresOperatorRepository implements OperatorRepository using PostgreSQL
type PostgresOperatorRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresOperatorRepository creates a new PostgresOperatorRepository
func NewPostgresOperatorRepository(pool *pgxpool.Pool) *PostgresOperatorRepository {
	return &PostgresOperatorRepository{pool: pool}
}

// GetDisplayNames resolves display names for the given operator ids
func (r *PostgresOperatorRepository) GetDisplayNames(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id::text, display_name FROM operators WHERE id::text = ANY($1::text[])`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}
