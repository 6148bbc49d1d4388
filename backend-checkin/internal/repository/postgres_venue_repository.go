package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/domain"
)

// PostgresVenueRepository implements the venue-side read repositories
// (venues, events, sessions, seats, products) over one pool
type PostgresVenueRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresVenueRepository creates a new PostgresVenueRepository
func NewPostgresVenueRepository(pool *pgxpool.Pool) *PostgresVenueRepository {
	return &PostgresVenueRepository{pool: pool}
}

// Venues returns the VenueRepository view
func (r *PostgresVenueRepository) Venues() VenueRepository { return postgresVenues{r.pool} }

// Events returns the EventRepository view
func (r *PostgresVenueRepository) Events() EventRepository { return postgresEvents{r.pool} }

// Sessions returns the SessionRepository view
func (r *PostgresVenueRepository) Sessions() SessionRepository { return postgresSessions{r.pool} }

// Seats returns the SeatRepository view
func (r *PostgresVenueRepository) Seats() SeatRepository { return postgresSeats{r.pool} }

// Products returns the ProductRepository view
func (r *PostgresVenueRepository) Products() ProductRepository { return postgresProducts{r.pool} }

type postgresVenues struct{ pool *pgxpool.Pool }

func (r postgresVenues) GetByID(ctx context.Context, id string) (*domain.Venue, error) {
	v := &domain.Venue{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, COALESCE(capacity, 0) FROM venues WHERE id = $1`, id,
	).Scan(&v.ID, &v.Name, &v.Capacity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return v, nil
}

type postgresEvents struct{ pool *pgxpool.Pool }

func (r postgresEvents) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	e := &domain.Event{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, venue_id, name FROM events WHERE id = $1`, id,
	).Scan(&e.ID, &e.VenueID, &e.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return e, nil
}

func (r postgresEvents) ListByVenue(ctx context.Context, venueID string) ([]*domain.Event, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, venue_id, name FROM events WHERE venue_id = $1 ORDER BY name`, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		e := &domain.Event{}
		if err := rows.Scan(&e.ID, &e.VenueID, &e.Name); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

type postgresSessions struct{ pool *pgxpool.Pool }

const sessionColumns = `s.id, s.event_id, COALESCE(s.name, ''), s.start_time, s.end_time`

func scanSessions(rows pgx.Rows) ([]*domain.Session, error) {
	defer rows.Close()

	var sessions []*domain.Session
	for rows.Next() {
		s := &domain.Session{}
		if err := rows.Scan(&s.ID, &s.EventID, &s.Name, &s.StartTime, &s.EndTime); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r postgresSessions) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	s := &domain.Session{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions s WHERE s.id = $1`, id,
	).Scan(&s.ID, &s.EventID, &s.Name, &s.StartTime, &s.EndTime)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

func (r postgresSessions) ListByEvent(ctx context.Context, eventID string) ([]*domain.Session, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM sessions s WHERE s.event_id = $1 ORDER BY s.start_time`, eventID)
	if err != nil {
		return nil, err
	}
	return scanSessions(rows)
}

func (r postgresSessions) ListByVenue(ctx context.Context, venueID string) ([]*domain.Session, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions s
		JOIN events e ON e.id = s.event_id
		WHERE e.venue_id = $1
		ORDER BY s.start_time`, venueID)
	if err != nil {
		return nil, err
	}
	return scanSessions(rows)
}

type postgresSeats struct{ pool *pgxpool.Pool }

func (r postgresSeats) CountByVenue(ctx context.Context, venueID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM seats WHERE venue_id = $1`, venueID).Scan(&n)
	return n, err
}

type postgresProducts struct{ pool *pgxpool.Pool }

func (r postgresProducts) ListActiveByVenue(ctx context.Context, venueID string) ([]*domain.Product, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, venue_id, name, stock, is_active
		FROM products
		WHERE venue_id = $1 AND is_active = TRUE
		ORDER BY name`, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		p := &domain.Product{}
		if err := rows.Scan(&p.ID, &p.VenueID, &p.Name, &p.Stock, &p.IsActive); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
