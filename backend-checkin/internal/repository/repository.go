package repository

import (
	"context"
	"time"

	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/domain"
)

// Lookups return (nil, nil) when the row does not exist.

// TicketRepository defines ticket reads and the admission-record writes
type TicketRepository interface {
	// FindByCode retrieves a ticket with its display associations by scanner code
	FindByCode(ctx context.Context, code string) (*domain.Ticket, error)
	// ConditionalSetAdmission sets the admission record only if it is still unset.
	// It returns the number of rows changed: 1 on success, 0 if another admission won.
	ConditionalSetAdmission(ctx context.Context, ticketID string, at time.Time, operatorID string) (int64, error)
	// ClearAdmission clears both admission fields if set and returns rows changed
	ClearAdmission(ctx context.Context, ticketID string) (int64, error)
	// ListBySession retrieves every ticket of a session
	ListBySession(ctx context.Context, sessionID string) ([]*domain.Ticket, error)
}

// SessionRepository defines read access to sessions
type SessionRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	ListByEvent(ctx context.Context, eventID string) ([]*domain.Session, error)
	// ListByVenue retrieves sessions of every event held at the venue
	ListByVenue(ctx context.Context, venueID string) ([]*domain.Session, error)
}

// EventRepository defines read access to events
type EventRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	ListByVenue(ctx context.Context, venueID string) ([]*domain.Event, error)
}

// VenueRepository defines read access to venues
type VenueRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Venue, error)
}

// SeatRepository counts allocated seats
type SeatRepository interface {
	CountByVenue(ctx context.Context, venueID string) (int, error)
}

// ProductRepository defines read access to venue inventory
type ProductRepository interface {
	ListActiveByVenue(ctx context.Context, venueID string) ([]*domain.Product, error)
}

// AlertRepository reads alert definitions and stamps their trigger time
type AlertRepository interface {
	GetByID(ctx context.Context, id string) (*domain.AlertDefinition, error)
	ListActiveByVenue(ctx context.Context, venueID string) ([]*domain.AlertDefinition, error)
	MarkTriggered(ctx context.Context, id string, at time.Time) (int64, error)
}

// OperatorRepository resolves operator display names
type OperatorRepository interface {
	// GetDisplayNames returns names keyed by operator id; unknown ids are absent
	GetDisplayNames(ctx context.Context, ids []string) (map[string]string, error)
}
