package service

import (
	"context"
	"time"

	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/domain"
	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/dto"
)

// CheckInService defines the gate admission operations
type CheckInService interface {
	// Admit marks a sold ticket as used. At most one concurrent call per ticket succeeds.
	Admit(ctx context.Context, ticketCode, operatorID string) (*dto.AdmissionResult, error)
	// Inspect reports whether a ticket could be admitted now without changing it
	Inspect(ctx context.Context, ticketCode string) (*dto.InspectResult, error)
	// Revert clears an admission. Only roles allowed to revert may call it.
	Revert(ctx context.Context, ticketCode, operatorID string, role domain.Role) (*dto.RevertResult, error)
	// SessionStats computes admission progress for a session
	SessionStats(ctx context.Context, sessionID string) (*dto.SessionStats, error)
	// RecentAdmissions lists the latest admissions of a session, newest first
	RecentAdmissions(ctx context.Context, sessionID string, filter *dto.RecentAdmissionsFilter) ([]dto.RecentAdmission, error)
}

// ValidationService defines the venue validation reports
type ValidationService interface {
	// CheckCapacity compares allocated seats with venue capacity
	CheckCapacity(ctx context.Context, venueID string) (*dto.CapacityReport, error)
	// CheckSchedule finds overlapping sessions of the same event at a venue
	CheckSchedule(ctx context.Context, venueID string) (*dto.ScheduleReport, error)
	// CheckStock lists active products at or below threshold
	CheckStock(ctx context.Context, venueID string, threshold int) (*dto.StockReport, error)
}

// AlertService evaluates and triggers venue alerts
type AlertService interface {
	// Evaluate runs the validation behind every active alert of a venue
	Evaluate(ctx context.Context, venueID string) (*dto.AlertEvaluation, error)
	// Trigger fires an alert manually
	Trigger(ctx context.Context, alertID string) (*dto.TriggerResult, error)
}

// EventPublisher delivers domain events to downstream consumers
type EventPublisher interface {
	PublishAdmission(ctx context.Context, event *dto.AdmissionEvent) error
	PublishAlert(ctx context.Context, event *dto.AlertFiredEvent) error
}

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock
func SystemClock() Clock { return systemClock{} }
