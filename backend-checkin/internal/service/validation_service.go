package service

import (
	"context"
	"sort"
	"time"

	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/analyzer"
	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/domain"
	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/dto"
	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/repository"
	"github.com/prohmpiriya/booking-rush-checkin/pkg/telemetry"
)

// Validation kinds
const (
	ValidationCapacity = "capacity"
	ValidationSchedule = "schedule"
	ValidationStock    = "stock"
)

// ValidationServiceConfig holds the dependencies of the validation service
type ValidationServiceConfig struct {
	Venues       repository.VenueRepository
	Sessions     repository.SessionRepository
	Seats        repository.SeatRepository
	Products     repository.ProductRepository
	StoreTimeout time.Duration
	Metrics      *telemetry.CheckInMetrics
}

// validationService implements the ValidationService interface
type validationService struct {
	venues       repository.VenueRepository
	sessions     repository.SessionRepository
	seats        repository.SeatRepository
	products     repository.ProductRepository
	storeTimeout time.Duration
	metrics      *telemetry.CheckInMetrics
}

// NewValidationService creates a new ValidationService
func NewValidationService(cfg *ValidationServiceConfig) ValidationService {
	return &validationService{
		venues:       cfg.Venues,
		sessions:     cfg.Sessions,
		seats:        cfg.Seats,
		products:     cfg.Products,
		storeTimeout: cfg.StoreTimeout,
		metrics:      cfg.Metrics,
	}
}

// CheckCapacity compares allocated seats with venue capacity
func (s *validationService) CheckCapacity(ctx context.Context, venueID string) (report *dto.CapacityReport, err error) {
	ctx, span := telemetry.StartSpan(ctx, "validation.capacity", telemetry.VenueIDAttr(venueID))
	defer func() {
		s.countRun(ctx, ValidationCapacity)
		telemetry.EndSpan(span, err)
	}()

	venue, err := callStore(ctx, s.storeTimeout, func(ctx context.Context) (*domain.Venue, error) {
		return s.venues.GetByID(ctx, venueID)
	})
	if err != nil {
		return nil, err
	}
	if venue == nil {
		return nil, domain.VenueNotFound()
	}

	occupied, err := callStore(ctx, s.storeTimeout, func(ctx context.Context) (int, error) {
		return s.seats.CountByVenue(ctx, venueID)
	})
	if err != nil {
		return nil, err
	}

	return dto.NewCapacityReport(venue.ID, venue.Name, analyzer.ComputeOccupancy(venue.Capacity, occupied)), nil
}

// CheckSchedule finds overlapping sessions of the same event at a venue.
// An unknown venue has no sessions and so no conflicts.
func (s *validationService) CheckSchedule(ctx context.Context, venueID string) (report *dto.ScheduleReport, err error) {
	ctx, span := telemetry.StartSpan(ctx, "validation.schedule", telemetry.VenueIDAttr(venueID))
	defer func() {
		s.countRun(ctx, ValidationSchedule)
		telemetry.EndSpan(span, err)
	}()

	sessions, err := callStore(ctx, s.storeTimeout, func(ctx context.Context) ([]*domain.Session, error) {
		return s.sessions.ListByVenue(ctx, venueID)
	})
	if err != nil {
		return nil, err
	}

	byEvent := make(map[string][]analyzer.Interval)
	for _, sess := range sessions {
		byEvent[sess.EventID] = append(byEvent[sess.EventID], analyzer.Interval{
			ID:    sess.ID,
			Label: sess.Name,
			Start: sess.StartTime,
			End:   sess.EndTime,
		})
	}

	conflicts := make([]dto.ScheduleConflict, 0)
	for eventID, intervals := range byEvent {
		for _, o := range analyzer.DetectOverlaps(intervals) {
			conflicts = append(conflicts, dto.NewScheduleConflict(eventID, o))
		}
	}
	sort.Slice(conflicts, func(i, j int) bool {
		a, b := conflicts[i], conflicts[j]
		sa, sb := earlierStart(a), earlierStart(b)
		if !sa.Equal(sb) {
			return sa.Before(sb)
		}
		if a.First.ID != b.First.ID {
			return a.First.ID < b.First.ID
		}
		return a.Second.ID < b.Second.ID
	})

	return &dto.ScheduleReport{
		VenueID:       venueID,
		SessionCount:  len(sessions),
		ConflictCount: len(conflicts),
		Conflicts:     conflicts,
	}, nil
}

func earlierStart(c dto.ScheduleConflict) time.Time {
	if c.Second.StartTime.Before(c.First.StartTime) {
		return c.Second.StartTime
	}
	return c.First.StartTime
}

// CheckStock lists active products at or below threshold
func (s *validationService) CheckStock(ctx context.Context, venueID string, threshold int) (report *dto.StockReport, err error) {
	ctx, span := telemetry.StartSpan(ctx, "validation.stock", telemetry.VenueIDAttr(venueID))
	defer func() {
		s.countRun(ctx, ValidationStock)
		telemetry.EndSpan(span, err)
	}()

	products, err := callStore(ctx, s.storeTimeout, func(ctx context.Context) ([]*domain.Product, error) {
		return s.products.ListActiveByVenue(ctx, venueID)
	})
	if err != nil {
		return nil, err
	}

	items := make([]analyzer.StockItem, 0, len(products))
	for _, p := range products {
		items = append(items, analyzer.StockItem{ID: p.ID, Name: p.Name, Stock: p.Stock, IsActive: p.IsActive})
	}

	return dto.NewStockReport(venueID, analyzer.ScanLowStock(items, max(0, threshold))), nil
}

func (s *validationService) countRun(ctx context.Context, kind string) {
	if s.metrics == nil {
		return
	}
	s.metrics.ValidationRuns.Inc(ctx, telemetry.ValidationAttr(kind))
}
