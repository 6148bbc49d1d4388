package service

import (
	"context"
	"time"

	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/domain"
	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/dto"
	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/repository"
	"github.com/prohmpiriya/booking-rush-checkin/pkg/logger"
	"github.com/prohmpiriya/booking-rush-checkin/pkg/telemetry"
	"go.uber.org/zap"
)

const reasonSalesNotEvaluated = "sales alerts are evaluated by the sales pipeline"

// AlertServiceConfig holds the dependencies of the alert service
type AlertServiceConfig struct {
	Alerts       repository.AlertRepository
	Venues       repository.VenueRepository
	Validation   ValidationService
	Publisher    EventPublisher
	Clock        Clock
	StoreTimeout time.Duration
	Metrics      *telemetry.CheckInMetrics
	Logger       *logger.Logger
}

// alertService implements the AlertService interface
type alertService struct {
	alerts       repository.AlertRepository
	venues       repository.VenueRepository
	validation   ValidationService
	publisher    EventPublisher
	clock        Clock
	storeTimeout time.Duration
	metrics      *telemetry.CheckInMetrics
	log          *logger.Logger
}

// NewAlertService creates a new AlertService
func NewAlertService(cfg *AlertServiceConfig) AlertService {
	s := &alertService{
		alerts:       cfg.Alerts,
		venues:       cfg.Venues,
		validation:   cfg.Validation,
		publisher:    cfg.Publisher,
		clock:        cfg.Clock,
		storeTimeout: cfg.StoreTimeout,
		metrics:      cfg.Metrics,
		log:          cfg.Logger,
	}
	if s.clock == nil {
		s.clock = SystemClock()
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	return s
}

// venueFacts memoizes the validation reports needed by one evaluation
type venueFacts struct {
	capacity *dto.CapacityReport
	schedule *dto.ScheduleReport
}

// Evaluate runs the validation behind every active alert of a venue and
// fires the ones whose condition holds
func (s *alertService) Evaluate(ctx context.Context, venueID string) (result *dto.AlertEvaluation, err error) {
	ctx, span := telemetry.StartSpan(ctx, "alert.evaluate", telemetry.VenueIDAttr(venueID))
	defer func() { telemetry.EndSpan(span, err) }()

	venue, err := callStore(ctx, s.storeTimeout, func(ctx context.Context) (*domain.Venue, error) {
		return s.venues.GetByID(ctx, venueID)
	})
	if err != nil {
		return nil, err
	}
	if venue == nil {
		return nil, domain.VenueNotFound()
	}

	alerts, err := callStore(ctx, s.storeTimeout, func(ctx context.Context) ([]*domain.AlertDefinition, error) {
		return s.alerts.ListActiveByVenue(ctx, venueID)
	})
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	result = &dto.AlertEvaluation{
		VenueID:     venueID,
		EvaluatedAt: now,
		Decisions:   make([]dto.AlertDecision, 0, len(alerts)),
	}

	// Decide every alert before firing any, so a failed validation leaves
	// nothing stamped or published
	var facts venueFacts
	for _, a := range alerts {
		decision, err := s.decide(ctx, a, &facts)
		if err != nil {
			return nil, err
		}
		result.Decisions = append(result.Decisions, decision)
	}

	for i, a := range alerts {
		decision := result.Decisions[i]
		if !decision.Fired {
			continue
		}
		if err := s.fire(ctx, a, decision.Observed, false, now); err != nil {
			return nil, err
		}
		result.FiredCount++
	}

	return result, nil
}

// Trigger fires an alert regardless of its condition
func (s *alertService) Trigger(ctx context.Context, alertID string) (result *dto.TriggerResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, "alert.trigger")
	defer func() { telemetry.EndSpan(span, err) }()

	alert, err := callStore(ctx, s.storeTimeout, func(ctx context.Context) (*domain.AlertDefinition, error) {
		return s.alerts.GetByID(ctx, alertID)
	})
	if err != nil {
		return nil, err
	}
	if alert == nil {
		return nil, domain.AlertNotFound()
	}

	now := s.clock.Now()
	if err := s.fire(ctx, alert, 0, true, now); err != nil {
		return nil, err
	}

	return &dto.TriggerResult{AlertID: alertID, TriggeredAt: now}, nil
}

func (s *alertService) decide(ctx context.Context, a *domain.AlertDefinition, facts *venueFacts) (dto.AlertDecision, error) {
	d := dto.AlertDecision{
		AlertID:   a.ID,
		Name:      a.Name,
		Category:  a.Category,
		Threshold: a.Threshold,
	}

	switch a.Category {
	case domain.AlertCategoryCapacity:
		if facts.capacity == nil {
			report, err := s.validation.CheckCapacity(ctx, a.VenueID)
			if err != nil {
				return d, err
			}
			facts.capacity = report
		}
		d.Observed = facts.capacity.Percentage
		d.Fired = facts.capacity.IsOverCapacity || facts.capacity.Percentage >= a.Threshold

	case domain.AlertCategoryStock:
		// the threshold is per alert, so the scan cannot be shared
		report, err := s.validation.CheckStock(ctx, a.VenueID, max(0, int(a.Threshold)))
		if err != nil {
			return d, err
		}
		d.Observed = float64(report.LowStockCount)
		d.Fired = report.LowStockCount > 0

	case domain.AlertCategorySchedule:
		if facts.schedule == nil {
			report, err := s.validation.CheckSchedule(ctx, a.VenueID)
			if err != nil {
				return d, err
			}
			facts.schedule = report
		}
		d.Observed = float64(facts.schedule.ConflictCount)
		d.Fired = d.Observed >= max(1, a.Threshold)

	case domain.AlertCategorySales:
		d.Skipped = true
		d.Reason = reasonSalesNotEvaluated

	default:
		d.Skipped = true
		d.Reason = "unknown alert category"
	}

	return d, nil
}

// fire stamps the alert and hands it to the dispatcher. A vanished alert
// is reported as not found; a publish failure is only logged.
func (s *alertService) fire(ctx context.Context, a *domain.AlertDefinition, observed float64, manual bool, now time.Time) error {
	affected, err := callStore(ctx, s.storeTimeout, func(ctx context.Context) (int64, error) {
		return s.alerts.MarkTriggered(ctx, a.ID, now)
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.AlertNotFound()
	}

	if s.metrics != nil {
		s.metrics.AlertsFired.Inc(ctx, telemetry.AlertCategoryAttr(string(a.Category)))
	}

	if s.publisher == nil {
		return nil
	}
	event := &dto.AlertFiredEvent{
		AlertID:      a.ID,
		VenueID:      a.VenueID,
		Name:         a.Name,
		Category:     a.Category,
		Threshold:    a.Threshold,
		Observed:     observed,
		NotifyEmails: a.NotifyEmails,
		Manual:       manual,
		TriggeredAt:  now,
	}
	if err := s.publisher.PublishAlert(ctx, event); err != nil {
		s.log.WarnContext(ctx, "Failed to publish alert",
			zap.String("alert_id", a.ID),
			zap.String("category", string(a.Category)),
			zap.Error(err),
		)
	}
	return nil
}
