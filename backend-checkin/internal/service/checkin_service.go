package service

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/domain"
	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/dto"
	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/repository"
	"github.com/prohmpiriya/booking-rush-checkin/pkg/logger"
	"github.com/prohmpiriya/booking-rush-checkin/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const statsRecentLimit = 10

// CheckInServiceConfig holds the dependencies of the check-in service
type CheckInServiceConfig struct {
	Tickets   repository.TicketRepository
	Sessions  repository.SessionRepository
	Operators repository.OperatorRepository

	// Publisher is optional; nil disables event publishing
	Publisher EventPublisher
	Clock     Clock
	// Window nil means domain.DefaultWindowPolicy; a zero-width window is kept as is
	Window       *domain.WindowPolicy
	StoreTimeout time.Duration
	Metrics      *telemetry.CheckInMetrics
	Logger       *logger.Logger
}

// checkInService implements the CheckInService interface
type checkInService struct {
	tickets      repository.TicketRepository
	sessions     repository.SessionRepository
	operators    repository.OperatorRepository
	publisher    EventPublisher
	clock        Clock
	window       domain.WindowPolicy
	storeTimeout time.Duration
	metrics      *telemetry.CheckInMetrics
	log          *logger.Logger
}

// NewCheckInService creates a new CheckInService
func NewCheckInService(cfg *CheckInServiceConfig) CheckInService {
	s := &checkInService{
		tickets:      cfg.Tickets,
		sessions:     cfg.Sessions,
		operators:    cfg.Operators,
		publisher:    cfg.Publisher,
		clock:        cfg.Clock,
		window:       domain.DefaultWindowPolicy(),
		storeTimeout: cfg.StoreTimeout,
		metrics:      cfg.Metrics,
		log:          cfg.Logger,
	}
	if s.clock == nil {
		s.clock = SystemClock()
	}
	if cfg.Window != nil {
		s.window = *cfg.Window
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	return s
}

// Admit marks a sold ticket as used
func (s *checkInService) Admit(ctx context.Context, ticketCode, operatorID string) (result *dto.AdmissionResult, err error) {
	started := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "checkin.admit",
		attribute.String("ticket.code", ticketCode),
		attribute.String("operator.id", operatorID),
	)
	defer func() {
		recordOperation(ctx, s.metrics, "admit", started, err, telemetry.ResultAdmitted)
		s.logOutcome(ctx, "admit", ticketCode, err)
		telemetry.EndSpan(span, err)
	}()

	ticket, err := s.findTicket(ctx, ticketCode)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if rejection := s.evaluate(ticket, now); rejection != nil {
		return nil, rejection
	}

	affected, err := callStore(ctx, s.storeTimeout, func(ctx context.Context) (int64, error) {
		return s.tickets.ConditionalSetAdmission(ctx, ticket.ID, now, operatorID)
	})
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		// Lost the race; report whoever won
		current, err := callStore(ctx, s.storeTimeout, func(ctx context.Context) (*domain.Ticket, error) {
			return s.tickets.FindByCode(ctx, ticketCode)
		})
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, domain.AlreadyCheckedIn(ticket, nil)
		}
		return nil, domain.AlreadyCheckedIn(current, current.Admission())
	}

	ticket.CheckedInAt = &now
	ticket.CheckedInBy = &operatorID
	s.publish(ctx, dto.NewAdmissionEvent(dto.AdmissionEventAdmitted, ticket, operatorID, now))

	return &dto.AdmissionResult{
		Ticket:      dto.NewTicketView(ticket),
		CheckedInAt: now,
		CheckedInBy: operatorID,
	}, nil
}

// Inspect reports whether a ticket could be admitted now
func (s *checkInService) Inspect(ctx context.Context, ticketCode string) (result *dto.InspectResult, err error) {
	started := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "checkin.inspect", attribute.String("ticket.code", ticketCode))
	defer func() {
		recordOperation(ctx, s.metrics, "inspect", started, err, telemetry.ResultSuccess)
		telemetry.EndSpan(span, err)
	}()

	ticket, err := s.findTicket(ctx, ticketCode)
	if err != nil {
		return nil, err
	}

	result = &dto.InspectResult{
		Valid:     true,
		State:     ticket.AdmissionState(),
		Ticket:    dto.NewTicketView(ticket),
		Admission: ticket.Admission(),
		Window:    s.window.WindowFor(ticket.SessionStart),
	}
	if rejection := s.evaluate(ticket, s.clock.Now()); rejection != nil {
		result.Valid = false
		result.Reason = rejection.Code
	}
	return result, nil
}

// Revert clears the admission record of a ticket
func (s *checkInService) Revert(ctx context.Context, ticketCode, operatorID string, role domain.Role) (result *dto.RevertResult, err error) {
	started := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "checkin.revert",
		attribute.String("ticket.code", ticketCode),
		attribute.String("operator.role", string(role)),
	)
	defer func() {
		recordOperation(ctx, s.metrics, "revert", started, err, telemetry.ResultSuccess)
		s.logOutcome(ctx, "revert", ticketCode, err)
		telemetry.EndSpan(span, err)
	}()

	if !role.CanRevertCheckIn() {
		return nil, domain.Forbidden()
	}

	ticket, err := s.findTicket(ctx, ticketCode)
	if err != nil {
		return nil, err
	}
	previous := ticket.Admission()
	if previous == nil {
		return nil, domain.NotCheckedIn(ticket)
	}

	affected, err := callStore(ctx, s.storeTimeout, func(ctx context.Context) (int64, error) {
		return s.tickets.ClearAdmission(ctx, ticket.ID)
	})
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, domain.NotCheckedIn(ticket)
	}

	now := s.clock.Now()
	ticket.CheckedInAt = nil
	ticket.CheckedInBy = nil
	s.publish(ctx, dto.NewAdmissionEvent(dto.AdmissionEventReverted, ticket, operatorID, now))

	return &dto.RevertResult{
		Ticket:            dto.NewTicketView(ticket),
		PreviousAdmission: previous,
		RevertedAt:        now,
	}, nil
}

// SessionStats computes admission progress for a session
func (s *checkInService) SessionStats(ctx context.Context, sessionID string) (result *dto.SessionStats, err error) {
	started := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "checkin.session_stats", telemetry.SessionIDAttr(sessionID))
	defer func() {
		recordOperation(ctx, s.metrics, "session_stats", started, err, telemetry.ResultSuccess)
		telemetry.EndSpan(span, err)
	}()

	tickets, err := s.sessionTickets(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	stats := &dto.SessionStats{SessionID: sessionID, Total: len(tickets)}
	for _, t := range tickets {
		if t.Status != domain.TicketStatusSold {
			continue
		}
		stats.Sold++
		if t.Admission() != nil {
			stats.Admitted++
		}
	}
	stats.Pending = stats.Sold - stats.Admitted
	if stats.Sold > 0 {
		stats.Percentage = int(math.Round(float64(stats.Admitted) / float64(stats.Sold) * 100))
	}

	stats.RecentAdmissions, err = s.recent(ctx, tickets, statsRecentLimit)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// RecentAdmissions lists the latest admissions of a session
func (s *checkInService) RecentAdmissions(ctx context.Context, sessionID string, filter *dto.RecentAdmissionsFilter) (result []dto.RecentAdmission, err error) {
	if filter == nil {
		filter = &dto.RecentAdmissionsFilter{}
	}
	filter.SetDefaults()

	ctx, span := telemetry.StartSpan(ctx, "checkin.recent_admissions", telemetry.SessionIDAttr(sessionID))
	defer func() { telemetry.EndSpan(span, err) }()

	tickets, err := s.sessionTickets(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.recent(ctx, tickets, filter.Limit)
}

func (s *checkInService) findTicket(ctx context.Context, code string) (*domain.Ticket, error) {
	ticket, err := callStore(ctx, s.storeTimeout, func(ctx context.Context) (*domain.Ticket, error) {
		return s.tickets.FindByCode(ctx, code)
	})
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, domain.TicketNotFound()
	}
	return ticket, nil
}

func (s *checkInService) sessionTickets(ctx context.Context, sessionID string) ([]*domain.Ticket, error) {
	session, err := callStore(ctx, s.storeTimeout, func(ctx context.Context) (*domain.Session, error) {
		return s.sessions.GetByID(ctx, sessionID)
	})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, domain.SessionNotFound()
	}

	return callStore(ctx, s.storeTimeout, func(ctx context.Context) ([]*domain.Ticket, error) {
		return s.tickets.ListBySession(ctx, sessionID)
	})
}

// evaluate applies the admission rules in order: void, not sold,
// already admitted, then the time window
func (s *checkInService) evaluate(t *domain.Ticket, now time.Time) *domain.CheckInError {
	switch t.AdmissionState() {
	case domain.StateVoid:
		return domain.TicketVoid(t)
	case domain.StateNotSold:
		return domain.TicketNotSold(t)
	case domain.StateSoldAdmitted:
		return domain.AlreadyCheckedIn(t, t.Admission())
	}

	window := s.window.WindowFor(t.SessionStart)
	if window.Ended(now) {
		return domain.EventEnded(t, window)
	}
	if window.NotStarted(now) {
		return domain.CheckInNotStarted(t, window)
	}
	return nil
}

// recent returns up to limit admitted tickets, newest first, with
// operator display names resolved
func (s *checkInService) recent(ctx context.Context, tickets []*domain.Ticket, limit int) ([]dto.RecentAdmission, error) {
	admitted := make([]*domain.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if t.Admission() != nil {
			admitted = append(admitted, t)
		}
	}
	sort.Slice(admitted, func(i, j int) bool {
		ai, aj := *admitted[i].CheckedInAt, *admitted[j].CheckedInAt
		if !ai.Equal(aj) {
			return ai.After(aj)
		}
		return admitted[i].Code < admitted[j].Code
	})
	if len(admitted) > limit {
		admitted = admitted[:limit]
	}

	out := make([]dto.RecentAdmission, 0, len(admitted))
	if len(admitted) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(admitted))
	seen := make(map[string]bool, len(admitted))
	for _, t := range admitted {
		if id := *t.CheckedInBy; !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	names, err := callStore(ctx, s.storeTimeout, func(ctx context.Context) (map[string]string, error) {
		return s.operators.GetDisplayNames(ctx, ids)
	})
	if err != nil {
		return nil, err
	}

	for _, t := range admitted {
		out = append(out, dto.RecentAdmission{
			TicketCode:   t.Code,
			HolderName:   t.Holder.Name,
			SeatLabel:    t.SeatLabel,
			CheckedInAt:  *t.CheckedInAt,
			OperatorID:   *t.CheckedInBy,
			OperatorName: names[*t.CheckedInBy],
		})
	}
	return out, nil
}

// publish is best effort; the admission is already committed
func (s *checkInService) publish(ctx context.Context, event *dto.AdmissionEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishAdmission(ctx, event); err != nil {
		s.log.WarnContext(ctx, "Failed to publish admission event",
			zap.String("type", string(event.Type)),
			zap.String("ticket_code", event.TicketCode),
			zap.Error(err),
		)
	}
}

func (s *checkInService) logOutcome(ctx context.Context, op, ticketCode string, err error) {
	if err == nil {
		s.log.InfoContext(ctx, "Check-in operation succeeded",
			zap.String("operation", op),
			zap.String("ticket_code", ticketCode),
		)
		return
	}

	fields := []zap.Field{
		zap.String("operation", op),
		zap.String("ticket_code", ticketCode),
	}
	ce, ok := domain.AsCheckInError(err)
	if !ok || ce.Kind == domain.KindTransient {
		s.log.ErrorContext(ctx, "Check-in operation failed", append(fields, zap.Error(err))...)
		return
	}
	s.log.WarnContext(ctx, "Check-in operation rejected", append(fields, zap.String("reason", ce.Code))...)
}
