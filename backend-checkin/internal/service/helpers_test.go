package service

import (
	"context"
	"sync"
	"time"

	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/domain"
	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/dto"
	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/repository"
)

var showStart = time.Date(2026, 11, 20, 19, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

type recordingPublisher struct {
	mu         sync.Mutex
	admissions []*dto.AdmissionEvent
	alerts     []*dto.AlertFiredEvent
	err        error
}

func (p *recordingPublisher) PublishAdmission(_ context.Context, event *dto.AdmissionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.admissions = append(p.admissions, event)
	return nil
}

func (p *recordingPublisher) PublishAlert(_ context.Context, event *dto.AlertFiredEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.alerts = append(p.alerts, event)
	return nil
}

func (p *recordingPublisher) Admissions() []*dto.AdmissionEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*dto.AdmissionEvent(nil), p.admissions...)
}

func (p *recordingPublisher) Alerts() []*dto.AlertFiredEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*dto.AlertFiredEvent(nil), p.alerts...)
}

// seedVenue adds venue v-1 with event e-1 and session s-1 starting at showStart
func seedVenue(store *repository.MemoryStore) {
	store.AddVenue(domain.Venue{ID: "v-1", Name: "Grand Hall", Capacity: 100})
	store.AddEvent(domain.Event{ID: "e-1", VenueID: "v-1", Name: "Symphony No. 9"})
	store.AddSession(domain.Session{
		ID:        "s-1",
		EventID:   "e-1",
		Name:      "Evening",
		StartTime: showStart,
		EndTime:   showStart.Add(2 * time.Hour),
	})
}

func soldTicket(id, code string) domain.Ticket {
	seat := "A-" + id
	return domain.Ticket{
		ID:        id,
		Code:      code,
		Status:    domain.TicketStatusSold,
		SessionID: "s-1",
		SeatLabel: &seat,
		Holder:    domain.Holder{Name: "Holder " + id, Email: id + "@example.com"},
	}
}

func admitted(t domain.Ticket, at time.Time, operatorID string) domain.Ticket {
	t.CheckedInAt = &at
	t.CheckedInBy = &operatorID
	return t
}
