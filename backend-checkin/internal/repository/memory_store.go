package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/domain"
)

// MemoryStore is an in-memory implementation of every repository for
// tests and local runs. The admission writes are compare-and-set under
// the store mutex, matching the conditional UPDATE of the Postgres store.
type MemoryStore struct {
	mu        sync.RWMutex
	venues    map[string]*domain.Venue
	events    map[string]*domain.Event
	sessions  map[string]*domain.Session
	seats     map[string]int // venueID -> seat count
	products  map[string]*domain.Product
	tickets   map[string]*domain.Ticket
	byCode    map[string]string // code -> ticketID
	alerts    map[string]*domain.AlertDefinition
	operators map[string]string

	// failure injection
	failErr error
	delay   time.Duration
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		venues:    make(map[string]*domain.Venue),
		events:    make(map[string]*domain.Event),
		sessions:  make(map[string]*domain.Session),
		seats:     make(map[string]int),
		products:  make(map[string]*domain.Product),
		tickets:   make(map[string]*domain.Ticket),
		byCode:    make(map[string]string),
		alerts:    make(map[string]*domain.AlertDefinition),
		operators: make(map[string]string),
	}
}

// FailWith makes every subsequent call return err; nil restores normal behaviour
func (s *MemoryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}

// SetDelay makes every call wait d or until its context is done
func (s *MemoryStore) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

func (s *MemoryStore) before(ctx context.Context) error {
	s.mu.RLock()
	failErr, delay := s.failErr, s.delay
	s.mu.RUnlock()

	if failErr != nil {
		return failErr
	}
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return ctx.Err()
}

// Seeding

func (s *MemoryStore) AddVenue(v domain.Venue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.venues[v.ID] = &v
}

func (s *MemoryStore) AddEvent(e domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[e.ID] = &e
}

func (s *MemoryStore) AddSession(sess domain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = &sess
}

// SetSeatCount sets the number of seats allocated at a venue
func (s *MemoryStore) SetSeatCount(venueID string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seats[venueID] = n
}

func (s *MemoryStore) AddProduct(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = copyProduct(&p)
}

// AddTicket stores a ticket. Session, event and venue fields are filled
// from the stored session on read, like the Postgres join.
func (s *MemoryStore) AddTicket(t domain.Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets[t.ID] = copyTicket(&t)
	s.byCode[t.Code] = t.ID
}

func (s *MemoryStore) AddAlert(a domain.AlertDefinition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts[a.ID] = copyAlert(&a)
}

func (s *MemoryStore) AddOperator(op domain.Operator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.operators[op.ID] = op.DisplayName
}

// Repository views

func (s *MemoryStore) Tickets() TicketRepository     { return memoryTickets{s} }
func (s *MemoryStore) Sessions() SessionRepository   { return memorySessions{s} }
func (s *MemoryStore) Events() EventRepository       { return memoryEvents{s} }
func (s *MemoryStore) Venues() VenueRepository       { return memoryVenues{s} }
func (s *MemoryStore) Seats() SeatRepository         { return memorySeats{s} }
func (s *MemoryStore) Products() ProductRepository   { return memoryProducts{s} }
func (s *MemoryStore) Alerts() AlertRepository       { return memoryAlerts{s} }
func (s *MemoryStore) Operators() OperatorRepository { return memoryOperators{s} }

// hydrate returns a copy of t joined with its session and event. Caller holds the lock.
func (s *MemoryStore) hydrate(t *domain.Ticket) *domain.Ticket {
	out := copyTicket(t)
	if sess, ok := s.sessions[t.SessionID]; ok {
		out.SessionStart = sess.StartTime
		out.SessionEnd = sess.EndTime
		out.EventID = sess.EventID
		if ev, ok := s.events[sess.EventID]; ok {
			out.EventName = ev.Name
			out.VenueID = ev.VenueID
		}
	}
	return out
}

type memoryTickets struct{ s *MemoryStore }

func (r memoryTickets) FindByCode(ctx context.Context, code string) (*domain.Ticket, error) {
	if err := r.s.before(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.byCode[code]
	if !ok {
		return nil, nil
	}
	return r.s.hydrate(r.s.tickets[id]), nil
}

func (r memoryTickets) ConditionalSetAdmission(ctx context.Context, ticketID string, at time.Time, operatorID string) (int64, error) {
	if err := r.s.before(ctx); err != nil {
		return 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tickets[ticketID]
	if !ok || t.CheckedInAt != nil {
		return 0, nil
	}
	t.CheckedInAt = &at
	t.CheckedInBy = &operatorID
	return 1, nil
}

func (r memoryTickets) ClearAdmission(ctx context.Context, ticketID string) (int64, error) {
	if err := r.s.before(ctx); err != nil {
		return 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tickets[ticketID]
	if !ok || t.CheckedInAt == nil {
		return 0, nil
	}
	t.CheckedInAt = nil
	t.CheckedInBy = nil
	return 1, nil
}

func (r memoryTickets) ListBySession(ctx context.Context, sessionID string) ([]*domain.Ticket, error) {
	if err := r.s.before(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*domain.Ticket
	for _, t := range r.s.tickets {
		if t.SessionID == sessionID {
			out = append(out, r.s.hydrate(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

type memorySessions struct{ s *MemoryStore }

func (r memorySessions) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	if err := r.s.before(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sess, ok := r.s.sessions[id]
	if !ok {
		return nil, nil
	}
	c := *sess
	return &c, nil
}

func (r memorySessions) ListByEvent(ctx context.Context, eventID string) ([]*domain.Session, error) {
	if err := r.s.before(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.sessionsWhere(func(sess *domain.Session) bool { return sess.EventID == eventID }), nil
}

func (r memorySessions) ListByVenue(ctx context.Context, venueID string) ([]*domain.Session, error) {
	if err := r.s.before(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.sessionsWhere(func(sess *domain.Session) bool {
		ev, ok := r.s.events[sess.EventID]
		return ok && ev.VenueID == venueID
	}), nil
}

// sessionsWhere returns matching sessions ordered by start. Caller holds the lock.
func (s *MemoryStore) sessionsWhere(match func(*domain.Session) bool) []*domain.Session {
	var out []*domain.Session
	for _, sess := range s.sessions {
		if match(sess) {
			c := *sess
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

type memoryEvents struct{ s *MemoryStore }

func (r memoryEvents) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if err := r.s.before(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ev, ok := r.s.events[id]
	if !ok {
		return nil, nil
	}
	c := *ev
	return &c, nil
}

func (r memoryEvents) ListByVenue(ctx context.Context, venueID string) ([]*domain.Event, error) {
	if err := r.s.before(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*domain.Event
	for _, ev := range r.s.events {
		if ev.VenueID == venueID {
			c := *ev
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type memoryVenues struct{ s *MemoryStore }

func (r memoryVenues) GetByID(ctx context.Context, id string) (*domain.Venue, error) {
	if err := r.s.before(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	v, ok := r.s.venues[id]
	if !ok {
		return nil, nil
	}
	c := *v
	return &c, nil
}

type memorySeats struct{ s *MemoryStore }

func (r memorySeats) CountByVenue(ctx context.Context, venueID string) (int, error) {
	if err := r.s.before(ctx); err != nil {
		return 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.seats[venueID], nil
}

type memoryProducts struct{ s *MemoryStore }

func (r memoryProducts) ListActiveByVenue(ctx context.Context, venueID string) ([]*domain.Product, error) {
	if err := r.s.before(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*domain.Product
	for _, p := range r.s.products {
		if p.VenueID == venueID && p.IsActive {
			out = append(out, copyProduct(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type memoryAlerts struct{ s *MemoryStore }

func (r memoryAlerts) GetByID(ctx context.Context, id string) (*domain.AlertDefinition, error) {
	if err := r.s.before(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.alerts[id]
	if !ok {
		return nil, nil
	}
	return copyAlert(a), nil
}

func (r memoryAlerts) ListActiveByVenue(ctx context.Context, venueID string) ([]*domain.AlertDefinition, error) {
	if err := r.s.before(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*domain.AlertDefinition
	for _, a := range r.s.alerts {
		if a.VenueID == venueID && a.IsActive {
			out = append(out, copyAlert(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r memoryAlerts) MarkTriggered(ctx context.Context, id string, at time.Time) (int64, error) {
	if err := r.s.before(ctx); err != nil {
		return 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.alerts[id]
	if !ok {
		return 0, nil
	}
	a.LastTriggeredAt = &at
	return 1, nil
}

type memoryOperators struct{ s *MemoryStore }

func (r memoryOperators) GetDisplayNames(ctx context.Context, ids []string) (map[string]string, error) {
	if err := r.s.before(ctx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	names := make(map[string]string, len(ids))
	for _, id := range ids {
		if name, ok := r.s.operators[id]; ok {
			names[id] = name
		}
	}
	return names, nil
}

func copyTicket(t *domain.Ticket) *domain.Ticket {
	c := *t
	if t.CheckedInAt != nil {
		at := *t.CheckedInAt
		c.CheckedInAt = &at
	}
	if t.CheckedInBy != nil {
		by := *t.CheckedInBy
		c.CheckedInBy = &by
	}
	if t.SeatLabel != nil {
		seat := *t.SeatLabel
		c.SeatLabel = &seat
	}
	if t.TierName != nil {
		tier := *t.TierName
		c.TierName = &tier
	}
	return &c
}

func copyProduct(p *domain.Product) *domain.Product {
	c := *p
	if p.Stock != nil {
		stock := *p.Stock
		c.Stock = &stock
	}
	return &c
}

func copyAlert(a *domain.AlertDefinition) *domain.AlertDefinition {
	c := *a
	c.NotifyEmails = append([]string(nil), a.NotifyEmails...)
	if a.LastTriggeredAt != nil {
		at := *a.LastTriggeredAt
		c.LastTriggeredAt = &at
	}
	return &c
}
