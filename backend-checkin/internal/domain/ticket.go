package domain

import "time"

// TicketStatus mirrors the ticket_status enum in the DB
type TicketStatus string

const (
	TicketStatusSold      TicketStatus = "sold"
	TicketStatusReserved  TicketStatus = "reserved"
	TicketStatusPending   TicketStatus = "pending"
	TicketStatusCancelled TicketStatus = "cancelled"
	TicketStatusRefunded  TicketStatus = "refunded"
)

// IsVoid reports whether the ticket can never be admitted
func (s TicketStatus) IsVoid() bool {
	return s == TicketStatusCancelled || s == TicketStatusRefunded
}

// AdmissionState is the check-in state of a ticket at the instant of a request
type AdmissionState string

const (
	StateSoldNotAdmitted AdmissionState = "SOLD_NOT_ADMITTED"
	StateSoldAdmitted    AdmissionState = "SOLD_ADMITTED"
	StateNotSold         AdmissionState = "NOT_SOLD"
	StateVoid            AdmissionState = "VOID"
)

// Holder is the ticket holder's contact info
type Holder struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Ticket represents one admission right together with the read-only
// associations needed to display it at the gate
type Ticket struct {
	ID          string       `json:"id"`
	Code        string       `json:"code"`
	Status      TicketStatus `json:"status"`
	CheckedInAt *time.Time   `json:"checked_in_at,omitempty"`
	CheckedInBy *string      `json:"checked_in_by,omitempty"`

	SessionID    string    `json:"session_id"`
	SessionStart time.Time `json:"session_start"`
	SessionEnd   time.Time `json:"session_end"`
	EventID      string    `json:"event_id"`
	EventName    string    `json:"event_name"`
	VenueID      string    `json:"venue_id"`
	SeatLabel    *string   `json:"seat_label,omitempty"`
	TierName     *string   `json:"tier_name,omitempty"`
	Holder       Holder    `json:"holder"`
}

// Admission is the (timestamp, operator) pair marking a ticket as used
type Admission struct {
	At         time.Time `json:"checked_in_at"`
	OperatorID string    `json:"checked_in_by"`
}

// Admission returns the admission record, or nil when the ticket has not
// been admitted. A half-set record is treated as absent.
func (t *Ticket) Admission() *Admission {
	if t.CheckedInAt == nil || t.CheckedInBy == nil {
		return nil
	}
	return &Admission{At: *t.CheckedInAt, OperatorID: *t.CheckedInBy}
}

// AdmissionState derives the check-in state from status and admission record
func (t *Ticket) AdmissionState() AdmissionState {
	switch {
	case t.Status.IsVoid():
		return StateVoid
	case t.Status != TicketStatusSold:
		return StateNotSold
	case t.Admission() != nil:
		return StateSoldAdmitted
	default:
		return StateSoldNotAdmitted
	}
}

// WindowPolicy defines how long before and after the session start
// admission is allowed
type WindowPolicy struct {
	Before time.Duration
	After  time.Duration
}

// DefaultWindowPolicy opens the gate 3h before start and closes it 4h after
func DefaultWindowPolicy() WindowPolicy {
	return WindowPolicy{Before: 3 * time.Hour, After: 4 * time.Hour}
}

// AdmissionWindow is the closed interval during which a ticket may be admitted
type AdmissionWindow struct {
	OpensAt  time.Time `json:"opens_at"`
	ClosesAt time.Time `json:"closes_at"`
}

// WindowFor returns the admission window for a session starting at start
func (p WindowPolicy) WindowFor(start time.Time) AdmissionWindow {
	return AdmissionWindow{
		OpensAt:  start.Add(-p.Before),
		ClosesAt: start.Add(p.After),
	}
}

// NotStarted reports whether now is before the window opens
func (w AdmissionWindow) NotStarted(now time.Time) bool {
	return now.Before(w.OpensAt)
}

// Ended reports whether now is after the window closes
func (w AdmissionWindow) Ended(now time.Time) bool {
	return now.After(w.ClosesAt)
}

// Contains reports whether now falls in the window, both ends inclusive
func (w AdmissionWindow) Contains(now time.Time) bool {
	return !w.NotStarted(now) && !w.Ended(now)
}
