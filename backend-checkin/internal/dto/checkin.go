package dto

import (
	"strings"
	"time"

	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/domain"
)

// CheckInRequest represents a gate scan
type CheckInRequest struct {
	TicketCode string `json:"ticket_code" binding:"required"`
}

// Validate validates the CheckInRequest
func (r *CheckInRequest) Validate() (bool, string) {
	r.TicketCode = strings.TrimSpace(r.TicketCode)
	if r.TicketCode == "" {
		return false, "Ticket code is required"
	}
	if len(r.TicketCode) > 128 {
		return false, "Ticket code is too long"
	}
	return true, ""
}

// TicketView is the display payload shown to the operator for a ticket
type TicketView struct {
	ID           string              `json:"id"`
	Code         string              `json:"code"`
	Status       domain.TicketStatus `json:"status"`
	EventID      string              `json:"event_id"`
	EventName    string              `json:"event_name"`
	SessionID    string              `json:"session_id"`
	SessionStart time.Time           `json:"session_start"`
	SeatLabel    *string             `json:"seat_label,omitempty"`
	TierName     *string             `json:"tier_name,omitempty"`
	Holder       domain.Holder       `json:"holder"`
}

// NewTicketView builds the display payload for t
func NewTicketView(t *domain.Ticket) *TicketView {
	if t == nil {
		return nil
	}
	return &TicketView{
		ID:           t.ID,
		Code:         t.Code,
		Status:       t.Status,
		EventID:      t.EventID,
		EventName:    t.EventName,
		SessionID:    t.SessionID,
		SessionStart: t.SessionStart,
		SeatLabel:    t.SeatLabel,
		TierName:     t.TierName,
		Holder:       t.Holder,
	}
}

// AdmissionResult is returned by a successful admit
type AdmissionResult struct {
	Ticket      *TicketView `json:"ticket"`
	CheckedInAt time.Time   `json:"checked_in_at"`
	CheckedInBy string      `json:"checked_in_by"`
}

// InspectResult is the read-only pre-flight view of a ticket.
// Reason is empty when Valid is true.
type InspectResult struct {
	Valid     bool                   `json:"valid"`
	Reason    string                 `json:"reason,omitempty"`
	State     domain.AdmissionState  `json:"state"`
	Ticket    *TicketView            `json:"ticket"`
	Admission *domain.Admission      `json:"admission,omitempty"`
	Window    domain.AdmissionWindow `json:"window"`
}

// RevertResult is returned after an admission was cleared
type RevertResult struct {
	Ticket            *TicketView       `json:"ticket"`
	PreviousAdmission *domain.Admission `json:"previous_admission,omitempty"`
	RevertedAt        time.Time         `json:"reverted_at"`
}

// RecentAdmission is one row of a session's admission feed
type RecentAdmission struct {
	TicketCode   string    `json:"ticket_code"`
	HolderName   string    `json:"holder_name"`
	SeatLabel    *string   `json:"seat_label,omitempty"`
	CheckedInAt  time.Time `json:"checked_in_at"`
	OperatorID   string    `json:"operator_id"`
	OperatorName string    `json:"operator_name,omitempty"`
}

// SessionStats is the admission progress of one session
type SessionStats struct {
	SessionID        string            `json:"session_id"`
	Total            int               `json:"total"`
	Sold             int               `json:"sold"`
	Admitted         int               `json:"admitted"`
	Pending          int               `json:"pending"`
	Percentage       int               `json:"percentage"`
	RecentAdmissions []RecentAdmission `json:"recent_admissions"`
}

// RecentAdmissionsFilter bounds the admission feed
type RecentAdmissionsFilter struct {
	Limit int `form:"limit"`
}

// SetDefaults sets default values for the filter
func (f *RecentAdmissionsFilter) SetDefaults() {
	if f.Limit <= 0 {
		f.Limit = 10
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
}

// AdmissionEventType distinguishes admission events on the bus
type AdmissionEventType string

const (
	AdmissionEventAdmitted AdmissionEventType = "checkin.admitted"
	AdmissionEventReverted AdmissionEventType = "checkin.reverted"
)

// AdmissionEvent is published after an admission is set or cleared
type AdmissionEvent struct {
	Type       AdmissionEventType `json:"type"`
	TicketID   string             `json:"ticket_id"`
	TicketCode string             `json:"ticket_code"`
	SessionID  string             `json:"session_id"`
	EventID    string             `json:"event_id"`
	VenueID    string             `json:"venue_id"`
	HolderName string             `json:"holder_name,omitempty"`
	SeatLabel  *string            `json:"seat_label,omitempty"`
	OperatorID string             `json:"operator_id"`
	OccurredAt time.Time          `json:"occurred_at"`
}

// NewAdmissionEvent builds an event for t performed by operatorID at at
func NewAdmissionEvent(typ AdmissionEventType, t *domain.Ticket, operatorID string, at time.Time) *AdmissionEvent {
	return &AdmissionEvent{
		Type:       typ,
		TicketID:   t.ID,
		TicketCode: t.Code,
		SessionID:  t.SessionID,
		EventID:    t.EventID,
		VenueID:    t.VenueID,
		HolderName: t.Holder.Name,
		SeatLabel:  t.SeatLabel,
		OperatorID: operatorID,
		OccurredAt: at,
	}
}
