package dto

import (
	"time"

	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/domain"
)

// AlertDecision is the outcome of evaluating one alert definition
type AlertDecision struct {
	AlertID   string               `json:"alert_id"`
	Name      string               `json:"name"`
	Category  domain.AlertCategory `json:"category"`
	Threshold float64              `json:"threshold"`
	Observed  float64              `json:"observed"`
	Fired     bool                 `json:"fired"`
	Skipped   bool                 `json:"skipped,omitempty"`
	Reason    string               `json:"reason,omitempty"`
}

// AlertEvaluation is the result of evaluating every active alert of a venue
type AlertEvaluation struct {
	VenueID     string          `json:"venue_id"`
	EvaluatedAt time.Time       `json:"evaluated_at"`
	FiredCount  int             `json:"fired_count"`
	Decisions   []AlertDecision `json:"decisions"`
}

// TriggerResult is returned by a manual alert trigger
type TriggerResult struct {
	AlertID     string    `json:"alert_id"`
	TriggeredAt time.Time `json:"triggered_at"`
}

// AlertFiredEvent is handed to the external alert dispatcher
type AlertFiredEvent struct {
	AlertID      string               `json:"alert_id"`
	VenueID      string               `json:"venue_id"`
	Name         string               `json:"name"`
	Category     domain.AlertCategory `json:"category"`
	Threshold    float64              `json:"threshold"`
	Observed     float64              `json:"observed"`
	NotifyEmails []string             `json:"notify_emails"`
	Manual       bool                 `json:"manual"`
	TriggeredAt  time.Time            `json:"triggered_at"`
}
