package domain

import "time"

// AlertCategory is the condition an alert watches
type AlertCategory string

const (
	AlertCategoryCapacity AlertCategory = "capacity"
	AlertCategorySales    AlertCategory = "sales"
	AlertCategoryStock    AlertCategory = "stock"
	AlertCategorySchedule AlertCategory = "schedule"
)

// IsValid checks the category against the known set
func (c AlertCategory) IsValid() bool {
	switch c {
	case AlertCategoryCapacity, AlertCategorySales, AlertCategoryStock, AlertCategorySchedule:
		return true
	}
	return false
}

// AlertDefinition is owned by the alerting side; this service only
// reads it and stamps LastTriggeredAt
type AlertDefinition struct {
	ID              string        `json:"id"`
	VenueID         string        `json:"venue_id"`
	Name            string        `json:"name"`
	Category        AlertCategory `json:"category"`
	Threshold       float64       `json:"threshold"`
	NotifyEmails    []string      `json:"notify_emails"`
	IsActive        bool          `json:"is_active"`
	LastTriggeredAt *time.Time    `json:"last_triggered_at,omitempty"`
}
