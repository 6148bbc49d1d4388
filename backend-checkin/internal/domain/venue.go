package domain

import "time"

// Venue represents a venue where events are held
type Venue struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

// Event belongs to a venue
type Event struct {
	ID      string `json:"id"`
	VenueID string `json:"venue_id"`
	Name    string `json:"name"`
}

// Session is a scheduled occurrence of an event
type Session struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// Product is an inventory item sold at a venue. A nil Stock means
// the item is not stock-tracked.
type Product struct {
	ID       string `json:"id"`
	VenueID  string `json:"venue_id"`
	Name     string `json:"name"`
	Stock    *int   `json:"stock,omitempty"`
	IsActive bool   `json:"is_active"`
}

// Operator is a gate staff member
type Operator struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}
