package dto

import (
	"time"

	"github.com/prohmpiriya/booking-rush-checkin/backend-checkin/internal/analyzer"
)

// CapacityReport is the occupancy of a venue
type CapacityReport struct {
	VenueID        string                   `json:"venue_id"`
	VenueName      string                   `json:"venue_name"`
	Capacity       int                      `json:"capacity"`
	Occupied       int                      `json:"occupied"`
	Available      int                      `json:"available"`
	Percentage     float64                  `json:"percentage"`
	IsOverCapacity bool                     `json:"is_over_capacity"`
	Status         analyzer.OccupancyStatus `json:"status"`
}

// NewCapacityReport maps an occupancy computation to its response
func NewCapacityReport(venueID, venueName string, o analyzer.Occupancy) *CapacityReport {
	return &CapacityReport{
		VenueID:        venueID,
		VenueName:      venueName,
		Capacity:       o.Capacity,
		Occupied:       o.Occupied,
		Available:      o.Available,
		Percentage:     o.Percentage,
		IsOverCapacity: o.IsOverCapacity,
		Status:         o.Status,
	}
}

// SessionRef identifies one side of a schedule conflict
type SessionRef struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// ScheduleConflict is a pair of sessions of the same event that overlap
type ScheduleConflict struct {
	EventID        string     `json:"event_id"`
	First          SessionRef `json:"first"`
	Second         SessionRef `json:"second"`
	OverlapMinutes int        `json:"overlap_minutes"`
}

// NewScheduleConflict maps an analyzer overlap for eventID
func NewScheduleConflict(eventID string, o analyzer.Overlap) ScheduleConflict {
	return ScheduleConflict{
		EventID:        eventID,
		First:          sessionRef(o.First),
		Second:         sessionRef(o.Second),
		OverlapMinutes: o.OverlapMinutes,
	}
}

func sessionRef(i analyzer.Interval) SessionRef {
	return SessionRef{ID: i.ID, Name: i.Label, StartTime: i.Start, EndTime: i.End}
}

// ScheduleReport lists overlapping sessions at a venue
type ScheduleReport struct {
	VenueID       string             `json:"venue_id"`
	SessionCount  int                `json:"session_count"`
	ConflictCount int                `json:"conflict_count"`
	Conflicts     []ScheduleConflict `json:"conflicts"`
}

// StockItemView is a low-stock product
type StockItemView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Stock int    `json:"stock"`
}

// StockReport lists active products at or below the threshold
type StockReport struct {
	VenueID       string          `json:"venue_id"`
	Threshold     int             `json:"threshold"`
	LowStockCount int             `json:"low_stock_count"`
	Critical      int             `json:"critical"`
	Items         []StockItemView `json:"items"`
}

// NewStockReport maps a stock scan to its response
func NewStockReport(venueID string, ls analyzer.LowStock) *StockReport {
	items := make([]StockItemView, 0, len(ls.Items))
	for _, it := range ls.Items {
		items = append(items, StockItemView{ID: it.ID, Name: it.Name, Stock: *it.Stock})
	}
	return &StockReport{
		VenueID:       venueID,
		Threshold:     ls.Threshold,
		LowStockCount: len(items),
		Critical:      ls.Critical,
		Items:         items,
	}
}
