package analyzer

import "math"

// OccupancyStatus is the tier reported for a venue's utilization
type OccupancyStatus string

const (
	OccupancyOK      OccupancyStatus = "ok"
	OccupancyWarning OccupancyStatus = "warning"
	OccupancyError   OccupancyStatus = "error"
)

// WarningPercentage is the utilization at which a venue is flagged
const WarningPercentage = 90.0

// Occupancy is the utilization of a venue
type Occupancy struct {
	Capacity       int
	Occupied       int
	Available      int
	Percentage     float64
	IsOverCapacity bool
	Status         OccupancyStatus
}

// ComputeOccupancy derives utilization from capacity and allocated seats.
// Percentage is rounded to two decimals and is 0 when capacity is 0.
func ComputeOccupancy(capacity, occupied int) Occupancy {
	o := Occupancy{
		Capacity:       capacity,
		Occupied:       occupied,
		Available:      max(0, capacity-occupied),
		IsOverCapacity: occupied > capacity,
	}
	if capacity > 0 {
		o.Percentage = math.Round(float64(occupied)/float64(capacity)*100*100) / 100
	}

	switch {
	case o.IsOverCapacity:
		o.Status = OccupancyError
	case o.Percentage >= WarningPercentage:
		o.Status = OccupancyWarning
	default:
		o.Status = OccupancyOK
	}
	return o
}
