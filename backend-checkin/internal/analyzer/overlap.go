package analyzer

import (
	"math"
	"sort"
	"time"
)

// Interval is a tagged time span, typically a session
type Interval struct {
	ID    string
	Label string
	Start time.Time
	End   time.Time
}

// Overlap describes two intervals sharing an open sub-interval.
// First always has the smaller ID.
type Overlap struct {
	First          Interval
	Second         Interval
	OverlapMinutes int
}

// DetectOverlaps returns every pair of intervals that strictly overlap.
// Intervals that only touch at an endpoint do not overlap. Each pair is
// reported once, ordered by the earlier interval's start.
//
// The scan is O(n²). That is fine for the handful of sessions one event
// has; callers must scope the input to a single event.
//
// Intervals with End <= Start are not repaired and can yield a
// negative OverlapMinutes.
func DetectOverlaps(intervals []Interval) []Overlap {
	var out []Overlap

	for i := 0; i < len(intervals); i++ {
		for j := i + 1; j < len(intervals); j++ {
			a, b := intervals[i], intervals[j]
			if a.ID == b.ID {
				continue
			}
			if b.ID < a.ID {
				a, b = b, a
			}
			if !(a.Start.Before(b.End) && a.End.After(b.Start)) {
				continue
			}
			out = append(out, Overlap{
				First:          a,
				Second:         b,
				OverlapMinutes: overlapMinutes(a, b),
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		si, sj := earlierStart(out[i]), earlierStart(out[j])
		if !si.Equal(sj) {
			return si.Before(sj)
		}
		if out[i].First.ID != out[j].First.ID {
			return out[i].First.ID < out[j].First.ID
		}
		return out[i].Second.ID < out[j].Second.ID
	})

	return out
}

func overlapMinutes(a, b Interval) int {
	end := a.End
	if b.End.Before(end) {
		end = b.End
	}
	start := a.Start
	if b.Start.After(start) {
		start = b.Start
	}
	return int(math.Round(end.Sub(start).Minutes()))
}

func earlierStart(o Overlap) time.Time {
	if o.Second.Start.Before(o.First.Start) {
		return o.Second.Start
	}
	return o.First.Start
}
