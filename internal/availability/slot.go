// Package availability computes concrete bookable slots from expanded shift
// instances, exclusion rows and service durations, and aggregates them into
// per-day heatmaps. Results are memoized in a short-TTL cache.
package availability

import (
	"time"

	"github.com/google/uuid"

	"github.com/veldclinics/booking-platform/internal/interval"
)

// Slot is one concrete bookable start/end offered to a client for a staff
// member. Equality is by (StaffID, StartTime).
type Slot struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	StaffID   uuid.UUID `json:"staff_id"`
	ShiftID   uuid.UUID `json:"shift_id"`
}

// Interval returns the slot's time range.
func (s Slot) Interval() interval.Interval {
	return interval.Interval{Start: s.StartTime, End: s.EndTime}
}
