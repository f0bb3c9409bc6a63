package availability

import (
	"github.com/veldclinics/booking-platform/internal/bookings"
	"github.com/veldclinics/booking-platform/internal/interval"
	"github.com/veldclinics/booking-platform/internal/schedule"
)

// ExclusionInput carries the collaborator rows relevant to one day. Rows are
// pre-fetched for the whole window; scope filtering happens here per shift
// instance.
type ExclusionInput struct {
	Blackouts      []schedule.BlackoutPeriod
	SitewideBreaks []schedule.SitewideBreak
	ShiftBreaks    []schedule.ShiftBreak
	TimeOff        []schedule.TimeOffRequest
	Bookings       []bookings.Booking
}

// Exclusions normalizes every block-out source into one merged interval set
// clipped to the shift instance's own bounds. A single set lets the slot
// generator treat all sources uniformly instead of running five separate
// overlap checks per candidate slot.
func Exclusions(inst schedule.ShiftInstance, in ExclusionInput) []interval.Interval {
	bound := inst.Interval()
	var excluded []interval.Interval

	add := func(iv interval.Interval) {
		if clipped := interval.Clip(iv, bound); clipped.IsValid() {
			excluded = append(excluded, clipped)
		}
	}

	for _, b := range in.Blackouts {
		if b.AppliesTo(inst.LocationID, inst.StaffID) {
			add(interval.Interval{Start: b.StartDate, End: b.EndDate})
		}
	}
	for _, b := range in.SitewideBreaks {
		if b.IsActive {
			add(interval.Interval{Start: b.StartDate, End: b.EndDate})
		}
	}
	for _, b := range in.ShiftBreaks {
		if b.ShiftID == inst.ShiftDefinitionID {
			add(interval.Interval{Start: b.StartTime, End: b.EndTime})
		}
	}
	for _, r := range in.TimeOff {
		if r.Status == schedule.TimeOffApproved && r.StaffID == inst.StaffID {
			add(interval.Interval{Start: r.StartDate, End: r.EndDate})
		}
	}
	for _, b := range in.Bookings {
		if b.Occupies() && b.StaffID == inst.StaffID {
			add(b.Interval())
		}
	}

	return interval.Merge(excluded)
}
