package availability

import (
	"time"

	"github.com/veldclinics/booking-platform/internal/interval"
	"github.com/veldclinics/booking-platform/internal/schedule"
)

// GenerateParams fixes the slot walk for one shift instance.
type GenerateParams struct {
	// Duration is the full appointment length (base + add-ons, twin-adjusted).
	Duration time.Duration
	// Step is the booking start-time cadence.
	Step time.Duration
	// Now plus MinLeadTime is the earliest start a client may still book.
	Now         time.Time
	MinLeadTime time.Duration
}

// GenerateSlots emits the bookable slots of one shift instance given its
// merged exclusion set. Candidate starts walk each free sub-interval at the
// step cadence; a slot is emitted only when the full duration fits inside the
// same free sub-interval, so no slot ever intersects an exclusion or spans
// two shifts.
func GenerateSlots(inst schedule.ShiftInstance, exclusions []interval.Interval, p GenerateParams) []Slot {
	if p.Duration <= 0 || p.Step <= 0 {
		return nil
	}

	earliest := p.Now.Add(p.MinLeadTime)
	var slots []Slot
	for _, free := range interval.Subtract(inst.Interval(), exclusions) {
		for t := free.Start; !t.Add(p.Duration).After(free.End); t = t.Add(p.Step) {
			if t.Before(earliest) {
				continue
			}
			slots = append(slots, Slot{
				StartTime: t,
				EndTime:   t.Add(p.Duration),
				StaffID:   inst.StaffID,
				ShiftID:   inst.ShiftDefinitionID,
			})
		}
	}
	return slots
}
