package schedule

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/veldclinics/booking-platform/internal/interval"
	"github.com/veldclinics/booking-platform/pkg/logging"
)

// Expander turns shift definitions into concrete per-day instances inside a
// query window, resolving recurring occurrences against their exceptions.
type Expander struct {
	logger *logging.Logger
}

// NewExpander creates a shift expander.
func NewExpander(logger *logging.Logger) *Expander {
	if logger == nil {
		logger = logging.Default()
	}
	return &Expander{logger: logger}
}

type exceptionKey struct {
	parentID uuid.UUID
	date     string
}

func dateKey(t time.Time) string {
	return t.Format(time.DateOnly)
}

// Expand resolves definitions into ordered shift instances within
// window [from, to). Recurring parents produce one candidate occurrence per
// 7-day period aligned to the parent's original weekday and time of day; a
// tombstone exception drops the occurrence, an active exception replaces its
// time and services. One-off shifts inside the window pass through as-is.
//
// Malformed definitions and orphan exceptions are logged and skipped; they
// never fail the whole expansion.
func (e *Expander) Expand(window interval.Interval, defs []ShiftDefinition) []ShiftInstance {
	if !window.IsValid() {
		return nil
	}

	var parents, oneOffs []ShiftDefinition
	exceptions := make(map[exceptionKey]ShiftDefinition)
	parentIDs := make(map[uuid.UUID]bool)

	for _, d := range defs {
		if d.IsException() || !d.IsActive {
			continue
		}
		if err := d.Validate(); err != nil {
			e.logger.Warn("schedule: skipping malformed shift", "error", err)
			continue
		}
		if d.IsRecurring {
			parents = append(parents, d)
			parentIDs[d.ID] = true
		} else {
			oneOffs = append(oneOffs, d)
		}
	}

	for _, d := range defs {
		if !d.IsException() {
			continue
		}
		if !parentIDs[*d.ParentShiftID] {
			e.logger.Warn("schedule: orphan shift exception ignored",
				"exception_id", d.ID,
				"parent_shift_id", *d.ParentShiftID,
				"exception_date", dateKey(*d.ExceptionDate),
			)
			continue
		}
		if !d.IsTombstone() {
			if err := d.Validate(); err != nil {
				e.logger.Warn("schedule: skipping malformed shift exception", "error", err)
				continue
			}
		}
		exceptions[exceptionKey{parentID: *d.ParentShiftID, date: dateKey(*d.ExceptionDate)}] = d
	}

	var instances []ShiftInstance
	for _, parent := range parents {
		instances = append(instances, e.expandRecurring(window, parent, exceptions)...)
	}
	for _, d := range oneOffs {
		if d.StartTime.Before(window.Start) || !d.StartTime.Before(window.End) {
			continue
		}
		instances = append(instances, instanceFrom(d, d.StartTime, d.EndTime))
	}

	sort.Slice(instances, func(i, j int) bool {
		if !instances[i].StartTime.Equal(instances[j].StartTime) {
			return instances[i].StartTime.Before(instances[j].StartTime)
		}
		return instances[i].StaffID.String() < instances[j].StaffID.String()
	})
	return instances
}

func (e *Expander) expandRecurring(window interval.Interval, parent ShiftDefinition, exceptions map[exceptionKey]ShiftDefinition) []ShiftInstance {
	shiftLen := parent.EndTime.Sub(parent.StartTime)

	// Jump close to the window instead of walking week by week from the
	// parent's origin, which may lie years in the past.
	occ := parent.StartTime
	if behind := window.Start.Sub(occ); behind > 0 {
		weeks := int(behind / (7 * 24 * time.Hour))
		occ = occ.AddDate(0, 0, 7*weeks)
	}
	for occ.Before(window.Start) {
		occ = occ.AddDate(0, 0, 7)
	}

	var out []ShiftInstance
	for ; occ.Before(window.End); occ = occ.AddDate(0, 0, 7) {
		key := exceptionKey{parentID: parent.ID, date: dateKey(occ)}
		ex, hasException := exceptions[key]
		if hasException {
			if ex.IsTombstone() {
				continue
			}
			// Active exception: its own id, time and services replace the
			// parent occurrence, so breaks attached to the exception apply.
			out = append(out, instanceFrom(ex, ex.StartTime, ex.EndTime))
			continue
		}
		out = append(out, instanceFrom(parent, occ, occ.Add(shiftLen)))
	}
	return out
}

func instanceFrom(d ShiftDefinition, start, end time.Time) ShiftInstance {
	return ShiftInstance{
		ShiftDefinitionID: d.ID,
		StaffID:           d.StaffID,
		LocationID:        d.LocationID,
		Date:              time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location()),
		StartTime:         start,
		EndTime:           end,
		ServiceIDs:        d.ServiceIDs,
	}
}
