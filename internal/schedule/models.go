// Package schedule models staff work shifts and the rows that block them
// out: recurring shift definitions with per-date exceptions, shift breaks,
// blackout periods, sitewide breaks and staff time off.
package schedule

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/veldclinics/booking-platform/internal/interval"
)

// ShiftDefinition is a persisted shift row. A recurring definition repeats
// weekly from its StartTime indefinitely. A row with ParentShiftID and
// ExceptionDate set overrides (or, when inactive with no services, suppresses)
// the parent's occurrence on that one date.
type ShiftDefinition struct {
	ID            uuid.UUID   `json:"id"`
	StaffID       uuid.UUID   `json:"staff_id"`
	LocationID    uuid.UUID   `json:"location_id"`
	StartTime     time.Time   `json:"start_time"`
	EndTime       time.Time   `json:"end_time"`
	IsRecurring   bool        `json:"is_recurring"`
	IsActive      bool        `json:"is_active"`
	ParentShiftID *uuid.UUID  `json:"parent_shift_id,omitempty"`
	ExceptionDate *time.Time  `json:"exception_date,omitempty"`
	ServiceIDs    []uuid.UUID `json:"service_ids"`
}

// IsException reports whether the definition overrides a parent occurrence.
func (d ShiftDefinition) IsException() bool {
	return d.ParentShiftID != nil && d.ExceptionDate != nil
}

// IsTombstone reports whether the exception only suppresses the parent's
// occurrence on the exception date.
func (d ShiftDefinition) IsTombstone() bool {
	return d.IsException() && !d.IsActive && len(d.ServiceIDs) == 0
}

// Validate rejects malformed definitions at the boundary so the expander
// never sees an inverted or midnight-crossing shift.
func (d ShiftDefinition) Validate() error {
	if !d.EndTime.After(d.StartTime) {
		return fmt.Errorf("shift %s: end time %s not after start time %s",
			d.ID, d.EndTime.Format(time.RFC3339), d.StartTime.Format(time.RFC3339))
	}
	sy, sm, sd := d.StartTime.Date()
	ey, em, ed := d.EndTime.Date()
	if sy != ey || sm != em || sd != ed {
		return fmt.Errorf("shift %s: crosses midnight", d.ID)
	}
	return nil
}

// ShiftInstance is one concrete expanded occurrence of a shift on a single
// date. Instances are derived per request and never persisted.
type ShiftInstance struct {
	ShiftDefinitionID uuid.UUID   `json:"shift_definition_id"`
	StaffID           uuid.UUID   `json:"staff_id"`
	LocationID        uuid.UUID   `json:"location_id"`
	Date              time.Time   `json:"date"`
	StartTime         time.Time   `json:"start_time"`
	EndTime           time.Time   `json:"end_time"`
	ServiceIDs        []uuid.UUID `json:"service_ids"`
}

// Interval returns the instance's working interval.
func (si ShiftInstance) Interval() interval.Interval {
	return interval.Interval{Start: si.StartTime, End: si.EndTime}
}

// OffersService reports whether the instance covers the given service.
func (si ShiftInstance) OffersService(serviceID uuid.UUID) bool {
	for _, id := range si.ServiceIDs {
		if id == serviceID {
			return true
		}
	}
	return false
}

// ShiftBreak is a blocked sub-interval within one shift (lunch etc.).
type ShiftBreak struct {
	ID        uuid.UUID `json:"id"`
	ShiftID   uuid.UUID `json:"shift_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// BlackoutPeriod disallows bookings during [StartDate, EndDate). Scope is
// global when both LocationID and StaffID are nil, otherwise it applies only
// to the referenced location and/or staff member.
type BlackoutPeriod struct {
	ID         uuid.UUID  `json:"id"`
	StartDate  time.Time  `json:"start_date"`
	EndDate    time.Time  `json:"end_date"`
	LocationID *uuid.UUID `json:"location_id,omitempty"`
	StaffID    *uuid.UUID `json:"staff_id,omitempty"`
	Reason     string     `json:"reason"`
	IsActive   bool       `json:"is_active"`
}

// AppliesTo reports whether the blackout affects the given location/staff.
func (b BlackoutPeriod) AppliesTo(locationID, staffID uuid.UUID) bool {
	if !b.IsActive {
		return false
	}
	if b.LocationID == nil && b.StaffID == nil {
		return true
	}
	if b.LocationID != nil && *b.LocationID != locationID {
		return false
	}
	if b.StaffID != nil && *b.StaffID != staffID {
		return false
	}
	return true
}

// SitewideBreak closes the whole system during [StartDate, EndDate), for
// holidays and clinic-wide closures.
type SitewideBreak struct {
	ID        uuid.UUID `json:"id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	IsActive  bool      `json:"is_active"`
}

// TimeOffStatus is the approval state of a time-off request.
type TimeOffStatus string

const (
	TimeOffPending  TimeOffStatus = "pending"
	TimeOffApproved TimeOffStatus = "approved"
	TimeOffRejected TimeOffStatus = "rejected"
)

// TimeOffRequest blocks a staff member's time when approved. Pending and
// rejected requests never exclude anything.
type TimeOffRequest struct {
	ID        uuid.UUID     `json:"id"`
	StaffID   uuid.UUID     `json:"staff_id"`
	StartDate time.Time     `json:"start_date"`
	EndDate   time.Time     `json:"end_date"`
	Status    TimeOffStatus `json:"status"`
}
