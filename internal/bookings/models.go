// Package bookings reads existing bookings as an availability exclusion
// source and creates new ones behind the database uniqueness guard.
package bookings

import (
	"time"

	"github.com/google/uuid"

	"github.com/veldclinics/booking-platform/internal/interval"
)

// Status is the lifecycle state of a booking. Any status other than
// cancelled occupies the booking's interval exclusively for its staff member.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Booking is a persisted appointment row.
type Booking struct {
	ID              uuid.UUID  `json:"id"`
	StaffID         uuid.UUID  `json:"staff_id"`
	LocationID      uuid.UUID  `json:"location_id"`
	ServiceID       uuid.UUID  `json:"service_id"`
	StartsAt        time.Time  `json:"starts_at"`
	EndsAt          time.Time  `json:"ends_at"`
	Status          Status     `json:"status"`
	ParentBookingID *uuid.UUID `json:"parent_booking_id,omitempty"`
	ContinuationID  *uuid.UUID `json:"continuation_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Occupies reports whether the booking blocks its interval.
func (b Booking) Occupies() bool {
	return b.Status != StatusCancelled
}

// Interval returns the booked time range.
func (b Booking) Interval() interval.Interval {
	return interval.Interval{Start: b.StartsAt, End: b.EndsAt}
}
