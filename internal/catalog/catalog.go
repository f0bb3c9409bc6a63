// Package catalog resolves service durations, add-on deltas, repeat types and
// staff capability checks from the collaborator catalog tables.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a catalog row is unknown or inactive.
var ErrNotFound = errors.New("catalog: not found")

// Service fixes the base duration and twin adjustment of a bookable service.
type Service struct {
	ID                  uuid.UUID `json:"id"`
	Name                string    `json:"name"`
	BaseDurationMinutes int       `json:"base_duration_minutes"`
	TwinMultiplier      float64   `json:"twin_multiplier"`
	Active              bool      `json:"active"`
}

// ServiceRepeatType fixes the duration and price of a pre-agreed follow-up
// visit booked through a continuation token.
type ServiceRepeatType struct {
	ID              uuid.UUID `json:"id"`
	ServiceID       uuid.UUID `json:"service_id"`
	Label           string    `json:"label"`
	DurationMinutes int       `json:"duration_minutes"`
	PriceEurCents   int       `json:"price_eur_cents"`
	Active          bool      `json:"active"`
}

// Store reads catalog rows through database/sql.
type Store struct {
	db *sql.DB
}

// NewStore creates a catalog store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Service returns an active service by id.
func (s *Store) Service(ctx context.Context, id uuid.UUID) (*Service, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, base_duration_minutes, twin_multiplier, active
		FROM services
		WHERE id = $1`, id)

	var svc Service
	err := row.Scan(&svc.ID, &svc.Name, &svc.BaseDurationMinutes, &svc.TwinMultiplier, &svc.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: load service: %w", err)
	}
	if !svc.Active {
		return nil, ErrNotFound
	}
	return &svc, nil
}

// AddOnMinutes sums the duration deltas of the selected active add-ons.
// An unknown or inactive add-on id is an ErrNotFound.
func (s *Store) AddOnMinutes(ctx context.Context, addOnIDs []uuid.UUID) (int, error) {
	total := 0
	for _, id := range addOnIDs {
		row := s.db.QueryRowContext(ctx, `
			SELECT duration_minutes
			FROM service_addons
			WHERE id = $1 AND active`, id)

		var minutes int
		err := row.Scan(&minutes)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: add-on %s", ErrNotFound, id)
		}
		if err != nil {
			return 0, fmt.Errorf("catalog: load add-on: %w", err)
		}
		total += minutes
	}
	return total, nil
}

// RepeatType returns an active repeat type by id.
func (s *Store) RepeatType(ctx context.Context, id uuid.UUID) (*ServiceRepeatType, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, service_id, label, duration_minutes, price_eur_cents, active
		FROM service_repeat_types
		WHERE id = $1`, id)

	var rt ServiceRepeatType
	err := row.Scan(&rt.ID, &rt.ServiceID, &rt.Label, &rt.DurationMinutes, &rt.PriceEurCents, &rt.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: load repeat type: %w", err)
	}
	if !rt.Active {
		return nil, ErrNotFound
	}
	return &rt, nil
}

// IsQualified reports whether the staff member is active and qualified for
// the service.
func (s *Store) IsQualified(ctx context.Context, staffID, serviceID uuid.UUID) (bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM staff_qualifications
			WHERE staff_id = $1 AND service_id = $2 AND active
		)`, staffID, serviceID)

	var qualified bool
	if err := row.Scan(&qualified); err != nil {
		return false, fmt.Errorf("catalog: qualification check: %w", err)
	}
	return qualified, nil
}

// IsAssigned reports whether the staff member works at the location.
func (s *Store) IsAssigned(ctx context.Context, staffID, locationID uuid.UUID) (bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM staff_locations
			WHERE staff_id = $1 AND location_id = $2
		)`, staffID, locationID)

	var assigned bool
	if err := row.Scan(&assigned); err != nil {
		return false, fmt.Errorf("catalog: assignment check: %w", err)
	}
	return assigned, nil
}

// VisitDuration resolves the total appointment duration for a service with
// the selected add-ons, applying the twin multiplier when requested and
// rounding the result up to the step cadence.
func VisitDuration(svc *Service, addOnMinutes int, twin bool, step time.Duration) time.Duration {
	minutes := float64(svc.BaseDurationMinutes + addOnMinutes)
	if twin {
		mult := svc.TwinMultiplier
		if mult <= 0 {
			mult = 2
		}
		minutes *= mult
	}
	d := time.Duration(math.Ceil(minutes)) * time.Minute
	if step > 0 {
		if rem := d % step; rem != 0 {
			d += step - rem
		}
	}
	return d
}
