package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/veldclinics/booking-platform/internal/interval"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store reads shift definitions and exclusion rows.
type Store struct {
	db DB
}

// NewStore creates a schedule store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

const shiftColumns = `id, staff_id, location_id, start_time, end_time, is_recurring, is_active, parent_shift_id, exception_date`

// ListDefinitions returns the shift definitions relevant to a location and
// window: recurring parents that started before the window's end, one-off
// shifts inside the window, and exceptions dated inside the window. Service
// ids are resolved from the shift_services join table.
func (s *Store) ListDefinitions(ctx context.Context, locationID uuid.UUID, staffID *uuid.UUID, window interval.Interval) ([]ShiftDefinition, error) {
	relevance := `(
		(is_recurring AND parent_shift_id IS NULL AND start_time < $2)
		OR (NOT is_recurring AND parent_shift_id IS NULL AND start_time >= $3 AND start_time < $2)
		OR (parent_shift_id IS NOT NULL AND exception_date >= $3 AND exception_date < $2)
	)`

	var rows pgx.Rows
	var err error
	if staffID != nil {
		rows, err = s.db.Query(ctx, `
			SELECT `+shiftColumns+`
			FROM shift_definitions
			WHERE location_id = $1 AND staff_id = $4 AND `+relevance+`
			ORDER BY start_time ASC`,
			locationID, window.End, window.Start, *staffID)
	} else {
		rows, err = s.db.Query(ctx, `
			SELECT `+shiftColumns+`
			FROM shift_definitions
			WHERE location_id = $1 AND `+relevance+`
			ORDER BY start_time ASC`,
			locationID, window.End, window.Start)
	}
	if err != nil {
		return nil, fmt.Errorf("schedule: list definitions: %w", err)
	}
	defer rows.Close()

	defs, err := scanDefinitions(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachServiceIDs(ctx, defs); err != nil {
		return nil, err
	}
	return defs, nil
}

func (s *Store) attachServiceIDs(ctx context.Context, defs []ShiftDefinition) error {
	if len(defs) == 0 {
		return nil
	}
	ids := make([]string, len(defs))
	index := make(map[uuid.UUID]int, len(defs))
	for i, d := range defs {
		ids[i] = d.ID.String()
		index[d.ID] = i
	}

	rows, err := s.db.Query(ctx, `
		SELECT shift_id, service_id
		FROM shift_services
		WHERE shift_id = ANY($1::uuid[])
		ORDER BY shift_id, service_id`, ids)
	if err != nil {
		return fmt.Errorf("schedule: list shift services: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var shiftID, serviceID uuid.UUID
		if err := rows.Scan(&shiftID, &serviceID); err != nil {
			return fmt.Errorf("schedule: scan shift service: %w", err)
		}
		if i, ok := index[shiftID]; ok {
			defs[i].ServiceIDs = append(defs[i].ServiceIDs, serviceID)
		}
	}
	return rows.Err()
}

// ListBreaks returns the breaks attached to the given shift definitions.
func (s *Store) ListBreaks(ctx context.Context, shiftIDs []uuid.UUID) ([]ShiftBreak, error) {
	if len(shiftIDs) == 0 {
		return nil, nil
	}
	ids := make([]string, len(shiftIDs))
	for i, id := range shiftIDs {
		ids[i] = id.String()
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, shift_id, start_time, end_time
		FROM shift_breaks
		WHERE shift_id = ANY($1::uuid[])
		ORDER BY start_time ASC`, ids)
	if err != nil {
		return nil, fmt.Errorf("schedule: list breaks: %w", err)
	}
	defer rows.Close()

	var result []ShiftBreak
	for rows.Next() {
		var b ShiftBreak
		if err := rows.Scan(&b.ID, &b.ShiftID, &b.StartTime, &b.EndTime); err != nil {
			return nil, fmt.Errorf("schedule: scan break: %w", err)
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

// ListBlackouts returns active blackout periods overlapping the window,
// regardless of scope. Scope filtering happens per shift instance.
func (s *Store) ListBlackouts(ctx context.Context, window interval.Interval) ([]BlackoutPeriod, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, start_date, end_date, location_id, staff_id, reason, is_active
		FROM blackout_periods
		WHERE is_active AND start_date < $1 AND end_date > $2
		ORDER BY start_date ASC`, window.End, window.Start)
	if err != nil {
		return nil, fmt.Errorf("schedule: list blackouts: %w", err)
	}
	defer rows.Close()

	var result []BlackoutPeriod
	for rows.Next() {
		var b BlackoutPeriod
		if err := rows.Scan(&b.ID, &b.StartDate, &b.EndDate, &b.LocationID, &b.StaffID, &b.Reason, &b.IsActive); err != nil {
			return nil, fmt.Errorf("schedule: scan blackout: %w", err)
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

// ListSitewideBreaks returns active sitewide closures overlapping the window.
func (s *Store) ListSitewideBreaks(ctx context.Context, window interval.Interval) ([]SitewideBreak, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, start_date, end_date, is_active
		FROM sitewide_breaks
		WHERE is_active AND start_date < $1 AND end_date > $2
		ORDER BY start_date ASC`, window.End, window.Start)
	if err != nil {
		return nil, fmt.Errorf("schedule: list sitewide breaks: %w", err)
	}
	defer rows.Close()

	var result []SitewideBreak
	for rows.Next() {
		var b SitewideBreak
		if err := rows.Scan(&b.ID, &b.StartDate, &b.EndDate, &b.IsActive); err != nil {
			return nil, fmt.Errorf("schedule: scan sitewide break: %w", err)
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

// ListApprovedTimeOff returns approved time-off requests overlapping the
// window for any staff member. Only approved requests exclude time.
func (s *Store) ListApprovedTimeOff(ctx context.Context, window interval.Interval) ([]TimeOffRequest, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, staff_id, start_date, end_date, status
		FROM time_off_requests
		WHERE status = 'approved' AND start_date < $1 AND end_date > $2
		ORDER BY start_date ASC`, window.End, window.Start)
	if err != nil {
		return nil, fmt.Errorf("schedule: list time off: %w", err)
	}
	defer rows.Close()

	var result []TimeOffRequest
	for rows.Next() {
		var r TimeOffRequest
		var status string
		if err := rows.Scan(&r.ID, &r.StaffID, &r.StartDate, &r.EndDate, &status); err != nil {
			return nil, fmt.Errorf("schedule: scan time off: %w", err)
		}
		r.Status = TimeOffStatus(status)
		result = append(result, r)
	}
	return result, rows.Err()
}

func scanDefinitions(rows pgx.Rows) ([]ShiftDefinition, error) {
	var result []ShiftDefinition
	for rows.Next() {
		var d ShiftDefinition
		var parentID *uuid.UUID
		var exceptionDate *time.Time
		err := rows.Scan(
			&d.ID, &d.StaffID, &d.LocationID, &d.StartTime, &d.EndTime,
			&d.IsRecurring, &d.IsActive, &parentID, &exceptionDate,
		)
		if err != nil {
			return nil, fmt.Errorf("schedule: scan definition: %w", err)
		}
		d.ParentShiftID = parentID
		d.ExceptionDate = exceptionDate
		result = append(result, d)
	}
	return result, rows.Err()
}
