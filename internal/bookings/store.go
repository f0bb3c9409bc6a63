package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrSlotTaken is returned when the uniqueness guard on
// (staff_id, starts_at) rejects a concurrent reservation for the same slot.
var ErrSlotTaken = errors.New("bookings: slot already taken")

// ErrNotFound is returned when a booking id is unknown.
var ErrNotFound = errors.New("bookings: not found")

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store provides booking reads and the guarded create.
type Store struct {
	db DB
}

// NewStore creates a bookings store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

const bookingColumns = `id, staff_id, location_id, service_id, starts_at, ends_at, status, parent_booking_id, continuation_id, created_at`

// Get returns one booking by id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Booking, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE id = $1`, id)

	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("bookings: get: %w", err)
	}
	return b, nil
}

// ListForStaff returns non-cancelled bookings for the given staff members
// overlapping [from, to).
func (s *Store) ListForStaff(ctx context.Context, staffIDs []uuid.UUID, from, to time.Time) ([]Booking, error) {
	if len(staffIDs) == 0 {
		return nil, nil
	}
	ids := make([]string, len(staffIDs))
	for i, id := range staffIDs {
		ids[i] = id.String()
	}

	rows, err := s.db.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE staff_id = ANY($1::uuid[])
		  AND status <> 'cancelled'
		  AND starts_at < $2 AND ends_at > $3
		ORDER BY starts_at ASC`, ids, to, from)
	if err != nil {
		return nil, fmt.Errorf("bookings: list for staff: %w", err)
	}
	defer rows.Close()

	var result []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("bookings: scan: %w", err)
		}
		result = append(result, *b)
	}
	return result, rows.Err()
}

// Create inserts a pending booking. The partial unique index on
// (staff_id, starts_at) over non-cancelled rows is the real race guard; a
// violation surfaces as ErrSlotTaken.
func (s *Store) Create(ctx context.Context, b *Booking) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Status == "" {
		b.Status = StatusPending
	}
	b.CreatedAt = time.Now().UTC()

	_, err := s.db.Exec(ctx, `
		INSERT INTO bookings (id, staff_id, location_id, service_id, starts_at, ends_at, status, parent_booking_id, continuation_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		b.ID, b.StaffID, b.LocationID, b.ServiceID, b.StartsAt, b.EndsAt,
		string(b.Status), b.ParentBookingID, b.ContinuationID, b.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrSlotTaken
		}
		return fmt.Errorf("bookings: create: %w", err)
	}
	return nil
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var status string
	err := row.Scan(
		&b.ID, &b.StaffID, &b.LocationID, &b.ServiceID,
		&b.StartsAt, &b.EndsAt, &status,
		&b.ParentBookingID, &b.ContinuationID, &b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Status = Status(status)
	return &b, nil
}
