package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreListForStaff(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewStore(mock)
	staffID := uuid.New()
	from := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	rows := pgxmock.NewRows([]string{
		"id", "staff_id", "location_id", "service_id", "starts_at", "ends_at",
		"status", "parent_booking_id", "continuation_id", "created_at",
	}).AddRow(uuid.New(), staffID, uuid.New(), uuid.New(),
		from.Add(10*time.Hour), from.Add(11*time.Hour), "confirmed", nil, nil, from)
	mock.ExpectQuery("SELECT (.+) FROM bookings").
		WithArgs([]string{staffID.String()}, to, from).
		WillReturnRows(rows)

	list, err := store.ListForStaff(context.Background(), []uuid.UUID{staffID}, from, to)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, StatusConfirmed, list[0].Status)
	assert.True(t, list[0].Occupies())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreListForStaffEmpty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	list, err := NewStore(mock).ListForStaff(context.Background(), nil, time.Now(), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Nil(t, list)
}

func TestStoreCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewStore(mock)
	b := &Booking{
		StaffID:    uuid.New(),
		LocationID: uuid.New(),
		ServiceID:  uuid.New(),
		StartsAt:   time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC),
		EndsAt:     time.Date(2026, time.March, 2, 10, 30, 0, 0, time.UTC),
	}

	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(pgxmock.AnyArg(), b.StaffID, b.LocationID, b.ServiceID, b.StartsAt, b.EndsAt,
			"pending", nil, nil, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Create(context.Background(), b))
	assert.NotEqual(t, uuid.Nil, b.ID)
	assert.Equal(t, StatusPending, b.Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreCreateSlotTaken(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewStore(mock)
	b := &Booking{
		StaffID:    uuid.New(),
		LocationID: uuid.New(),
		ServiceID:  uuid.New(),
		StartsAt:   time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC),
		EndsAt:     time.Date(2026, time.March, 2, 10, 30, 0, 0, time.UTC),
	}

	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(pgxmock.AnyArg(), b.StaffID, b.LocationID, b.ServiceID, b.StartsAt, b.EndsAt,
			"pending", nil, nil, pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "bookings_staff_slot_guard"})

	err = store.Create(context.Background(), b)
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestStoreGetNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewStore(mock)
	id := uuid.New()
	mock.ExpectQuery("SELECT (.+) FROM bookings").
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err = store.Get(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
}
