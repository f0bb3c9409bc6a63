package schedule

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldclinics/booking-platform/internal/interval"
	"github.com/veldclinics/booking-platform/pkg/logging"
)

var (
	amsterdam, _ = time.LoadLocation("Europe/Amsterdam")

	staffA    = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	staffB    = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	locMain   = uuid.MustParse("33333333-3333-3333-3333-333333333333")
	svcIntake = uuid.MustParse("44444444-4444-4444-4444-444444444444")
	svcScan   = uuid.MustParse("55555555-5555-5555-5555-555555555555")
)

// Monday 2 March 2026, 09:00-17:00, recurring weekly.
func recurringShift() ShiftDefinition {
	return ShiftDefinition{
		ID:          uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001"),
		StaffID:     staffA,
		LocationID:  locMain,
		StartTime:   time.Date(2026, time.March, 2, 9, 0, 0, 0, amsterdam),
		EndTime:     time.Date(2026, time.March, 2, 17, 0, 0, 0, amsterdam),
		IsRecurring: true,
		IsActive:    true,
		ServiceIDs:  []uuid.UUID{svcIntake, svcScan},
	}
}

func window(from, to time.Time) interval.Interval {
	return interval.Interval{Start: from, End: to}
}

func TestExpandRecurringOverNWeeks(t *testing.T) {
	e := NewExpander(logging.New("error"))
	parent := recurringShift()

	from := time.Date(2026, time.March, 1, 0, 0, 0, 0, amsterdam)
	to := from.AddDate(0, 0, 28) // 4 full weeks

	instances := e.Expand(window(from, to), []ShiftDefinition{parent})
	require.Len(t, instances, 4)

	for i, inst := range instances {
		expected := parent.StartTime.AddDate(0, 0, 7*i)
		assert.Equal(t, expected, inst.StartTime, "occurrence %d", i)
		assert.Equal(t, time.Monday, inst.StartTime.Weekday())
		assert.Equal(t, 9, inst.StartTime.Hour())
		assert.Equal(t, 8*time.Hour, inst.Interval().Duration())
		assert.Equal(t, parent.ID, inst.ShiftDefinitionID)
		assert.Equal(t, parent.ServiceIDs, inst.ServiceIDs)
	}
}

func TestExpandParentFarInThePast(t *testing.T) {
	e := NewExpander(logging.New("error"))
	parent := recurringShift()
	parent.StartTime = parent.StartTime.AddDate(-3, 0, 0)
	parent.EndTime = parent.EndTime.AddDate(-3, 0, 0)

	from := time.Date(2026, time.March, 1, 0, 0, 0, 0, amsterdam)
	instances := e.Expand(window(from, from.AddDate(0, 0, 7)), []ShiftDefinition{parent})

	require.Len(t, instances, 1)
	assert.Equal(t, parent.StartTime.Weekday(), instances[0].StartTime.Weekday())
	assert.Equal(t, 9, instances[0].StartTime.Hour())
}

func TestExpandTombstoneSuppressesOneOccurrence(t *testing.T) {
	e := NewExpander(logging.New("error"))
	parent := recurringShift()
	tombDate := time.Date(2026, time.March, 9, 0, 0, 0, 0, amsterdam)
	tombstone := ShiftDefinition{
		ID:            uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000002"),
		StaffID:       staffA,
		LocationID:    locMain,
		IsActive:      false,
		ParentShiftID: &parent.ID,
		ExceptionDate: &tombDate,
	}
	require.True(t, tombstone.IsTombstone())

	from := time.Date(2026, time.March, 1, 0, 0, 0, 0, amsterdam)
	instances := e.Expand(window(from, from.AddDate(0, 0, 28)), []ShiftDefinition{parent, tombstone})

	require.Len(t, instances, 3)
	for _, inst := range instances {
		assert.NotEqual(t, 9, inst.StartTime.Day(), "tombstoned occurrence must be gone")
	}
}

func TestExpandActiveExceptionOverridesTimeAndServices(t *testing.T) {
	e := NewExpander(logging.New("error"))
	parent := recurringShift()
	exDate := time.Date(2026, time.March, 9, 0, 0, 0, 0, amsterdam)
	override := ShiftDefinition{
		ID:            uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000003"),
		StaffID:       staffA,
		LocationID:    locMain,
		StartTime:     time.Date(2026, time.March, 9, 12, 0, 0, 0, amsterdam),
		EndTime:       time.Date(2026, time.March, 9, 18, 0, 0, 0, amsterdam),
		IsActive:      true,
		ParentShiftID: &parent.ID,
		ExceptionDate: &exDate,
		ServiceIDs:    []uuid.UUID{svcScan},
	}

	from := time.Date(2026, time.March, 8, 0, 0, 0, 0, amsterdam)
	instances := e.Expand(window(from, from.AddDate(0, 0, 7)), []ShiftDefinition{parent, override})

	require.Len(t, instances, 1)
	inst := instances[0]
	assert.Equal(t, override.ID, inst.ShiftDefinitionID)
	assert.Equal(t, 12, inst.StartTime.Hour())
	assert.Equal(t, 18, inst.EndTime.Hour())
	assert.Equal(t, []uuid.UUID{svcScan}, inst.ServiceIDs)
}

func TestExpandIncludesOneOffShifts(t *testing.T) {
	e := NewExpander(logging.New("error"))
	oneOff := ShiftDefinition{
		ID:         uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000004"),
		StaffID:    staffB,
		LocationID: locMain,
		StartTime:  time.Date(2026, time.March, 4, 10, 0, 0, 0, amsterdam),
		EndTime:    time.Date(2026, time.March, 4, 14, 0, 0, 0, amsterdam),
		IsActive:   true,
		ServiceIDs: []uuid.UUID{svcIntake},
	}

	from := time.Date(2026, time.March, 1, 0, 0, 0, 0, amsterdam)
	instances := e.Expand(window(from, from.AddDate(0, 0, 7)), []ShiftDefinition{recurringShift(), oneOff})

	require.Len(t, instances, 2)
	assert.Equal(t, staffA, instances[0].StaffID)
	assert.Equal(t, oneOff.ID, instances[1].ShiftDefinitionID)
}

func TestExpandIgnoresOneOffOutsideWindow(t *testing.T) {
	e := NewExpander(logging.New("error"))
	oneOff := ShiftDefinition{
		ID:         uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000005"),
		StaffID:    staffB,
		LocationID: locMain,
		StartTime:  time.Date(2026, time.April, 4, 10, 0, 0, 0, amsterdam),
		EndTime:    time.Date(2026, time.April, 4, 14, 0, 0, 0, amsterdam),
		IsActive:   true,
	}

	from := time.Date(2026, time.March, 1, 0, 0, 0, 0, amsterdam)
	instances := e.Expand(window(from, from.AddDate(0, 0, 7)), []ShiftDefinition{oneOff})
	assert.Empty(t, instances)
}

func TestExpandSkipsOrphanException(t *testing.T) {
	e := NewExpander(logging.New("error"))
	unknownParent := uuid.MustParse("aaaaaaaa-0000-0000-0000-00000000dead")
	exDate := time.Date(2026, time.March, 9, 0, 0, 0, 0, amsterdam)
	orphan := ShiftDefinition{
		ID:            uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000006"),
		StaffID:       staffA,
		LocationID:    locMain,
		ParentShiftID: &unknownParent,
		ExceptionDate: &exDate,
	}

	from := time.Date(2026, time.March, 1, 0, 0, 0, 0, amsterdam)
	instances := e.Expand(window(from, from.AddDate(0, 0, 28)), []ShiftDefinition{recurringShift(), orphan})

	// Orphan is ignored; the parent still expands fully.
	assert.Len(t, instances, 4)
}

func TestExpandSkipsMalformedShift(t *testing.T) {
	e := NewExpander(logging.New("error"))
	inverted := recurringShift()
	inverted.ID = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000007")
	inverted.StartTime, inverted.EndTime = inverted.EndTime, inverted.StartTime

	from := time.Date(2026, time.March, 1, 0, 0, 0, 0, amsterdam)
	instances := e.Expand(window(from, from.AddDate(0, 0, 7)), []ShiftDefinition{inverted, recurringShift()})

	require.Len(t, instances, 1)
	assert.NotEqual(t, inverted.ID, instances[0].ShiftDefinitionID)
}

func TestExpandSkipsInactiveDefinitions(t *testing.T) {
	e := NewExpander(logging.New("error"))
	disabled := recurringShift()
	disabled.IsActive = false

	from := time.Date(2026, time.March, 1, 0, 0, 0, 0, amsterdam)
	instances := e.Expand(window(from, from.AddDate(0, 0, 28)), []ShiftDefinition{disabled})
	assert.Empty(t, instances, "a deactivated shift produces no occurrences")
}

func TestExpandOrderingByStartThenStaff(t *testing.T) {
	e := NewExpander(logging.New("error"))
	first := recurringShift()
	second := recurringShift()
	second.ID = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000008")
	second.StaffID = staffB

	from := time.Date(2026, time.March, 1, 0, 0, 0, 0, amsterdam)
	instances := e.Expand(window(from, from.AddDate(0, 0, 7)), []ShiftDefinition{second, first})

	require.Len(t, instances, 2)
	assert.Equal(t, staffA, instances[0].StaffID)
	assert.Equal(t, staffB, instances[1].StaffID)
}

func TestValidateRejectsMidnightCrossing(t *testing.T) {
	d := recurringShift()
	d.EndTime = d.StartTime.AddDate(0, 0, 1)
	assert.Error(t, d.Validate())
}
