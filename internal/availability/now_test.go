package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"navalha/internal/models"
	"navalha/internal/timeutil"
)

// at builds an instant on the given date at clock minutes, business time.
func at(t *testing.T, tz timeutil.Converter, date string, minutes int) time.Time {
	t.Helper()
	day, err := tz.ParseDate(date)
	require.NoError(t, err)
	return tz.At(day, minutes)
}

func TestAvailableNowBasic(t *testing.T) {
	store := &fakeStore{
		pros:   []models.Professional{pro(1, "Ana")},
		weekly: shiftAllWeek(1, "09:00", "18:00"),
		hours:  defaultHours(),
	}
	engine, tz := newTestEngine(t, store, DefaultPolicy())

	entries, err := engine.AvailableNow(context.Background(), at(t, tz, nextWeek, 14*60), 0, 30)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "14:00", entries[0].FreeFrom)
	assert.Equal(t, "18:00", entries[0].FreeUntil)
	assert.Equal(t, 240, entries[0].FreeMinutes)
}

func TestAvailableNowSkipsUpcomingBreak(t *testing.T) {
	store := &fakeStore{
		pros:   []models.Professional{pro(1, "Ana")},
		weekly: withBreak(shiftAllWeek(1, "09:00", "18:00"), "12:00", "13:00"),
		hours:  defaultHours(),
	}
	engine, tz := newTestEngine(t, store, DefaultPolicy())

	// 11:50 leaves only ten minutes before the break; the engine reports
	// the post-break window instead of dropping the professional.
	entries, err := engine.AvailableNow(context.Background(), at(t, tz, nextWeek, 11*60+50), 0, 30)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "13:00", entries[0].FreeFrom)
	assert.Equal(t, "18:00", entries[0].FreeUntil)
	assert.Equal(t, 300, entries[0].FreeMinutes)
}

func TestAvailableNowPostBreakTooShort(t *testing.T) {
	store := &fakeStore{
		pros:   []models.Professional{pro(1, "Ana")},
		weekly: withBreak(shiftAllWeek(1, "09:00", "13:30"), "12:00", "13:00"),
		hours:  defaultHours(),
	}
	engine, tz := newTestEngine(t, store, DefaultPolicy())

	entries, err := engine.AvailableNow(context.Background(), at(t, tz, nextWeek, 11*60+50), 0, 60)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAvailableNowExclusions(t *testing.T) {
	rows := withBreak(shiftAllWeek(1, "09:00", "18:00"), "12:00", "13:00")
	rows = append(rows, shiftAllWeek(2, "09:00", "18:00")...)
	store := &fakeStore{
		pros:   []models.Professional{pro(1, "Ana"), pro(2, "Bruno")},
		weekly: rows,
		hours:  defaultHours(),
	}
	engine, tz := newTestEngine(t, store, DefaultPolicy())

	t.Run("on break right now", func(t *testing.T) {
		entries, err := engine.AvailableNow(context.Background(), at(t, tz, nextWeek, 12*60+30), 0, 30)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, int64(2), entries[0].ProfessionalID)
	})

	t.Run("mid appointment", func(t *testing.T) {
		store.appts = []models.Appointment{appointmentAt(tz, 2, nextWeek, "13:30", 60)}
		defer func() { store.appts = nil }()

		entries, err := engine.AvailableNow(context.Background(), at(t, tz, nextWeek, 14*60), 0, 30)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, int64(1), entries[0].ProfessionalID)
	})

	t.Run("outside business hours", func(t *testing.T) {
		entries, err := engine.AvailableNow(context.Background(), at(t, tz, nextWeek, 8*60), 0, 30)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("closed day", func(t *testing.T) {
		entries, err := engine.AvailableNow(context.Background(), at(t, tz, sunday, 14*60), 0, 30)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestAvailableNowNoScheduleNeverListed(t *testing.T) {
	policy := DefaultPolicy()
	policy.MissingScheduleWorksAllDay = true
	store := &fakeStore{
		pros:  []models.Professional{pro(1, "Ana")},
		hours: defaultHours(),
	}
	engine, tz := newTestEngine(t, store, policy)

	// The permissive fallback applies to slot checks only; the "free now"
	// list stays strict.
	entries, err := engine.AvailableNow(context.Background(), at(t, tz, nextWeek, 14*60), 0, 30)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAvailableNowWindowTightenedByNextAppointment(t *testing.T) {
	store := &fakeStore{
		pros:   []models.Professional{pro(1, "Ana")},
		weekly: shiftAllWeek(1, "09:00", "18:00"),
		hours:  defaultHours(),
	}
	engine, tz := newTestEngine(t, store, DefaultPolicy())
	store.appts = []models.Appointment{appointmentAt(tz, 1, nextWeek, "15:00", 60)}

	entries, err := engine.AvailableNow(context.Background(), at(t, tz, nextWeek, 14*60), 0, 30)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "15:00", entries[0].FreeUntil)
	assert.Equal(t, 60, entries[0].FreeMinutes)
}

func TestAvailableNowServiceFilter(t *testing.T) {
	rows := append(shiftAllWeek(1, "09:00", "18:00"), shiftAllWeek(2, "09:00", "18:00")...)
	store := &fakeStore{
		pros:   []models.Professional{pro(1, "Ana"), pro(2, "Bruno")},
		weekly: rows,
		hours:  defaultHours(),
		elig:   map[int64][]int64{1: {2, 3}}, // Ana does services 2 and 3 only
	}
	engine, tz := newTestEngine(t, store, DefaultPolicy())

	entries, err := engine.AvailableNow(context.Background(), at(t, tz, nextWeek, 14*60), 1, 30)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	// Bruno has no eligibility rows, which means every service.
	assert.Equal(t, int64(2), entries[0].ProfessionalID)
	assert.Empty(t, entries[0].ServiceIDs)

	entries, err = engine.AvailableNow(context.Background(), at(t, tz, nextWeek, 14*60), 2, 30)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestAvailableNowOrderedByFreeTime(t *testing.T) {
	rows := append(shiftAllWeek(1, "09:00", "16:00"), shiftAllWeek(2, "09:00", "18:00")...)
	rows = append(rows, shiftAllWeek(3, "09:00", "16:00")...)
	store := &fakeStore{
		pros:   []models.Professional{pro(1, "Ana"), pro(2, "Bruno"), pro(3, "Carla")},
		weekly: rows,
		hours:  defaultHours(),
	}
	engine, tz := newTestEngine(t, store, DefaultPolicy())

	entries, err := engine.AvailableNow(context.Background(), at(t, tz, nextWeek, 14*60), 0, 30)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	// Bruno has the most time left; Ana and Carla tie and keep id order.
	assert.Equal(t, int64(2), entries[0].ProfessionalID)
	assert.Equal(t, int64(1), entries[1].ProfessionalID)
	assert.Equal(t, int64(3), entries[2].ProfessionalID)
}

func TestAvailableNowCustomBuffer(t *testing.T) {
	barber := pro(1, "Ana")
	barber.CustomBuffer = true
	barber.BufferMinutes = 60
	store := &fakeStore{
		pros:   []models.Professional{barber},
		weekly: shiftAllWeek(1, "09:00", "19:00"),
		hours:  defaultHours(),
	}
	engine, tz := newTestEngine(t, store, DefaultPolicy())

	// Shift runs to closing; the 60 minute personal buffer pulls the last
	// bookable start back to 18:00.
	entries, err := engine.AvailableNow(context.Background(), at(t, tz, nextWeek, 14*60), 0, 30)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "18:00", entries[0].FreeUntil)
}

func TestAvailableNowStoreFailure(t *testing.T) {
	store := &fakeStore{
		pros:    []models.Professional{pro(1, "Ana")},
		weekly:  shiftAllWeek(1, "09:00", "18:00"),
		hours:   defaultHours(),
		failOp:  "blocks",
		failErr: errors.New("disk error"),
	}
	engine, tz := newTestEngine(t, store, DefaultPolicy())

	_, err := engine.AvailableNow(context.Background(), at(t, tz, nextWeek, 14*60), 0, 30)
	require.Error(t, err)
}
