package availability

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"navalha/internal/models"
	"navalha/internal/timeutil"
)

// fakeStore is an in-memory Store with per-operation error injection.
type fakeStore struct {
	pros   []models.Professional
	weekly []models.WeeklyAvailability
	hours  map[int]*models.BusinessHours
	buffer int
	appts  []models.Appointment
	blocks []models.TimeBlock
	elig   map[int64][]int64

	failOp  string
	failErr error
}

func (f *fakeStore) fail(op string) error {
	if f.failOp == op {
		return f.failErr
	}
	return nil
}

func (f *fakeStore) ActiveProfessionals(context.Context) ([]models.Professional, error) {
	if err := f.fail("professionals"); err != nil {
		return nil, err
	}
	return f.pros, nil
}

func (f *fakeStore) WeeklyAvailability(_ context.Context, ids []int64, dayOfWeek int) ([]models.WeeklyAvailability, error) {
	if err := f.fail("weekly"); err != nil {
		return nil, err
	}
	wanted := make(map[int64]bool)
	for _, id := range ids {
		wanted[id] = true
	}
	var out []models.WeeklyAvailability
	for _, w := range f.weekly {
		if w.DayOfWeek == dayOfWeek && wanted[w.ProfessionalID] {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakeStore) BusinessHours(_ context.Context, dayOfWeek int) (*models.BusinessHours, error) {
	if err := f.fail("hours"); err != nil {
		return nil, err
	}
	return f.hours[dayOfWeek], nil
}

func (f *fakeStore) BookingBuffer(context.Context) (int, error) {
	if err := f.fail("buffer"); err != nil {
		return 0, err
	}
	return f.buffer, nil
}

func (f *fakeStore) AppointmentsInRange(_ context.Context, ids []int64, from, to time.Time) ([]models.Appointment, error) {
	if err := f.fail("appointments"); err != nil {
		return nil, err
	}
	var out []models.Appointment
	for _, a := range f.appts {
		if a.StartsAt.Before(to) && a.EndsAt().After(from) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) TimeBlocksInRange(_ context.Context, ids []int64, from, to time.Time) ([]models.TimeBlock, error) {
	if err := f.fail("blocks"); err != nil {
		return nil, err
	}
	var out []models.TimeBlock
	for _, b := range f.blocks {
		if b.StartsAt.Before(to) && b.EndsAt.After(from) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeStore) ServiceEligibility(context.Context, []int64) (map[int64][]int64, error) {
	if err := f.fail("eligibility"); err != nil {
		return nil, err
	}
	if f.elig == nil {
		return map[int64][]int64{}, nil
	}
	return f.elig, nil
}

// testTZ returns the business timezone converter used across the tests.
func testTZ(t *testing.T) timeutil.Converter {
	t.Helper()
	tz, err := timeutil.NewConverter("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("load timezone: %v", err)
	}
	return tz
}

// newTestEngine wires an engine over the fake store with a fixed clock.
// The reference "today" is Tuesday 2026-03-10; now is 13:00 local.
func newTestEngine(t *testing.T, store *fakeStore, policy Policy) (*Engine, timeutil.Converter) {
	t.Helper()
	tz := testTZ(t)
	engine := NewEngine(store, tz, policy, zerolog.Nop())
	engine.SetNow(func() time.Time {
		return time.Date(2026, 3, 10, 13, 0, 0, 0, tz.Location())
	})
	return engine, tz
}

// defaultHours opens every day 09:00-19:00 except Sunday.
func defaultHours() map[int]*models.BusinessHours {
	hours := make(map[int]*models.BusinessHours)
	for dow := 0; dow <= 6; dow++ {
		hours[dow] = &models.BusinessHours{
			DayOfWeek: dow,
			Open:      "09:00",
			Close:     "19:00",
			Closed:    dow == 0,
		}
	}
	return hours
}

func pro(id int64, name string) models.Professional {
	return models.Professional{ID: id, Name: name, IsActive: true}
}

// shiftAllWeek gives a professional the same shift every day of week.
func shiftAllWeek(proID int64, start, end string) []models.WeeklyAvailability {
	var out []models.WeeklyAvailability
	for dow := 0; dow <= 6; dow++ {
		out = append(out, models.WeeklyAvailability{
			ProfessionalID: proID,
			DayOfWeek:      dow,
			StartTime:      start,
			EndTime:        end,
			IsActive:       true,
		})
	}
	return out
}

func withBreak(rows []models.WeeklyAvailability, breakStart, breakEnd string) []models.WeeklyAvailability {
	for i := range rows {
		rows[i].BreakStart = breakStart
		rows[i].BreakEnd = breakEnd
	}
	return rows
}

func appointmentAt(tz timeutil.Converter, proID int64, date string, clock string, durationMin int) models.Appointment {
	day, _ := tz.ParseDate(date)
	startMin, _ := timeutil.ParseClock(clock)
	return models.Appointment{
		ProfessionalID:  proID,
		ServiceID:       1,
		ClientName:      "client",
		StartsAt:        tz.At(day, startMin),
		DurationMinutes: durationMin,
		Status:          models.StatusConfirmed,
	}
}

func blockAt(tz timeutil.Converter, proID *int64, date, startClock, endClock string) models.TimeBlock {
	day, _ := tz.ParseDate(date)
	startMin, _ := timeutil.ParseClock(startClock)
	endMin, _ := timeutil.ParseClock(endClock)
	return models.TimeBlock{
		ProfessionalID: proID,
		StartsAt:       tz.At(day, startMin),
		EndsAt:         tz.At(day, endMin),
	}
}

func ptr(v int64) *int64 {
	return &v
}
