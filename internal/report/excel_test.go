package report

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"navalha/internal/availability"
	"navalha/internal/models"
	"navalha/internal/store"
	"navalha/internal/timeutil"
)

func TestAgendaFill(t *testing.T) {
	tz, err := timeutil.NewConverter("America/Sao_Paulo")
	require.NoError(t, err)

	db, err := store.NewDB(":memory:", tz)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.EnsureDefaultHours(ctx))

	ana := &models.Professional{Name: "Ana", IsActive: true}
	require.NoError(t, db.CreateProfessional(ctx, ana))
	for dow := 0; dow <= 6; dow++ {
		require.NoError(t, db.UpsertWeeklyAvailability(ctx, &models.WeeklyAvailability{
			ProfessionalID: ana.ID,
			DayOfWeek:      dow,
			StartTime:      "09:00",
			EndTime:        "18:00",
			BreakStart:     "12:00",
			BreakEnd:       "13:00",
			IsActive:       true,
		}))
	}

	engine := availability.NewEngine(db, tz, availability.DefaultPolicy(), zerolog.Nop())
	engine.SetNow(func() time.Time {
		return time.Date(2026, 3, 10, 8, 0, 0, 0, tz.Location())
	})

	day, err := tz.ParseDate("2026-03-17")
	require.NoError(t, err)
	snap, err := engine.LoadDay(ctx, day, nil)
	require.NoError(t, err)

	agenda, err := NewAgenda("2026-03-17")
	require.NoError(t, err)
	require.NoError(t, agenda.Fill(snap, 30, 60))

	var buf bytes.Buffer
	require.NoError(t, agenda.Save(&buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	name, err := f.GetCellValue("2026-03-17", "B1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", name)

	// Business opens 09:00; the first grid row is bookable for Ana.
	clock, err := f.GetCellValue("2026-03-17", "A2")
	require.NoError(t, err)
	assert.Equal(t, "09:00", clock)
	state, err := f.GetCellValue("2026-03-17", "B2")
	require.NoError(t, err)
	assert.Equal(t, "livre", state)

	// Row for 12:00 falls in the break.
	state, err = f.GetCellValue("2026-03-17", "B5")
	require.NoError(t, err)
	assert.Equal(t, "intervalo", state)
}
