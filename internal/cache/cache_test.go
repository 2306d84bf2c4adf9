package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"navalha/internal/events"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client, time.Minute, zerolog.Nop())
}

func TestReadWriteRoundtrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	key := c.DayKey(ctx, "2026-03-17", "slots:d30:i30")
	var got []string
	assert.False(t, c.Read(ctx, key, &got))

	c.Write(ctx, key, []string{"09:00", "09:30"})
	require.True(t, c.Read(ctx, key, &got))
	assert.Equal(t, []string{"09:00", "09:30"}, got)
}

func TestInvalidateRotatesDateKeys(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	key := c.DayKey(ctx, "2026-03-17", "slots")
	c.Write(ctx, key, []string{"09:00"})

	c.Invalidate(ctx, "2026-03-17")

	// The new key no longer addresses the stale entry.
	var got []string
	assert.False(t, c.Read(ctx, c.DayKey(ctx, "2026-03-17", "slots"), &got))

	// Other dates keep their entries.
	other := c.DayKey(ctx, "2026-03-18", "slots")
	c.Write(ctx, other, []string{"10:00"})
	c.Invalidate(ctx, "2026-03-17")
	assert.True(t, c.Read(ctx, other, &got))
}

func TestScheduleChangeBumpsGlobalVersion(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	bus := events.NewBus()
	c.Subscribe(bus)

	key := c.DayKey(ctx, "2026-03-17", "slots")
	c.Write(ctx, key, []string{"09:00"})

	// Schedule changes carry no date and must flush everything.
	bus.Publish(events.Event{Type: events.TypeScheduleChanged})

	var got []string
	assert.False(t, c.Read(ctx, c.DayKey(ctx, "2026-03-17", "slots"), &got))
}

func TestAppointmentEventInvalidatesItsDate(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	bus := events.NewBus()
	c.Subscribe(bus)

	key := c.DayKey(ctx, "2026-03-17", "slots")
	c.Write(ctx, key, []string{"09:00"})

	bus.Publish(events.Event{Type: events.TypeAppointmentCreated, Date: "2026-03-17", ProfessionalID: 1})

	var got []string
	assert.False(t, c.Read(ctx, c.DayKey(ctx, "2026-03-17", "slots"), &got))
}

func TestNilCacheIsSafe(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	assert.NotPanics(t, func() {
		c.Invalidate(ctx, "2026-03-17")
		c.Write(ctx, "k", "v")
		var out string
		assert.False(t, c.Read(ctx, "k", &out))
		c.Subscribe(events.NewBus())
	})
}
