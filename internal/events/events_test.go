package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusPublishSubscribe(t *testing.T) {
	bus := NewBus()

	var got []Event
	bus.Subscribe(TypeAppointmentCreated, func(e Event) {
		got = append(got, e)
	})

	bus.Publish(Event{Type: TypeAppointmentCreated, Date: "2026-03-10", ProfessionalID: 7})
	bus.Publish(Event{Type: TypeBlockCreated, Date: "2026-03-11"})

	assert.Len(t, got, 1, "handler should only see its own event type")
	assert.Equal(t, "2026-03-10", got[0].Date)
	assert.Equal(t, int64(7), got[0].ProfessionalID)
	assert.False(t, got[0].CreatedAt.IsZero())
}

func TestSubscribeAll(t *testing.T) {
	bus := NewBus()

	count := 0
	bus.SubscribeAll(func(Event) { count++ })

	bus.Publish(Event{Type: TypeAppointmentCreated})
	bus.Publish(Event{Type: TypeAppointmentCancelled})
	bus.Publish(Event{Type: TypeBlockCreated})
	bus.Publish(Event{Type: TypeBlockDeleted})
	bus.Publish(Event{Type: TypeScheduleChanged})

	assert.Equal(t, 5, count)
}
