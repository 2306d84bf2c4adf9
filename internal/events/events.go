package events

import (
	"sync"
	"time"
)

// Event types published by the write side of the store. Every calendar
// mutation invalidates any availability computed for the affected date.
const (
	TypeAppointmentCreated   = "appointment.created"
	TypeAppointmentCancelled = "appointment.cancelled"
	TypeBlockCreated         = "block.created"
	TypeBlockDeleted         = "block.deleted"
	TypeScheduleChanged      = "schedule.changed"
)

// Event represents a lightweight domain event.
type Event struct {
	Type           string
	Date           string // business-local YYYY-MM-DD the change touches
	ProfessionalID int64  // 0 when the change is not professional-scoped
	CreatedAt      time.Time
}

// Handler reacts to an event.
type Handler func(event Event)

// Bus provides in-process pub/sub for calendar invalidation. The
// availability engine itself stays stateless; callers that cache results
// subscribe here instead of polling.
type Bus struct {
	subscribers map[string][]Handler
	mu          sync.RWMutex
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[string][]Handler)}
}

// Subscribe registers a handler for a given event type.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// SubscribeAll registers a handler for every calendar mutation type.
func (b *Bus) SubscribeAll(handler Handler) {
	for _, t := range []string{
		TypeAppointmentCreated,
		TypeAppointmentCancelled,
		TypeBlockCreated,
		TypeBlockDeleted,
		TypeScheduleChanged,
	} {
		b.Subscribe(t, handler)
	}
}

// Publish notifies subscribers of the event type.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		handler(event)
	}
}
