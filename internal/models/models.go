package models

import "time"

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusNoShow    AppointmentStatus = "no_show"
)

// Blocks reports whether an appointment in this status occupies its slot.
// Cancelled and no-show appointments never block.
func (s AppointmentStatus) Blocks() bool {
	return s != StatusCancelled && s != StatusNoShow
}

// Professional is a bookable staff member.
type Professional struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	IsActive      bool      `json:"is_active"`
	CustomBuffer  bool      `json:"custom_buffer"`
	BufferMinutes int       `json:"buffer_minutes"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Service is something a professional can be booked for.
type Service struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	DurationMinutes int       `json:"duration_minutes"`
	PriceCents      int64     `json:"price_cents"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// WeeklyAvailability is one professional's working window for a day of
// week (0-6, Sunday-based). Times are wall-clock "HH:MM" in the business
// timezone; an end time of "00:00" means the shift runs through midnight.
// When IsActive is false the professional is off that whole day regardless
// of the other fields.
type WeeklyAvailability struct {
	ID             int64     `json:"id"`
	ProfessionalID int64     `json:"professional_id"`
	DayOfWeek      int       `json:"day_of_week"`
	StartTime      string    `json:"start_time"`
	EndTime        string    `json:"end_time"`
	BreakStart     string    `json:"break_start,omitempty"`
	BreakEnd       string    `json:"break_end,omitempty"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// HasBreak reports whether both ends of the break window are set.
func (w WeeklyAvailability) HasBreak() bool {
	return w.BreakStart != "" && w.BreakEnd != ""
}

// BusinessHours is the operating window for a day of week. When Closed is
// true no professional is bookable that day, whatever their own schedule
// says.
type BusinessHours struct {
	ID        int64     `json:"id"`
	DayOfWeek int       `json:"day_of_week"`
	Open      string    `json:"open"`
	Close     string    `json:"close"`
	Closed    bool      `json:"closed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Appointment is a client booking. StartsAt is a UTC instant; the
// occupied window is [StartsAt, StartsAt + DurationMinutes). An encaixe is
// a squeezed-in booking that is advisory only and never blocks slot
// generation or conflict checks.
type Appointment struct {
	ID              int64             `json:"id"`
	ProfessionalID  int64             `json:"professional_id"`
	ServiceID       int64             `json:"service_id"`
	ClientName      string            `json:"client_name"`
	ClientPhone     string            `json:"client_phone,omitempty"`
	StartsAt        time.Time         `json:"starts_at"`
	DurationMinutes int               `json:"duration_minutes"`
	Status          AppointmentStatus `json:"status"`
	IsEncaixe       bool              `json:"is_encaixe"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// EndsAt returns the exclusive end of the occupied window.
func (a Appointment) EndsAt() time.Time {
	return a.StartsAt.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// BlocksSlots reports whether this appointment removes its window from
// availability.
func (a Appointment) BlocksSlots() bool {
	return a.Status.Blocks() && !a.IsEncaixe
}

// TimeBlock is a manual hold on a professional's calendar. A nil
// ProfessionalID leaves the scoping decision to the caller's policy:
// either the block applies to every professional or to none.
type TimeBlock struct {
	ID             int64     `json:"id"`
	ProfessionalID *int64    `json:"professional_id,omitempty"`
	StartsAt       time.Time `json:"starts_at"`
	EndsAt         time.Time `json:"ends_at"`
	Reason         string    `json:"reason,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
