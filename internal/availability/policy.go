package availability

// Reason explains why a candidate slot is not bookable. These are
// expected, user-facing negatives, not errors; the UI maps them to
// precise messages.
type Reason string

const (
	ReasonPast           Reason = "past"
	ReasonBusinessClosed Reason = "business_closed"
	ReasonOffDuty        Reason = "off_duty"
	ReasonNoSchedule     Reason = "no_schedule"
	ReasonOutsideShift   Reason = "outside_shift"
	ReasonOnBreak        Reason = "on_break"
	ReasonBlocked        Reason = "blocked"
	ReasonDoubleBooked   Reason = "double_booked"
)

// Decision is the outcome of a bookability check.
type Decision struct {
	Bookable bool   `json:"bookable"`
	Reason   Reason `json:"reason,omitempty"`
}

// Policy resolves the behaviors the legacy call sites disagreed on. One
// configured value per question instead of per-screen literals.
type Policy struct {
	// MissingScheduleWorksAllDay selects the legacy permissive fallback
	// for professionals without a weekly availability row. The default is
	// the stricter fail-closed reading: no row means not working.
	MissingScheduleWorksAllDay bool

	// UnassignedBlocksApplyToAll decides whether a time block without a
	// professional applies to everyone or to no one.
	UnassignedBlocksApplyToAll bool

	// DefaultBufferMinutes is used when the store has no business-wide
	// buffer setting and the professional has no custom override.
	DefaultBufferMinutes int

	// MinIntervalMinutes is the floor for the slot grid granularity.
	MinIntervalMinutes int

	// MaxServicesShown caps the eligible-service list on available-now
	// entries.
	MaxServicesShown int
}

// DefaultPolicy returns the recommended defaults.
func DefaultPolicy() Policy {
	return Policy{
		MissingScheduleWorksAllDay: false,
		UnassignedBlocksApplyToAll: true,
		DefaultBufferMinutes:       30,
		MinIntervalMinutes:         5,
		MaxServicesShown:           3,
	}
}

func (p Policy) clampInterval(interval int) int {
	min := p.MinIntervalMinutes
	if min <= 0 {
		min = 5
	}
	if interval < min {
		return min
	}
	return interval
}
