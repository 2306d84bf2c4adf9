package availability

import (
	"context"
	"time"

	"navalha/internal/metrics"
	"navalha/internal/timeutil"
)

// Check decides whether [startMin, startMin+durationMin) is bookable for
// the professional on the snapshot day. It is the single source of truth
// for every surface: slot generation, the staff grid, drag-and-drop
// validation and the public booking flow all go through here.
func (s *DaySnapshot) Check(professionalID int64, startMin, durationMin int) Decision {
	d := s.check(professionalID, startMin, durationMin)
	if d.Bookable {
		metrics.IncConflictDecision("bookable")
	} else {
		metrics.IncConflictDecision(string(d.Reason))
	}
	return d
}

// check runs the checks in fixed order; the first failure wins.
func (s *DaySnapshot) check(professionalID int64, startMin, durationMin int) Decision {
	if startMin < s.NowMinute {
		return Decision{Reason: ReasonPast}
	}

	if s.Closed() {
		return Decision{Reason: ReasonBusinessClosed}
	}

	pd, ok := s.pros[professionalID]
	if !ok {
		return Decision{Reason: ReasonOffDuty}
	}
	if pd.noRecord && !pd.working {
		return Decision{Reason: ReasonNoSchedule}
	}
	if !pd.working {
		return Decision{Reason: ReasonOffDuty}
	}

	endMin := startMin + durationMin
	if startMin < pd.shift.start || endMin > pd.shift.end {
		return Decision{Reason: ReasonOutsideShift}
	}

	if pd.brk != nil && timeutil.Overlaps(startMin, endMin, pd.brk.start, pd.brk.end) {
		return Decision{Reason: ReasonOnBreak}
	}

	for _, b := range pd.blocks {
		if timeutil.Overlaps(startMin, endMin, b.start, b.end) {
			return Decision{Reason: ReasonBlocked}
		}
	}

	for _, a := range pd.appts {
		if timeutil.Overlaps(startMin, endMin, a.start, a.end) {
			return Decision{Reason: ReasonDoubleBooked}
		}
	}

	return Decision{Bookable: true}
}

// IsBookable loads the day and answers a single candidate check, used by
// manual booking and appointment-move validation.
func (e *Engine) IsBookable(ctx context.Context, professionalID int64, day time.Time, clock string, durationMin int) (Decision, error) {
	startMin, err := timeutil.ParseClock(clock)
	if err != nil {
		return Decision{}, err
	}

	snap, err := e.LoadDay(ctx, day, []int64{professionalID})
	if err != nil {
		return Decision{}, err
	}
	return snap.Check(professionalID, startMin, durationMin), nil
}
