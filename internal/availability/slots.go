package availability

import (
	"context"
	"time"

	"navalha/internal/metrics"
	"navalha/internal/timeutil"
)

// Slots returns the ordered "HH:MM" labels bookable on the snapshot day
// for a service of durationMin, aggregated across professionals: a slot
// appears when at least one professional can take it. intervalMin <= 0
// selects the resolved business buffer; the grid never goes below the
// configured minimum.
//
// The walk starts at the window start rounded down to the interval so
// slots land on round boundaries even when the business opens at an odd
// minute.
func (s *DaySnapshot) Slots(durationMin, intervalMin int) []string {
	ws, we, ok := s.aggregateWindow()
	if !ok {
		return nil
	}
	return s.walk(ws, we, durationMin, intervalMin, func(t int) bool {
		for _, id := range s.order {
			if s.check(id, t, durationMin).Bookable {
				return true
			}
		}
		return false
	})
}

// SlotsFor returns the bookable labels for a single professional.
func (s *DaySnapshot) SlotsFor(professionalID int64, durationMin, intervalMin int) []string {
	ws, we, ok := s.professionalWindow(professionalID)
	if !ok {
		return nil
	}
	return s.walk(ws, we, durationMin, intervalMin, func(t int) bool {
		return s.check(professionalID, t, durationMin).Bookable
	})
}

// Cell is one entry of the staff agenda grid: the per-professional column
// keeps every step and carries its own state instead of filtering rows
// away like the customer-facing list does.
type Cell struct {
	Time     string `json:"time"`
	Bookable bool   `json:"bookable"`
	Reason   Reason `json:"reason,omitempty"`
}

// Grid returns the full per-step column for one professional over the
// business operating window.
func (s *DaySnapshot) Grid(professionalID int64, durationMin, intervalMin int) []Cell {
	if s.Closed() {
		return nil
	}
	interval := s.resolveInterval(intervalMin)

	var cells []Cell
	for t := timeutil.RoundDown(s.open, interval); t+durationMin <= s.close; t += interval {
		d := s.check(professionalID, t, durationMin)
		cells = append(cells, Cell{Time: timeutil.Clock(t), Bookable: d.Bookable, Reason: d.Reason})
	}
	return cells
}

func (s *DaySnapshot) resolveInterval(intervalMin int) int {
	if intervalMin <= 0 {
		intervalMin = s.DefaultInterval
	}
	return s.policy.clampInterval(intervalMin)
}

// aggregateWindow intersects the business operating window with the
// earliest start and latest end across working professionals.
func (s *DaySnapshot) aggregateWindow() (ws, we int, ok bool) {
	if s.Closed() {
		return 0, 0, false
	}

	ws, we = -1, -1
	for _, id := range s.order {
		pd := s.pros[id]
		if !pd.working {
			continue
		}
		if ws < 0 || pd.shift.start < ws {
			ws = pd.shift.start
		}
		if pd.shift.end > we {
			we = pd.shift.end
		}
	}
	if ws < 0 {
		return 0, 0, false
	}

	if s.open > ws {
		ws = s.open
	}
	if s.close < we {
		we = s.close
	}
	return ws, we, ws < we
}

// professionalWindow intersects the business window with one
// professional's shift.
func (s *DaySnapshot) professionalWindow(professionalID int64) (ws, we int, ok bool) {
	if s.Closed() {
		return 0, 0, false
	}
	pd, found := s.pros[professionalID]
	if !found || !pd.working {
		return 0, 0, false
	}

	ws, we = pd.shift.start, pd.shift.end
	if s.open > ws {
		ws = s.open
	}
	if s.close < we {
		we = s.close
	}
	return ws, we, ws < we
}

func (s *DaySnapshot) walk(ws, we, durationMin, intervalMin int, include func(t int) bool) []string {
	interval := s.resolveInterval(intervalMin)

	var slots []string
	for t := timeutil.RoundDown(ws, interval); t+durationMin <= we; t += interval {
		if t < s.NowMinute {
			continue
		}
		if include(t) {
			slots = append(slots, timeutil.Clock(t))
		}
	}
	return slots
}

// GenerateSlots loads the day and returns the aggregated bookable slots
// for the given professionals (nil means all active).
func (e *Engine) GenerateSlots(ctx context.Context, day time.Time, professionalIDs []int64, durationMin, intervalMin int) ([]string, error) {
	metrics.IncSlotRequest()
	snap, err := e.LoadDay(ctx, day, professionalIDs)
	if err != nil {
		return nil, err
	}
	return snap.Slots(durationMin, intervalMin), nil
}

// GenerateSlotsFor loads the day and returns one professional's bookable
// slots.
func (e *Engine) GenerateSlotsFor(ctx context.Context, professionalID int64, day time.Time, durationMin, intervalMin int) ([]string, error) {
	metrics.IncSlotRequest()
	snap, err := e.LoadDay(ctx, day, []int64{professionalID})
	if err != nil {
		return nil, err
	}
	return snap.SlotsFor(professionalID, durationMin, intervalMin), nil
}
