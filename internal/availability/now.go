package availability

import (
	"context"
	"sort"
	"time"

	"navalha/internal/metrics"
	"navalha/internal/timeutil"
)

// Entry describes a professional who is free right now (or right after
// their break) and for how long.
type Entry struct {
	ProfessionalID int64   `json:"professional_id"`
	Name           string  `json:"name"`
	FreeFrom       string  `json:"free_from"`
	FreeUntil      string  `json:"free_until"`
	FreeMinutes    int     `json:"free_minutes"`
	ServiceIDs     []int64 `json:"service_ids,omitempty"` // capped; empty means all services
}

// AvailableNow reports which professionals are free at the given instant
// and until when. serviceID filters by eligibility (0 means any);
// minDurationMin drops windows too short to fit the requested service.
//
// A professional whose window is cut short by an upcoming break is
// re-evaluated from the break's end: if the post-break window fits, they
// are reported as free from that point instead of being dropped.
func (e *Engine) AvailableNow(ctx context.Context, now time.Time, serviceID int64, minDurationMin int) ([]Entry, error) {
	metrics.IncAvailableNow()

	snap, err := e.LoadDay(ctx, now, nil)
	if err != nil {
		return nil, err
	}
	if snap.Closed() {
		return nil, nil
	}

	nowMin := e.tz.MinuteOfDay(now)
	if nowMin < snap.open || nowMin >= snap.close {
		return nil, nil
	}

	need := minDurationMin
	if need <= 0 {
		need = 1
	}

	var entries []Entry
	for _, id := range snap.order {
		pd := snap.pros[id]

		// Unlike slot generation, the "free now" list never uses the
		// permissive missing-row fallback: no schedule row, no listing.
		if !pd.working || pd.noRecord {
			continue
		}
		if !pd.shift.covers(nowMin) {
			continue
		}
		if pd.brk != nil && pd.brk.covers(nowMin) {
			continue
		}
		if coveredByAny(pd.appts, nowMin) || coveredByAny(pd.blocks, nowMin) {
			continue
		}
		if serviceID > 0 && pd.services != nil && !containsID(pd.services, serviceID) {
			continue
		}

		// Last bookable start respects the buffer before closing.
		effEnd := snap.close - pd.buffer
		if pd.shift.end < effEnd {
			effEnd = pd.shift.end
		}
		if effEnd <= nowMin {
			continue
		}

		limit := effEnd
		limitedByBreak := false
		if pd.brk != nil && nowMin < pd.brk.start && pd.brk.start < limit {
			limit = pd.brk.start
			limitedByBreak = true
		}
		if next, ok := nextStart(pd.appts, nowMin); ok && next < limit {
			limit = next
			limitedByBreak = false
		}
		if next, ok := nextStart(pd.blocks, nowMin); ok && next < limit {
			limit = next
			limitedByBreak = false
		}

		if limit-nowMin >= need {
			entries = append(entries, e.entry(pd, nowMin, limit))
			continue
		}

		if limitedByBreak {
			from, until := postBreakWindow(pd, effEnd)
			if until-from >= need {
				entries = append(entries, e.entry(pd, from, until))
			}
		}
	}

	// Most free time first; professional id breaks ties for stable output.
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].FreeMinutes != entries[j].FreeMinutes {
			return entries[i].FreeMinutes > entries[j].FreeMinutes
		}
		return entries[i].ProfessionalID < entries[j].ProfessionalID
	})
	return entries, nil
}

// postBreakWindow computes the free window starting when the break ends,
// tightened by the first appointment or block after (or spanning) that
// point.
func postBreakWindow(pd *proDay, effEnd int) (from, until int) {
	from = pd.brk.end
	until = effEnd

	for _, sp := range pd.appts {
		until = tighten(sp, from, until)
	}
	for _, sp := range pd.blocks {
		until = tighten(sp, from, until)
	}
	return from, until
}

func tighten(sp span, from, until int) int {
	if sp.end <= from {
		return until
	}
	if sp.start <= from {
		return from
	}
	if sp.start < until {
		return sp.start
	}
	return until
}

func (e *Engine) entry(pd *proDay, from, until int) Entry {
	services := pd.services
	if max := e.policy.MaxServicesShown; max > 0 && len(services) > max {
		services = services[:max]
	}
	return Entry{
		ProfessionalID: pd.pro.ID,
		Name:           pd.pro.Name,
		FreeFrom:       timeutil.Clock(from),
		FreeUntil:      timeutil.Clock(until),
		FreeMinutes:    until - from,
		ServiceIDs:     services,
	}
}

func coveredByAny(spans []span, m int) bool {
	for _, sp := range spans {
		if sp.covers(m) {
			return true
		}
	}
	return false
}

// nextStart returns the earliest span start strictly after m.
func nextStart(spans []span, m int) (int, bool) {
	best, found := 0, false
	for _, sp := range spans {
		if sp.start > m && (!found || sp.start < best) {
			best, found = sp.start, true
		}
	}
	return best, found
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
