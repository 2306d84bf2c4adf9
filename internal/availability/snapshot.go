package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"navalha/internal/metrics"
	"navalha/internal/models"
	"navalha/internal/timeutil"
)

// Store is the read-only schedule query surface the engine consumes. All
// instants crossing this boundary are UTC; wall-clock fields are in the
// business timezone.
type Store interface {
	ActiveProfessionals(ctx context.Context) ([]models.Professional, error)
	WeeklyAvailability(ctx context.Context, professionalIDs []int64, dayOfWeek int) ([]models.WeeklyAvailability, error)
	BusinessHours(ctx context.Context, dayOfWeek int) (*models.BusinessHours, error)
	BookingBuffer(ctx context.Context) (int, error)
	AppointmentsInRange(ctx context.Context, professionalIDs []int64, from, to time.Time) ([]models.Appointment, error)
	TimeBlocksInRange(ctx context.Context, professionalIDs []int64, from, to time.Time) ([]models.TimeBlock, error)
	ServiceEligibility(ctx context.Context, professionalIDs []int64) (map[int64][]int64, error)
}

// Engine computes bookable slots and immediate availability. It holds no
// mutable state: every computation loads a consistent snapshot just in
// time and evaluates pure functions over it. Results are advisory for UI
// purposes; the store re-checks conflicts at write time.
type Engine struct {
	store  Store
	tz     timeutil.Converter
	policy Policy
	logger zerolog.Logger
	nowFn  func() time.Time
}

// NewEngine creates an engine over the given store.
func NewEngine(store Store, tz timeutil.Converter, policy Policy, logger zerolog.Logger) *Engine {
	return &Engine{
		store:  store,
		tz:     tz,
		policy: policy,
		logger: logger,
		nowFn:  time.Now,
	}
}

// SetNow overrides the wall clock, for tests.
func (e *Engine) SetNow(fn func() time.Time) {
	e.nowFn = fn
}

// span is a half-open [start, end) window in minutes of the business day.
type span struct {
	start, end int
}

func (s span) covers(m int) bool {
	return m >= s.start && m < s.end
}

// proDay is one professional's resolved state for the snapshot day.
type proDay struct {
	pro      models.Professional
	shift    span
	working  bool
	noRecord bool // no weekly availability row existed
	brk      *span
	appts    []span
	blocks   []span
	buffer   int
	services []int64 // nil means all services (default-open)
}

// DaySnapshot is everything needed to answer availability questions for
// one business day, fetched with one range query per concern so no
// computation goes back to the store per professional.
type DaySnapshot struct {
	Day       time.Time // local midnight of the business day
	DayOfWeek int
	Hours     *models.BusinessHours

	// NowMinute positions "now" relative to this day: the current minute
	// when the day is today, EndOfDay when the day is entirely past, and
	// -1 for future days.
	NowMinute int

	// DefaultInterval is the resolved business-wide buffer, used as the
	// slot grid step when the caller does not pass one.
	DefaultInterval int

	open, close int
	pros        map[int64]*proDay
	order       []int64
	policy      Policy
}

// Closed reports whether the business does not operate on the snapshot
// day. A missing business-hours record fails closed.
func (s *DaySnapshot) Closed() bool {
	return s.Hours == nil || s.Hours.Closed
}

// Professionals returns the snapshot's professionals in name order.
func (s *DaySnapshot) Professionals() []models.Professional {
	result := make([]models.Professional, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, s.pros[id].pro)
	}
	return result
}

// LoadDay fetches a snapshot for the business day containing day. A nil
// professionalIDs loads every active professional. Store failures abort:
// the engine never defaults to "available" on a missing input.
func (e *Engine) LoadDay(ctx context.Context, day time.Time, professionalIDs []int64) (*DaySnapshot, error) {
	started := time.Now()
	defer func() {
		metrics.ObserveCompute(time.Since(started).Seconds())
	}()

	day = e.tz.DayStart(day)
	dayOfWeek := e.tz.Weekday(day)

	hours, err := e.store.BusinessHours(ctx, dayOfWeek)
	if err != nil {
		metrics.IncStoreError("business_hours")
		return nil, fmt.Errorf("load business hours: %w", err)
	}

	snap := &DaySnapshot{
		Day:       day,
		DayOfWeek: dayOfWeek,
		Hours:     hours,
		policy:    e.policy,
		pros:      make(map[int64]*proDay),
	}

	now := e.nowFn()
	today := e.tz.DayStart(now)
	switch {
	case day.Equal(today):
		snap.NowMinute = e.tz.MinuteOfDay(now)
	case day.Before(today):
		snap.NowMinute = timeutil.EndOfDay
	default:
		snap.NowMinute = -1
	}

	if snap.Closed() {
		return snap, nil
	}

	snap.open, err = timeutil.ParseClock(hours.Open)
	if err != nil {
		return nil, fmt.Errorf("business open time: %w", err)
	}
	closeRaw, err := timeutil.ParseClock(hours.Close)
	if err != nil {
		return nil, fmt.Errorf("business close time: %w", err)
	}
	snap.close = timeutil.NormalizeEnd(snap.open, closeRaw)

	businessBuffer, err := e.store.BookingBuffer(ctx)
	if err != nil {
		metrics.IncStoreError("booking_buffer")
		return nil, fmt.Errorf("load booking buffer: %w", err)
	}
	if businessBuffer <= 0 {
		businessBuffer = e.policy.DefaultBufferMinutes
	}
	snap.DefaultInterval = businessBuffer

	pros, err := e.store.ActiveProfessionals(ctx)
	if err != nil {
		metrics.IncStoreError("professionals")
		return nil, fmt.Errorf("load professionals: %w", err)
	}
	if len(professionalIDs) > 0 {
		wanted := make(map[int64]bool, len(professionalIDs))
		for _, id := range professionalIDs {
			wanted[id] = true
		}
		// Copy, never re-slice: the store may hand out a shared slice.
		filtered := make([]models.Professional, 0, len(professionalIDs))
		for _, p := range pros {
			if wanted[p.ID] {
				filtered = append(filtered, p)
			}
		}
		pros = filtered
	}
	if len(pros) == 0 {
		return snap, nil
	}

	ids := make([]int64, len(pros))
	for i, p := range pros {
		ids[i] = p.ID
	}

	weekly, err := e.store.WeeklyAvailability(ctx, ids, dayOfWeek)
	if err != nil {
		metrics.IncStoreError("weekly_availability")
		return nil, fmt.Errorf("load weekly availability: %w", err)
	}
	schedules := make(map[int64]*models.WeeklyAvailability, len(weekly))
	for i := range weekly {
		schedules[weekly[i].ProfessionalID] = &weekly[i]
	}

	from, to := e.tz.DayBounds(day)
	appointments, err := e.store.AppointmentsInRange(ctx, ids, from, to)
	if err != nil {
		metrics.IncStoreError("appointments")
		return nil, fmt.Errorf("load appointments: %w", err)
	}
	blocks, err := e.store.TimeBlocksInRange(ctx, ids, from, to)
	if err != nil {
		metrics.IncStoreError("time_blocks")
		return nil, fmt.Errorf("load time blocks: %w", err)
	}
	eligibility, err := e.store.ServiceEligibility(ctx, ids)
	if err != nil {
		metrics.IncStoreError("service_eligibility")
		return nil, fmt.Errorf("load service eligibility: %w", err)
	}

	for _, p := range pros {
		pd := &proDay{pro: p, buffer: businessBuffer, services: eligibility[p.ID]}
		if p.CustomBuffer && p.BufferMinutes > 0 {
			pd.buffer = p.BufferMinutes
		}
		e.resolveShift(pd, schedules[p.ID])
		snap.pros[p.ID] = pd
		snap.order = append(snap.order, p.ID)
	}

	for _, a := range appointments {
		// The store already filters cancelled/no-show/encaixe; guard
		// again in case a different Store implementation does not.
		if !a.BlocksSlots() {
			continue
		}
		pd, ok := snap.pros[a.ProfessionalID]
		if !ok {
			continue
		}
		start := int(a.StartsAt.Sub(from) / time.Minute)
		pd.appts = append(pd.appts, span{start: start, end: start + a.DurationMinutes})
	}

	for _, b := range blocks {
		sp := span{
			start: clampMinute(b.StartsAt.Sub(from)),
			end:   clampMinute(b.EndsAt.Sub(from)),
		}
		if sp.start >= sp.end {
			continue
		}
		if b.ProfessionalID == nil {
			if e.policy.UnassignedBlocksApplyToAll {
				for _, pd := range snap.pros {
					pd.blocks = append(pd.blocks, sp)
				}
			}
			continue
		}
		if pd, ok := snap.pros[*b.ProfessionalID]; ok {
			pd.blocks = append(pd.blocks, sp)
		}
	}

	return snap, nil
}

// resolveShift fills the working state for one professional from their
// weekly availability row, applying the missing-row policy.
func (e *Engine) resolveShift(pd *proDay, sched *models.WeeklyAvailability) {
	if sched == nil {
		pd.noRecord = true
		if e.policy.MissingScheduleWorksAllDay {
			pd.working = true
			pd.shift = span{start: 0, end: timeutil.EndOfDay}
		}
		return
	}
	if !sched.IsActive {
		return
	}

	start, err := timeutil.ParseClock(sched.StartTime)
	if err != nil {
		e.logger.Warn().Err(err).Int64("professional_id", pd.pro.ID).Msg("bad shift start time")
		return
	}
	endRaw, err := timeutil.ParseClock(sched.EndTime)
	if err != nil {
		e.logger.Warn().Err(err).Int64("professional_id", pd.pro.ID).Msg("bad shift end time")
		return
	}

	pd.working = true
	pd.shift = span{start: start, end: timeutil.NormalizeEnd(start, endRaw)}

	if sched.HasBreak() {
		bs, err1 := timeutil.ParseClock(sched.BreakStart)
		be, err2 := timeutil.ParseClock(sched.BreakEnd)
		if err1 == nil && err2 == nil && bs < be {
			pd.brk = &span{start: bs, end: be}
		}
	}
}

func clampMinute(d time.Duration) int {
	m := int(d / time.Minute)
	if m < 0 {
		return 0
	}
	if m > timeutil.EndOfDay {
		return timeutil.EndOfDay
	}
	return m
}
