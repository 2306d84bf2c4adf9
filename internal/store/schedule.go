package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"navalha/internal/events"
	"navalha/internal/models"
)

// DefaultHoursConfig provides default operating hours used when seeding a
// fresh database. Sundays start closed.
var DefaultHoursConfig = struct {
	Open  string
	Close string
}{
	Open:  "09:00",
	Close: "19:00",
}

// WeeklyAvailability returns the schedule rows for the given professionals
// on a day of week (0-6, Sunday-based). Professionals without a row are
// simply absent from the result; interpreting that absence is the
// engine's policy decision.
func (db *DB) WeeklyAvailability(ctx context.Context, professionalIDs []int64, dayOfWeek int) ([]models.WeeklyAvailability, error) {
	if len(professionalIDs) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT id, professional_id, day_of_week, start_time, end_time,
		       break_start, break_end, is_active, created_at, updated_at
		FROM weekly_availability
		WHERE day_of_week = ? AND professional_id IN (%s)`,
		inPlaceholders(len(professionalIDs)),
	)

	args := append([]any{dayOfWeek}, int64Args(professionalIDs)...)
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.WeeklyAvailability
	for rows.Next() {
		var w models.WeeklyAvailability
		var breakStart, breakEnd sql.NullString
		if err := rows.Scan(
			&w.ID, &w.ProfessionalID, &w.DayOfWeek, &w.StartTime, &w.EndTime,
			&breakStart, &breakEnd, &w.IsActive, &w.CreatedAt, &w.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if breakStart.Valid {
			w.BreakStart = breakStart.String
		}
		if breakEnd.Valid {
			w.BreakEnd = breakEnd.String
		}
		result = append(result, w)
	}
	return result, rows.Err()
}

// UpsertWeeklyAvailability creates or replaces a professional's schedule
// for a day of week.
func (db *DB) UpsertWeeklyAvailability(ctx context.Context, w *models.WeeklyAvailability) error {
	if w == nil {
		return fmt.Errorf("weekly availability is nil")
	}

	now := time.Now()
	_, err := db.ExecContext(ctx, `
		INSERT INTO weekly_availability (
			professional_id, day_of_week, start_time, end_time,
			break_start, break_end, is_active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(professional_id, day_of_week) DO UPDATE SET
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			break_start = excluded.break_start,
			break_end = excluded.break_end,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at`,
		w.ProfessionalID, w.DayOfWeek, w.StartTime, w.EndTime,
		nullable(w.BreakStart), nullable(w.BreakEnd), w.IsActive, now, now,
	)
	if err != nil {
		return err
	}

	db.publish(events.TypeScheduleChanged, "", w.ProfessionalID)
	return nil
}

// BusinessHours returns the operating window for a day of week, or nil
// when no row exists (callers treat that as closed).
func (db *DB) BusinessHours(ctx context.Context, dayOfWeek int) (*models.BusinessHours, error) {
	var h models.BusinessHours
	err := db.QueryRowContext(ctx, `
		SELECT id, day_of_week, open_time, close_time, closed, created_at, updated_at
		FROM business_hours
		WHERE day_of_week = ?
		LIMIT 1`,
		dayOfWeek,
	).Scan(&h.ID, &h.DayOfWeek, &h.Open, &h.Close, &h.Closed, &h.CreatedAt, &h.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// SetBusinessHours creates or updates the operating window for a day of
// week.
func (db *DB) SetBusinessHours(ctx context.Context, h *models.BusinessHours) error {
	if h == nil {
		return fmt.Errorf("business hours is nil")
	}

	now := time.Now()
	_, err := db.ExecContext(ctx, `
		INSERT INTO business_hours (day_of_week, open_time, close_time, closed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(day_of_week) DO UPDATE SET
			open_time = excluded.open_time,
			close_time = excluded.close_time,
			closed = excluded.closed,
			updated_at = excluded.updated_at`,
		h.DayOfWeek, h.Open, h.Close, h.Closed, now, now,
	)
	if err != nil {
		return err
	}

	db.publish(events.TypeScheduleChanged, "", 0)
	return nil
}

// EnsureDefaultHours creates default business hours for any day of week
// missing a row. Sunday is seeded closed.
func (db *DB) EnsureDefaultHours(ctx context.Context) error {
	for dayOfWeek := 0; dayOfWeek <= 6; dayOfWeek++ {
		existing, err := db.BusinessHours(ctx, dayOfWeek)
		if err != nil {
			return fmt.Errorf("check hours for day %d: %w", dayOfWeek, err)
		}
		if existing != nil {
			continue
		}

		h := &models.BusinessHours{
			DayOfWeek: dayOfWeek,
			Open:      DefaultHoursConfig.Open,
			Close:     DefaultHoursConfig.Close,
			Closed:    dayOfWeek == 0,
		}
		if err := db.SetBusinessHours(ctx, h); err != nil {
			return fmt.Errorf("create hours for day %d: %w", dayOfWeek, err)
		}
	}
	return nil
}

// BookingBuffer returns the business-wide buffer in minutes, or 0 when
// unset (the engine substitutes its configured default).
func (db *DB) BookingBuffer(ctx context.Context) (int, error) {
	var minutes int
	err := db.QueryRowContext(ctx,
		"SELECT buffer_minutes FROM booking_settings WHERE id = 1",
	).Scan(&minutes)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return minutes, nil
}

// SetBookingBuffer stores the business-wide buffer in minutes.
func (db *DB) SetBookingBuffer(ctx context.Context, minutes int) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO booking_settings (id, buffer_minutes, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			buffer_minutes = excluded.buffer_minutes,
			updated_at = excluded.updated_at`,
		minutes, time.Now(),
	)
	if err != nil {
		return err
	}

	db.publish(events.TypeScheduleChanged, "", 0)
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
