package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"navalha/internal/events"
	"navalha/internal/models"
)

// AppointmentsInRange returns blocking appointments for the given
// professionals whose occupied window overlaps [from, to), including ones
// that started before the range and spill into it. Cancelled, no-show and
// encaixe appointments are excluded at the query layer; the engine filters
// again defensively.
func (db *DB) AppointmentsInRange(ctx context.Context, professionalIDs []int64, from, to time.Time) ([]models.Appointment, error) {
	if len(professionalIDs) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT id, professional_id, service_id, client_name, client_phone,
		       starts_at, duration_minutes, status, is_encaixe, created_at, updated_at
		FROM appointments
		WHERE starts_at < ? AND ends_at > ?
		AND status NOT IN ('cancelled', 'no_show')
		AND is_encaixe = 0
		AND professional_id IN (%s)
		ORDER BY starts_at`,
		inPlaceholders(len(professionalIDs)),
	)

	args := append([]any{to, from}, int64Args(professionalIDs)...)
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appointments []models.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, *a)
	}
	return appointments, rows.Err()
}

// AppointmentByID returns a single appointment, nil if not found.
func (db *DB) AppointmentByID(ctx context.Context, id int64) (*models.Appointment, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, professional_id, service_id, client_name, client_phone,
		       starts_at, duration_minutes, status, is_encaixe, created_at, updated_at
		FROM appointments
		WHERE id = ?`,
		id,
	)

	a, err := scanAppointment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// CreateAppointment inserts an appointment after an authoritative
// write-time overlap check inside the same transaction. Advisory reads by
// the availability engine can race with concurrent writes; this check is
// the one that counts. Encaixe bookings skip the check by definition.
func (db *DB) CreateAppointment(ctx context.Context, a *models.Appointment) error {
	if a == nil {
		return fmt.Errorf("appointment is nil")
	}
	if a.Status == "" {
		a.Status = models.StatusPending
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	endsAt := a.EndsAt()
	if !a.IsEncaixe {
		var count int
		err = tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM appointments
			WHERE professional_id = ?
			AND starts_at < ? AND ends_at > ?
			AND status NOT IN ('cancelled', 'no_show')
			AND is_encaixe = 0`,
			a.ProfessionalID, endsAt, a.StartsAt,
		).Scan(&count)
		if err != nil {
			return fmt.Errorf("conflict check: %w", err)
		}
		if count > 0 {
			return ErrSlotTaken
		}
	}

	now := time.Now()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO appointments (
			professional_id, service_id, client_name, client_phone,
			starts_at, ends_at, duration_minutes, status, is_encaixe,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ProfessionalID, a.ServiceID, a.ClientName, nullable(a.ClientPhone),
		a.StartsAt, endsAt, a.DurationMinutes, string(a.Status), a.IsEncaixe,
		now, now,
	)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	a.ID, _ = res.LastInsertId()
	a.CreatedAt = now
	a.UpdatedAt = now

	db.publish(events.TypeAppointmentCreated, db.tz.FormatDate(a.StartsAt), a.ProfessionalID)
	return nil
}

// CancelAppointment marks an appointment cancelled and publishes the
// invalidation event for its date.
func (db *DB) CancelAppointment(ctx context.Context, id int64) error {
	a, err := db.AppointmentByID(ctx, id)
	if err != nil {
		return err
	}
	if a == nil {
		return sql.ErrNoRows
	}

	_, err = db.ExecContext(ctx,
		"UPDATE appointments SET status = ?, updated_at = ? WHERE id = ?",
		string(models.StatusCancelled), time.Now(), id,
	)
	if err != nil {
		return err
	}

	db.publish(events.TypeAppointmentCancelled, db.tz.FormatDate(a.StartsAt), a.ProfessionalID)
	return nil
}

// TimeBlocksInRange returns manual blocks overlapping [from, to) that are
// scoped to one of the given professionals or unassigned. Whether an
// unassigned block applies to everyone is the engine's policy decision.
func (db *DB) TimeBlocksInRange(ctx context.Context, professionalIDs []int64, from, to time.Time) ([]models.TimeBlock, error) {
	query := `
		SELECT id, professional_id, starts_at, ends_at, reason, created_at
		FROM time_blocks
		WHERE starts_at < ? AND ends_at > ?`
	args := []any{to, from}

	if len(professionalIDs) > 0 {
		query += fmt.Sprintf(" AND (professional_id IS NULL OR professional_id IN (%s))", inPlaceholders(len(professionalIDs)))
		args = append(args, int64Args(professionalIDs)...)
	}
	query += " ORDER BY starts_at"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blocks []models.TimeBlock
	for rows.Next() {
		var b models.TimeBlock
		var proID sql.NullInt64
		var reason sql.NullString
		if err := rows.Scan(&b.ID, &proID, &b.StartsAt, &b.EndsAt, &reason, &b.CreatedAt); err != nil {
			return nil, err
		}
		if proID.Valid {
			id := proID.Int64
			b.ProfessionalID = &id
		}
		if reason.Valid {
			b.Reason = reason.String
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

// CreateTimeBlock inserts a manual block.
func (db *DB) CreateTimeBlock(ctx context.Context, b *models.TimeBlock) error {
	if b == nil {
		return fmt.Errorf("time block is nil")
	}

	var proID any
	var eventPro int64
	if b.ProfessionalID != nil {
		proID = *b.ProfessionalID
		eventPro = *b.ProfessionalID
	}

	now := time.Now()
	res, err := db.ExecContext(ctx, `
		INSERT INTO time_blocks (professional_id, starts_at, ends_at, reason, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		proID, b.StartsAt, b.EndsAt, nullable(b.Reason), now,
	)
	if err != nil {
		return err
	}

	b.ID, _ = res.LastInsertId()
	b.CreatedAt = now

	db.publish(events.TypeBlockCreated, db.tz.FormatDate(b.StartsAt), eventPro)
	return nil
}

// DeleteTimeBlock removes a manual block.
func (db *DB) DeleteTimeBlock(ctx context.Context, id int64) error {
	var startsAt time.Time
	var proID sql.NullInt64
	err := db.QueryRowContext(ctx,
		"SELECT starts_at, professional_id FROM time_blocks WHERE id = ?", id,
	).Scan(&startsAt, &proID)
	if err == sql.ErrNoRows {
		return sql.ErrNoRows
	}
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, "DELETE FROM time_blocks WHERE id = ?", id); err != nil {
		return err
	}

	db.publish(events.TypeBlockDeleted, db.tz.FormatDate(startsAt), proID.Int64)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (*models.Appointment, error) {
	var a models.Appointment
	var phone sql.NullString
	var status string
	if err := row.Scan(
		&a.ID, &a.ProfessionalID, &a.ServiceID, &a.ClientName, &phone,
		&a.StartsAt, &a.DurationMinutes, &status, &a.IsEncaixe,
		&a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if phone.Valid {
		a.ClientPhone = phone.String
	}
	a.Status = models.AppointmentStatus(status)
	return &a, nil
}
