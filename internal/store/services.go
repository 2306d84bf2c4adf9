package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"navalha/internal/models"
)

// ActiveProfessionals returns every active professional ordered by name.
func (db *DB) ActiveProfessionals(ctx context.Context) ([]models.Professional, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, is_active, custom_buffer, buffer_minutes, created_at, updated_at
		FROM professionals
		WHERE is_active = 1
		ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pros []models.Professional
	for rows.Next() {
		var p models.Professional
		if err := rows.Scan(&p.ID, &p.Name, &p.IsActive, &p.CustomBuffer, &p.BufferMinutes, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		pros = append(pros, p)
	}
	return pros, rows.Err()
}

// ProfessionalByID returns one professional, nil if not found.
func (db *DB) ProfessionalByID(ctx context.Context, id int64) (*models.Professional, error) {
	var p models.Professional
	err := db.QueryRowContext(ctx, `
		SELECT id, name, is_active, custom_buffer, buffer_minutes, created_at, updated_at
		FROM professionals
		WHERE id = ?`,
		id,
	).Scan(&p.ID, &p.Name, &p.IsActive, &p.CustomBuffer, &p.BufferMinutes, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProfessional inserts a professional.
func (db *DB) CreateProfessional(ctx context.Context, p *models.Professional) error {
	if p == nil {
		return fmt.Errorf("professional is nil")
	}

	now := time.Now()
	res, err := db.ExecContext(ctx, `
		INSERT INTO professionals (name, is_active, custom_buffer, buffer_minutes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.Name, p.IsActive, p.CustomBuffer, p.BufferMinutes, now, now,
	)
	if err != nil {
		return err
	}
	p.ID, _ = res.LastInsertId()
	return nil
}

// ServiceByID returns one service, nil if not found.
func (db *DB) ServiceByID(ctx context.Context, id int64) (*models.Service, error) {
	var s models.Service
	err := db.QueryRowContext(ctx, `
		SELECT id, name, duration_minutes, price_cents, is_active, created_at, updated_at
		FROM services
		WHERE id = ?`,
		id,
	).Scan(&s.ID, &s.Name, &s.DurationMinutes, &s.PriceCents, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateService inserts a service.
func (db *DB) CreateService(ctx context.Context, s *models.Service) error {
	if s == nil {
		return fmt.Errorf("service is nil")
	}

	now := time.Now()
	res, err := db.ExecContext(ctx, `
		INSERT INTO services (name, duration_minutes, price_cents, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.Name, s.DurationMinutes, s.PriceCents, s.IsActive, now, now,
	)
	if err != nil {
		return err
	}
	s.ID, _ = res.LastInsertId()
	return nil
}

// AssignService restricts a professional to the given service. A
// professional with no assignments offers everything; the first
// assignment flips them to the listed set only.
func (db *DB) AssignService(ctx context.Context, professionalID, serviceID int64) error {
	_, err := db.ExecContext(ctx, `
		INSERT OR IGNORE INTO professional_services (professional_id, service_id)
		VALUES (?, ?)`,
		professionalID, serviceID,
	)
	return err
}

// ServiceEligibility returns the explicit service sets for the given
// professionals. A professional absent from the map has no rows and is
// treated as offering all services (default-open policy).
func (db *DB) ServiceEligibility(ctx context.Context, professionalIDs []int64) (map[int64][]int64, error) {
	result := make(map[int64][]int64)
	if len(professionalIDs) == 0 {
		return result, nil
	}

	query := fmt.Sprintf(`
		SELECT professional_id, service_id
		FROM professional_services
		WHERE professional_id IN (%s)
		ORDER BY professional_id, service_id`,
		inPlaceholders(len(professionalIDs)),
	)

	rows, err := db.QueryContext(ctx, query, int64Args(professionalIDs)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var proID, serviceID int64
		if err := rows.Scan(&proID, &serviceID); err != nil {
			return nil, err
		}
		result[proID] = append(result[proID], serviceID)
	}
	return result, rows.Err()
}
