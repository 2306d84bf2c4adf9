package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"navalha/internal/events"
	"navalha/internal/timeutil"
)

// ErrSlotTaken is returned when a write-time conflict check finds the
// requested window already occupied.
var ErrSlotTaken = errors.New("slot already booked")

// DB wraps sql.DB for the scheduling store. Reads are the ScheduleStore
// surface the availability engine consumes; writes publish invalidation
// events on the bus when one is attached.
type DB struct {
	*sql.DB
	tz  timeutil.Converter
	bus *events.Bus
}

// NewDB opens the database at path and runs migrations.
func NewDB(path string, tz timeutil.Converter) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := createTables(db); err != nil {
		return nil, err
	}
	return &DB{DB: db, tz: tz}, nil
}

// SetBus attaches an event bus; writes publish invalidation events on it.
func (db *DB) SetBus(bus *events.Bus) {
	db.bus = bus
}

func (db *DB) publish(eventType, date string, professionalID int64) {
	if db.bus == nil {
		return
	}
	db.bus.Publish(events.Event{Type: eventType, Date: date, ProfessionalID: professionalID})
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS professionals (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			custom_buffer BOOLEAN NOT NULL DEFAULT 0,
			buffer_minutes INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS services (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			duration_minutes INTEGER NOT NULL,
			price_cents INTEGER NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// A professional with no rows here offers every service.
		`CREATE TABLE IF NOT EXISTS professional_services (
			professional_id INTEGER NOT NULL,
			service_id INTEGER NOT NULL,
			PRIMARY KEY (professional_id, service_id),
			FOREIGN KEY (professional_id) REFERENCES professionals(id),
			FOREIGN KEY (service_id) REFERENCES services(id)
		)`,

		`CREATE TABLE IF NOT EXISTS weekly_availability (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			professional_id INTEGER NOT NULL,
			day_of_week INTEGER NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			break_start TEXT,
			break_end TEXT,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (professional_id, day_of_week),
			FOREIGN KEY (professional_id) REFERENCES professionals(id)
		)`,

		`CREATE TABLE IF NOT EXISTS business_hours (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			day_of_week INTEGER NOT NULL UNIQUE,
			open_time TEXT NOT NULL,
			close_time TEXT NOT NULL,
			closed BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS appointments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			professional_id INTEGER NOT NULL,
			service_id INTEGER NOT NULL,
			client_name TEXT NOT NULL,
			client_phone TEXT,
			starts_at DATETIME NOT NULL,
			ends_at DATETIME NOT NULL,
			duration_minutes INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			is_encaixe BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (professional_id) REFERENCES professionals(id),
			FOREIGN KEY (service_id) REFERENCES services(id)
		)`,

		// professional_id NULL scoping is a caller policy decision.
		`CREATE TABLE IF NOT EXISTS time_blocks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			professional_id INTEGER,
			starts_at DATETIME NOT NULL,
			ends_at DATETIME NOT NULL,
			reason TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (professional_id) REFERENCES professionals(id)
		)`,

		`CREATE TABLE IF NOT EXISTS booking_settings (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			buffer_minutes INTEGER NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_weekly_availability_pro ON weekly_availability(professional_id, day_of_week)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_times ON appointments(professional_id, starts_at, ends_at)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_status ON appointments(status)`,
		`CREATE INDEX IF NOT EXISTS idx_time_blocks_times ON time_blocks(starts_at, ends_at)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("exec migration %s: %w", trimSQL(q), err)
		}
	}
	return nil
}

func trimSQL(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}

// inPlaceholders returns "?, ?, ..." with n placeholders.
func inPlaceholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
