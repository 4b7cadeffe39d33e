package database

import (
	"database/sql"
	"fmt"
	"time"
)

// SettingsRepository stores small configuration flags outside the
// transactional stores. Writes are immediate.
type SettingsRepository struct {
	db *DB
}

func NewSettingsRepository(db *DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetBool returns the flag value, or the given default when unset.
func (r *SettingsRepository) GetBool(key string, def bool) (bool, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return def, nil
	}
	if err != nil {
		return def, fmt.Errorf("failed to get setting %q: %w", key, err)
	}
	return value == "true", nil
}

// SetBool persists the flag value.
func (r *SettingsRepository) SetBool(key string, value bool) error {
	str := "false"
	if value {
		str = "true"
	}

	_, err := r.db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`, key, str)
	if err != nil {
		return fmt.Errorf("failed to set setting %q: %w", key, err)
	}
	return nil
}

// CrashReport is one captured failure bundle awaiting the user's review.
type CrashReport struct {
	ID           int64
	CreatedAt    time.Time
	MessageID    string
	Stack        string
	EmailExcerpt string
}

// CrashReportRepository persists failure bundles. Bundles are only created
// when the user has opted in; see the processor.
type CrashReportRepository struct {
	db *DB
}

func NewCrashReportRepository(db *DB) *CrashReportRepository {
	return &CrashReportRepository{db: db}
}

// Insert stores a new crash report.
func (r *CrashReportRepository) Insert(report CrashReport) error {
	_, err := r.db.Exec(`
		INSERT INTO crash_reports (created_at, message_id, stack, email_excerpt)
		VALUES (?, ?, ?, ?)
	`, report.CreatedAt.UTC().Format(time.RFC3339), report.MessageID, report.Stack, report.EmailExcerpt)
	if err != nil {
		return fmt.Errorf("failed to insert crash report: %w", err)
	}
	return nil
}

// GetAll returns every stored crash report, oldest first.
func (r *CrashReportRepository) GetAll() ([]CrashReport, error) {
	rows, err := r.db.Query(`
		SELECT id, created_at, message_id, stack, email_excerpt
		FROM crash_reports ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query crash reports: %w", err)
	}
	defer rows.Close()

	var reports []CrashReport
	for rows.Next() {
		var report CrashReport
		var createdAt string
		if err := rows.Scan(&report.ID, &createdAt, &report.MessageID, &report.Stack, &report.EmailExcerpt); err != nil {
			return nil, fmt.Errorf("failed to scan crash report: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			report.CreatedAt = t
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating crash reports: %w", err)
	}
	return reports, nil
}

// Clear deletes all stored crash reports.
func (r *CrashReportRepository) Clear() error {
	if _, err := r.db.Exec(`DELETE FROM crash_reports`); err != nil {
		return fmt.Errorf("failed to clear crash reports: %w", err)
	}
	return nil
}
