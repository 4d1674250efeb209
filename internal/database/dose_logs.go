package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dosetrack/dosetrack/internal/models"
	"github.com/google/uuid"
)

// DoseLogRepository handles dose log database operations
type DoseLogRepository struct {
	db *DB
}

// NewDoseLogRepository creates a new dose log repository
func NewDoseLogRepository(db *DB) *DoseLogRepository {
	return &DoseLogRepository{db: db}
}

// Create creates a new dose log
func (r *DoseLogRepository) Create(ctx context.Context, log *models.DoseLog) error {
	query := `
		INSERT INTO dose_logs (id, medication_id, user_id, taken_at, is_on_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		log.ID,
		log.MedicationID,
		log.UserID,
		log.TakenAt,
		log.IsOnTime,
		time.Now(),
	).Scan(&log.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create dose log: %w", err)
	}

	return nil
}

// GetByUserIDSince retrieves all dose logs for a user with taken_at on or
// after the given instant, oldest first.
func (r *DoseLogRepository) GetByUserIDSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]*models.DoseLog, error) {
	query := `
		SELECT id, medication_id, user_id, taken_at, is_on_time, created_at
		FROM dose_logs
		WHERE user_id = $1 AND taken_at >= $2
		ORDER BY taken_at ASC, created_at ASC
	`

	return r.queryLogs(ctx, query, userID, since)
}

// GetByUserIDInRange retrieves dose logs for a user within [from, to] by
// taken_at, oldest first. The upper bound is extended to the end of its
// calendar day so a date-only bound captures the whole day.
func (r *DoseLogRepository) GetByUserIDInRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*models.DoseLog, error) {
	dayEnd := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, to.Location()).AddDate(0, 0, 1)

	query := `
		SELECT id, medication_id, user_id, taken_at, is_on_time, created_at
		FROM dose_logs
		WHERE user_id = $1 AND taken_at >= $2 AND taken_at < $3
		ORDER BY taken_at ASC, created_at ASC
	`

	return r.queryLogs(ctx, query, userID, from, dayEnd)
}

// ExistsForDay reports whether a dose log already exists for the medication on
// the calendar day containing takenAt.
func (r *DoseLogRepository) ExistsForDay(ctx context.Context, medicationID uuid.UUID, takenAt time.Time) (bool, error) {
	dayStart := time.Date(takenAt.Year(), takenAt.Month(), takenAt.Day(), 0, 0, 0, 0, takenAt.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM dose_logs
			WHERE medication_id = $1 AND taken_at >= $2 AND taken_at < $3
		)
	`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, medicationID, dayStart, dayEnd).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check dose log existence: %w", err)
	}

	return exists, nil
}

// Delete deletes a dose log by ID
func (r *DoseLogRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM dose_logs WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete dose log: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("dose log not found")
	}

	return nil
}

// GetByID retrieves a dose log by ID
func (r *DoseLogRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.DoseLog, error) {
	log := &models.DoseLog{}

	query := `
		SELECT id, medication_id, user_id, taken_at, is_on_time, created_at
		FROM dose_logs
		WHERE id = $1
	`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&log.ID,
		&log.MedicationID,
		&log.UserID,
		&log.TakenAt,
		&log.IsOnTime,
		&log.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("dose log not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dose log: %w", err)
	}

	return log, nil
}

func (r *DoseLogRepository) queryLogs(ctx context.Context, query string, args ...any) ([]*models.DoseLog, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query dose logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.DoseLog
	for rows.Next() {
		log := &models.DoseLog{}
		err := rows.Scan(
			&log.ID,
			&log.MedicationID,
			&log.UserID,
			&log.TakenAt,
			&log.IsOnTime,
			&log.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dose log: %w", err)
		}
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dose logs: %w", err)
	}

	return logs, nil
}
