package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dosetrack/dosetrack/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// MedicationRepository handles medication database operations
type MedicationRepository struct {
	db *DB
}

// NewMedicationRepository creates a new medication repository
func NewMedicationRepository(db *DB) *MedicationRepository {
	return &MedicationRepository{db: db}
}

// Create creates a new medication. Medications are immutable after creation:
// corrections are delete-and-recreate, so there is no Update.
func (r *MedicationRepository) Create(ctx context.Context, med *models.Medication) error {
	query := `
		INSERT INTO medications (id, user_id, name, dose, frequency, times, start_date, end_date, category, family_member, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at
	`

	var endDate sql.NullTime
	if med.EndDate != nil {
		endDate = sql.NullTime{Time: *med.EndDate, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query,
		med.ID,
		med.UserID,
		med.Name,
		med.Dose,
		med.Frequency,
		pq.Array(med.Times),
		med.StartDate,
		endDate,
		med.Category,
		med.FamilyMember,
		time.Now(),
	).Scan(&med.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create medication: %w", err)
	}

	return nil
}

// GetByID retrieves a medication by ID
func (r *MedicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Medication, error) {
	query := `
		SELECT id, user_id, name, dose, frequency, times, start_date, end_date, category, family_member, created_at
		FROM medications
		WHERE id = $1
	`

	med, err := scanMedication(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("medication not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get medication: %w", err)
	}

	return med, nil
}

// GetByUserID retrieves all medications for a user, optionally filtered by
// category and family member. Ordered by creation time so derived lists
// (due doses, missed rankings) break ties deterministically.
func (r *MedicationRepository) GetByUserID(ctx context.Context, userID uuid.UUID, category, familyMember *string) ([]*models.Medication, error) {
	query := `
		SELECT id, user_id, name, dose, frequency, times, start_date, end_date, category, family_member, created_at
		FROM medications
		WHERE user_id = $1
	`
	args := []any{userID}
	argIndex := 2

	if category != nil {
		query += fmt.Sprintf(" AND category = $%d", argIndex)
		args = append(args, *category)
		argIndex++
	}

	if familyMember != nil {
		query += fmt.Sprintf(" AND family_member = $%d", argIndex)
		args = append(args, *familyMember)
		argIndex++
	}

	query += " ORDER BY created_at ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query medications: %w", err)
	}
	defer rows.Close()

	var meds []*models.Medication
	for rows.Next() {
		med, err := scanMedication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan medication: %w", err)
		}
		meds = append(meds, med)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating medications: %w", err)
	}

	return meds, nil
}

// Delete deletes a medication by ID. Dose logs referencing it are removed by
// the ON DELETE CASCADE constraint.
func (r *MedicationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM medications WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete medication: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("medication not found")
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMedication(row rowScanner) (*models.Medication, error) {
	med := &models.Medication{}
	var endDate sql.NullTime

	err := row.Scan(
		&med.ID,
		&med.UserID,
		&med.Name,
		&med.Dose,
		&med.Frequency,
		pq.Array(&med.Times),
		&med.StartDate,
		&endDate,
		&med.Category,
		&med.FamilyMember,
		&med.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if endDate.Valid {
		med.EndDate = &endDate.Time
	}

	return med, nil
}
