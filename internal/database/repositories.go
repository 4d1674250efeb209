package database

import (
	"context"
	"time"

	"github.com/dosetrack/dosetrack/internal/models"
	"github.com/google/uuid"
)

// MedicationRepositoryInterface defines the interface for medication repository
// operations. Interfaces here enable mock implementations in handler and
// worker tests.
type MedicationRepositoryInterface interface {
	Create(ctx context.Context, med *models.Medication) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Medication, error)
	GetByUserID(ctx context.Context, userID uuid.UUID, category, familyMember *string) ([]*models.Medication, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// DoseLogRepositoryInterface defines the interface for dose log repository operations
type DoseLogRepositoryInterface interface {
	Create(ctx context.Context, log *models.DoseLog) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.DoseLog, error)
	GetByUserIDSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]*models.DoseLog, error)
	GetByUserIDInRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*models.DoseLog, error)
	ExistsForDay(ctx context.Context, medicationID uuid.UUID, takenAt time.Time) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AdherenceSnapshotRepositoryInterface defines the interface for adherence
// snapshot repository operations
type AdherenceSnapshotRepositoryInterface interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.AdherenceSnapshot, error)
	GetByUserIDOrCreate(ctx context.Context, userID uuid.UUID, windowDays int) (*models.AdherenceSnapshot, error)
	UpdateStatistics(ctx context.Context, snapshot *models.AdherenceSnapshot) (bool, error)
	MarkTainted(ctx context.Context, userID uuid.UUID) (bool, error)
	Upsert(ctx context.Context, snapshot *models.AdherenceSnapshot) error
}

// UserActivityRepositoryInterface defines the interface for user activity repository operations
type UserActivityRepositoryInterface interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserActivity, error)
	UpdateLastInteraction(ctx context.Context, userID uuid.UUID) error
	SetRemindersPaused(ctx context.Context, userID uuid.UUID, paused bool) error
	GetEligibleUsersForReminders(ctx context.Context) ([]uuid.UUID, error)
	GetUsersNeedingReminderPause(ctx context.Context) ([]uuid.UUID, error)
}

// Ensure concrete types implement the interfaces
var (
	_ MedicationRepositoryInterface        = (*MedicationRepository)(nil)
	_ DoseLogRepositoryInterface           = (*DoseLogRepository)(nil)
	_ AdherenceSnapshotRepositoryInterface = (*AdherenceSnapshotRepository)(nil)
	_ UserActivityRepositoryInterface      = (*UserActivityRepository)(nil)
)
