package workers

import (
	"context"
	"errors"
	"time"

	"github.com/dosetrack/dosetrack/internal/database"
	"github.com/dosetrack/dosetrack/internal/models"
	"github.com/dosetrack/dosetrack/internal/queue"
	"github.com/google/uuid"
)

// mockJobQueue is a mock implementation of queue.JobQueue
type mockJobQueue struct {
	enqueueFunc func(ctx context.Context, job *queue.Job) error
}

func (m *mockJobQueue) Enqueue(ctx context.Context, job *queue.Job) error {
	if m.enqueueFunc != nil {
		return m.enqueueFunc(ctx, job)
	}
	return nil
}

func (m *mockJobQueue) Dequeue(ctx context.Context) (*queue.Message, error) {
	return nil, errors.New("not implemented")
}

func (m *mockJobQueue) Consume(ctx context.Context, prefetchCount int) (<-chan *queue.Message, <-chan error, error) {
	return nil, nil, errors.New("not implemented")
}

func (m *mockJobQueue) Close() error {
	return nil
}

func (m *mockJobQueue) HealthCheck(ctx context.Context) error {
	return nil
}

var _ queue.JobQueue = (*mockJobQueue)(nil)

// mockMessage is a mock implementation of queue.MessageInterface
type mockMessage struct {
	job     *queue.Job
	acked   bool
	nacked  bool
	requeue bool
}

func (m *mockMessage) Ack() error {
	m.acked = true
	return nil
}

func (m *mockMessage) Nack(requeue bool) error {
	m.nacked = true
	m.requeue = requeue
	return nil
}

func (m *mockMessage) GetJob() *queue.Job {
	return m.job
}

var _ queue.MessageInterface = (*mockMessage)(nil)

// mockMedicationRepo is a mock implementation of MedicationRepositoryInterface
type mockMedicationRepo struct {
	getByUserIDFunc func(ctx context.Context, userID uuid.UUID, category, familyMember *string) ([]*models.Medication, error)
}

func (m *mockMedicationRepo) Create(ctx context.Context, med *models.Medication) error {
	return errors.New("not implemented")
}

func (m *mockMedicationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Medication, error) {
	return nil, errors.New("not implemented")
}

func (m *mockMedicationRepo) GetByUserID(ctx context.Context, userID uuid.UUID, category, familyMember *string) ([]*models.Medication, error) {
	if m.getByUserIDFunc != nil {
		return m.getByUserIDFunc(ctx, userID, category, familyMember)
	}
	return nil, nil
}

func (m *mockMedicationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return errors.New("not implemented")
}

var _ database.MedicationRepositoryInterface = (*mockMedicationRepo)(nil)

// mockDoseLogRepo is a mock implementation of DoseLogRepositoryInterface
type mockDoseLogRepo struct {
	getByUserIDSinceFunc func(ctx context.Context, userID uuid.UUID, since time.Time) ([]*models.DoseLog, error)
}

func (m *mockDoseLogRepo) Create(ctx context.Context, log *models.DoseLog) error {
	return errors.New("not implemented")
}

func (m *mockDoseLogRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.DoseLog, error) {
	return nil, errors.New("not implemented")
}

func (m *mockDoseLogRepo) GetByUserIDSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]*models.DoseLog, error) {
	if m.getByUserIDSinceFunc != nil {
		return m.getByUserIDSinceFunc(ctx, userID, since)
	}
	return nil, nil
}

func (m *mockDoseLogRepo) GetByUserIDInRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*models.DoseLog, error) {
	return nil, errors.New("not implemented")
}

func (m *mockDoseLogRepo) ExistsForDay(ctx context.Context, medicationID uuid.UUID, takenAt time.Time) (bool, error) {
	return false, errors.New("not implemented")
}

func (m *mockDoseLogRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return errors.New("not implemented")
}

var _ database.DoseLogRepositoryInterface = (*mockDoseLogRepo)(nil)

// mockSnapshotRepo is a mock implementation of AdherenceSnapshotRepositoryInterface
type mockSnapshotRepo struct {
	getOrCreateFunc      func(ctx context.Context, userID uuid.UUID, windowDays int) (*models.AdherenceSnapshot, error)
	updateStatisticsFunc func(ctx context.Context, snapshot *models.AdherenceSnapshot) (bool, error)
}

func (m *mockSnapshotRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.AdherenceSnapshot, error) {
	return nil, errors.New("not implemented")
}

func (m *mockSnapshotRepo) GetByUserIDOrCreate(ctx context.Context, userID uuid.UUID, windowDays int) (*models.AdherenceSnapshot, error) {
	if m.getOrCreateFunc != nil {
		return m.getOrCreateFunc(ctx, userID, windowDays)
	}
	return &models.AdherenceSnapshot{UserID: userID, WindowDays: windowDays, Tainted: true}, nil
}

func (m *mockSnapshotRepo) UpdateStatistics(ctx context.Context, snapshot *models.AdherenceSnapshot) (bool, error) {
	if m.updateStatisticsFunc != nil {
		return m.updateStatisticsFunc(ctx, snapshot)
	}
	return true, nil
}

func (m *mockSnapshotRepo) MarkTainted(ctx context.Context, userID uuid.UUID) (bool, error) {
	return false, errors.New("not implemented")
}

func (m *mockSnapshotRepo) Upsert(ctx context.Context, snapshot *models.AdherenceSnapshot) error {
	return errors.New("not implemented")
}

var _ database.AdherenceSnapshotRepositoryInterface = (*mockSnapshotRepo)(nil)

// mockUserActivityRepo is a mock implementation of UserActivityRepositoryInterface
type mockUserActivityRepo struct {
	getByUserIDFunc      func(ctx context.Context, userID uuid.UUID) (*models.UserActivity, error)
	getEligibleUsersFunc func(ctx context.Context) ([]uuid.UUID, error)
}

func (m *mockUserActivityRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserActivity, error) {
	if m.getByUserIDFunc != nil {
		return m.getByUserIDFunc(ctx, userID)
	}
	return &models.UserActivity{UserID: userID, RemindersPaused: false}, nil
}

func (m *mockUserActivityRepo) UpdateLastInteraction(ctx context.Context, userID uuid.UUID) error {
	return nil
}

func (m *mockUserActivityRepo) SetRemindersPaused(ctx context.Context, userID uuid.UUID, paused bool) error {
	return nil
}

func (m *mockUserActivityRepo) GetEligibleUsersForReminders(ctx context.Context) ([]uuid.UUID, error) {
	if m.getEligibleUsersFunc != nil {
		return m.getEligibleUsersFunc(ctx)
	}
	return []uuid.UUID{}, nil
}

func (m *mockUserActivityRepo) GetUsersNeedingReminderPause(ctx context.Context) ([]uuid.UUID, error) {
	return []uuid.UUID{}, nil
}

var _ database.UserActivityRepositoryInterface = (*mockUserActivityRepo)(nil)
