package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dosetrack/dosetrack/internal/database"
	"github.com/dosetrack/dosetrack/internal/middleware"
	"github.com/dosetrack/dosetrack/internal/models"
	"github.com/dosetrack/dosetrack/internal/queue"
	"github.com/dosetrack/dosetrack/internal/services/insights"
	"github.com/google/uuid"
)

// Shared mock implementations for handler tests. Each mock exposes func
// fields so individual tests can override just the behavior they exercise.

var errNotFound = errors.New("not found")

type mockMedicationRepo struct {
	createFunc      func(ctx context.Context, med *models.Medication) error
	getByIDFunc     func(ctx context.Context, id uuid.UUID) (*models.Medication, error)
	getByUserIDFunc func(ctx context.Context, userID uuid.UUID, category, familyMember *string) ([]*models.Medication, error)
	deleteFunc      func(ctx context.Context, id uuid.UUID) error
}

var _ database.MedicationRepositoryInterface = (*mockMedicationRepo)(nil)

func (m *mockMedicationRepo) Create(ctx context.Context, med *models.Medication) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, med)
	}
	return nil
}

func (m *mockMedicationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Medication, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, errNotFound
}

func (m *mockMedicationRepo) GetByUserID(ctx context.Context, userID uuid.UUID, category, familyMember *string) ([]*models.Medication, error) {
	if m.getByUserIDFunc != nil {
		return m.getByUserIDFunc(ctx, userID, category, familyMember)
	}
	return nil, nil
}

func (m *mockMedicationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

type mockDoseLogRepo struct {
	createFunc           func(ctx context.Context, log *models.DoseLog) error
	getByIDFunc          func(ctx context.Context, id uuid.UUID) (*models.DoseLog, error)
	getByUserIDSinceFunc func(ctx context.Context, userID uuid.UUID, since time.Time) ([]*models.DoseLog, error)
	getByUserIDRangeFunc func(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*models.DoseLog, error)
	existsForDayFunc     func(ctx context.Context, medicationID uuid.UUID, takenAt time.Time) (bool, error)
	deleteFunc           func(ctx context.Context, id uuid.UUID) error
}

var _ database.DoseLogRepositoryInterface = (*mockDoseLogRepo)(nil)

func (m *mockDoseLogRepo) Create(ctx context.Context, log *models.DoseLog) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, log)
	}
	return nil
}

func (m *mockDoseLogRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.DoseLog, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, errNotFound
}

func (m *mockDoseLogRepo) GetByUserIDSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]*models.DoseLog, error) {
	if m.getByUserIDSinceFunc != nil {
		return m.getByUserIDSinceFunc(ctx, userID, since)
	}
	return nil, nil
}

func (m *mockDoseLogRepo) GetByUserIDInRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*models.DoseLog, error) {
	if m.getByUserIDRangeFunc != nil {
		return m.getByUserIDRangeFunc(ctx, userID, from, to)
	}
	return nil, nil
}

func (m *mockDoseLogRepo) ExistsForDay(ctx context.Context, medicationID uuid.UUID, takenAt time.Time) (bool, error) {
	if m.existsForDayFunc != nil {
		return m.existsForDayFunc(ctx, medicationID, takenAt)
	}
	return false, nil
}

func (m *mockDoseLogRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

type mockSnapshotRepo struct {
	getByUserIDFunc         func(ctx context.Context, userID uuid.UUID) (*models.AdherenceSnapshot, error)
	getByUserIDOrCreateFunc func(ctx context.Context, userID uuid.UUID, windowDays int) (*models.AdherenceSnapshot, error)
	updateStatisticsFunc    func(ctx context.Context, snapshot *models.AdherenceSnapshot) (bool, error)
	markTaintedFunc         func(ctx context.Context, userID uuid.UUID) (bool, error)
	upsertFunc              func(ctx context.Context, snapshot *models.AdherenceSnapshot) error
}

var _ database.AdherenceSnapshotRepositoryInterface = (*mockSnapshotRepo)(nil)

func (m *mockSnapshotRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.AdherenceSnapshot, error) {
	if m.getByUserIDFunc != nil {
		return m.getByUserIDFunc(ctx, userID)
	}
	return nil, errNotFound
}

func (m *mockSnapshotRepo) GetByUserIDOrCreate(ctx context.Context, userID uuid.UUID, windowDays int) (*models.AdherenceSnapshot, error) {
	if m.getByUserIDOrCreateFunc != nil {
		return m.getByUserIDOrCreateFunc(ctx, userID, windowDays)
	}
	return &models.AdherenceSnapshot{UserID: userID, WindowDays: windowDays}, nil
}

func (m *mockSnapshotRepo) UpdateStatistics(ctx context.Context, snapshot *models.AdherenceSnapshot) (bool, error) {
	if m.updateStatisticsFunc != nil {
		return m.updateStatisticsFunc(ctx, snapshot)
	}
	return true, nil
}

func (m *mockSnapshotRepo) MarkTainted(ctx context.Context, userID uuid.UUID) (bool, error) {
	if m.markTaintedFunc != nil {
		return m.markTaintedFunc(ctx, userID)
	}
	return true, nil
}

func (m *mockSnapshotRepo) Upsert(ctx context.Context, snapshot *models.AdherenceSnapshot) error {
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, snapshot)
	}
	return nil
}

type mockJobQueue struct {
	enqueueFunc func(ctx context.Context, job *queue.Job) error
	enqueued    []*queue.Job
}

var _ queue.JobQueue = (*mockJobQueue)(nil)

func (m *mockJobQueue) Enqueue(ctx context.Context, job *queue.Job) error {
	m.enqueued = append(m.enqueued, job)
	if m.enqueueFunc != nil {
		return m.enqueueFunc(ctx, job)
	}
	return nil
}

func (m *mockJobQueue) Dequeue(ctx context.Context) (*queue.Message, error) { return nil, nil }

func (m *mockJobQueue) Consume(ctx context.Context, prefetchCount int) (<-chan *queue.Message, <-chan error, error) {
	return nil, nil, nil
}

func (m *mockJobQueue) Close() error { return nil }

func (m *mockJobQueue) HealthCheck(ctx context.Context) error { return nil }

type mockInsightProvider struct {
	generateFunc func(ctx context.Context, stat models.AdherenceStat, daily []models.DailyAdherence, windowDays int) (string, error)
}

var _ insights.InsightProvider = (*mockInsightProvider)(nil)

func (m *mockInsightProvider) GenerateAdherenceInsight(ctx context.Context, stat models.AdherenceStat, daily []models.DailyAdherence, windowDays int) (string, error) {
	if m.generateFunc != nil {
		return m.generateFunc(ctx, stat, daily, windowDays)
	}
	return "", nil
}

// withUser attaches an authenticated user to a request, the way the auth
// middleware would
func withUser(r *http.Request, user *models.User) *http.Request {
	return r.WithContext(middleware.SetUserInContext(r.Context(), user))
}

func testUser() *models.User {
	return &models.User{ID: uuid.New(), Email: "pat@example.com"}
}
