package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dosetrack/dosetrack/internal/models"
	"github.com/dosetrack/dosetrack/internal/queue"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func TestReminderScheduler_ScheduleReminderScans(t *testing.T) {
	t.Parallel()

	userID1 := uuid.New()
	userID2 := uuid.New()

	var mu sync.Mutex
	var enqueued []*queue.Job
	jobQueue := &mockJobQueue{
		enqueueFunc: func(ctx context.Context, job *queue.Job) error {
			mu.Lock()
			defer mu.Unlock()
			enqueued = append(enqueued, job)
			return nil
		},
	}

	activityRepo := &mockUserActivityRepo{
		getEligibleUsersFunc: func(ctx context.Context) ([]uuid.UUID, error) {
			return []uuid.UUID{userID1, userID2}, nil
		},
	}

	scheduler := NewReminderScheduler(jobQueue, activityRepo, zap.NewNop())
	if err := scheduler.ScheduleReminderScans(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Two users, two scheduled times each.
	if len(enqueued) != 4 {
		t.Fatalf("expected 4 jobs, got %d", len(enqueued))
	}

	now := time.Now()
	for _, job := range enqueued {
		if job.Type != queue.JobTypeReminderScan {
			t.Errorf("job type = %s, want %s", job.Type, queue.JobTypeReminderScan)
		}
		if job.NotBefore == nil || job.NotBefore.Before(now) {
			t.Errorf("NotBefore = %v, want a future time", job.NotBefore)
		}
		if job.NotAfter == nil {
			t.Error("NotAfter not set")
		} else if got := job.NotAfter.Sub(*job.NotBefore); got != 24*time.Hour {
			t.Errorf("expiry window = %v, want 24h", got)
		}
	}
}

func TestReminderScheduler_NoEligibleUsers(t *testing.T) {
	t.Parallel()

	enqueueCount := 0
	jobQueue := &mockJobQueue{
		enqueueFunc: func(ctx context.Context, job *queue.Job) error {
			enqueueCount++
			return nil
		},
	}

	scheduler := NewReminderScheduler(jobQueue, &mockUserActivityRepo{}, zap.NewNop())
	if err := scheduler.ScheduleReminderScans(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enqueueCount != 0 {
		t.Errorf("expected no jobs, got %d", enqueueCount)
	}
}

func TestReminderScheduler_EligibleUsersError(t *testing.T) {
	t.Parallel()

	activityRepo := &mockUserActivityRepo{
		getEligibleUsersFunc: func(ctx context.Context) ([]uuid.UUID, error) {
			return nil, errors.New("db down")
		},
	}

	scheduler := NewReminderScheduler(&mockJobQueue{}, activityRepo, zap.NewNop())
	if err := scheduler.ScheduleReminderScans(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestReminderScanner_ProcessReminderScanJob(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	med := testMedication(userID, "Metformin", []string{"08:00", "20:00"}, time.Now().AddDate(0, 0, -7))

	medRepo := &mockMedicationRepo{
		getByUserIDFunc: func(ctx context.Context, uid uuid.UUID, category, familyMember *string) ([]*models.Medication, error) {
			return []*models.Medication{med}, nil
		},
	}

	scanner := NewReminderScanner(medRepo, &mockUserActivityRepo{}, zap.NewNop())
	job := queue.NewJob(queue.JobTypeReminderScan, userID, nil)
	if err := scanner.ProcessReminderScanJob(context.Background(), job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReminderScanner_SkipsPausedUser(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	medLoaded := false

	medRepo := &mockMedicationRepo{
		getByUserIDFunc: func(ctx context.Context, uid uuid.UUID, category, familyMember *string) ([]*models.Medication, error) {
			medLoaded = true
			return nil, nil
		},
	}
	activityRepo := &mockUserActivityRepo{
		getByUserIDFunc: func(ctx context.Context, uid uuid.UUID) (*models.UserActivity, error) {
			return &models.UserActivity{UserID: uid, RemindersPaused: true}, nil
		},
	}

	scanner := NewReminderScanner(medRepo, activityRepo, zap.NewNop())
	job := queue.NewJob(queue.JobTypeReminderScan, userID, nil)
	if err := scanner.ProcessReminderScanJob(context.Background(), job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if medLoaded {
		t.Error("paused user's medications should not be loaded")
	}
}

func TestReminderScanner_MalformedScheduleSurfaces(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	med := testMedication(userID, "Bad", []string{"noon"}, time.Now().AddDate(0, 0, -7))

	medRepo := &mockMedicationRepo{
		getByUserIDFunc: func(ctx context.Context, uid uuid.UUID, category, familyMember *string) ([]*models.Medication, error) {
			return []*models.Medication{med}, nil
		},
	}

	scanner := NewReminderScanner(medRepo, &mockUserActivityRepo{}, zap.NewNop())
	job := queue.NewJob(queue.JobTypeReminderScan, userID, nil)
	if err := scanner.ProcessReminderScanJob(context.Background(), job); err == nil {
		t.Fatal("expected error for malformed schedule")
	}
}
