package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/dosetrack/dosetrack/internal/adherence"
	"github.com/dosetrack/dosetrack/internal/database"
	logpkg "github.com/dosetrack/dosetrack/internal/logger"
	"github.com/dosetrack/dosetrack/internal/queue"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// reminderScanLimit caps how many upcoming doses one scan reports per user
const reminderScanLimit = 10

// ReminderScheduler enqueues reminder scan jobs for eligible users twice a
// day. Users paused for inactivity are skipped until their next API request
// resumes them.
type ReminderScheduler struct {
	jobQueue     queue.JobQueue
	activityRepo database.UserActivityRepositoryInterface
	logger       *zap.Logger
}

// NewReminderScheduler creates a new reminder scheduler
func NewReminderScheduler(jobQueue queue.JobQueue, activityRepo database.UserActivityRepositoryInterface, logger *zap.Logger) *ReminderScheduler {
	return &ReminderScheduler{
		jobQueue:     jobQueue,
		activityRepo: activityRepo,
		logger:       logger,
	}
}

// ScheduleReminderScans creates reminder scan jobs for eligible users at the
// next 08:00 and 20:00 local times.
func (r *ReminderScheduler) ScheduleReminderScans(ctx context.Context) error {
	now := time.Now()
	nextMorning := time.Date(now.Year(), now.Month(), now.Day(), 8, 0, 0, 0, now.Location())
	nextEvening := time.Date(now.Year(), now.Month(), now.Day(), 20, 0, 0, 0, now.Location())

	if now.After(nextMorning) {
		nextMorning = nextMorning.Add(24 * time.Hour)
	}
	if now.After(nextEvening) {
		nextEvening = nextEvening.Add(24 * time.Hour)
	}

	eligibleUsers, err := r.activityRepo.GetEligibleUsersForReminders(ctx)
	if err != nil {
		return fmt.Errorf("failed to get eligible users: %w", err)
	}

	for _, userID := range eligibleUsers {
		if err := r.createScanJob(ctx, userID, nextMorning); err != nil {
			r.logger.Warn("failed_to_schedule_morning_reminder_scan",
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
		}

		if err := r.createScanJob(ctx, userID, nextEvening); err != nil {
			r.logger.Warn("failed_to_schedule_evening_reminder_scan",
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
		}
	}

	r.logger.Info("scheduled_reminder_scans",
		zap.Int("user_count", len(eligibleUsers)),
		zap.Time("next_morning", nextMorning),
		zap.Time("next_evening", nextEvening),
	)

	return nil
}

// createScanJob creates a reminder scan job for a user. Stale jobs expire a
// day after their scheduled time so the DLQ GC can drop them.
func (r *ReminderScheduler) createScanJob(ctx context.Context, userID uuid.UUID, notBefore time.Time) error {
	job := queue.NewJob(queue.JobTypeReminderScan, userID, nil)
	job.NotBefore = &notBefore

	notAfter := notBefore.Add(24 * time.Hour)
	job.NotAfter = &notAfter

	if err := r.jobQueue.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("failed to enqueue reminder scan job: %w", err)
	}

	return nil
}

// ReminderScanner processes reminder scan jobs: it projects the user's next
// due doses and records them. Delivery (push, email) hangs off the log for
// now; the projection is the part the schedule math has to get right.
type ReminderScanner struct {
	medRepo      database.MedicationRepositoryInterface
	activityRepo database.UserActivityRepositoryInterface
	logger       *zap.Logger
}

// NewReminderScanner creates a new reminder scanner
func NewReminderScanner(medRepo database.MedicationRepositoryInterface, activityRepo database.UserActivityRepositoryInterface, logger *zap.Logger) *ReminderScanner {
	return &ReminderScanner{
		medRepo:      medRepo,
		activityRepo: activityRepo,
		logger:       logger,
	}
}

// ProcessReminderScanJob computes the next due doses for a user
func (s *ReminderScanner) ProcessReminderScanJob(ctx context.Context, job *queue.Job) error {
	if job.UserID == uuid.Nil {
		return fmt.Errorf("user_id is required for reminder scan job")
	}

	// Pause may have flipped since the job was scheduled
	activity, err := s.activityRepo.GetByUserID(ctx, job.UserID)
	if err == nil && activity != nil && activity.RemindersPaused {
		s.logger.Debug("skipping_reminder_scan_paused_user",
			zap.String("user_id", logpkg.SanitizeUserID(job.UserID.String())),
		)
		return nil
	}

	meds, err := s.medRepo.GetByUserID(ctx, job.UserID, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to load medications: %w", err)
	}

	due, err := adherence.NextDueTimes(meds, time.Now(), reminderScanLimit)
	if err != nil {
		return fmt.Errorf("failed to project due doses: %w", err)
	}

	for _, d := range due {
		s.logger.Info("upcoming_dose",
			zap.String("user_id", logpkg.SanitizeUserID(job.UserID.String())),
			zap.String("medication_id", d.MedicationID.String()),
			zap.String("name", logpkg.SanitizeString(d.Name, logpkg.MaxGeneralStringLength)),
			zap.Time("due_at", d.DueAt),
		)
	}

	s.logger.Info("completed_reminder_scan",
		zap.String("user_id", logpkg.SanitizeUserID(job.UserID.String())),
		zap.Int("medication_count", len(meds)),
		zap.Int("upcoming_doses", len(due)),
	)

	return nil
}
