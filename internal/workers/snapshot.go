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

// JobProcessor handles a single job type.
type JobProcessor func(ctx context.Context, job *queue.Job) error

type processorEntry struct {
	proc JobProcessor
}

// DefaultMostMissedLimit bounds the most-missed ranking stored in snapshots
const DefaultMostMissedLimit = 3

// SnapshotWorker recomputes adherence snapshots from dose logs. It owns the
// job processor registry: other job types (reminder scans) register here so
// the worker loop dispatches every message through one place.
type SnapshotWorker struct {
	medRepo      database.MedicationRepositoryInterface
	logRepo      database.DoseLogRepositoryInterface
	snapshotRepo database.AdherenceSnapshotRepositoryInterface
	windowDays   int
	logger       *zap.Logger
	registry     map[queue.JobType]processorEntry
}

// NewSnapshotWorker creates a new snapshot worker and registers the
// adherence_refresh processor.
func NewSnapshotWorker(
	medRepo database.MedicationRepositoryInterface,
	logRepo database.DoseLogRepositoryInterface,
	snapshotRepo database.AdherenceSnapshotRepositoryInterface,
	windowDays int,
	logger *zap.Logger,
) *SnapshotWorker {
	w := &SnapshotWorker{
		medRepo:      medRepo,
		logRepo:      logRepo,
		snapshotRepo: snapshotRepo,
		windowDays:   windowDays,
		logger:       logger,
		registry:     make(map[queue.JobType]processorEntry),
	}
	w.RegisterProcessor(queue.JobTypeAdherenceRefresh, w.ProcessAdherenceRefreshJob)
	return w
}

// RegisterProcessor registers a processor for a job type.
func (w *SnapshotWorker) RegisterProcessor(typ queue.JobType, proc JobProcessor) {
	w.registry[typ] = processorEntry{proc: proc}
}

// ProcessAdherenceRefreshJob recomputes the adherence snapshot for a user.
// The version check in UpdateStatistics makes concurrent refreshes safe: the
// loser's write is dropped and the winner's snapshot stands.
func (w *SnapshotWorker) ProcessAdherenceRefreshJob(ctx context.Context, job *queue.Job) error {
	if job.UserID == uuid.Nil {
		return fmt.Errorf("user_id is required for adherence refresh job")
	}

	w.logger.Info("processing_adherence_refresh_job",
		zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
		zap.String("user_id", logpkg.SanitizeUserID(job.UserID.String())),
	)

	snapshot, err := w.snapshotRepo.GetByUserIDOrCreate(ctx, job.UserID, w.windowDays)
	if err != nil {
		return fmt.Errorf("failed to get or create adherence snapshot: %w", err)
	}

	meds, err := w.medRepo.GetByUserID(ctx, job.UserID, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to load medications: %w", err)
	}

	since := time.Now().AddDate(0, 0, -w.windowDays)
	logs, err := w.logRepo.GetByUserIDSince(ctx, job.UserID, since)
	if err != nil {
		return fmt.Errorf("failed to load dose logs: %w", err)
	}

	stat := adherence.Summarize(meds, logs, DefaultMostMissedLimit)

	now := time.Now()
	snapshot.Stat = stat
	snapshot.WindowDays = w.windowDays
	snapshot.LastComputedAt = &now

	updated, err := w.snapshotRepo.UpdateStatistics(ctx, snapshot)
	if err != nil {
		return fmt.Errorf("failed to update adherence snapshot: %w", err)
	}
	if !updated {
		w.logger.Debug("adherence_snapshot_version_conflict",
			zap.String("user_id", logpkg.SanitizeUserID(job.UserID.String())),
		)
		return nil
	}

	w.logger.Info("refreshed_adherence_snapshot",
		zap.String("user_id", logpkg.SanitizeUserID(job.UserID.String())),
		zap.Int("rate", stat.Rate),
		zap.Int("total_logs", stat.Total),
		zap.Int("dose_log_count", len(logs)),
		zap.Int("medication_count", len(meds)),
	)

	return nil
}

// ProcessJob dispatches a message to its registered processor.
func (w *SnapshotWorker) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	if !job.ShouldProcess() {
		fields := []zap.Field{zap.String("job_id", logpkg.SanitizeUserID(job.ID.String()))}
		if job.NotBefore != nil {
			fields = append(fields, zap.Time("not_before", *job.NotBefore))
		}
		w.logger.Debug("job_not_ready", fields...)
		if ackErr := msg.Ack(); ackErr != nil {
			w.logger.Warn("failed_to_ack_job_for_later_processing",
				zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
				zap.String("error", logpkg.SanitizeError(ackErr)),
			)
		}
		return nil
	}

	ent, ok := w.registry[job.Type]
	if !ok {
		if nackErr := msg.Nack(false); nackErr != nil {
			w.logger.Error("failed_to_nack_unknown_job_type",
				zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
				zap.String("job_type", string(job.Type)),
				zap.String("error", logpkg.SanitizeError(nackErr)),
			)
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}

	if err := ent.proc(ctx, job); err != nil {
		w.logger.Error("job_failed",
			zap.String("operation", "process_job"),
			zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
			zap.String("job_type", string(job.Type)),
			zap.String("user_id", logpkg.SanitizeUserID(job.UserID.String())),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		if nackErr := msg.Nack(false); nackErr != nil {
			w.logger.Warn("failed_to_nack_job",
				zap.String("job_id", logpkg.SanitizeUserID(job.ID.String())),
				zap.String("error", logpkg.SanitizeError(nackErr)),
			)
		}
		return fmt.Errorf("%s job failed: %w", job.Type, err)
	}

	if ackErr := msg.Ack(); ackErr != nil {
		return fmt.Errorf("failed to ack job: %w", ackErr)
	}
	return nil
}
