package handlers

import (
	"context"
	"time"

	"github.com/dosetrack/dosetrack/internal/adherence"
	"github.com/dosetrack/dosetrack/internal/cache"
	"github.com/dosetrack/dosetrack/internal/database"
	"github.com/dosetrack/dosetrack/internal/queue"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultRefreshDebounce batches refresh jobs when a user logs several doses
// in a row. The taint flag guarantees at most one pending job per user.
const DefaultRefreshDebounce = 30 * time.Second

// AdherenceNotifier propagates dose-log changes to the adherence pipeline:
// it taints the user's snapshot, enqueues a debounced refresh job on the
// fresh-to-stale transition, and drops the affected weekly cache entry.
//
// Failures here are logged but never surfaced to the caller; the dose log
// itself has already been written and the worker pipeline is self-healing.
type AdherenceNotifier struct {
	snapshotRepo database.AdherenceSnapshotRepositoryInterface
	jobQueue     queue.JobQueue
	weeklyCache  *cache.WeeklyCache
	debounce     time.Duration
	logger       *zap.Logger
}

// NewAdherenceNotifier creates a new adherence notifier
func NewAdherenceNotifier(
	snapshotRepo database.AdherenceSnapshotRepositoryInterface,
	jobQueue queue.JobQueue,
	weeklyCache *cache.WeeklyCache,
	logger *zap.Logger,
) *AdherenceNotifier {
	return &AdherenceNotifier{
		snapshotRepo: snapshotRepo,
		jobQueue:     jobQueue,
		weeklyCache:  weeklyCache,
		debounce:     DefaultRefreshDebounce,
		logger:       logger,
	}
}

// DoseLogChanged records that a dose log was created or deleted for a user.
// takenAt locates the cached week to invalidate.
func (n *AdherenceNotifier) DoseLogChanged(ctx context.Context, userID uuid.UUID, medicationID uuid.UUID, takenAt time.Time) {
	if n == nil {
		return
	}

	n.weeklyCache.Invalidate(ctx, userID, adherence.WeekStart(takenAt))

	if n.snapshotRepo == nil {
		return
	}

	tainted, err := n.snapshotRepo.MarkTainted(ctx, userID)
	if err != nil {
		n.logger.Error("failed to taint adherence snapshot",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return
	}

	// Only the fresh-to-stale transition enqueues; a snapshot that is
	// already stale has a refresh job in flight.
	if !tainted || n.jobQueue == nil {
		return
	}

	job := queue.NewJob(queue.JobTypeAdherenceRefresh, userID, &medicationID)
	notBefore := time.Now().Add(n.debounce)
	job.NotBefore = &notBefore

	if err := n.jobQueue.Enqueue(ctx, job); err != nil {
		n.logger.Error("failed to enqueue adherence refresh",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}
}
