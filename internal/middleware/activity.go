package middleware

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/dosetrack/dosetrack/internal/database"
)

// ActivityTracking records user activity and manages reminder pause/resume.
// Any authenticated request resumes reminders for the user.
func ActivityTracking(activityRepo *database.UserActivityRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r)
			if user != nil {
				ctx := r.Context()

				// Activity tracking never fails the request
				if err := activityRepo.UpdateLastInteraction(ctx, user.ID); err != nil {
					log.Printf("Failed to update user activity: %v", err)
				}

				// Pause reminders for users inactive 3+ days. Runs off the
				// request path with its own timeout.
				go func(parentCtx context.Context) {
					checkCtx, cancel := context.WithTimeout(parentCtx, 30*time.Second)
					defer cancel()

					usersToPause, err := activityRepo.GetUsersNeedingReminderPause(checkCtx)
					if err != nil {
						log.Printf("Failed to check users needing reminder pause: %v", err)
						return
					}

					for _, userID := range usersToPause {
						if err := activityRepo.SetRemindersPaused(checkCtx, userID, true); err != nil {
							log.Printf("Failed to pause reminders for user %s: %v", userID, err)
						}
					}
				}(ctx)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ActivityTracker periodically pauses reminders for inactive users. Used by
// the worker, which has no request traffic to piggyback the check on.
type ActivityTracker struct {
	activityRepo  *database.UserActivityRepository
	checkInterval time.Duration
}

// NewActivityTracker creates a new activity tracker
func NewActivityTracker(activityRepo *database.UserActivityRepository) *ActivityTracker {
	return &ActivityTracker{
		activityRepo:  activityRepo,
		checkInterval: 1 * time.Hour,
	}
}

// Start starts the background loop for checking inactive users
func (at *ActivityTracker) Start(ctx context.Context) {
	ticker := time.NewTicker(at.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			usersToPause, err := at.activityRepo.GetUsersNeedingReminderPause(ctx)
			if err != nil {
				log.Printf("Failed to check users needing reminder pause: %v", err)
				continue
			}

			for _, userID := range usersToPause {
				if err := at.activityRepo.SetRemindersPaused(ctx, userID, true); err != nil {
					log.Printf("Failed to pause reminders for user %s: %v", userID, err)
				}
			}
		}
	}
}
