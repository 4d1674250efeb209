package database

import (
	"context"
	"fmt"
	"time"

	"github.com/dosetrack/dosetrack/internal/models"
	"github.com/google/uuid"
)

// UserActivityRepository handles user activity database operations
type UserActivityRepository struct {
	db *DB
}

// NewUserActivityRepository creates a new user activity repository
func NewUserActivityRepository(db *DB) *UserActivityRepository {
	return &UserActivityRepository{db: db}
}

// GetByUserID retrieves user activity by user ID
func (r *UserActivityRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserActivity, error) {
	activity := &models.UserActivity{}

	query := `
		SELECT user_id, last_api_interaction, reminders_paused, created_at, updated_at
		FROM user_activity
		WHERE user_id = $1
	`

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&activity.UserID,
		&activity.LastAPIInteraction,
		&activity.RemindersPaused,
		&activity.CreatedAt,
		&activity.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to get user activity: %w", err)
	}

	return activity, nil
}

// UpdateLastInteraction records an API interaction and resumes reminders.
// Any authenticated request counts as activity.
func (r *UserActivityRepository) UpdateLastInteraction(ctx context.Context, userID uuid.UUID) error {
	query := `
		INSERT INTO user_activity (user_id, last_api_interaction, reminders_paused, created_at, updated_at)
		VALUES ($1, $2, false, $3, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET last_api_interaction = EXCLUDED.last_api_interaction,
		    reminders_paused = false,
		    updated_at = EXCLUDED.updated_at
	`

	now := time.Now()
	_, err := r.db.ExecContext(ctx, query, userID, now, now)
	if err != nil {
		return fmt.Errorf("failed to update last interaction: %w", err)
	}

	return nil
}

// SetRemindersPaused sets the reminders paused flag
func (r *UserActivityRepository) SetRemindersPaused(ctx context.Context, userID uuid.UUID, paused bool) error {
	query := `
		UPDATE user_activity
		SET reminders_paused = $1, updated_at = $2
		WHERE user_id = $3
	`

	_, err := r.db.ExecContext(ctx, query, paused, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to set reminders paused: %w", err)
	}

	return nil
}

// GetEligibleUsersForReminders returns users whose reminders are not paused
func (r *UserActivityRepository) GetEligibleUsersForReminders(ctx context.Context) ([]uuid.UUID, error) {
	query := `
		SELECT user_id
		FROM user_activity
		WHERE reminders_paused = false
	`

	return r.queryUserIDs(ctx, query)
}

// GetUsersNeedingReminderPause returns users inactive for 3 days whose
// reminders have not been paused yet
func (r *UserActivityRepository) GetUsersNeedingReminderPause(ctx context.Context) ([]uuid.UUID, error) {
	query := `
		SELECT user_id
		FROM user_activity
		WHERE last_api_interaction < NOW() - INTERVAL '3 days'
		  AND reminders_paused = false
	`

	return r.queryUserIDs(ctx, query)
}

func (r *UserActivityRepository) queryUserIDs(ctx context.Context, query string) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var userIDs []uuid.UUID
	for rows.Next() {
		var userID uuid.UUID
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan user ID: %w", err)
		}
		userIDs = append(userIDs, userID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return userIDs, nil
}
