package models

import (
	"time"

	"github.com/google/uuid"
)

// UserActivity tracks when a user last touched the API. Reminder scans are
// paused for users who have gone inactive.
type UserActivity struct {
	UserID             uuid.UUID `json:"user_id"`
	LastAPIInteraction time.Time `json:"last_api_interaction"`
	RemindersPaused    bool      `json:"reminders_paused"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
