package models

import (
	"time"

	"github.com/google/uuid"
)

// DoseLog records a single "mark as taken" action for a medication.
// Logs are created once and never updated. IsOnTime is asserted by the
// caller at creation time (defaults to true), not derived from the schedule.
type DoseLog struct {
	ID           uuid.UUID `json:"id"`
	MedicationID uuid.UUID `json:"medication_id"`
	UserID       uuid.UUID `json:"user_id"`
	TakenAt      time.Time `json:"taken_at"`
	IsOnTime     bool      `json:"is_on_time"`
	CreatedAt    time.Time `json:"created_at"`
}
