package models

import (
	"time"

	"github.com/google/uuid"
)

// Frequency represents how often a medication is taken each day
type Frequency string

const (
	FrequencyOnceDaily       Frequency = "once_daily"
	FrequencyTwiceDaily      Frequency = "twice_daily"
	FrequencyThreeTimesDaily Frequency = "three_times_daily"
	FrequencyFourTimesDaily  Frequency = "four_times_daily"
	FrequencyCustom          Frequency = "custom"
)

// TimesPerDay returns the canonical number of scheduled times for the frequency.
// Custom frequency has no canonical count and returns 0.
func (f Frequency) TimesPerDay() int {
	switch f {
	case FrequencyOnceDaily:
		return 1
	case FrequencyTwiceDaily:
		return 2
	case FrequencyThreeTimesDaily:
		return 3
	case FrequencyFourTimesDaily:
		return 4
	default:
		return 0
	}
}

// Medication represents a medication a user is tracking.
// Medications are immutable after creation; deleting one cascades its dose logs.
type Medication struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	Name         string     `json:"name"`
	Dose         string     `json:"dose"`
	Frequency    Frequency  `json:"frequency"`
	Times        []string   `json:"times"` // ordered "HH:MM" local times of day
	StartDate    time.Time  `json:"start_date"`
	EndDate      *time.Time `json:"end_date,omitempty"` // inclusive
	Category     *string    `json:"category,omitempty"`
	FamilyMember *string    `json:"family_member,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ActiveAt reports whether the medication's validity window contains t.
// Start and end dates are compared as inclusive instants, not calendar days.
func (m *Medication) ActiveAt(t time.Time) bool {
	if t.Before(m.StartDate) {
		return false
	}
	if m.EndDate != nil && m.EndDate.Before(t) {
		return false
	}
	return true
}
