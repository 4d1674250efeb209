package models

import (
	"time"

	"github.com/google/uuid"
)

// DueDose is a projected upcoming dose for a medication.
type DueDose struct {
	MedicationID uuid.UUID `json:"medication_id"`
	Name         string    `json:"name"`
	Dose         string    `json:"dose"`
	DueAt        time.Time `json:"due_at"`
}

// MissedMedication is one entry in the "most missed" ranking.
type MissedMedication struct {
	MedicationID uuid.UUID `json:"medication_id"`
	Name         string    `json:"name"`
	MissedCount  int       `json:"missed_count"`
}

// AdherenceStat aggregates a user's dose logs over a window.
type AdherenceStat struct {
	Rate       int                `json:"rate"` // percent, 0-100
	Total      int                `json:"total"`
	Taken      int                `json:"taken"`
	Missed     int                `json:"missed"`
	MostMissed []MissedMedication `json:"most_missed"`
}

// DailyAdherence is one calendar day's bucket in a windowed aggregation.
type DailyAdherence struct {
	Date   time.Time `json:"date"`
	Label  string    `json:"label"` // weekday abbreviation, e.g. "Sun"
	Rate   int       `json:"rate"`
	Total  int       `json:"total"`
	OnTime int       `json:"on_time"`
}
