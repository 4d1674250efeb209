package adherence

import (
	"time"

	"github.com/dosetrack/dosetrack/internal/models"
	"github.com/google/uuid"
)

// SameDay reports whether two instants fall on the same calendar day,
// compared in a's location.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}

// ScheduledOn returns the medications whose validity window contains day.
// Like the projector, this compares start and end dates as inclusive
// instants rather than truncating to calendar days; IsLogged deliberately
// does the opposite. The asymmetry is inherited behavior, kept intact.
func ScheduledOn(meds []*models.Medication, day time.Time) []*models.Medication {
	var out []*models.Medication
	for _, med := range meds {
		if med.ActiveAt(day) {
			out = append(out, med)
		}
	}
	return out
}

// IsLogged reports whether any log for the medication falls on the same
// calendar day as day, regardless of time of day.
func IsLogged(logs []*models.DoseLog, medicationID uuid.UUID, day time.Time) bool {
	for _, l := range logs {
		if l.MedicationID == medicationID && SameDay(day, l.TakenAt) {
			return true
		}
	}
	return false
}

// LogsOn returns the logs recorded on day's calendar day, in input order.
func LogsOn(logs []*models.DoseLog, day time.Time) []*models.DoseLog {
	var out []*models.DoseLog
	for _, l := range logs {
		if SameDay(day, l.TakenAt) {
			out = append(out, l)
		}
	}
	return out
}
