package adherence

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dosetrack/dosetrack/internal/models"
)

// ParseTimeOfDay parses an "HH:MM" 24-hour time-of-day string. Anything else
// is a data-integrity error from the store and is propagated, never skipped.
func ParseTimeOfDay(s string) (hour, minute int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time of day %q: expected HH:MM", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid time of day %q: out of range", s)
	}
	return hour, minute, nil
}

// NextDueTimes projects the next due instants for the given medications
// relative to now, ascending by due time, truncated to limit.
//
// A medication is eligible only while now falls inside its validity window,
// comparing start and end dates as inclusive instants. Each scheduled time of
// day projects onto the current calendar day; a slot already past projects to
// the same time tomorrow, never further out. Ties sort stably in input order.
func NextDueTimes(meds []*models.Medication, now time.Time, limit int) ([]models.DueDose, error) {
	var due []models.DueDose
	for _, med := range meds {
		if !med.ActiveAt(now) {
			continue
		}
		for _, tod := range med.Times {
			hour, minute, err := ParseTimeOfDay(tod)
			if err != nil {
				return nil, err
			}
			candidate := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
			if candidate.Before(now) {
				candidate = candidate.AddDate(0, 0, 1)
			}
			due = append(due, models.DueDose{
				MedicationID: med.ID,
				Name:         med.Name,
				Dose:         med.Dose,
				DueAt:        candidate,
			})
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		return due[i].DueAt.Before(due[j].DueAt)
	})

	if limit >= 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}
