package adherence

import (
	"math"
	"sort"
	"time"

	"github.com/dosetrack/dosetrack/internal/models"
	"github.com/google/uuid"
)

// rate returns 100*onTime/total rounded to the nearest integer, 0 when total is 0.
func rate(onTime, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(onTime) / float64(total)))
}

// OverallAdherence is the percentage of logs marked on-time out of all logs.
// An empty collection yields 0.
func OverallAdherence(logs []*models.DoseLog) int {
	onTime := 0
	for _, l := range logs {
		if l.IsOnTime {
			onTime++
		}
	}
	return rate(onTime, len(logs))
}

// MostMissed ranks medications by how many of their logs were not on time,
// descending, ties stable in input medication order. Medications with no
// missed doses are excluded. Truncated to topN.
func MostMissed(meds []*models.Medication, logs []*models.DoseLog, topN int) []models.MissedMedication {
	missedByMed := make(map[uuid.UUID]int, len(meds))
	for _, l := range logs {
		if !l.IsOnTime {
			missedByMed[l.MedicationID]++
		}
	}

	var ranked []models.MissedMedication
	for _, med := range meds {
		if n := missedByMed[med.ID]; n > 0 {
			ranked = append(ranked, models.MissedMedication{
				MedicationID: med.ID,
				Name:         med.Name,
				MissedCount:  n,
			})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].MissedCount > ranked[j].MissedCount
	})

	if topN >= 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

// DailyAdherence buckets logs per calendar day from `from` through `to`
// inclusive, ascending. Days with no logs get a zeroed bucket. The range is
// caller-supplied; nothing constrains its length, so the same aggregation
// serves weekly charts and arbitrary windows.
func DailyAdherence(logs []*models.DoseLog, from, to time.Time) []models.DailyAdherence {
	start := truncateToDay(from)
	end := truncateToDay(to)

	var days []models.DailyAdherence
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		total, onTime := 0, 0
		for _, l := range logs {
			if SameDay(l.TakenAt, d) {
				total++
				if l.IsOnTime {
					onTime++
				}
			}
		}
		days = append(days, models.DailyAdherence{
			Date:   d,
			Label:  d.Format("Mon"),
			Rate:   rate(onTime, total),
			Total:  total,
			OnTime: onTime,
		})
	}
	return days
}

// Summarize computes the full adherence summary for a user's working set.
func Summarize(meds []*models.Medication, logs []*models.DoseLog, topN int) models.AdherenceStat {
	taken := 0
	for _, l := range logs {
		if l.IsOnTime {
			taken++
		}
	}
	stat := models.AdherenceStat{
		Rate:       rate(taken, len(logs)),
		Total:      len(logs),
		Taken:      taken,
		Missed:     len(logs) - taken,
		MostMissed: MostMissed(meds, logs, topN),
	}
	if stat.MostMissed == nil {
		stat.MostMissed = []models.MissedMedication{}
	}
	return stat
}

// WeekStart returns the Sunday 00:00 local that starts t's calendar week.
func WeekStart(t time.Time) time.Time {
	d := truncateToDay(t)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// WeekEnd returns the Saturday that ends t's calendar week.
func WeekEnd(t time.Time) time.Time {
	return WeekStart(t).AddDate(0, 0, 6)
}

// CanAdvanceWeek reports whether a week starting at weekStart may be shown at
// time now. Paging into a week that starts after the current week's start is
// disallowed; callers must never request a future week's data.
func CanAdvanceWeek(weekStart, now time.Time) bool {
	return !WeekStart(weekStart).After(WeekStart(now))
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
