package adherence

import (
	"testing"
	"time"

	"github.com/dosetrack/dosetrack/internal/models"
	"github.com/google/uuid"
)

func newLog(medID uuid.UUID, takenAt time.Time, onTime bool) *models.DoseLog {
	return &models.DoseLog{
		ID:           uuid.New(),
		MedicationID: medID,
		UserID:       uuid.New(),
		TakenAt:      takenAt,
		IsOnTime:     onTime,
	}
}

func TestOverallAdherence(t *testing.T) {
	t.Parallel()

	medID := uuid.New()
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		logs []*models.DoseLog
		want int
	}{
		{name: "empty is zero", logs: nil, want: 0},
		{
			name: "all on time is 100",
			logs: []*models.DoseLog{
				newLog(medID, now, true),
				newLog(medID, now, true),
			},
			want: 100,
		},
		{
			name: "all missed is 0",
			logs: []*models.DoseLog{
				newLog(medID, now, false),
				newLog(medID, now, false),
			},
			want: 0,
		},
		{
			name: "half on time is 50",
			logs: []*models.DoseLog{
				newLog(medID, now, true),
				newLog(medID, now, false),
			},
			want: 50,
		},
		{
			name: "rounds to nearest integer",
			logs: []*models.DoseLog{
				newLog(medID, now, true),
				newLog(medID, now, true),
				newLog(medID, now, false),
			},
			want: 67,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := OverallAdherence(tt.logs)
			if got != tt.want {
				t.Errorf("OverallAdherence() = %d, want %d", got, tt.want)
			}
			if got < 0 || got > 100 {
				t.Errorf("rate %d out of [0,100]", got)
			}
		})
	}
}

func TestMostMissed(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	medA := newMedication("A", []string{"08:00"}, now.AddDate(0, 0, -30), nil)
	medB := newMedication("B", []string{"08:00"}, now.AddDate(0, 0, -30), nil)
	medC := newMedication("C", []string{"08:00"}, now.AddDate(0, 0, -30), nil)
	meds := []*models.Medication{medA, medB, medC}

	logs := []*models.DoseLog{
		newLog(medA.ID, now, false),
		newLog(medB.ID, now, false),
		newLog(medB.ID, now.Add(time.Hour), false),
		newLog(medC.ID, now, true),
	}

	ranked := MostMissed(meds, logs, 5)
	if len(ranked) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(ranked))
	}
	if ranked[0].Name != "B" || ranked[0].MissedCount != 2 {
		t.Errorf("ranked[0] = %s/%d, want B/2", ranked[0].Name, ranked[0].MissedCount)
	}
	if ranked[1].Name != "A" || ranked[1].MissedCount != 1 {
		t.Errorf("ranked[1] = %s/%d, want A/1", ranked[1].Name, ranked[1].MissedCount)
	}

	// C has no missed doses and must never appear.
	for _, entry := range ranked {
		if entry.MissedCount == 0 {
			t.Errorf("entry %s has zero missed count", entry.Name)
		}
	}

	// topN truncates.
	if got := MostMissed(meds, logs, 1); len(got) != 1 {
		t.Errorf("topN=1 returned %d entries", len(got))
	}
}

func TestMostMissed_TieStableByMedicationOrder(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	medA := newMedication("A", []string{"08:00"}, now.AddDate(0, 0, -30), nil)
	medB := newMedication("B", []string{"08:00"}, now.AddDate(0, 0, -30), nil)

	logs := []*models.DoseLog{
		newLog(medB.ID, now, false),
		newLog(medA.ID, now, false),
	}

	ranked := MostMissed([]*models.Medication{medA, medB}, logs, 3)
	if len(ranked) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(ranked))
	}
	if ranked[0].Name != "A" || ranked[1].Name != "B" {
		t.Errorf("tie not stable: got [%s, %s], want [A, B]", ranked[0].Name, ranked[1].Name)
	}
}

func TestDailyAdherence(t *testing.T) {
	t.Parallel()

	medID := uuid.New()
	from := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC) // Sunday
	to := from.AddDate(0, 0, 6)                         // Saturday

	logs := []*models.DoseLog{
		newLog(medID, from.Add(8*time.Hour), true),                   // Sunday, on time
		newLog(medID, from.AddDate(0, 0, 2).Add(21*time.Hour), false), // Tuesday, missed
		newLog(medID, from.AddDate(0, 0, 2).Add(8*time.Hour), true),   // Tuesday, on time
	}

	days := DailyAdherence(logs, from, to)
	if len(days) != 7 {
		t.Fatalf("expected 7 buckets, got %d", len(days))
	}

	for i, d := range days {
		want := from.AddDate(0, 0, i)
		if !d.Date.Equal(want) {
			t.Errorf("bucket %d date = %v, want %v", i, d.Date, want)
		}
	}

	if days[0].Rate != 100 || days[0].Total != 1 {
		t.Errorf("Sunday = rate %d total %d, want 100/1", days[0].Rate, days[0].Total)
	}
	if days[2].Rate != 50 || days[2].Total != 2 || days[2].OnTime != 1 {
		t.Errorf("Tuesday = rate %d total %d on-time %d, want 50/2/1", days[2].Rate, days[2].Total, days[2].OnTime)
	}
	// Empty day: zeroed bucket, never a fault.
	if days[1].Rate != 0 || days[1].Total != 0 {
		t.Errorf("Monday = rate %d total %d, want 0/0", days[1].Rate, days[1].Total)
	}
	if days[0].Label != "Sun" {
		t.Errorf("Sunday label = %q, want Sun", days[0].Label)
	}
}

func TestDailyAdherence_SingleDayRange(t *testing.T) {
	t.Parallel()

	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	days := DailyAdherence(nil, day, day)
	if len(days) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(days))
	}
	if days[0].Total != 0 || days[0].Rate != 0 {
		t.Errorf("empty day = rate %d total %d, want 0/0", days[0].Rate, days[0].Total)
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	// Spec scenario: one twice-daily medication, one on-time log and one
	// missed log → overall 50, most-missed [{m1, 1}].
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	med := newMedication("m1", []string{"08:00", "20:00"}, start, nil)
	med.Frequency = models.FrequencyTwiceDaily

	logs := []*models.DoseLog{
		newLog(med.ID, time.Date(2024, 3, 1, 8, 5, 0, 0, time.UTC), true),
		newLog(med.ID, time.Date(2024, 3, 2, 21, 0, 0, 0, time.UTC), false),
	}

	stat := Summarize([]*models.Medication{med}, logs, 3)
	if stat.Rate != 50 {
		t.Errorf("Rate = %d, want 50", stat.Rate)
	}
	if stat.Total != 2 || stat.Taken != 1 || stat.Missed != 1 {
		t.Errorf("counts = %d/%d/%d, want 2/1/1", stat.Total, stat.Taken, stat.Missed)
	}
	if len(stat.MostMissed) != 1 || stat.MostMissed[0].Name != "m1" || stat.MostMissed[0].MissedCount != 1 {
		t.Errorf("MostMissed = %+v, want [{m1 1}]", stat.MostMissed)
	}
}

func TestSummarize_Empty(t *testing.T) {
	t.Parallel()

	stat := Summarize(nil, nil, 3)
	if stat.Rate != 0 || stat.Total != 0 {
		t.Errorf("empty summary = %+v, want zeroed", stat)
	}
	if stat.MostMissed == nil {
		t.Error("MostMissed should be empty slice, not nil")
	}
}

func TestWeekArithmetic(t *testing.T) {
	t.Parallel()

	wednesday := time.Date(2024, 3, 6, 15, 30, 0, 0, time.UTC)
	wantStart := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC) // Sunday
	wantEnd := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)   // Saturday

	if got := WeekStart(wednesday); !got.Equal(wantStart) {
		t.Errorf("WeekStart = %v, want %v", got, wantStart)
	}
	if got := WeekEnd(wednesday); !got.Equal(wantEnd) {
		t.Errorf("WeekEnd = %v, want %v", got, wantEnd)
	}
	// A Sunday is its own week start.
	if got := WeekStart(wantStart); !got.Equal(wantStart) {
		t.Errorf("WeekStart(sunday) = %v, want %v", got, wantStart)
	}
}

func TestCanAdvanceWeek(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		weekStart time.Time
		want      bool
	}{
		{name: "past week", weekStart: now.AddDate(0, 0, -14), want: true},
		{name: "current week", weekStart: WeekStart(now), want: true},
		{name: "mid current week", weekStart: now, want: true},
		{name: "next week", weekStart: now.AddDate(0, 0, 7), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := CanAdvanceWeek(tt.weekStart, now); got != tt.want {
				t.Errorf("CanAdvanceWeek(%v) = %v, want %v", tt.weekStart, got, tt.want)
			}
		})
	}
}
