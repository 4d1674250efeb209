package adherence

import (
	"testing"
	"time"

	"github.com/dosetrack/dosetrack/internal/models"
	"github.com/google/uuid"
)

func TestScheduledOn(t *testing.T) {
	t.Parallel()

	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	active := newMedication("Active", []string{"08:00"}, day.AddDate(0, 0, -10), nil)
	ended := newMedication("Ended", []string{"08:00"}, day.AddDate(0, 0, -10), timePtr(day.AddDate(0, 0, -1)))
	future := newMedication("Future", []string{"08:00"}, day.AddDate(0, 0, 5), nil)
	endsToday := newMedication("EndsToday", []string{"08:00"}, day.AddDate(0, 0, -10), timePtr(day))

	meds := []*models.Medication{active, ended, future, endsToday}
	scheduled := ScheduledOn(meds, day)

	if len(scheduled) != 2 {
		t.Fatalf("expected 2 scheduled medications, got %d", len(scheduled))
	}
	if scheduled[0].Name != "Active" || scheduled[1].Name != "EndsToday" {
		t.Errorf("scheduled = [%s, %s], want [Active, EndsToday]", scheduled[0].Name, scheduled[1].Name)
	}
}

func TestScheduledOn_InstantGranularity(t *testing.T) {
	t.Parallel()

	// End date at midnight excludes the medication for a midday query on the
	// same calendar day. Comparison is instant-level, not day-truncated.
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	midday := day.Add(12 * time.Hour)
	med := newMedication("Edge", []string{"08:00"}, day.AddDate(0, 0, -10), timePtr(day))

	if got := ScheduledOn([]*models.Medication{med}, midday); len(got) != 0 {
		t.Errorf("expected exclusion at midday when end date is midnight, got %d", len(got))
	}
	if got := ScheduledOn([]*models.Medication{med}, day); len(got) != 1 {
		t.Errorf("expected inclusion at midnight, got %d", len(got))
	}
}

func TestIsLogged(t *testing.T) {
	t.Parallel()

	medID := uuid.New()
	otherID := uuid.New()
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	logs := []*models.DoseLog{
		newLog(medID, day.Add(22*time.Hour+45*time.Minute), true), // late evening, same day
		newLog(otherID, day.Add(8*time.Hour), true),
	}

	// Day granularity: any time of day within the calendar day counts.
	if !IsLogged(logs, medID, day) {
		t.Error("expected IsLogged true for log on same calendar day")
	}
	if !IsLogged(logs, medID, day.Add(6*time.Hour)) {
		t.Error("expected IsLogged true regardless of query time of day")
	}
	if IsLogged(logs, medID, day.AddDate(0, 0, 1)) {
		t.Error("expected IsLogged false for next day")
	}
	if IsLogged(logs, uuid.New(), day) {
		t.Error("expected IsLogged false for unrelated medication")
	}
}

func TestLogsOn(t *testing.T) {
	t.Parallel()

	medID := uuid.New()
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	first := newLog(medID, day.Add(8*time.Hour), true)
	second := newLog(medID, day.Add(20*time.Hour), false)
	other := newLog(medID, day.AddDate(0, 0, -1).Add(8*time.Hour), true)

	got := LogsOn([]*models.DoseLog{first, other, second}, day)
	if len(got) != 2 {
		t.Fatalf("expected 2 logs, got %d", len(got))
	}
	if got[0] != first || got[1] != second {
		t.Error("LogsOn did not preserve input order")
	}

	if got := LogsOn(nil, day); len(got) != 0 {
		t.Errorf("expected no logs for empty input, got %d", len(got))
	}
}

func TestSameDay(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 3, 10, 23, 59, 0, 0, time.UTC)
	if !SameDay(base, base.Add(-23*time.Hour)) {
		t.Error("expected same calendar day")
	}
	if SameDay(base, base.Add(time.Minute)) {
		t.Error("expected different calendar day across midnight")
	}
}
