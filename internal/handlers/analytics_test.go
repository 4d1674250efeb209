package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dosetrack/dosetrack/internal/models"
	"github.com/dosetrack/dosetrack/internal/services/insights"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type analyticsFixture struct {
	router       *mux.Router
	medRepo      *mockMedicationRepo
	logRepo      *mockDoseLogRepo
	snapshotRepo *mockSnapshotRepo
	provider     *mockInsightProvider
}

func newAnalyticsFixture() *analyticsFixture {
	f := &analyticsFixture{
		medRepo:      &mockMedicationRepo{},
		logRepo:      &mockDoseLogRepo{},
		snapshotRepo: &mockSnapshotRepo{},
		provider:     &mockInsightProvider{},
	}
	f.router = mux.NewRouter()
	handler := NewAnalyticsHandler(f.medRepo, f.logRepo, f.snapshotRepo, nil, f.provider, 90, zap.NewNop())
	handler.RegisterRoutes(f.router.PathPrefix("/analytics").Subrouter())
	return f
}

func decodeData[T any](t *testing.T, body []byte) T {
	t.Helper()
	var envelope struct {
		Data T `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return envelope.Data
}

func TestGetSummary_ComputesLiveWhenSnapshotStale(t *testing.T) {
	t.Parallel()

	user := testUser()
	medID := uuid.New()
	f := newAnalyticsFixture()
	f.medRepo.getByUserIDFunc = func(ctx context.Context, userID uuid.UUID, _, _ *string) ([]*models.Medication, error) {
		return []*models.Medication{{
			ID:        medID,
			UserID:    userID,
			Name:      "Metformin",
			Dose:      "500mg",
			Times:     []string{"08:00", "20:00"},
			StartDate: time.Now().AddDate(0, -1, 0),
		}}, nil
	}
	f.logRepo.getByUserIDSinceFunc = func(ctx context.Context, userID uuid.UUID, since time.Time) ([]*models.DoseLog, error) {
		return []*models.DoseLog{
			{MedicationID: medID, UserID: userID, IsOnTime: true},
			{MedicationID: medID, UserID: userID, IsOnTime: true},
			{MedicationID: medID, UserID: userID, IsOnTime: false},
		}, nil
	}
	f.snapshotRepo.getByUserIDFunc = func(ctx context.Context, userID uuid.UUID) (*models.AdherenceSnapshot, error) {
		return &models.AdherenceSnapshot{UserID: userID, WindowDays: 90, Tainted: true}, nil
	}

	req := withUser(newTestRequest("GET", "/analytics/summary", nil), user)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
	}

	summary := decodeData[SummaryResponse](t, w.Body.Bytes())
	if summary.Adherence.Rate != 67 {
		t.Errorf("Rate = %d, want 67", summary.Adherence.Rate)
	}
	if summary.Adherence.Total != 3 || summary.Adherence.Taken != 2 || summary.Adherence.Missed != 1 {
		t.Errorf("unexpected stat: %+v", summary.Adherence)
	}
	if len(summary.Upcoming) != 2 {
		t.Errorf("upcoming = %d doses, want 2", len(summary.Upcoming))
	}
	if summary.ComputedAt != nil {
		t.Error("live computation should not report a snapshot timestamp")
	}
}

func TestGetSummary_ServesFreshSnapshot(t *testing.T) {
	t.Parallel()

	user := testUser()
	computedAt := time.Now().Add(-time.Hour)
	f := newAnalyticsFixture()
	f.snapshotRepo.getByUserIDFunc = func(ctx context.Context, userID uuid.UUID) (*models.AdherenceSnapshot, error) {
		return &models.AdherenceSnapshot{
			UserID:         userID,
			Stat:           models.AdherenceStat{Rate: 88, Total: 50, Taken: 44, Missed: 6, MostMissed: []models.MissedMedication{}},
			WindowDays:     90,
			LastComputedAt: &computedAt,
		}, nil
	}
	f.logRepo.getByUserIDSinceFunc = func(ctx context.Context, userID uuid.UUID, since time.Time) ([]*models.DoseLog, error) {
		t.Error("fresh snapshot should not hit the dose log store")
		return nil, nil
	}

	req := withUser(newTestRequest("GET", "/analytics/summary", nil), user)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
	}

	summary := decodeData[SummaryResponse](t, w.Body.Bytes())
	if summary.Adherence.Rate != 88 {
		t.Errorf("Rate = %d, want snapshot's 88", summary.Adherence.Rate)
	}
	if summary.ComputedAt == nil {
		t.Error("snapshot-served summary should report computed_at")
	}
}

func TestGetSummary_InvalidParams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
	}{
		{"days not a number", "?days=soon"},
		{"days zero", "?days=0"},
		{"days too large", "?days=400"},
		{"top negative", "?top=-1"},
		{"top too large", "?top=50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newAnalyticsFixture()
			req := withUser(newTestRequest("GET", "/analytics/summary"+tt.query, nil), testUser())
			w := httptest.NewRecorder()
			f.router.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestGetWeekly(t *testing.T) {
	t.Parallel()

	user := testUser()
	f := newAnalyticsFixture()
	weekStart := time.Date(2024, 3, 3, 0, 0, 0, 0, time.Local) // a Sunday
	f.logRepo.getByUserIDRangeFunc = func(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*models.DoseLog, error) {
		return []*models.DoseLog{
			{UserID: userID, TakenAt: weekStart.Add(8 * time.Hour), IsOnTime: true},
			{UserID: userID, TakenAt: weekStart.AddDate(0, 0, 1).Add(8 * time.Hour), IsOnTime: false},
		}, nil
	}

	req := withUser(newTestRequest("GET", "/analytics/weekly?week_start=2024-03-03", nil), user)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
	}

	weekly := decodeData[WeeklyResponse](t, w.Body.Bytes())
	if len(weekly.Days) != 7 {
		t.Fatalf("days = %d, want 7", len(weekly.Days))
	}
	if weekly.Days[0].Rate != 100 || weekly.Days[1].Rate != 0 {
		t.Errorf("unexpected day rates: %d, %d", weekly.Days[0].Rate, weekly.Days[1].Rate)
	}
	if weekly.Overall != 50 {
		t.Errorf("overall = %d, want 50", weekly.Overall)
	}
	for _, day := range weekly.Days[2:] {
		if day.Total != 0 || day.Rate != 0 {
			t.Errorf("empty day should be zeroed: %+v", day)
		}
	}
}

func TestGetWeekly_FutureWeekRejected(t *testing.T) {
	t.Parallel()

	f := newAnalyticsFixture()
	future := time.Now().AddDate(0, 0, 14).Format("2006-01-02")
	req := withUser(newTestRequest("GET", "/analytics/weekly?week_start="+future, nil), testUser())
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGetWeekly_InvalidDate(t *testing.T) {
	t.Parallel()

	f := newAnalyticsFixture()
	req := withUser(newTestRequest("GET", "/analytics/weekly?week_start=March+3", nil), testUser())
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGetInsights(t *testing.T) {
	t.Parallel()

	user := testUser()
	f := newAnalyticsFixture()
	f.provider.generateFunc = func(ctx context.Context, stat models.AdherenceStat, daily []models.DailyAdherence, windowDays int) (string, error) {
		if windowDays != 90 {
			t.Errorf("windowDays = %d, want 90", windowDays)
		}
		return "Keep it up!", nil
	}

	req := withUser(newTestRequest("GET", "/analytics/insights", nil), user)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
	}

	resp := decodeData[InsightsResponse](t, w.Body.Bytes())
	if resp.Insight != "Keep it up!" {
		t.Errorf("insight = %q", resp.Insight)
	}
}

func TestGetInsights_ProviderErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"rate limited", &insights.APIError{StatusCode: 429}, http.StatusTooManyRequests},
		{"quota exhausted", &insights.APIError{StatusCode: 429, IsPermanent: true}, http.StatusServiceUnavailable},
		{"other failure", errNotFound, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newAnalyticsFixture()
			f.provider.generateFunc = func(ctx context.Context, stat models.AdherenceStat, daily []models.DailyAdherence, windowDays int) (string, error) {
				return "", tt.err
			}

			req := withUser(newTestRequest("GET", "/analytics/insights", nil), testUser())
			w := httptest.NewRecorder()
			f.router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestGetInsights_NotConfigured(t *testing.T) {
	t.Parallel()

	router := mux.NewRouter()
	handler := NewAnalyticsHandler(&mockMedicationRepo{}, &mockDoseLogRepo{}, &mockSnapshotRepo{}, nil, nil, 90, zap.NewNop())
	handler.RegisterRoutes(router.PathPrefix("/analytics").Subrouter())

	req := withUser(newTestRequest("GET", "/analytics/insights", nil), testUser())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}
