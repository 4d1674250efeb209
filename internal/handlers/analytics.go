package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/dosetrack/dosetrack/internal/adherence"
	"github.com/dosetrack/dosetrack/internal/cache"
	"github.com/dosetrack/dosetrack/internal/database"
	"github.com/dosetrack/dosetrack/internal/middleware"
	"github.com/dosetrack/dosetrack/internal/models"
	"github.com/dosetrack/dosetrack/internal/services/insights"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	// DefaultMostMissedTop is the default most-missed ranking size for the dashboard
	DefaultMostMissedTop = 3
	// MaxMostMissedTop caps the most-missed ranking size
	MaxMostMissedTop = 10
	// MaxSummaryWindowDays caps the rolling summary window
	MaxSummaryWindowDays = 365
	// DefaultUpcomingDoses is how many projected doses the summary includes
	DefaultUpcomingDoses = 3
	// insightDailyDays is how many trailing days of per-day data feed the insight prompt
	insightDailyDays = 7
)

// AnalyticsHandler handles adherence analytics requests
type AnalyticsHandler struct {
	medRepo      database.MedicationRepositoryInterface
	logRepo      database.DoseLogRepositoryInterface
	snapshotRepo database.AdherenceSnapshotRepositoryInterface
	weeklyCache  *cache.WeeklyCache
	provider     insights.InsightProvider
	windowDays   int
	logger       *zap.Logger
}

// NewAnalyticsHandler creates a new analytics handler. provider may be nil
// when no insight provider is configured; weeklyCache may be nil when Redis
// is not configured.
func NewAnalyticsHandler(
	medRepo database.MedicationRepositoryInterface,
	logRepo database.DoseLogRepositoryInterface,
	snapshotRepo database.AdherenceSnapshotRepositoryInterface,
	weeklyCache *cache.WeeklyCache,
	provider insights.InsightProvider,
	windowDays int,
	logger *zap.Logger,
) *AnalyticsHandler {
	if windowDays <= 0 {
		windowDays = 90
	}
	return &AnalyticsHandler{
		medRepo:      medRepo,
		logRepo:      logRepo,
		snapshotRepo: snapshotRepo,
		weeklyCache:  weeklyCache,
		provider:     provider,
		windowDays:   windowDays,
		logger:       logger,
	}
}

// RegisterRoutes registers analytics routes on the given router.
// The router should already have the /analytics prefix.
func (h *AnalyticsHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/summary", h.GetSummary).Methods("GET")
	r.HandleFunc("/weekly", h.GetWeekly).Methods("GET")
	r.HandleFunc("/insights", h.GetInsights).Methods("GET")
}

// SummaryResponse is the dashboard summary payload
type SummaryResponse struct {
	Adherence  models.AdherenceStat `json:"adherence"`
	Upcoming   []models.DueDose     `json:"upcoming"`
	WindowDays int                  `json:"window_days"`
	ComputedAt *time.Time           `json:"computed_at,omitempty"` // set when served from a snapshot
}

// WeeklyResponse is one Sunday-through-Saturday week of daily adherence
type WeeklyResponse struct {
	WeekStart time.Time               `json:"week_start"`
	WeekEnd   time.Time               `json:"week_end"`
	Days      []models.DailyAdherence `json:"days"`
	Overall   int                     `json:"overall"`
}

// InsightsResponse is the natural-language insight payload
type InsightsResponse struct {
	Insight    string `json:"insight"`
	WindowDays int    `json:"window_days"`
}

// GetSummary returns the rolling adherence summary plus the next projected
// doses. When the requested window matches the cached snapshot and the
// snapshot is fresh, the snapshot's statistics are served as-is.
func (h *AnalyticsHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	ctx := r.Context()
	now := time.Now()

	days := h.windowDays
	if d := r.URL.Query().Get("days"); d != "" {
		parsed, err := strconv.Atoi(d)
		if err != nil || parsed <= 0 || parsed > MaxSummaryWindowDays {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid days: expected an integer between 1 and 365")
			return
		}
		days = parsed
	}

	top := DefaultMostMissedTop
	if t := r.URL.Query().Get("top"); t != "" {
		parsed, err := strconv.Atoi(t)
		if err != nil || parsed <= 0 || parsed > MaxMostMissedTop {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid top: expected an integer between 1 and 10")
			return
		}
		top = parsed
	}

	meds, err := h.medRepo.GetByUserID(ctx, user.ID, nil, nil)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve medications")
		return
	}

	upcoming, err := adherence.NextDueTimes(meds, now, DefaultUpcomingDoses)
	if err != nil {
		h.logger.Error("schedule projection failed", zap.String("user_id", user.ID.String()), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to project upcoming doses")
		return
	}
	if upcoming == nil {
		upcoming = []models.DueDose{}
	}

	response := SummaryResponse{Upcoming: upcoming, WindowDays: days}

	if stat, computedAt, ok := h.freshSnapshot(r, user, days, top); ok {
		response.Adherence = stat
		response.ComputedAt = computedAt
		respondJSON(w, http.StatusOK, response)
		return
	}

	logs, err := h.logRepo.GetByUserIDSince(ctx, user.ID, now.AddDate(0, 0, -days))
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve dose logs")
		return
	}

	response.Adherence = adherence.Summarize(meds, logs, top)
	respondJSON(w, http.StatusOK, response)
}

// freshSnapshot returns the user's snapshot statistics when they can serve
// the request directly: same window, default ranking size, not tainted, and
// computed at least once.
func (h *AnalyticsHandler) freshSnapshot(r *http.Request, user *models.User, days, top int) (models.AdherenceStat, *time.Time, bool) {
	if h.snapshotRepo == nil || top != DefaultMostMissedTop {
		return models.AdherenceStat{}, nil, false
	}

	snapshot, err := h.snapshotRepo.GetByUserID(r.Context(), user.ID)
	if err != nil {
		return models.AdherenceStat{}, nil, false
	}
	if snapshot.Tainted || snapshot.LastComputedAt == nil || snapshot.WindowDays != days {
		return models.AdherenceStat{}, nil, false
	}

	return snapshot.Stat, snapshot.LastComputedAt, true
}

// GetWeekly returns one week of daily adherence. Weeks run Sunday through
// Saturday; requesting a week after the current one is rejected.
func (h *AnalyticsHandler) GetWeekly(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	ctx := r.Context()
	now := time.Now()

	requested := now
	if ws := r.URL.Query().Get("week_start"); ws != "" {
		parsed, err := time.ParseInLocation("2006-01-02", ws, time.Local)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid week_start: expected YYYY-MM-DD")
			return
		}
		requested = parsed
	}

	weekStart := adherence.WeekStart(requested)
	if !adherence.CanAdvanceWeek(weekStart, now) {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Cannot request a future week")
		return
	}
	weekEnd := adherence.WeekEnd(requested)
	isCurrentWeek := weekStart.Equal(adherence.WeekStart(now))

	if data, ok := h.weeklyCache.Get(ctx, user.ID, weekStart); ok {
		respondJSON(w, http.StatusOK, json.RawMessage(data))
		return
	}

	logs, err := h.logRepo.GetByUserIDInRange(ctx, user.ID, weekStart, weekEnd)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve dose logs")
		return
	}

	response := WeeklyResponse{
		WeekStart: weekStart,
		WeekEnd:   weekEnd,
		Days:      adherence.DailyAdherence(logs, weekStart, weekEnd),
		Overall:   adherence.OverallAdherence(logs),
	}

	if data, err := json.Marshal(response); err == nil {
		h.weeklyCache.Set(ctx, user.ID, weekStart, data, isCurrentWeek)
	}

	respondJSON(w, http.StatusOK, response)
}

// GetInsights returns a natural-language adherence insight from the
// configured AI provider
func (h *AnalyticsHandler) GetInsights(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	if h.provider == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Insights are not configured")
		return
	}

	ctx := r.Context()
	now := time.Now()

	meds, err := h.medRepo.GetByUserID(ctx, user.ID, nil, nil)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve medications")
		return
	}

	logs, err := h.logRepo.GetByUserIDSince(ctx, user.ID, now.AddDate(0, 0, -h.windowDays))
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve dose logs")
		return
	}

	stat := adherence.Summarize(meds, logs, DefaultMostMissedTop)
	daily := adherence.DailyAdherence(logs, now.AddDate(0, 0, -(insightDailyDays-1)), now)

	insight, err := h.provider.GenerateAdherenceInsight(ctx, stat, daily, h.windowDays)
	if err != nil {
		h.logger.Warn("insight generation failed", zap.String("user_id", user.ID.String()), zap.Error(err))
		switch {
		case insights.IsQuotaError(err):
			respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Insight provider quota exhausted")
		case insights.IsRateLimitError(err):
			respondJSONError(w, http.StatusTooManyRequests, "Too Many Requests", "Insight provider is rate limited, try again shortly")
		default:
			respondJSONError(w, http.StatusBadGateway, "Bad Gateway", "Insight provider request failed")
		}
		return
	}

	respondJSON(w, http.StatusOK, InsightsResponse{Insight: insight, WindowDays: h.windowDays})
}
