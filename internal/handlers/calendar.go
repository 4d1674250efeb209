package handlers

import (
	"net/http"
	"time"

	"github.com/dosetrack/dosetrack/internal/adherence"
	"github.com/dosetrack/dosetrack/internal/database"
	"github.com/dosetrack/dosetrack/internal/middleware"
	"github.com/dosetrack/dosetrack/internal/models"
	"github.com/gorilla/mux"
)

// CalendarHandler handles calendar day view requests
type CalendarHandler struct {
	medRepo database.MedicationRepositoryInterface
	logRepo database.DoseLogRepositoryInterface
}

// NewCalendarHandler creates a new calendar handler
func NewCalendarHandler(medRepo database.MedicationRepositoryInterface, logRepo database.DoseLogRepositoryInterface) *CalendarHandler {
	return &CalendarHandler{medRepo: medRepo, logRepo: logRepo}
}

// RegisterRoutes registers calendar routes on the given router.
// The router should already have the /calendar prefix.
func (h *CalendarHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/{date}", h.GetDay).Methods("GET")
}

// CalendarMedication is one medication row in a day view, with whether a
// dose was logged for it that day
type CalendarMedication struct {
	Medication *models.Medication `json:"medication"`
	Logged     bool               `json:"logged"`
}

// CalendarDayResponse is the day view payload
type CalendarDayResponse struct {
	Date        string               `json:"date"`
	Medications []CalendarMedication `json:"medications"`
	Logs        []*models.DoseLog    `json:"logs"`
}

// GetDay returns the medications scheduled on a calendar day, each flagged
// with whether it was logged that day, plus the day's logs.
func (h *CalendarHandler) GetDay(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	vars := mux.Vars(r)
	day, err := time.ParseInLocation("2006-01-02", vars["date"], time.Local)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid date: expected YYYY-MM-DD")
		return
	}

	ctx := r.Context()
	meds, err := h.medRepo.GetByUserID(ctx, user.ID, nil, nil)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve medications")
		return
	}

	logs, err := h.logRepo.GetByUserIDInRange(ctx, user.ID, day, day)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve dose logs")
		return
	}

	scheduled := adherence.ScheduledOn(meds, day)
	entries := make([]CalendarMedication, 0, len(scheduled))
	for _, med := range scheduled {
		entries = append(entries, CalendarMedication{
			Medication: med,
			Logged:     adherence.IsLogged(logs, med.ID, day),
		})
	}

	dayLogs := adherence.LogsOn(logs, day)
	if dayLogs == nil {
		dayLogs = []*models.DoseLog{}
	}

	respondJSON(w, http.StatusOK, CalendarDayResponse{
		Date:        vars["date"],
		Medications: entries,
		Logs:        dayLogs,
	})
}
