package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dosetrack/dosetrack/internal/database"
	"github.com/dosetrack/dosetrack/internal/middleware"
	"github.com/dosetrack/dosetrack/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// DoseLogHandler handles dose log requests
type DoseLogHandler struct {
	logRepo  database.DoseLogRepositoryInterface
	medRepo  database.MedicationRepositoryInterface
	notifier *AdherenceNotifier
}

// NewDoseLogHandler creates a new dose log handler
func NewDoseLogHandler(
	logRepo database.DoseLogRepositoryInterface,
	medRepo database.MedicationRepositoryInterface,
	notifier *AdherenceNotifier,
) *DoseLogHandler {
	return &DoseLogHandler{logRepo: logRepo, medRepo: medRepo, notifier: notifier}
}

// RegisterRoutes registers dose log routes on the given router.
// The router should already have the /dose-logs prefix.
// Logs are created once and never updated, so there is no PATCH.
func (h *DoseLogHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListDoseLogs).Methods("GET")
	r.HandleFunc("", h.CreateDoseLog).Methods("POST")
	r.HandleFunc("/{id}", h.DeleteDoseLog).Methods("DELETE")
}

// CreateDoseLogRequest represents a "mark as taken" request
type CreateDoseLogRequest struct {
	MedicationID string  `json:"medication_id" validate:"required"`
	TakenAt      *string `json:"taken_at,omitempty"`
	IsOnTime     *bool   `json:"is_on_time,omitempty"`
}

// ListDoseLogs lists the user's dose logs within an optional [from, to] range
func (h *DoseLogHandler) ListDoseLogs(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	ctx := r.Context()
	now := time.Now()

	from := now.AddDate(0, 0, -90)
	if f := r.URL.Query().Get("from"); f != "" {
		parsed, err := parseInstant(f)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid from: expected RFC3339 or YYYY-MM-DD")
			return
		}
		from = parsed
	}

	to := now
	if t := r.URL.Query().Get("to"); t != "" {
		parsed, err := parseInstant(t)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid to: expected RFC3339 or YYYY-MM-DD")
			return
		}
		to = parsed
	}

	if to.Before(from) {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "to cannot be before from")
		return
	}

	logs, err := h.logRepo.GetByUserIDInRange(ctx, user.ID, from, to)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve dose logs")
		return
	}
	if logs == nil {
		logs = []*models.DoseLog{}
	}

	respondJSON(w, http.StatusOK, map[string]any{"dose_logs": logs})
}

// CreateDoseLog marks a medication as taken. At most one log per medication
// per calendar day is allowed; duplicates get 409 Conflict.
func (h *DoseLogHandler) CreateDoseLog(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CreateDoseLogRequest
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	medicationID, err := uuid.Parse(req.MedicationID)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid medication_id")
		return
	}

	takenAt := time.Now()
	if req.TakenAt != nil && *req.TakenAt != "" {
		parsed, err := parseInstant(*req.TakenAt)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid taken_at: expected RFC3339 or YYYY-MM-DD")
			return
		}
		takenAt = parsed
	}

	// On-time is asserted by the caller, defaulting to true
	isOnTime := true
	if req.IsOnTime != nil {
		isOnTime = *req.IsOnTime
	}

	ctx := r.Context()
	med, err := h.medRepo.GetByID(ctx, medicationID)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Medication not found")
		return
	}
	if med.UserID != user.ID {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Medication does not belong to user")
		return
	}

	exists, err := h.logRepo.ExistsForDay(ctx, medicationID, takenAt)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to check existing dose logs")
		return
	}
	if exists {
		respondJSONError(w, http.StatusConflict, "Conflict", "Dose already logged for this medication on this day")
		return
	}

	log := &models.DoseLog{
		ID:           uuid.New(),
		MedicationID: medicationID,
		UserID:       user.ID,
		TakenAt:      takenAt,
		IsOnTime:     isOnTime,
	}

	if err := h.logRepo.Create(ctx, log); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create dose log")
		return
	}

	h.notifier.DoseLogChanged(ctx, user.ID, medicationID, takenAt)

	respondJSON(w, http.StatusCreated, log)
}

// DeleteDoseLog deletes a dose log, e.g. to undo a mistaken "mark as taken"
func (h *DoseLogHandler) DeleteDoseLog(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid dose log ID")
		return
	}

	ctx := r.Context()
	log, err := h.logRepo.GetByID(ctx, id)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Dose log not found")
		return
	}
	if log.UserID != user.ID {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Dose log does not belong to user")
		return
	}

	if err := h.logRepo.Delete(ctx, id); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete dose log")
		return
	}

	h.notifier.DoseLogChanged(ctx, user.ID, log.MedicationID, log.TakenAt)

	w.WriteHeader(http.StatusNoContent)
}
