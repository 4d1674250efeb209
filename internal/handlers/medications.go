package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dosetrack/dosetrack/internal/database"
	"github.com/dosetrack/dosetrack/internal/middleware"
	"github.com/dosetrack/dosetrack/internal/models"
	"github.com/dosetrack/dosetrack/internal/validation"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// MedicationHandler handles medication-related requests
type MedicationHandler struct {
	medRepo database.MedicationRepositoryInterface
}

// NewMedicationHandler creates a new medication handler
func NewMedicationHandler(medRepo database.MedicationRepositoryInterface) *MedicationHandler {
	return &MedicationHandler{medRepo: medRepo}
}

// RegisterRoutes registers medication routes on the given router.
// The router should already have the /medications prefix.
// Medications are immutable after creation, so there is no PATCH.
func (h *MedicationHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListMedications).Methods("GET")
	r.HandleFunc("", h.CreateMedication).Methods("POST")
	r.HandleFunc("/{id}", h.GetMedication).Methods("GET")
	r.HandleFunc("/{id}", h.DeleteMedication).Methods("DELETE")
}

const (
	// MaxNameLength is the maximum length for a medication name
	MaxNameLength = 200
	// MaxDoseLength is the maximum length for a dose description
	MaxDoseLength = 100
)

// CreateMedicationRequest represents a create medication request
type CreateMedicationRequest struct {
	Name         string   `json:"name" validate:"required,min=1,max=200"`
	Dose         string   `json:"dose" validate:"max=100"`
	Frequency    string   `json:"frequency" validate:"required,frequency"`
	Times        []string `json:"times" validate:"required,min=1,dive,time_of_day"`
	StartDate    string   `json:"start_date" validate:"required"`
	EndDate      *string  `json:"end_date,omitempty"`
	Category     *string  `json:"category,omitempty"`
	FamilyMember *string  `json:"family_member,omitempty"`
}

// ListMedications lists medications for the authenticated user
func (h *MedicationHandler) ListMedications(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	ctx := r.Context()

	var category *string
	if c := r.URL.Query().Get("category"); c != "" {
		category = &c
	}

	var familyMember *string
	if f := r.URL.Query().Get("family_member"); f != "" {
		familyMember = &f
	}

	meds, err := h.medRepo.GetByUserID(ctx, user.ID, category, familyMember)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve medications")
		return
	}

	// Optional active_at filter narrows the list to medications whose
	// validity window contains the given instant
	if at := r.URL.Query().Get("active_at"); at != "" {
		instant, err := parseInstant(at)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid active_at: expected RFC3339 or YYYY-MM-DD")
			return
		}
		filtered := make([]*models.Medication, 0, len(meds))
		for _, med := range meds {
			if med.ActiveAt(instant) {
				filtered = append(filtered, med)
			}
		}
		meds = filtered
	}

	if meds == nil {
		meds = []*models.Medication{}
	}

	respondJSON(w, http.StatusOK, map[string]any{"medications": meds})
}

// CreateMedication creates a new medication
func (h *MedicationHandler) CreateMedication(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CreateMedicationRequest
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if err := validation.Validate.Struct(req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fieldError := range validationErrors {
				respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Validation failed: %s", fieldError.Error()))
				return
			}
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed")
		return
	}

	req.Name = validation.SanitizeText(req.Name)
	if req.Name == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Name is required and cannot be empty after sanitization")
		return
	}
	req.Dose = validation.SanitizeText(req.Dose)

	startDate, err := parseInstant(req.StartDate)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid start_date: expected RFC3339 or YYYY-MM-DD")
		return
	}

	var endDate *time.Time
	if req.EndDate != nil && *req.EndDate != "" {
		parsed, err := parseInstant(*req.EndDate)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid end_date: expected RFC3339 or YYYY-MM-DD")
			return
		}
		if parsed.Before(startDate) {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "end_date cannot be before start_date")
			return
		}
		endDate = &parsed
	}

	ctx := r.Context()
	med := &models.Medication{
		ID:           uuid.New(),
		UserID:       user.ID,
		Name:         req.Name,
		Dose:         req.Dose,
		Frequency:    models.Frequency(req.Frequency),
		Times:        req.Times,
		StartDate:    startDate,
		EndDate:      endDate,
		Category:     req.Category,
		FamilyMember: req.FamilyMember,
	}

	if err := h.medRepo.Create(ctx, med); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create medication")
		return
	}

	respondJSON(w, http.StatusCreated, med)
}

// GetMedication retrieves a medication by ID
func (h *MedicationHandler) GetMedication(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid medication ID")
		return
	}

	ctx := r.Context()
	med, err := h.medRepo.GetByID(ctx, id)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Medication not found")
		return
	}

	if med.UserID != user.ID {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Medication does not belong to user")
		return
	}

	respondJSON(w, http.StatusOK, med)
}

// DeleteMedication deletes a medication and cascades its dose logs
func (h *MedicationHandler) DeleteMedication(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid medication ID")
		return
	}

	ctx := r.Context()
	med, err := h.medRepo.GetByID(ctx, id)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Medication not found")
		return
	}

	if med.UserID != user.ID {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Medication does not belong to user")
		return
	}

	if err := h.medRepo.Delete(ctx, id); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete medication")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseInstant accepts either a full RFC3339 timestamp or a bare date,
// which is interpreted as local midnight.
func parseInstant(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02", s, time.Local)
}
