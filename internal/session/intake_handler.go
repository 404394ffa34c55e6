package session

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/teledermato/intake-service/internal/auth"
	"github.com/teledermato/intake-service/internal/intake"
	"github.com/teledermato/intake-service/internal/patient"
)

// requirePrincipal extracts the principal and the session id shared by
// every intake mutation handler.
func requirePrincipal(w http.ResponseWriter, r *http.Request) (*auth.Principal, string, bool) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return nil, "", false
	}
	id := mux.Vars(r)["id"]
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "Session ID is required")
		return nil, "", false
	}
	return principal, id, true
}

func respondState(w http.ResponseWriter, message string, state intake.State) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(StateResponse{
		Success: true,
		Message: message,
		State:   state,
	})
}

func respondMutationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", "Intake session not found")
	case errors.Is(err, ErrUnknownSection):
		respondError(w, http.StatusNotFound, "not_found", "Unknown anamnesis section")
	case errors.Is(err, intake.ErrNoSignaturePhoto):
		respondError(w, http.StatusBadRequest, "validation_error", "Consent cannot be agreed without a signature photo")
	case errors.Is(err, intake.ErrInjuryIndex):
		respondError(w, http.StatusNotFound, "not_found", "Injury index out of range")
	default:
		respondError(w, http.StatusInternalServerError, "update_failed", err.Error())
	}
}

func (h *Handler) UpdatePatient(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var edit intake.PatientEdit
	if err := json.NewDecoder(r.Body).Decode(&edit); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload: "+err.Error())
		return
	}

	state, err := h.service.EditPatient(r.Context(), id, principal, edit)
	if err != nil {
		respondMutationError(w, err)
		return
	}
	respondState(w, "Patient data updated", state)
}

func (h *Handler) RegisterPatient(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	record, err := h.service.RegisterPatient(r.Context(), id, principal)
	if err != nil {
		switch {
		case errors.Is(err, patient.ErrAlreadyMatched):
			respondError(w, http.StatusConflict, "already_matched", "Patient is already matched to an upstream record")
		case errors.Is(err, patient.ErrIncomplete):
			respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		default:
			respondMutationError(w, err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "Patient registered upstream",
		"patient": record,
	})
}

func (h *Handler) UpdateConsent(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req ConsentUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload: "+err.Error())
		return
	}

	state, err := h.service.UpdateConsent(r.Context(), id, principal, req)
	if err != nil {
		respondMutationError(w, err)
		return
	}
	respondState(w, "Consent updated", state)
}

func (h *Handler) RemoveConsentPhoto(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	state, err := h.service.RemoveConsentPhoto(r.Context(), id, principal)
	if err != nil {
		respondMutationError(w, err)
		return
	}
	respondState(w, "Consent signature removed", state)
}

func (h *Handler) SaveAnamnesisSection(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	section := mux.Vars(r)["section"]

	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Failed to read request body")
		return
	}

	state, err := h.service.SaveAnamnesisSection(r.Context(), id, principal, section, body)
	if err != nil {
		respondMutationError(w, err)
		return
	}
	respondState(w, "Anamnesis section saved", state)
}

func (h *Handler) AdvanceAnamnesis(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	state, err := h.service.AdvanceAnamnesis(r.Context(), id, principal)
	if err != nil {
		respondMutationError(w, err)
		return
	}
	respondState(w, "Anamnesis advanced", state)
}

func (h *Handler) RetreatAnamnesis(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	state, err := h.service.RetreatAnamnesis(r.Context(), id, principal)
	if err != nil {
		respondMutationError(w, err)
		return
	}
	respondState(w, "Anamnesis retreated", state)
}

func (h *Handler) ResetAnamnesis(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	state, err := h.service.ResetAnamnesis(r.Context(), id, principal)
	if err != nil {
		respondMutationError(w, err)
		return
	}
	respondState(w, "Anamnesis reset", state)
}

func (h *Handler) AddInjury(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req InjuryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload: "+err.Error())
		return
	}
	if req.Location == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "Injury location is required")
		return
	}

	state, err := h.service.AddInjury(r.Context(), id, principal, req)
	if err != nil {
		respondMutationError(w, err)
		return
	}
	respondState(w, "Injury added", state)
}

func (h *Handler) RemoveInjury(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "Injury index must be a number")
		return
	}

	state, err := h.service.RemoveInjury(r.Context(), id, principal, index)
	if err != nil {
		respondMutationError(w, err)
		return
	}
	respondState(w, "Injury removed", state)
}

func (h *Handler) GetReadiness(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	readiness, err := h.service.Readiness(r.Context(), id, principal)
	if err != nil {
		respondMutationError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ReadinessResponse{
		Success:   true,
		Readiness: readiness,
	})
}
