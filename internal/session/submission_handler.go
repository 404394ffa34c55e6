package session

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/teledermato/intake-service/internal/submission"
)

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	result, err := h.service.Submit(r.Context(), id, principal)
	if err != nil {
		var preErr *submission.PreconditionError
		var stepErr *submission.StepError
		switch {
		case errors.Is(err, ErrNotFound):
			respondError(w, http.StatusNotFound, "not_found", "Intake session not found")
		case errors.As(err, &preErr):
			respondError(w, http.StatusUnprocessableEntity, "precondition_failed", preErr.Error())
		case errors.Is(err, submission.ErrSubmissionInFlight):
			respondError(w, http.StatusConflict, "submission_in_flight", "A submission is already in progress for this session")
		case errors.As(err, &stepErr):
			respondError(w, http.StatusBadGateway, "submission_failed", stepErr.Error())
		default:
			respondError(w, http.StatusInternalServerError, "submission_failed", err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SubmitResponse{
		Success: true,
		Message: "Intake submitted",
		Result:  result,
	})
}

func (h *Handler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	_, id, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	view, err := h.service.SubmissionStatus(r.Context(), id)
	if err != nil {
		respondMutationError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SubmissionStatusResponse{
		Success:    true,
		Submission: view,
	})
}
