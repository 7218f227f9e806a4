package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"budgetx/internal/core"
	"budgetx/internal/store"
)

const (
	msgInvalidJSON      = "Invalid JSON body"
	msgBodyTooLarge     = "Request body too large"
	msgRateLimited      = "Rate limit exceeded. Please try again later."
	msgInternal         = "Internal server error"
	msgImageRequired    = "Image data is required"
	msgQuestionRequired = "Question is required"
	msgReceiptFailed    = "Failed to parse receipt"
	msgAdviceFailed     = "Failed to process request"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// budgetErrorStatus maps repository errors onto HTTP statuses. The message
// is safe to show: it only names the offending field or id.
func budgetErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, store.ErrDuplicateID), errors.Is(err, store.ErrSnapshotExists):
		return http.StatusConflict, err.Error()
	case errors.Is(err, core.ErrInvalidType),
		errors.Is(err, core.ErrEmptyLabel),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidRecurrence),
		errors.Is(err, core.ErrInvalidFrequency),
		errors.Is(err, core.ErrInvalidMonth):
		return http.StatusUnprocessableEntity, err.Error()
	}
	return http.StatusInternalServerError, msgInternal
}

// writeDecodeError reports a decodeJSON failure.
func writeDecodeError(w http.ResponseWriter, err error) {
	if isTooLarge(err) {
		writeError(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
		return
	}
	writeError(w, http.StatusBadRequest, msgInvalidJSON)
}
