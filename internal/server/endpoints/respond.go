package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jackzampolin/folio/internal/blocks"
	"github.com/jackzampolin/folio/internal/document"
	"github.com/jackzampolin/folio/internal/jobs"
	"github.com/jackzampolin/folio/internal/notify"
	"github.com/jackzampolin/folio/internal/source"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// statusFor maps a resolution error to an HTTP status.
// Checked in order: the most specific cause wins over the wrapping
// ErrPageFetchFailed.
func statusFor(err error) int {
	switch {
	case errors.Is(err, source.ErrInvalidJobID):
		return http.StatusBadRequest
	case errors.Is(err, source.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, notify.ErrWaitTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, jobs.ErrNoWaiter):
		return http.StatusNotImplemented
	case errors.Is(err, document.ErrTooManyPages):
		return http.StatusUnprocessableEntity
	case errors.Is(err, notify.ErrJobFailed),
		errors.Is(err, document.ErrPageFetchFailed),
		errors.Is(err, blocks.ErrDuplicateID):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
