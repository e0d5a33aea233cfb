package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/waymarkhq/waymark/internal/domain"
)

// errorResponse is the JSON body for every non-2xx response:
// {"error":{"code":"not_found","message":"route not found"}}.
type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respondJSON writes v as a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // nothing useful to do with a write error at this point
	json.NewEncoder(w).Encode(v)
}

// respondError maps a service error onto the matching HTTP status and JSON
// body. Unknown errors become opaque 500s so internals never leak.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", unwrapMessage(err))
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", unwrapMessage(err))
	case errors.Is(err, domain.ErrTooFewPoints):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "too few points")
	case errors.Is(err, domain.ErrBusy):
		writeError(w, http.StatusConflict, "busy", "operation already in progress")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// respondServiceUnavailable reports an endpoint whose backing dependency was
// not configured at startup.
func respondServiceUnavailable(w http.ResponseWriter, message string) {
	writeError(w, http.StatusServiceUnavailable, "unavailable", message)
}

// respondBadRequest rejects a request before it reaches the service layer
// (e.g. missing or malformed body).
func respondBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, "validation_error", message)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: errorDetail{Code: code, Message: message}})
}

// unwrapMessage extracts the human-readable tail from a wrapped sentinel error.
// e.g. "service.RouteService.Create: validation error: name is required"
// → "name is required".
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if i := strings.LastIndex(msg, "validation error: "); i >= 0 {
		return msg[i+len("validation error: "):]
	}
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}
