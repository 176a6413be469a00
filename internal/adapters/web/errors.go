package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"supply-agent/internal/app"
	"supply-agent/internal/config"
	"supply-agent/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError maps application errors to HTTP statuses. Anything unrecognised
// is logged and reported as a 500 without leaking its text.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var dataErr *core.DataError
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
	case errors.Is(err, core.ErrInvalidInput), errors.As(err, &dataErr):
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
	case errors.Is(err, core.ErrConflict):
		writeError(w, r, err.Error(), "CONFLICT", http.StatusConflict)
	case errors.Is(err, core.ErrInvalidCredentials):
		writeError(w, r, "invalid email or password", "UNAUTHORIZED", http.StatusUnauthorized)
	case errors.Is(err, core.ErrUserInactive):
		writeError(w, r, "account is inactive", "FORBIDDEN", http.StatusForbidden)
	case errors.Is(err, core.ErrUserLocked):
		writeError(w, r, "account is temporarily locked", "LOCKED", http.StatusLocked)
	case errors.Is(err, app.ErrNoDatabase):
		writeError(w, r, err.Error(), "DATABASE_UNAVAILABLE", http.StatusServiceUnavailable)
	default:
		config.LogError(h.log, "web", r.Method+" "+r.URL.Path, "request_id="+requestIDFromContext(r.Context()), nil, err)
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}
