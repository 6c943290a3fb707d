package web

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"phone-store/internal/core"
	"phone-store/internal/observability"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

type successResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
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

// writeServiceError maps a service error onto its HTTP status. Storage conflicts
// are reported as bad requests; anything that is not a domain error is a 500 whose
// detail only goes to the log.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch core.KindOf(err) {
	case core.KindNotFound:
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
	case core.KindInvalid, core.KindConflict:
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
	default:
		observability.FromContext(r.Context()).Error("request failed", zap.Error(err))
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}

// writeSuccess writes {"message", "data"} with the given status.
func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(successResponse{Message: message, Data: data})
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
