package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"spendwise/backend/logging"
	"spendwise/backend/services"
)

const (
	msgUnauthorized  = "Unauthorized"
	msgNotFound      = "Not found"
	msgUserExists    = "User already exists"
	msgInternalError = "Something went wrong"
)

type errorResponse struct {
	Error string `json:"error"`
}

type successResponse struct {
	Success bool `json:"success"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// handleServiceError maps a service error onto the response. Anything not
// recognised is logged and reported as a generic 500.
func handleServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, op string, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, services.ErrNotFound):
		writeError(w, http.StatusBadRequest, msgNotFound)
	case errors.Is(err, services.ErrUserExists):
		writeError(w, http.StatusBadRequest, msgUserExists)
	case errors.Is(err, services.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
	default:
		logging.FromContextOr(r.Context(), logger).Error("request failed",
			slog.String(logging.FieldOperation, op),
			slog.String(logging.FieldPath, r.URL.Path),
			slog.String(logging.FieldError, err.Error()))
		writeError(w, http.StatusInternalServerError, msgInternalError)
	}
}
