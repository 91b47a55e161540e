package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/moodlight/moodlight/internal/datekey"
	"github.com/moodlight/moodlight/internal/repository"
	"github.com/moodlight/moodlight/internal/service"
	"github.com/moodlight/moodlight/internal/validation"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeServiceError maps domain errors onto HTTP statuses: rejected input
// is the caller's fault, a failing store is ours.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, validation.ErrMoodRequired),
		errors.Is(err, validation.ErrInvalidMood),
		errors.Is(err, validation.ErrNoteTooLong),
		errors.Is(err, service.ErrInvalidReminderTime),
		errors.Is(err, datekey.ErrInvalidZoom):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, repository.ErrEntryNotFound):
		writeError(w, http.StatusNotFound, "entry not found")
	case errors.Is(err, repository.ErrStorageUnavailable):
		slog.Error(op, "error", err)
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
	default:
		slog.Error(op, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
