package handler

import (
	"encoding/json"
	"net/http"

	"github.com/moodlight/moodlight/internal/service"
)

type ReminderHandler struct {
	reminderService *service.ReminderService
}

func NewReminderHandler(reminderService *service.ReminderService) *ReminderHandler {
	return &ReminderHandler{
		reminderService: reminderService,
	}
}

func (h *ReminderHandler) Get(w http.ResponseWriter, r *http.Request) {
	reminder, err := h.reminderService.Get(r.Context())
	if err != nil {
		writeServiceError(w, "failed to load reminder", err)
		return
	}
	writeJSON(w, http.StatusOK, reminder)
}

type reminderRequest struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

func (h *ReminderHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req reminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reminder, err := h.reminderService.Set(r.Context(), req.Hour, req.Minute)
	if err != nil {
		writeServiceError(w, "failed to set reminder", err)
		return
	}

	writeJSON(w, http.StatusOK, reminder)
}

// Clear disables the daily reminder. Clearing twice is fine.
func (h *ReminderHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.reminderService.Clear(r.Context()); err != nil {
		writeServiceError(w, "failed to clear reminder", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
