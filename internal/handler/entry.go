package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/moodlight/moodlight/internal/datekey"
	"github.com/moodlight/moodlight/internal/service"
)

// Voice clips are short check-ins; a minute of WAV fits comfortably.
const maxClipBytes = 10 << 20

type EntryHandler struct {
	entryService *service.EntryService
	keeper       *datekey.Keeper
}

func NewEntryHandler(entryService *service.EntryService, keeper *datekey.Keeper) *EntryHandler {
	return &EntryHandler{
		entryService: entryService,
		keeper:       keeper,
	}
}

func (h *EntryHandler) day(r *http.Request) (time.Time, bool) {
	day, err := h.keeper.ParseDayKey(r.PathValue("day"))
	return day, err == nil
}

type upsertRequest struct {
	Mood     string `json:"mood"`
	TextNote string `json:"text_note"`
}

func (h *EntryHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	day, ok := h.day(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "day must be formatted as YYYY-MM-DD")
		return
	}

	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := h.entryService.Upsert(r.Context(), service.UpsertInput{
		Day:      day,
		Mood:     req.Mood,
		TextNote: req.TextNote,
	})
	if err != nil {
		writeServiceError(w, "failed to save entry", err)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	day, ok := h.day(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "day must be formatted as YYYY-MM-DD")
		return
	}

	entry, err := h.entryService.Get(r.Context(), day)
	if err != nil {
		writeServiceError(w, "failed to load entry", err)
		return
	}
	if entry == nil {
		writeError(w, http.StatusNotFound, "entry not found")
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	start, err := h.keeper.ParseDayKey(r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "start must be formatted as YYYY-MM-DD")
		return
	}
	end, err := h.keeper.ParseDayKey(r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "end must be formatted as YYYY-MM-DD")
		return
	}

	entries, err := h.entryService.Query(r.Context(), start, end)
	if err != nil {
		writeServiceError(w, "failed to query entries", err)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

// Delete removes an entry by id. Deleting an id that no longer exists
// succeeds; the end state is the same.
func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.entryService.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, "failed to delete entry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadVoice accepts a multipart form with a "clip" file and an optional
// "mood" field. The mood is required only when the day has no entry yet.
func (h *EntryHandler) UploadVoice(w http.ResponseWriter, r *http.Request) {
	day, ok := h.day(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "day must be formatted as YYYY-MM-DD")
		return
	}

	if err := r.ParseMultipartForm(maxClipBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	clip, _, err := r.FormFile("clip")
	if err != nil {
		writeError(w, http.StatusBadRequest, "clip file is required")
		return
	}
	defer clip.Close()

	entry, err := h.entryService.SaveVoiceNote(r.Context(), day, r.FormValue("mood"), clip)
	if err != nil {
		writeServiceError(w, "failed to save voice note", err)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

// VoiceURL redirects to a short-lived playback URL for the day's clip.
func (h *EntryHandler) VoiceURL(w http.ResponseWriter, r *http.Request) {
	day, ok := h.day(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "day must be formatted as YYYY-MM-DD")
		return
	}

	url, err := h.entryService.VoiceNoteURL(r.Context(), day)
	if err != nil {
		writeServiceError(w, "failed to resolve voice note url", err)
		return
	}
	if url == "" {
		writeError(w, http.StatusNotFound, "no voice note for this day")
		return
	}

	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}
