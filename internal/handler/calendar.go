package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/moodlight/moodlight/internal/datekey"
	"github.com/moodlight/moodlight/internal/model"
	"github.com/moodlight/moodlight/internal/service"
)

type CalendarHandler struct {
	calendarService *service.CalendarService
	keeper          *datekey.Keeper
}

func NewCalendarHandler(calendarService *service.CalendarService, keeper *datekey.Keeper) *CalendarHandler {
	return &CalendarHandler{
		calendarService: calendarService,
		keeper:          keeper,
	}
}

// calendarResponse flattens a snapshot for clients: one color per day in
// the window, plus the full entries for days that have one.
type calendarResponse struct {
	Zoom   string                      `json:"zoom"`
	Anchor string                      `json:"anchor"`
	Start  string                      `json:"start"`
	End    string                      `json:"end"`
	Colors map[string]string           `json:"colors"`
	Days   map[string]*model.MoodEntry `json:"days"`
}

func (h *CalendarHandler) response(snap *service.Snapshot) calendarResponse {
	colors := make(map[string]string)
	for _, day := range h.keeper.Days(snap.Window) {
		key := h.keeper.DayKey(day)
		if entry, ok := snap.Days[key]; ok {
			colors[key] = string(entry.Mood)
		} else {
			colors[key] = service.NoEntry
		}
	}
	return calendarResponse{
		Zoom:   string(snap.Zoom),
		Anchor: h.keeper.DayKey(snap.Anchor),
		Start:  h.keeper.DayKey(snap.Window.Start),
		End:    h.keeper.DayKey(snap.Window.End),
		Colors: colors,
		Days:   snap.Days,
	}
}

func (h *CalendarHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.response(h.calendarService.Snapshot()))
}

type loadRequest struct {
	Zoom   string `json:"zoom"`
	Anchor string `json:"anchor"`
}

// Load recomputes the window for a zoom and anchor. Both fields are
// optional: zoom defaults to month, anchor to today.
func (h *CalendarHandler) Load(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	zoom := datekey.ZoomMonth
	if req.Zoom != "" {
		parsed, err := datekey.ParseZoom(req.Zoom)
		if err != nil {
			writeServiceError(w, "failed to load calendar", err)
			return
		}
		zoom = parsed
	}

	anchor := time.Now()
	if req.Anchor != "" {
		parsed, err := h.keeper.ParseDayKey(req.Anchor)
		if err != nil {
			writeError(w, http.StatusBadRequest, "anchor must be formatted as YYYY-MM-DD")
			return
		}
		anchor = parsed
	}

	snap, err := h.calendarService.Load(r.Context(), zoom, anchor)
	if err != nil {
		writeServiceError(w, "failed to load calendar", err)
		return
	}

	writeJSON(w, http.StatusOK, h.response(snap))
}

type navigateRequest struct {
	Delta int `json:"delta"`
}

// Navigate shifts the window by whole periods of the current zoom.
func (h *CalendarHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Delta == 0 {
		writeError(w, http.StatusBadRequest, "delta must be a non-zero period count")
		return
	}

	snap, err := h.calendarService.Navigate(r.Context(), req.Delta)
	if err != nil {
		writeServiceError(w, "failed to navigate calendar", err)
		return
	}

	writeJSON(w, http.StatusOK, h.response(snap))
}
