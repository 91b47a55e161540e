package routes

import (
	"net/http"

	"github.com/moodlight/moodlight/internal/app"
	"github.com/moodlight/moodlight/internal/handler"
	"github.com/moodlight/moodlight/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	entry := handler.NewEntryHandler(app.EntryService, app.Keeper)
	calendar := handler.NewCalendarHandler(app.CalendarService, app.Keeper)
	reminder := handler.NewReminderHandler(app.ReminderService)

	mux := http.NewServeMux()

	// Health
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Writes are rate limited; reads are not
	rateLimiter := middleware.RateLimitWrites()

	// Entries
	mux.HandleFunc("PUT /api/entries/{day}", rateLimiter(entry.Upsert))
	mux.HandleFunc("GET /api/entries/{day}", entry.Get)
	mux.HandleFunc("GET /api/entries", entry.List)
	mux.HandleFunc("DELETE /api/entries/{id}", rateLimiter(entry.Delete))

	// Voice notes
	mux.HandleFunc("POST /api/entries/{day}/voice", rateLimiter(entry.UploadVoice))
	mux.HandleFunc("GET /api/entries/{day}/voice", entry.VoiceURL)

	// Calendar
	mux.HandleFunc("GET /api/calendar", calendar.Snapshot)
	mux.HandleFunc("PUT /api/calendar", calendar.Load)
	mux.HandleFunc("POST /api/calendar/navigate", calendar.Navigate)

	// Reminder
	mux.HandleFunc("GET /api/reminder", reminder.Get)
	mux.HandleFunc("PUT /api/reminder", rateLimiter(reminder.Set))
	mux.HandleFunc("DELETE /api/reminder", rateLimiter(reminder.Clear))

	// Global middleware - executed in order (top to bottom)
	return middleware.Chain(
		mux,
		middleware.RequestLogging,
	)
}
