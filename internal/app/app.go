package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/moodlight/moodlight/internal/config"
	"github.com/moodlight/moodlight/internal/datekey"
	"github.com/moodlight/moodlight/internal/db"
	"github.com/moodlight/moodlight/internal/notify"
	"github.com/moodlight/moodlight/internal/repository"
	"github.com/moodlight/moodlight/internal/service"
	"github.com/moodlight/moodlight/internal/storage"
)

type App struct {
	Cfg             *config.Config
	DB              *sqlx.DB
	Keeper          *datekey.Keeper
	EntryService    *service.EntryService
	CalendarService *service.CalendarService
	ReminderService *service.ReminderService
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Calendar day bucketing
	keeper := datekey.New(cfg.Location(), cfg.FirstWeekday())

	// Repositories
	entryRepository := repository.NewEntryRepository(database, keeper)
	settingsRepository := repository.NewSettingsRepository(database)

	// Storage
	clipStore, err := storage.NewS3ClipStore(storage.S3Config{
		Region:        cfg.S3Region,
		Bucket:        cfg.S3Bucket,
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		Endpoint:      cfg.S3Endpoint,
		PresignExpiry: cfg.S3PresignExpiry,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize clip storage: %v", err)
	}

	// Services
	entryService := service.NewEntryService(entryRepository, clipStore, keeper)
	calendarService := service.NewCalendarService(entryService, keeper)
	reminderService := service.NewReminderService(
		settingsRepository,
		notify.NewReminderScheduler(keeper.Location(), nil),
	)
	if err := reminderService.Start(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to start reminder scheduler: %v", err)
	}

	return &App{
		Cfg:             cfg,
		DB:              database,
		Keeper:          keeper,
		EntryService:    entryService,
		CalendarService: calendarService,
		ReminderService: reminderService,
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
