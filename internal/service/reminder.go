package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/moodlight/moodlight/internal/notify"
	"github.com/moodlight/moodlight/internal/repository"
)

const settingReminderTime = "reminder_time"

// Default check-in reminder: 9:00 PM.
const (
	DefaultReminderHour   = 21
	DefaultReminderMinute = 0
)

var ErrInvalidReminderTime = errors.New("reminder time must be a valid hour and minute")

// ReminderTime is the single daily check-in reminder. Enabled is false
// until the user has stored a time.
type ReminderTime struct {
	Hour    int  `json:"hour"`
	Minute  int  `json:"minute"`
	Enabled bool `json:"enabled"`
}

// ReminderService persists the reminder time and keeps the notification
// scheduler in sync with it. It never touches entry data.
type ReminderService struct {
	repo      repository.SettingsRepository
	scheduler notify.Scheduler
}

func NewReminderService(repo repository.SettingsRepository, scheduler notify.Scheduler) *ReminderService {
	return &ReminderService{repo: repo, scheduler: scheduler}
}

// Start arms the scheduler from the persisted time, if one is stored.
// Called once at boot.
func (s *ReminderService) Start(ctx context.Context) error {
	reminder, err := s.Get(ctx)
	if err != nil {
		return err
	}
	if reminder.Enabled {
		s.scheduler.Schedule(reminder.Hour, reminder.Minute)
	}
	return nil
}

func (s *ReminderService) Get(ctx context.Context) (ReminderTime, error) {
	value, err := s.repo.Get(ctx, settingReminderTime)
	if errors.Is(err, repository.ErrSettingNotFound) {
		return ReminderTime{Hour: DefaultReminderHour, Minute: DefaultReminderMinute}, nil
	}
	if err != nil {
		return ReminderTime{}, err
	}

	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return ReminderTime{}, fmt.Errorf("corrupt reminder time %q: %w", value, err)
	}

	return ReminderTime{Hour: parsed.Hour(), Minute: parsed.Minute(), Enabled: true}, nil
}

func (s *ReminderService) Set(ctx context.Context, hour, minute int) (ReminderTime, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return ReminderTime{}, ErrInvalidReminderTime
	}

	err := s.repo.Set(ctx, settingReminderTime, fmt.Sprintf("%02d:%02d", hour, minute))
	if err != nil {
		return ReminderTime{}, err
	}

	s.scheduler.Reschedule(hour, minute)
	return ReminderTime{Hour: hour, Minute: minute, Enabled: true}, nil
}

// Clear disables the reminder. Clearing an unset reminder succeeds.
func (s *ReminderService) Clear(ctx context.Context) error {
	err := s.repo.Delete(ctx, settingReminderTime)
	if err != nil {
		return err
	}
	s.scheduler.Cancel()
	return nil
}
