package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/moodlight/moodlight/internal/db"
	"github.com/moodlight/moodlight/internal/repository"
)

type fakeScheduler struct {
	mu        sync.Mutex
	scheduled []int // hour*60 + minute per call
	cancels   int
}

func (f *fakeScheduler) Schedule(hour, minute int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled = append(f.scheduled, hour*60+minute)
}

func (f *fakeScheduler) Reschedule(hour, minute int) {
	f.Schedule(hour, minute)
}

func (f *fakeScheduler) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels++
}

func setupReminderService(t *testing.T) (*ReminderService, *fakeScheduler) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := db.Init("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := db.RunMigrations(database.DB, "sqlite"); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	scheduler := &fakeScheduler{}
	return NewReminderService(repository.NewSettingsRepository(database), scheduler), scheduler
}

func TestReminderGet_DefaultWhenUnset(t *testing.T) {
	svc, _ := setupReminderService(t)

	reminder, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if reminder.Enabled {
		t.Error("expected reminder disabled before any set")
	}
	if reminder.Hour != DefaultReminderHour || reminder.Minute != DefaultReminderMinute {
		t.Errorf("expected default %02d:%02d, got %02d:%02d",
			DefaultReminderHour, DefaultReminderMinute, reminder.Hour, reminder.Minute)
	}
}

func TestReminderSet_PersistsAndReschedules(t *testing.T) {
	svc, scheduler := setupReminderService(t)
	ctx := context.Background()

	reminder, err := svc.Set(ctx, 8, 30)
	if err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if !reminder.Enabled {
		t.Error("expected reminder enabled after set")
	}

	got, err := svc.Get(ctx)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Hour != 8 || got.Minute != 30 || !got.Enabled {
		t.Errorf("expected 08:30 enabled, got %+v", got)
	}

	if len(scheduler.scheduled) != 1 || scheduler.scheduled[0] != 8*60+30 {
		t.Errorf("expected scheduler armed for 08:30, got %v", scheduler.scheduled)
	}
}

func TestReminderSet_RejectsOutOfRange(t *testing.T) {
	svc, scheduler := setupReminderService(t)
	ctx := context.Background()

	for _, tc := range [][2]int{{24, 0}, {-1, 0}, {12, 60}, {12, -5}} {
		if _, err := svc.Set(ctx, tc[0], tc[1]); !errors.Is(err, ErrInvalidReminderTime) {
			t.Errorf("Set(%d, %d): expected ErrInvalidReminderTime, got %v", tc[0], tc[1], err)
		}
	}
	if len(scheduler.scheduled) != 0 {
		t.Errorf("expected scheduler untouched by rejected sets, got %v", scheduler.scheduled)
	}
}

func TestReminderClear_Idempotent(t *testing.T) {
	svc, scheduler := setupReminderService(t)
	ctx := context.Background()

	if _, err := svc.Set(ctx, 21, 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := svc.Clear(ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	// Clearing again is a no-op, not an error.
	if err := svc.Clear(ctx); err != nil {
		t.Fatalf("second clear failed: %v", err)
	}
	if scheduler.cancels != 2 {
		t.Errorf("expected 2 cancel calls, got %d", scheduler.cancels)
	}

	reminder, err := svc.Get(ctx)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if reminder.Enabled {
		t.Error("expected reminder disabled after clear")
	}
}

func TestReminderStart_ArmsFromStoredTime(t *testing.T) {
	svc, scheduler := setupReminderService(t)
	ctx := context.Background()

	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if len(scheduler.scheduled) != 0 {
		t.Error("expected no arm when nothing is stored")
	}

	if _, err := svc.Set(ctx, 7, 45); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if got := scheduler.scheduled[len(scheduler.scheduled)-1]; got != 7*60+45 {
		t.Errorf("expected boot arm at 07:45, got %d", got)
	}
}
