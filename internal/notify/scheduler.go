package notify

import (
	"log/slog"
	"sync"
	"time"
)

// Scheduler turns the stored reminder time into a recurring daily
// notification. It never reads or writes journal entries.
type Scheduler interface {
	Schedule(hour, minute int)
	Reschedule(hour, minute int)
	Cancel()
}

// ReminderScheduler is the in-process implementation: a timer armed for
// the next wall-clock occurrence of the reminder time, re-armed after each
// firing. The hook is where an OS notification bridge plugs in.
type ReminderScheduler struct {
	loc  *time.Location
	hook func(at time.Time)

	mu     sync.Mutex
	timer  *time.Timer
	hour   int
	minute int
	active bool
}

func NewReminderScheduler(loc *time.Location, hook func(at time.Time)) *ReminderScheduler {
	if loc == nil {
		loc = time.Local
	}
	if hook == nil {
		hook = func(at time.Time) {
			slog.Info("daily mood check-in reminder", "at", at)
		}
	}
	return &ReminderScheduler{loc: loc, hook: hook}
}

func (s *ReminderScheduler) Schedule(hour, minute int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hour = hour
	s.minute = minute
	s.active = true
	s.arm()
}

// Reschedule replaces any pending reminder with the new time.
func (s *ReminderScheduler) Reschedule(hour, minute int) {
	s.Schedule(hour, minute)
}

func (s *ReminderScheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active = false
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// arm must be called with the lock held.
func (s *ReminderScheduler) arm() {
	if s.timer != nil {
		s.timer.Stop()
	}

	next := s.nextFire(time.Now())
	s.timer = time.AfterFunc(time.Until(next), func() {
		s.fire(next)
	})

	slog.Debug("reminder armed", "next", next)
}

func (s *ReminderScheduler) fire(at time.Time) {
	s.mu.Lock()
	active := s.active
	s.mu.Unlock()

	if !active {
		return
	}

	s.hook(at)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		s.arm()
	}
}

// nextFire returns the next occurrence of the configured time strictly
// after now.
func (s *ReminderScheduler) nextFire(now time.Time) time.Time {
	now = now.In(s.loc)
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, s.minute, 0, 0, s.loc)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
