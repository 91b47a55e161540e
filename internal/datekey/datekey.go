package datekey

import (
	"errors"
	"time"
)

// Zoom selects the calendar window size the UI is browsing.
type Zoom string

const (
	ZoomDay   Zoom = "day"
	ZoomWeek  Zoom = "week"
	ZoomMonth Zoom = "month"
	ZoomYear  Zoom = "year"
)

var ErrInvalidZoom = errors.New("invalid zoom level")

func ParseZoom(s string) (Zoom, error) {
	z := Zoom(s)
	switch z {
	case ZoomDay, ZoomWeek, ZoomMonth, ZoomYear:
		return z, nil
	}
	return "", ErrInvalidZoom
}

// Window is an inclusive [Start, End] range of normalized days.
type Window struct {
	Start time.Time
	End   time.Time
}

// Keeper maps instants to normalized day/week/month/year boundaries for a
// fixed timezone and first weekday. It is the single source of truth for
// which calendar day an instant belongs to.
type Keeper struct {
	loc          *time.Location
	firstWeekday time.Weekday
}

func New(loc *time.Location, firstWeekday time.Weekday) *Keeper {
	if loc == nil {
		loc = time.Local
	}
	return &Keeper{loc: loc, firstWeekday: firstWeekday}
}

func (k *Keeper) Location() *time.Location {
	return k.loc
}

// NormalizeDay returns the start-of-day instant for t in the keeper's
// timezone. Idempotent: normalizing an already-normalized day is a no-op.
func (k *Keeper) NormalizeDay(t time.Time) time.Time {
	t = t.In(k.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, k.loc)
}

// DayKey formats a normalized day as its canonical storage key.
func (k *Keeper) DayKey(t time.Time) string {
	return k.NormalizeDay(t).Format("2006-01-02")
}

// ParseDayKey is the inverse of DayKey.
func (k *Keeper) ParseDayKey(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, k.loc)
}

// WindowFor computes the inclusive window of normalized days visible at the
// given zoom level around anchor. Boundaries come from calendar arithmetic,
// so month lengths and leap years fall out correctly.
func (k *Keeper) WindowFor(zoom Zoom, anchor time.Time) Window {
	day := k.NormalizeDay(anchor)
	switch zoom {
	case ZoomWeek:
		back := (int(day.Weekday()) - int(k.firstWeekday) + 7) % 7
		start := k.NormalizeDay(day.AddDate(0, 0, -back))
		return Window{Start: start, End: k.NormalizeDay(start.AddDate(0, 0, 6))}
	case ZoomMonth:
		start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, k.loc)
		// Day zero of the next month is the last day of this one.
		end := time.Date(day.Year(), day.Month()+1, 0, 0, 0, 0, 0, k.loc)
		return Window{Start: start, End: end}
	case ZoomYear:
		start := time.Date(day.Year(), time.January, 1, 0, 0, 0, 0, k.loc)
		end := time.Date(day.Year(), time.December, 31, 0, 0, 0, 0, k.loc)
		return Window{Start: start, End: end}
	default: // ZoomDay
		return Window{Start: day, End: day}
	}
}

// Shift moves anchor by delta periods of the zoom level. Month and year
// shifts clamp the day-of-month to the target period's length instead of
// overflowing, so a month back from March 31 lands on the last day of
// February rather than in March.
func (k *Keeper) Shift(zoom Zoom, anchor time.Time, delta int) time.Time {
	day := k.NormalizeDay(anchor)
	switch zoom {
	case ZoomWeek:
		return k.NormalizeDay(day.AddDate(0, 0, 7*delta))
	case ZoomMonth:
		first := time.Date(day.Year(), day.Month()+time.Month(delta), 1, 0, 0, 0, 0, k.loc)
		return time.Date(first.Year(), first.Month(), clampDay(day.Day(), daysInMonth(first)), 0, 0, 0, 0, k.loc)
	case ZoomYear:
		target := time.Date(day.Year()+delta, day.Month(), 1, 0, 0, 0, 0, k.loc)
		return time.Date(target.Year(), target.Month(), clampDay(day.Day(), daysInMonth(target)), 0, 0, 0, 0, k.loc)
	default: // ZoomDay
		return k.NormalizeDay(day.AddDate(0, 0, delta))
	}
}

// Days enumerates every normalized day in the window, in order.
func (k *Keeper) Days(w Window) []time.Time {
	var days []time.Time
	for d := w.Start; !d.After(w.End); d = k.NormalizeDay(d.AddDate(0, 0, 1)) {
		days = append(days, d)
	}
	return days
}

// daysInMonth returns the length of the month containing t.
func daysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

func clampDay(day, max int) int {
	if day > max {
		return max
	}
	return day
}
