package datekey

import (
	"testing"
	"time"
)

func newTestKeeper(t *testing.T) *Keeper {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("failed to load location: %v", err)
	}
	return New(loc, time.Sunday)
}

func TestNormalizeDay_SameDayInstantsCollapse(t *testing.T) {
	k := newTestKeeper(t)

	morning := time.Date(2024, 3, 10, 8, 15, 0, 0, k.Location())
	evening := time.Date(2024, 3, 10, 23, 59, 59, 0, k.Location())

	if !k.NormalizeDay(morning).Equal(k.NormalizeDay(evening)) {
		t.Errorf("expected same normalized day for %v and %v", morning, evening)
	}

	want := time.Date(2024, 3, 10, 0, 0, 0, 0, k.Location())
	if got := k.NormalizeDay(morning); !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestNormalizeDay_Idempotent(t *testing.T) {
	k := newTestKeeper(t)

	instant := time.Date(2024, 7, 4, 17, 30, 0, 0, time.UTC)
	once := k.NormalizeDay(instant)
	twice := k.NormalizeDay(once)

	if !once.Equal(twice) {
		t.Errorf("normalize not idempotent: %v != %v", once, twice)
	}
}

func TestWindowFor_ContainsAnchor(t *testing.T) {
	k := newTestKeeper(t)
	anchor := time.Date(2024, 3, 10, 14, 0, 0, 0, k.Location())
	day := k.NormalizeDay(anchor)

	for _, zoom := range []Zoom{ZoomDay, ZoomWeek, ZoomMonth, ZoomYear} {
		w := k.WindowFor(zoom, anchor)
		if day.Before(w.Start) || day.After(w.End) {
			t.Errorf("zoom %s: window [%v, %v] does not contain %v", zoom, w.Start, w.End, day)
		}
	}
}

func TestWindowFor_MonthLeapYear(t *testing.T) {
	k := newTestKeeper(t)

	w := k.WindowFor(ZoomMonth, time.Date(2024, 2, 15, 12, 0, 0, 0, k.Location()))

	wantStart := time.Date(2024, 2, 1, 0, 0, 0, 0, k.Location())
	wantEnd := time.Date(2024, 2, 29, 0, 0, 0, 0, k.Location())
	if !w.Start.Equal(wantStart) {
		t.Errorf("expected start %v, got %v", wantStart, w.Start)
	}
	if !w.End.Equal(wantEnd) {
		t.Errorf("expected end %v, got %v", wantEnd, w.End)
	}
}

func TestWindowFor_WeekStartsOnConfiguredWeekday(t *testing.T) {
	k := newTestKeeper(t)

	// 2024-03-13 is a Wednesday; the containing Sunday-start week is
	// Mar 10 through Mar 16.
	w := k.WindowFor(ZoomWeek, time.Date(2024, 3, 13, 9, 0, 0, 0, k.Location()))

	if w.Start.Weekday() != time.Sunday {
		t.Errorf("expected week to start on Sunday, got %v", w.Start.Weekday())
	}
	if got, want := w.Start.Day(), 10; got != want {
		t.Errorf("expected start day %d, got %d", want, got)
	}
	if got, want := w.End.Day(), 16; got != want {
		t.Errorf("expected end day %d, got %d", want, got)
	}
	if len(k.Days(w)) != 7 {
		t.Errorf("expected 7 days in week window, got %d", len(k.Days(w)))
	}
}

func TestWindowFor_Year(t *testing.T) {
	k := newTestKeeper(t)

	w := k.WindowFor(ZoomYear, time.Date(2024, 6, 1, 0, 0, 0, 0, k.Location()))

	if w.Start.Month() != time.January || w.Start.Day() != 1 {
		t.Errorf("expected Jan 1 start, got %v", w.Start)
	}
	if w.End.Month() != time.December || w.End.Day() != 31 {
		t.Errorf("expected Dec 31 end, got %v", w.End)
	}
	if got, want := len(k.Days(w)), 366; got != want { // 2024 is a leap year
		t.Errorf("expected %d days, got %d", want, got)
	}
}

func TestShift_Reversible(t *testing.T) {
	k := newTestKeeper(t)
	anchor := time.Date(2024, 3, 10, 0, 0, 0, 0, k.Location())

	for _, zoom := range []Zoom{ZoomDay, ZoomWeek, ZoomMonth, ZoomYear} {
		forward := k.Shift(zoom, anchor, 1)
		back := k.Shift(zoom, forward, -1)
		if !back.Equal(k.NormalizeDay(anchor)) {
			t.Errorf("zoom %s: shift not reversible, %v -> %v -> %v", zoom, anchor, forward, back)
		}
	}
}

func TestShift_MonthEndClamps(t *testing.T) {
	k := newTestKeeper(t)

	// Jan 31 forward one month clamps to Feb 29 in a leap year.
	got := k.Shift(ZoomMonth, time.Date(2024, 1, 31, 0, 0, 0, 0, k.Location()), 1)
	want := time.Date(2024, 2, 29, 0, 0, 0, 0, k.Location())
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	// March 31 back one month clamps as well, never spilling past February.
	got = k.Shift(ZoomMonth, time.Date(2023, 3, 31, 0, 0, 0, 0, k.Location()), -1)
	want = time.Date(2023, 2, 28, 0, 0, 0, 0, k.Location())
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestShift_LeapDayYearClamps(t *testing.T) {
	k := newTestKeeper(t)

	got := k.Shift(ZoomYear, time.Date(2024, 2, 29, 0, 0, 0, 0, k.Location()), 1)
	want := time.Date(2025, 2, 28, 0, 0, 0, 0, k.Location())
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestParseZoom(t *testing.T) {
	if _, err := ParseZoom("fortnight"); err == nil {
		t.Error("expected error for unknown zoom")
	}
	z, err := ParseZoom("month")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if z != ZoomMonth {
		t.Errorf("expected %v, got %v", ZoomMonth, z)
	}
}

func TestDayKeyRoundTrip(t *testing.T) {
	k := newTestKeeper(t)

	day := time.Date(2024, 3, 10, 0, 0, 0, 0, k.Location())
	key := k.DayKey(day)
	if key != "2024-03-10" {
		t.Errorf("expected key 2024-03-10, got %s", key)
	}

	parsed, err := k.ParseDayKey(key)
	if err != nil {
		t.Fatalf("failed to parse day key: %v", err)
	}
	if !parsed.Equal(day) {
		t.Errorf("expected %v, got %v", day, parsed)
	}
}
