package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/moodlight/moodlight/internal/datekey"
	"github.com/moodlight/moodlight/internal/model"
)

// fakeQuerier serves canned entries and lets a test block individual
// queries to interleave loads deterministically.
type fakeQuerier struct {
	mu        sync.Mutex
	entries   []*model.MoodEntry
	listeners []ChangeListener

	// queryHook runs at the start of every Query, outside the lock.
	queryHook func(start, end time.Time)
}

func (f *fakeQuerier) Query(_ context.Context, start, end time.Time) ([]*model.MoodEntry, error) {
	if f.queryHook != nil {
		f.queryHook(start, end)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.MoodEntry
	for _, e := range f.entries {
		if !e.Day.Before(start) && !e.Day.After(end) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeQuerier) Subscribe(fn ChangeListener) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
}

func (f *fakeQuerier) setEntries(entries ...*model.MoodEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = entries
}

func (f *fakeQuerier) fireChange() {
	f.mu.Lock()
	listeners := append([]ChangeListener(nil), f.listeners...)
	f.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

func entryOn(day time.Time, mood model.Mood) *model.MoodEntry {
	return &model.MoodEntry{
		ID:        "entry-" + day.Format("2006-01-02"),
		Day:       day,
		Mood:      mood,
		CreatedAt: day,
		UpdatedAt: day,
	}
}

func TestCalendarLoad_BuildsDayLookup(t *testing.T) {
	keeper := datekey.New(time.UTC, time.Sunday)
	mar10 := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	mar12 := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)

	q := &fakeQuerier{}
	q.setEntries(entryOn(mar10, model.MoodGreen), entryOn(mar12, model.MoodRed))
	cal := NewCalendarService(q, keeper)

	snap, err := cal.Load(context.Background(), datekey.ZoomMonth, mar10)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if snap.Zoom != datekey.ZoomMonth {
		t.Errorf("expected month zoom, got %s", snap.Zoom)
	}
	if len(snap.Days) != 2 {
		t.Fatalf("expected 2 loaded days, got %d", len(snap.Days))
	}
	if got := cal.ColorFor(mar10); got != "green" {
		t.Errorf("expected green for Mar 10, got %s", got)
	}
	if got := cal.ColorFor(mar12); got != "red" {
		t.Errorf("expected red for Mar 12, got %s", got)
	}
}

func TestCalendarColorFor_MissingDayIsNoEntry(t *testing.T) {
	keeper := datekey.New(time.UTC, time.Sunday)
	mar10 := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	q := &fakeQuerier{}
	q.setEntries(entryOn(mar10, model.MoodYellow))
	cal := NewCalendarService(q, keeper)

	if _, err := cal.Load(context.Background(), datekey.ZoomMonth, mar10); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	missing := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	if got := cal.ColorFor(missing); got != NoEntry {
		t.Errorf("expected %q for day without entry, got %q", NoEntry, got)
	}
	if entry := cal.Entry(missing); entry != nil {
		t.Errorf("expected nil entry for missing day, got %+v", entry)
	}
}

func TestCalendarLoad_StaleResultDiscarded(t *testing.T) {
	keeper := datekey.New(time.UTC, time.Sunday)
	mar10 := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	mar12 := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)

	q := &fakeQuerier{}
	q.setEntries(entryOn(mar10, model.MoodGreen), entryOn(mar12, model.MoodRed))
	cal := NewCalendarService(q, keeper)

	weekStarted := make(chan struct{})
	weekRelease := make(chan struct{})
	q.queryHook = func(start, end time.Time) {
		// Only the multi-day window is the slow one.
		if !start.Equal(end) {
			close(weekStarted)
			<-weekRelease
		}
	}

	weekDone := make(chan struct{})
	go func() {
		defer close(weekDone)
		cal.Load(context.Background(), datekey.ZoomWeek, mar10)
	}()
	<-weekStarted

	// The user switched to day view before the week query came back.
	snap, err := cal.Load(context.Background(), datekey.ZoomDay, mar12)
	if err != nil {
		t.Fatalf("day load failed: %v", err)
	}
	if snap.Zoom != datekey.ZoomDay {
		t.Errorf("expected day zoom, got %s", snap.Zoom)
	}

	close(weekRelease)
	<-weekDone

	final := cal.Snapshot()
	if final.Zoom != datekey.ZoomDay {
		t.Errorf("expected the newer day view to stand, got %s", final.Zoom)
	}
	if len(final.Days) != 1 {
		t.Fatalf("expected only the day window's entry, got %d days", len(final.Days))
	}
	if _, ok := final.Days[keeper.DayKey(mar12)]; !ok {
		t.Error("expected Mar 12 in the final lookup")
	}
	if _, ok := final.Days[keeper.DayKey(mar10)]; ok {
		t.Error("stale week result overwrote the newer day view")
	}
}

func TestCalendarReloadsOnEntryChange(t *testing.T) {
	keeper := datekey.New(time.UTC, time.Sunday)
	mar10 := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	q := &fakeQuerier{}
	cal := NewCalendarService(q, keeper)
	if _, err := cal.Load(context.Background(), datekey.ZoomMonth, mar10); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got := cal.ColorFor(mar10); got != NoEntry {
		t.Fatalf("expected no entry before the write, got %s", got)
	}

	q.setEntries(entryOn(mar10, model.MoodGreen))
	q.fireChange()

	if got := cal.ColorFor(mar10); got != "green" {
		t.Errorf("expected reload to pick up the write, got %s", got)
	}
}

func TestCalendarChangeZoom_KeepsAnchor(t *testing.T) {
	keeper := datekey.New(time.UTC, time.Sunday)
	mar10 := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	q := &fakeQuerier{}
	cal := NewCalendarService(q, keeper)
	if _, err := cal.Load(context.Background(), datekey.ZoomMonth, mar10); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	snap, err := cal.ChangeZoom(context.Background(), datekey.ZoomWeek)
	if err != nil {
		t.Fatalf("zoom change failed: %v", err)
	}
	if !snap.Anchor.Equal(mar10) {
		t.Errorf("expected anchor kept across zoom change, got %v", snap.Anchor)
	}
	want := keeper.WindowFor(datekey.ZoomWeek, mar10)
	if !snap.Window.Start.Equal(want.Start) || !snap.Window.End.Equal(want.End) {
		t.Errorf("expected window %v..%v, got %v..%v", want.Start, want.End, snap.Window.Start, snap.Window.End)
	}
}

func TestCalendarNavigate_ShiftsByZoomPeriod(t *testing.T) {
	keeper := datekey.New(time.UTC, time.Sunday)
	jan31 := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	q := &fakeQuerier{}
	cal := NewCalendarService(q, keeper)
	if _, err := cal.Load(context.Background(), datekey.ZoomMonth, jan31); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	snap, err := cal.Navigate(context.Background(), 1)
	if err != nil {
		t.Fatalf("navigate failed: %v", err)
	}

	// Jan 31 plus one month lands on the clamped end of February.
	feb29 := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	if !snap.Anchor.Equal(feb29) {
		t.Errorf("expected anchor %v, got %v", feb29, snap.Anchor)
	}
	if snap.Window.Start.Day() != 1 || snap.Window.Start.Month() != time.February {
		t.Errorf("expected February window, got start %v", snap.Window.Start)
	}

	back, err := cal.Navigate(context.Background(), -1)
	if err != nil {
		t.Fatalf("navigate back failed: %v", err)
	}
	if back.Window.Start.Month() != time.January {
		t.Errorf("expected January window after navigating back, got %v", back.Window.Start)
	}
}
