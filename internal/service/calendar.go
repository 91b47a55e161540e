package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/moodlight/moodlight/internal/datekey"
	"github.com/moodlight/moodlight/internal/model"
)

// NoEntry is the display state for a day without an entry. It is its own
// state, never one of the real moods.
const NoEntry = "none"

// EntryQuerier is the slice of the entry store the aggregator reads
// through.
type EntryQuerier interface {
	Query(ctx context.Context, start, end time.Time) ([]*model.MoodEntry, error)
	Subscribe(fn ChangeListener)
}

// Snapshot is a read-only view of one loaded window: every day with an
// entry keyed by its canonical day key; days without entries are simply
// absent.
type Snapshot struct {
	Zoom   datekey.Zoom
	Anchor time.Time
	Window datekey.Window
	Days   map[string]*model.MoodEntry
}

// CalendarService turns a (zoom, anchor) pair into a day-keyed lookup
// table for the visible window. It is never patched incrementally: zoom
// changes, navigation and entry writes all recompute the window from
// scratch, and a load that finishes after a newer one was issued is
// discarded, keyed by a generation counter.
type CalendarService struct {
	entries EntryQuerier
	keeper  *datekey.Keeper

	gen atomic.Uint64

	mu     sync.RWMutex
	zoom   datekey.Zoom
	anchor time.Time
	window datekey.Window
	days   map[string]*model.MoodEntry
}

func NewCalendarService(entries EntryQuerier, keeper *datekey.Keeper) *CalendarService {
	c := &CalendarService{
		entries: entries,
		keeper:  keeper,
		zoom:    datekey.ZoomMonth,
		anchor:  keeper.NormalizeDay(time.Now()),
		days:    make(map[string]*model.MoodEntry),
	}
	c.window = keeper.WindowFor(c.zoom, c.anchor)

	// Every successful write invalidates the cached window wholesale;
	// windows are at most a year of days, so a full reload is cheap and
	// cannot drift from the store.
	entries.Subscribe(func() {
		c.Reload(context.Background())
	})

	return c
}

// Load recomputes the aggregation for the given zoom and anchor. If a
// newer Load is issued while this one's query is in flight, this result is
// discarded and the newer request's state stands.
func (c *CalendarService) Load(ctx context.Context, zoom datekey.Zoom, anchor time.Time) (*Snapshot, error) {
	gen := c.gen.Add(1)

	day := c.keeper.NormalizeDay(anchor)
	window := c.keeper.WindowFor(zoom, day)

	c.mu.Lock()
	c.zoom = zoom
	c.anchor = day
	c.window = window
	c.mu.Unlock()

	entries, err := c.entries.Query(ctx, window.Start, window.End)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]*model.MoodEntry, len(entries))
	for _, entry := range entries {
		byDay[c.keeper.DayKey(entry.Day)] = entry
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen == c.gen.Load() {
		c.days = byDay
	}
	return c.snapshotLocked(), nil
}

// Reload recomputes the currently visible window.
func (c *CalendarService) Reload(ctx context.Context) (*Snapshot, error) {
	c.mu.RLock()
	zoom, anchor := c.zoom, c.anchor
	c.mu.RUnlock()
	return c.Load(ctx, zoom, anchor)
}

// ChangeZoom switches the window size around the current anchor.
func (c *CalendarService) ChangeZoom(ctx context.Context, zoom datekey.Zoom) (*Snapshot, error) {
	c.mu.RLock()
	anchor := c.anchor
	c.mu.RUnlock()
	return c.Load(ctx, zoom, anchor)
}

// Navigate shifts the anchor by delta periods of the current zoom.
func (c *CalendarService) Navigate(ctx context.Context, delta int) (*Snapshot, error) {
	c.mu.RLock()
	zoom := c.zoom
	anchor := c.keeper.Shift(zoom, c.anchor, delta)
	c.mu.RUnlock()
	return c.Load(ctx, zoom, anchor)
}

// Entry returns the loaded entry for a day, or nil when the day has none.
func (c *CalendarService) Entry(day time.Time) *model.MoodEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.days[c.keeper.DayKey(day)].Clone()
}

// ColorFor maps a day to its display state: the entry's mood, or NoEntry
// when the day has no entry. A missing entry never defaults to a mood.
func (c *CalendarService) ColorFor(day time.Time) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.days[c.keeper.DayKey(day)]
	if !ok {
		return NoEntry
	}
	return string(entry.Mood)
}

// Snapshot returns a copy of the current aggregation state.
func (c *CalendarService) Snapshot() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

// snapshotLocked must be called with at least a read lock held. Entries
// are cloned so callers never hold a live row the store may mutate.
func (c *CalendarService) snapshotLocked() *Snapshot {
	days := make(map[string]*model.MoodEntry, len(c.days))
	for key, entry := range c.days {
		days[key] = entry.Clone()
	}
	return &Snapshot{
		Zoom:   c.zoom,
		Anchor: c.anchor,
		Window: c.window,
		Days:   days,
	}
}
