package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/moodlight/moodlight/internal/datekey"
	"github.com/moodlight/moodlight/internal/model"
	"github.com/moodlight/moodlight/internal/repository"
	"github.com/moodlight/moodlight/internal/storage"
	"github.com/moodlight/moodlight/internal/validation"
)

// ChangeListener is invoked after every successful mutation so cached
// aggregations can refresh. The store does not own those caches.
type ChangeListener func()

// EntryService owns MoodEntry rows: it is the only writer of the moods
// table and the only owner of the voice blob lifecycle. Writes for the
// same normalized day are serialized through a per-day mutex; the unique
// day index backstops the invariant across processes.
type EntryService struct {
	repo   repository.EntryRepository
	clips  storage.VoiceClipStore
	keeper *datekey.Keeper

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	listenersMu sync.RWMutex
	listeners   []ChangeListener
}

func NewEntryService(repo repository.EntryRepository, clips storage.VoiceClipStore, keeper *datekey.Keeper) *EntryService {
	return &EntryService{
		repo:   repo,
		clips:  clips,
		keeper: keeper,
		locks:  make(map[string]*sync.Mutex),
	}
}

// Subscribe registers a listener for entry mutations.
func (s *EntryService) Subscribe(fn ChangeListener) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *EntryService) notifyChange() {
	s.listenersMu.RLock()
	listeners := make([]ChangeListener, len(s.listeners))
	copy(listeners, s.listeners)
	s.listenersMu.RUnlock()

	for _, fn := range listeners {
		fn()
	}
}

// dayLock returns the mutex serializing writes for one normalized day.
// Unrelated days never contend.
func (s *EntryService) dayLock(key string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	return lock
}

// UpsertInput is one save from the tracking screen. Mood is required.
// Providing a text note switches the entry to a text note and clears any
// voice note; providing a voice ref does the reverse; providing neither
// keeps whatever note the entry already has.
type UpsertInput struct {
	Day      time.Time
	Mood     string
	TextNote string
	VoiceRef string
}

// Upsert saves the mood for a day, creating the row on first save and
// mutating it in place afterwards. Validation runs before any storage or
// blob mutation, so a rejected save never leaves a partial row.
func (s *EntryService) Upsert(ctx context.Context, in UpsertInput) (*model.MoodEntry, error) {
	mood, err := validation.ValidateMood(in.Mood)
	if err != nil {
		return nil, err
	}
	note, err := validation.ValidateNote(in.TextNote)
	if err != nil {
		return nil, err
	}

	day := s.keeper.NormalizeDay(in.Day)
	dayKey := s.keeper.DayKey(day)

	lock := s.dayLock(dayKey)
	lock.Lock()
	defer lock.Unlock()

	cur, err := s.repo.ByDay(ctx, day)
	if err != nil && !errors.Is(err, repository.ErrEntryNotFound) {
		return nil, err
	}

	up := repository.UpsertEntry{Day: day, Mood: mood}
	var orphanedRef string

	switch {
	case in.VoiceRef != "":
		up.VoiceRef = &in.VoiceRef
		duration := s.measuredDuration(ctx, in.VoiceRef)
		up.VoiceDuration = &duration
		if cur.HasVoiceNote() && *cur.VoiceRef != in.VoiceRef {
			orphanedRef = *cur.VoiceRef
		}
	case note != "":
		up.TextNote = &note
		if cur.HasVoiceNote() {
			orphanedRef = *cur.VoiceRef
		}
	default:
		if cur != nil {
			up.TextNote = cur.TextNote
			up.VoiceRef = cur.VoiceRef
			up.VoiceDuration = cur.VoiceDuration
		}
	}

	entry, err := s.upsertRetrying(ctx, up)
	if err != nil {
		return nil, err
	}

	// The write that replaced the old voice note succeeded, so the old
	// blob is orphaned now and released exactly once.
	if orphanedRef != "" {
		err = s.clips.Delete(ctx, orphanedRef)
		if err != nil {
			slog.Error("failed to delete orphaned voice clip", "error", err, "ref", orphanedRef)
		}
	}

	s.notifyChange()
	return entry, nil
}

// SaveVoiceNote stores the clip and attaches it to the day's entry in one
// go. When mood is empty the entry must already exist and keeps its mood.
// A clip stored for a save that then fails is rolled back.
func (s *EntryService) SaveVoiceNote(ctx context.Context, day time.Time, mood string, clip io.Reader) (*model.MoodEntry, error) {
	if mood == "" {
		cur, err := s.Get(ctx, day)
		if err != nil {
			return nil, err
		}
		if cur == nil {
			return nil, validation.ErrMoodRequired
		}
		mood = string(cur.Mood)
	}
	if _, err := validation.ValidateMood(mood); err != nil {
		return nil, err
	}

	ref, _, err := s.clips.Save(ctx, s.keeper.DayKey(day), clip)
	if err != nil {
		return nil, err
	}

	entry, err := s.Upsert(ctx, UpsertInput{Day: day, Mood: mood, VoiceRef: ref})
	if err != nil {
		delErr := s.clips.Delete(ctx, ref)
		if delErr != nil {
			slog.Error("failed to delete voice clip during rollback", "error", delErr, "ref", ref)
		}
		return nil, err
	}

	return entry, nil
}

// Get returns the entry for the normalized day, or nil when the day has no
// entry. A miss is not an error; storage failures are.
func (s *EntryService) Get(ctx context.Context, day time.Time) (*model.MoodEntry, error) {
	entry, err := s.repo.ByDay(ctx, s.keeper.NormalizeDay(day))
	if errors.Is(err, repository.ErrEntryNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Query returns entries with day in [start, end] inclusive, ordered by day.
func (s *EntryService) Query(ctx context.Context, start, end time.Time) ([]*model.MoodEntry, error) {
	start = s.keeper.NormalizeDay(start)
	end = s.keeper.NormalizeDay(end)
	if start.After(end) {
		return []*model.MoodEntry{}, nil
	}
	return s.repo.Range(ctx, start, end)
}

// Delete removes an entry and releases its voice blob. Deleting an unknown
// id is a no-op success. The blob goes first: a failed blob release aborts
// the row delete so a stored clip can never be leaked by a half delete.
func (s *EntryService) Delete(ctx context.Context, id string) error {
	entry, err := s.repo.ByID(ctx, id)
	if errors.Is(err, repository.ErrEntryNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	lock := s.dayLock(s.keeper.DayKey(entry.Day))
	lock.Lock()
	defer lock.Unlock()

	// Re-read under the day lock; a concurrent save may have swapped the
	// voice ref since the first read.
	entry, err = s.repo.ByID(ctx, id)
	if errors.Is(err, repository.ErrEntryNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if entry.HasVoiceNote() {
		err = s.clips.Delete(ctx, *entry.VoiceRef)
		if err != nil {
			return err
		}
	}

	err = s.deleteRetrying(ctx, id)
	if errors.Is(err, repository.ErrEntryNotFound) {
		err = nil
	}
	if err != nil {
		return err
	}

	s.notifyChange()
	return nil
}

// VoiceNoteURL returns a playback URL for the day's voice note, or empty
// when the day has no entry or no voice note.
func (s *EntryService) VoiceNoteURL(ctx context.Context, day time.Time) (string, error) {
	entry, err := s.Get(ctx, day)
	if err != nil {
		return "", err
	}
	if entry == nil || !entry.HasVoiceNote() {
		return "", nil
	}
	return s.clips.ClipURL(ctx, *entry.VoiceRef)
}

// measuredDuration recomputes the clip duration from the stored blob. The
// caller-supplied duration is never trusted.
func (s *EntryService) measuredDuration(ctx context.Context, ref string) float64 {
	duration, err := s.clips.DurationOf(ctx, ref)
	if err != nil {
		slog.Warn("failed to measure voice clip duration", "error", err, "ref", ref)
		return 0
	}
	return duration
}

// upsertRetrying retries a transient storage failure once before
// surfacing it.
func (s *EntryService) upsertRetrying(ctx context.Context, up repository.UpsertEntry) (*model.MoodEntry, error) {
	entry, err := s.repo.Upsert(ctx, up)
	if errors.Is(err, repository.ErrStorageUnavailable) {
		entry, err = s.repo.Upsert(ctx, up)
	}
	return entry, err
}

func (s *EntryService) deleteRetrying(ctx context.Context, id string) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, repository.ErrStorageUnavailable) {
		err = s.repo.Delete(ctx, id)
	}
	return err
}
