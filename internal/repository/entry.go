package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/moodlight/moodlight/internal/datekey"
	"github.com/moodlight/moodlight/internal/model"
)

var (
	ErrEntryNotFound = errors.New("mood entry not found")

	// ErrStorageUnavailable marks backing-store I/O failures. A lookup miss
	// is ErrEntryNotFound, never this; callers can tell the two apart.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// UpsertEntry carries the full field state written for a day. Nil optionals
// are stored as NULL.
type UpsertEntry struct {
	Day           time.Time
	Mood          model.Mood
	TextNote      *string
	VoiceRef      *string
	VoiceDuration *float64
}

type EntryRepository interface {
	Upsert(ctx context.Context, up UpsertEntry) (*model.MoodEntry, error)
	ByDay(ctx context.Context, day time.Time) (*model.MoodEntry, error)
	ByID(ctx context.Context, id string) (*model.MoodEntry, error)
	Range(ctx context.Context, start, end time.Time) ([]*model.MoodEntry, error)
	Delete(ctx context.Context, id string) error
}

type entryRepository struct {
	db     *sqlx.DB
	keeper *datekey.Keeper
}

func NewEntryRepository(db *sqlx.DB, keeper *datekey.Keeper) EntryRepository {
	return &entryRepository{db: db, keeper: keeper}
}

// entryRow is the storage shape: the day is kept as its canonical
// YYYY-MM-DD key so the unique index and range scans compare the same
// value every driver round-trips identically.
type entryRow struct {
	ID            string          `db:"id"`
	Day           string          `db:"day"`
	Mood          string          `db:"mood"`
	TextNote      sql.NullString  `db:"text_note"`
	VoiceRef      sql.NullString  `db:"voice_ref"`
	VoiceDuration sql.NullFloat64 `db:"voice_duration"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

func (r *entryRepository) toModel(row *entryRow) (*model.MoodEntry, error) {
	day, err := r.keeper.ParseDayKey(row.Day)
	if err != nil {
		return nil, fmt.Errorf("corrupt day key %q: %w", row.Day, err)
	}

	entry := &model.MoodEntry{
		ID:        row.ID,
		Day:       day,
		Mood:      model.Mood(row.Mood),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if row.TextNote.Valid && row.TextNote.String != "" {
		v := row.TextNote.String
		entry.TextNote = &v
	}
	if row.VoiceRef.Valid && row.VoiceRef.String != "" {
		v := row.VoiceRef.String
		entry.VoiceRef = &v
		if row.VoiceDuration.Valid {
			d := row.VoiceDuration.Float64
			entry.VoiceDuration = &d
		}
	}
	return entry, nil
}

// Upsert inserts or updates the row for the normalized day in a single
// statement keyed on the unique day index, so two racing writers can never
// produce two rows even across processes. The existing id and created_at
// survive an update.
func (r *entryRepository) Upsert(ctx context.Context, up UpsertEntry) (*model.MoodEntry, error) {
	day := r.keeper.DayKey(up.Day)
	now := time.Now()

	query := `INSERT INTO moods (id, day, mood, text_note, voice_ref, voice_duration, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          ON CONFLICT(day) DO UPDATE SET
	              mood = excluded.mood,
	              text_note = excluded.text_note,
	              voice_ref = excluded.voice_ref,
	              voice_duration = excluded.voice_duration,
	              updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		uuid.New().String(),
		day,
		string(up.Mood),
		nullString(up.TextNote),
		nullString(up.VoiceRef),
		nullFloat(up.VoiceDuration),
		now,
		now,
	)
	if err != nil {
		return nil, unavailable("upsert entry", err)
	}

	return r.ByDay(ctx, up.Day)
}

func (r *entryRepository) ByDay(ctx context.Context, day time.Time) (*model.MoodEntry, error) {
	row := &entryRow{}
	query := `SELECT * FROM moods WHERE day = $1`

	err := r.db.GetContext(ctx, row, query, r.keeper.DayKey(day))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, unavailable("get entry by day", err)
	}

	return r.toModel(row)
}

func (r *entryRepository) ByID(ctx context.Context, id string) (*model.MoodEntry, error) {
	row := &entryRow{}
	query := `SELECT * FROM moods WHERE id = $1`

	err := r.db.GetContext(ctx, row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, unavailable("get entry by id", err)
	}

	return r.toModel(row)
}

// Range returns entries with day in [start, end] inclusive, ordered by day
// ascending. An empty range is an empty result, not an error.
func (r *entryRepository) Range(ctx context.Context, start, end time.Time) ([]*model.MoodEntry, error) {
	var rows []*entryRow
	query := `SELECT * FROM moods WHERE day >= $1 AND day <= $2 ORDER BY day ASC`

	err := r.db.SelectContext(ctx, &rows, query, r.keeper.DayKey(start), r.keeper.DayKey(end))
	if err != nil {
		return nil, unavailable("range entries", err)
	}

	entries := make([]*model.MoodEntry, 0, len(rows))
	for _, row := range rows {
		entry, err := r.toModel(row)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (r *entryRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM moods WHERE id = $1`, id)
	if err != nil {
		return unavailable("delete entry", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return unavailable("delete entry", err)
	}
	if rows == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrStorageUnavailable, err)
}

func nullString(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
