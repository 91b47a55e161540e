package model

import (
	"time"
)

// MoodEntry is the single persisted journal record: at most one per
// calendar day. Day carries the normalized start-of-day instant and is the
// business key; ID stays stable across edits of the same day.
type MoodEntry struct {
	ID            string    `db:"id" json:"id"`
	Day           time.Time `db:"day" json:"day"`
	Mood          Mood      `db:"mood" json:"mood"`
	TextNote      *string   `db:"text_note" json:"text_note,omitempty"`
	VoiceRef      *string   `db:"voice_ref" json:"voice_ref,omitempty"`
	VoiceDuration *float64  `db:"voice_duration" json:"voice_duration,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// HasVoiceNote reports whether the entry references a stored clip.
// VoiceDuration is present iff VoiceRef is.
func (e *MoodEntry) HasVoiceNote() bool {
	return e != nil && e.VoiceRef != nil && *e.VoiceRef != ""
}

// Clone returns a copy safe to hand to readers while the original keeps
// being mutated by the store.
func (e *MoodEntry) Clone() *MoodEntry {
	if e == nil {
		return nil
	}
	c := *e
	if e.TextNote != nil {
		v := *e.TextNote
		c.TextNote = &v
	}
	if e.VoiceRef != nil {
		v := *e.VoiceRef
		c.VoiceRef = &v
	}
	if e.VoiceDuration != nil {
		v := *e.VoiceDuration
		c.VoiceDuration = &v
	}
	return &c
}
