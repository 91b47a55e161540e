package validation

import (
	"errors"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxNoteLength is the text note budget in code points, counted after
// Unicode normalization so composed and decomposed input measure the same.
const MaxNoteLength = 240

var ErrNoteTooLong = errors.New("text note is too long (max 240 characters)")

// ValidateNote normalizes a text note and enforces the length budget.
// An empty note is valid and means "no note".
func ValidateNote(note string) (string, error) {
	normalized := norm.NFC.String(note)

	if utf8.RuneCountInString(normalized) > MaxNoteLength {
		return "", ErrNoteTooLong
	}

	return normalized, nil
}
