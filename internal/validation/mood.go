package validation

import (
	"errors"

	"github.com/moodlight/moodlight/internal/model"
)

var (
	ErrMoodRequired = errors.New("mood is required")
	ErrInvalidMood  = errors.New("mood must be one of red, yellow, green")
)

// ValidateMood parses the wire value of a mood. A missing mood is rejected:
// an entry never exists without one.
func ValidateMood(s string) (model.Mood, error) {
	if s == "" {
		return "", ErrMoodRequired
	}

	mood := model.Mood(s)
	if !mood.Valid() {
		return "", ErrInvalidMood
	}

	return mood, nil
}
