package model

// Mood is the closed three-state check-in scale. The raw values double as
// the display colors the calendar renders.
type Mood string

const (
	MoodRed    Mood = "red"
	MoodYellow Mood = "yellow"
	MoodGreen  Mood = "green"
)

func (m Mood) Valid() bool {
	switch m {
	case MoodRed, MoodYellow, MoodGreen:
		return true
	}
	return false
}

func (m Mood) DisplayName() string {
	switch m {
	case MoodRed:
		return "Struggling"
	case MoodYellow:
		return "Okay"
	case MoodGreen:
		return "Good"
	}
	return ""
}
