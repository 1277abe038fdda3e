package model

import "time"

// Composition is a musical work that can be recorded many times.
type Composition struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	DurationSeconds int       `json:"durationSeconds"`
	CreationYear    *int      `json:"creationYear,omitempty"`
	Genre           string    `json:"genre,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// CompositionPatch holds the fields of a partial composition update.
type CompositionPatch struct {
	Title           *string
	DurationSeconds *int
	CreationYear    *int
	Genre           *string
}

// Recording is one performance of a composition.
type Recording struct {
	ID            int64     `json:"id"`
	CompositionID int64     `json:"compositionId"`
	RecordingDate time.Time `json:"recordingDate"`
	Studio        string    `json:"studio,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`

	// Joined fields (not always populated).
	CompositionTitle string `json:"compositionTitle,omitempty"`
}
