package models

import "time"

// Mode is a presentation mode a session can run in
type Mode string

const (
	ModeFlashcard Mode = "flashcard"
	ModeScramble  Mode = "scramble"
	ModeTheater   Mode = "theater"
	ModeQuiz      Mode = "quiz"
)

// Modes lists every known mode
var Modes = []Mode{ModeFlashcard, ModeScramble, ModeTheater, ModeQuiz}

// Valid reports whether m is a known mode
func (m Mode) Valid() bool {
	for _, known := range Modes {
		if m == known {
			return true
		}
	}
	return false
}

// Requeues reports whether rating events in this mode reposition the card.
// Theater and quiz sessions only advance linearly.
func (m Mode) Requeues() bool {
	return m == ModeFlashcard || m == ModeScramble
}

// ModeStats tracks performance of an item in a rating-based mode
type ModeStats struct {
	Ratings       RatingCounts `json:"ratings"`
	Reviewed      bool         `json:"reviewed" db:"reviewed"`             // Rated at least once
	InQueue       int          `json:"in_queue" db:"in_queue"`             // Times the item entered a session queue
	LastPracticed *time.Time   `json:"last_practiced" db:"last_practiced"` // nil when never practiced
}

// QuizStats tracks pass/fail answers in quiz mode
type QuizStats struct {
	Passed int `json:"passed" db:"passed"`
	Failed int `json:"failed" db:"failed"`
}

// Attempts is the number of quiz answers given
func (q QuizStats) Attempts() int {
	return q.Passed + q.Failed
}

// SuccessRate is Passed/Attempts, or 0 when the item was never quizzed
func (q QuizStats) SuccessRate() float64 {
	if q.Attempts() == 0 {
		return 0
	}
	return float64(q.Passed) / float64(q.Attempts())
}

// Stats is the per-mode performance record of an item
type Stats struct {
	Flashcard ModeStats `json:"flashcard"`
	Scramble  ModeStats `json:"scramble"`
	Quiz      QuizStats `json:"quiz"`
}

// ForMode returns the rating stats used by sessions in mode.
// Scramble has its own counters; every other mode reads the flashcard ones.
func (s Stats) ForMode(mode Mode) ModeStats {
	if mode == ModeScramble {
		return s.Scramble
	}
	return s.Flashcard
}

// Item is a row of vocabulary data
type Item struct {
	ID      string            `json:"id" db:"id"`
	TableID string            `json:"table_id" db:"table_id"`
	Values  map[string]string `json:"values"` // column name -> text
	Stats   Stats             `json:"stats"`
}

// Value returns the text stored under column, or "" if absent
func (i *Item) Value(column string) string {
	if i == nil || i.Values == nil {
		return ""
	}
	return i.Values[column]
}

// Table is a named collection of items sharing the same columns
type Table struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Columns   []string  `json:"columns"`
	Items     []*Item   `json:"items"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
