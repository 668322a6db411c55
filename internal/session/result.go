package session

import (
	"time"

	"github.com/example/vocabqueue/pkg/models"
)

// Result is what a finished session hands back to the caller.
// All counters are deltas produced by this session only.
type Result struct {
	SessionID string      `json:"session_id"`
	Mode      models.Mode `json:"mode"`
	Key       string      `json:"key"`

	Ratings map[string]models.RatingCounts `json:"ratings"` // item id -> ratings given
	Quiz    map[string]models.QuizStats    `json:"quiz"`    // item id -> answers given
	// Reviewed holds every item id acted on, sorted
	Reviewed        []string       `json:"reviewed"`
	Encounters      map[string]int `json:"encounters"`       // item id -> times shown and acted on
	TableEncounters map[string]int `json:"table_encounters"` // table id -> same, summed

	// Queued are the item ids the session started with
	Queued []string `json:"queued"`
	// QueueOrder is the final order of the session queue
	QueueOrder []string `json:"queue_order"`
	// SavedOrder is persisted under Key: unstudied cards, then the eligible
	// items left out of the session, then the studied cards
	SavedOrder []string `json:"saved_order"`

	ElapsedSeconds int64     `json:"elapsed_seconds"`
	StartedAt      time.Time `json:"started_at"`
	EndedAt        time.Time `json:"ended_at"`
}

// Change is sent to listeners whenever the current card changes.
// Card is nil when the session has nothing to study.
type Change struct {
	SessionID string
	Mode      models.Mode
	Card      *models.SessionCard
	At        time.Time
}

// Listener observes current-card changes. Listeners must not block; they
// are called synchronously after the session state is updated.
type Listener interface {
	CurrentChanged(Change)
}

// ListenerFunc adapts a function to Listener
type ListenerFunc func(Change)

func (f ListenerFunc) CurrentChanged(c Change) { f(c) }
