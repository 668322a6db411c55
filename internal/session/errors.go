package session

import "github.com/pkg/errors"

var (
	// ErrEmptyQueue is returned for card actions on a session with nothing to study
	ErrEmptyQueue = errors.New("session has no items")
	// ErrSessionEnded is returned for any action after End
	ErrSessionEnded = errors.New("session already ended")
	// ErrWrongMode is returned when an action does not belong to the session mode
	ErrWrongMode = errors.New("action not available in this mode")
)
