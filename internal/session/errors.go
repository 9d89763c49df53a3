package session

import (
	"errors"
	"fmt"
)

// ValidationError reports a user-correctable input problem. The requested
// transition is blocked and engine state is left unchanged.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var (
	// ErrAlreadyRunning is returned by Start on a station with an active session.
	ErrAlreadyRunning = errors.New("session already running")

	// ErrNotRunning is returned by Stop on a station with no active session.
	ErrNotRunning = errors.New("no session running")

	// ErrUnknownStation is returned when an intent names a station with no engine.
	ErrUnknownStation = errors.New("unknown station")
)
