package scheduled

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidInput matches every *ValidationError.
	ErrInvalidInput = errors.New("invalid scheduled event input")
	// ErrStateConflict matches every *StateConflictError.
	ErrStateConflict = errors.New("scheduled event state conflict")

	ErrMissingEndTime   = errors.New("missing end time")
	ErrInvalidTimeRange = errors.New("start time must be before end time")
	ErrNameRequired     = errors.New("name is required")
	ErrStartRequired    = errors.New("start time is required")
	ErrLocationRequired = errors.New("location is required")

	ErrNoRequester = errors.New("no requester configured")
	// ErrCursorStalled is returned when a full page contained no entry the
	// cursor could advance past.
	ErrCursorStalled = errors.New("pagination cursor stalled on unparsable page")
)

type ValidationIssue struct{ Field, Reason string }

// ValidationError reports malformed setter input or a cross-field rule
// violated at finalize time. Cause, when set, is one of the sentinel
// errors above.
type ValidationError struct {
	Issues []ValidationIssue
	Cause  error
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		parts = append(parts, is.Field+": "+is.Reason)
	}
	return "invalid scheduled event: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }
func (e *ValidationError) Unwrap() error { return e.Cause }

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Issues: []ValidationIssue{{Field: field, Reason: reason}}}
}

func invalidCause(field string, cause error) *ValidationError {
	return &ValidationError{
		Issues: []ValidationIssue{{Field: field, Reason: cause.Error()}},
		Cause:  cause,
	}
}

// StateConflictError is returned when a change is not allowed in the
// event's current lifecycle state.
type StateConflictError struct {
	Field  Field
	Status Status
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("cannot change %s of a scheduled event in status %s", e.Field, e.Status)
}

func (e *StateConflictError) Is(target error) bool { return target == ErrStateConflict }

// TransportError wraps a failure reported by the Requester. The request
// is treated as not applied.
type TransportError struct {
	Route CompiledRoute
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Route, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
