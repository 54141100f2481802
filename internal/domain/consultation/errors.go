package consultation

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the requested consultation does not exist.
	ErrNotFound = errors.New("consultation not found")

	// ErrForbidden is returned when the actor may not perform the operation.
	ErrForbidden = errors.New("operation not permitted")

	// ErrValidation is returned for malformed input.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTransition is the match target for InvalidTransitionError.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// InvalidTransitionError reports a disallowed status transition, carrying
// both endpoints so callers and clients can see what was attempted.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

// Is makes errors.Is(err, ErrInvalidTransition) work.
func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
