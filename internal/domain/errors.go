package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidHand = errors.New("invalid hand")
	ErrNotFound    = errors.New("not found")
	// ErrDuplicate reports a record whose id is already stored.
	ErrDuplicate   = errors.New("already stored")
)

// ValidationError reports which submitted field could not be used.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidHand
}

// AsValidation returns the ValidationError wrapped in err, if any.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
