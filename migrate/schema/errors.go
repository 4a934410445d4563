package schema

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidModel = errors.New("invalid schema model")
)

// ValidationError describes a single invariant violation.
type ValidationError struct {
	Table  string
	Column string
	Reason string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Table == "":
		return fmt.Sprintf("%s: %s", ErrInvalidModel, e.Reason)
	case e.Column == "":
		return fmt.Sprintf("%s: table %q: %s", ErrInvalidModel, e.Table, e.Reason)
	default:
		return fmt.Sprintf("%s: column %q.%q: %s", ErrInvalidModel, e.Table, e.Column, e.Reason)
	}
}

func (e *ValidationError) Unwrap() error { return ErrInvalidModel }
