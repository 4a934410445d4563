package planner

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnexecutableStep = errors.New("plan contains unexecutable steps")
	// ErrInternal marks a planner invariant violation. It always indicates a bug, never bad input.
	ErrInternal     = errors.New("internal planner error")
	ErrDanglingEnum = errors.New("dangling enum reference")
)

// UnexecutableStepError lists the steps that block a plan from being applied.
type UnexecutableStepError struct {
	Steps []*Step
}

func (e *UnexecutableStepError) Error() string {
	reasons := make([]string, len(e.Steps))
	for i, s := range e.Steps {
		reasons[i] = s.Destructiveness.Reason
	}
	return fmt.Sprintf("%s: %s", ErrUnexecutableStep, strings.Join(reasons, "; "))
}

func (e *UnexecutableStepError) Unwrap() error {
	return ErrUnexecutableStep
}
