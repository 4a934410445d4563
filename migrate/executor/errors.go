package executor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/satishbabariya/schema-engine/migrate/planner"
)

var (
	ErrDestructiveChangeRejected = errors.New("plan contains destructive changes that were not acknowledged")
	ErrApplyInterrupted          = errors.New("migration interrupted")
)

// DestructiveChangeRejectedError lists the Warning steps that were not acknowledged.
type DestructiveChangeRejectedError struct {
	Warnings []*planner.Step
}

func (e *DestructiveChangeRejectedError) Error() string {
	reasons := make([]string, len(e.Warnings))
	for i, s := range e.Warnings {
		reasons[i] = s.Destructiveness.Reason
	}
	return fmt.Sprintf("%s: %s", ErrDestructiveChangeRejected, strings.Join(reasons, "; "))
}

func (e *DestructiveChangeRejectedError) Unwrap() error {
	return ErrDestructiveChangeRejected
}

// ApplyInterruptedError reports a step that failed. Applied holds the steps whose changes were
// committed before the failure. The database must be introspected again before re-planning.
type ApplyInterruptedError struct {
	Applied []*planner.Step
	Failed  *planner.Step
	Err     error
}

func (e *ApplyInterruptedError) Error() string {
	return fmt.Sprintf("%s after %d applied steps at %q: %v",
		ErrApplyInterrupted, len(e.Applied), e.Failed.Description(), e.Err)
}

func (e *ApplyInterruptedError) Unwrap() []error {
	return []error{ErrApplyInterrupted, e.Err}
}
