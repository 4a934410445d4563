package migrate

import (
	"errors"
	"fmt"

	"github.com/satishbabariya/schema-engine/migrate/planner"
)

var (
	// ErrNotConverged is returned when the database still differs from the schema after a push.
	ErrNotConverged = errors.New("database did not converge to the schema")
)

// NotConvergedError carries the plan that remained after applying.
type NotConvergedError struct {
	Residual *planner.Plan
}

func (e *NotConvergedError) Error() string {
	return fmt.Sprintf("%s: %d step(s) remain: %v", ErrNotConverged, len(e.Residual.Steps), e.Residual.Summary())
}

func (e *NotConvergedError) Unwrap() error { return ErrNotConverged }
