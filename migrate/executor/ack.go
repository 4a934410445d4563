package executor

import "github.com/satishbabariya/schema-engine/migrate/planner"

// Acknowledgment is the set of destructiveness levels the caller accepts. Safe steps never need
// acknowledging and Unexecutable steps cannot be acknowledged.
type Acknowledgment map[planner.Level]bool

// Acknowledge accepts the given levels.
func Acknowledge(levels ...planner.Level) Acknowledgment {
	ack := Acknowledgment{}
	for _, l := range levels {
		if l != planner.Unexecutable {
			ack[l] = true
		}
	}
	return ack
}

// Accepts reports whether steps of the given level may be applied.
func (a Acknowledgment) Accepts(l planner.Level) bool {
	switch l {
	case planner.Safe:
		return true
	case planner.Unexecutable:
		return false
	}
	return a[l]
}
