package planner

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/schema-engine/migrate/connector"
	"github.com/satishbabariya/schema-engine/migrate/diff"
	"github.com/satishbabariya/schema-engine/migrate/schema"
)

// Level orders destructiveness classes.
type Level int

const (
	Safe Level = iota
	Warning
	Unexecutable
)

func (l Level) String() string {
	switch l {
	case Warning:
		return "warning"
	case Unexecutable:
		return "unexecutable"
	default:
		return "safe"
	}
}

// Destructiveness is a step's classification. Reason is empty for Safe steps.
type Destructiveness struct {
	Level  Level
	Reason string
}

func safe() Destructiveness { return Destructiveness{Level: Safe} }

func warning(format string, args ...any) Destructiveness {
	return Destructiveness{Level: Warning, Reason: fmt.Sprintf(format, args...)}
}

func unexecutable(format string, args ...any) Destructiveness {
	return Destructiveness{Level: Unexecutable, Reason: fmt.Sprintf(format, args...)}
}

func worst(ds ...Destructiveness) Destructiveness {
	out := safe()
	var reasons []string
	for _, d := range ds {
		if d.Level > out.Level {
			out.Level = d.Level
			reasons = reasons[:0]
		}
		if d.Level == out.Level && d.Reason != "" {
			reasons = append(reasons, d.Reason)
		}
	}
	if out.Level > Safe {
		out.Reason = strings.Join(reasons, "; ")
	}
	return out
}

// Phase groups steps that may share a transaction. Phases always run in order.
type Phase int

const (
	// PhasePrepare creates and alters enums and drops constraints.
	PhasePrepare Phase = iota
	// PhaseTables creates, redefines, alters and drops tables and columns.
	PhaseTables
	// PhaseConstraints creates indexes and foreign keys and drops enums.
	PhaseConstraints
)

func (p Phase) String() string {
	switch p {
	case PhasePrepare:
		return "prepare"
	case PhaseTables:
		return "tables"
	default:
		return "constraints"
	}
}

// Phases lists the phases in execution order.
func Phases() []Phase {
	return []Phase{PhasePrepare, PhaseTables, PhaseConstraints}
}

func phaseOf(kind connector.StepKind) Phase {
	switch kind {
	case connector.CreateEnum, connector.AlterEnum, connector.DropForeignKey, connector.DropIndex:
		return PhasePrepare
	case connector.CreateIndex, connector.AddForeignKey, connector.DropEnum:
		return PhaseConstraints
	default:
		return PhaseTables
	}
}

// EnumUser is a column whose type must follow an enum through an AlterEnum rewrite.
type EnumUser struct {
	Table  string
	Column *schema.Column
}

// Step is one structural operation. Which fields are set depends on Kind.
type Step struct {
	Kind            connector.StepKind
	Phase           Phase
	Table           string
	Destructiveness Destructiveness

	// TableDef is the created table, the dropped table, or the desired shape of a redefined table.
	TableDef *schema.Table
	// PreviousTable and TableDiff describe a redefined table's current shape and the changes to it.
	PreviousTable *schema.Table
	TableDiff     *diff.TableDiff

	// Column is the added, dropped or desired column. Previous is the current column of an AlterColumn.
	Column   *schema.Column
	Previous *schema.Column
	Changes  diff.ColumnChanges

	Index      *schema.Index
	ForeignKey *schema.ForeignKey
	// ForeignKeys are declared inline by CreateTable and RedefineTable on connectors that cannot add
	// constraints to existing tables.
	ForeignKeys []*schema.ForeignKey

	Enum      *schema.Enum
	EnumDiff  *diff.EnumDiff
	EnumUsers []EnumUser
	// Enums holds the values of enums the step's columns use, for connectors that declare them inline.
	Enums []*schema.Enum
}

// Object names the element the step acts on within its table.
func (s *Step) Object() string {
	switch {
	case s.Column != nil:
		return s.Column.Name
	case s.Index != nil:
		return s.Index.Name
	case s.ForeignKey != nil:
		return s.ForeignKey.Name
	case s.Enum != nil:
		return s.Enum.Name
	}
	return ""
}

// Description is a short human description of the step.
func (s *Step) Description() string {
	switch s.Kind {
	case connector.CreateTable:
		return fmt.Sprintf("added table %s", s.Table)
	case connector.DropTable:
		return fmt.Sprintf("dropped table %s", s.Table)
	case connector.RedefineTable:
		return fmt.Sprintf("redefined table %s", s.Table)
	case connector.AddColumn:
		return fmt.Sprintf("added column %s.%s", s.Table, s.Column.Name)
	case connector.DropColumn:
		return fmt.Sprintf("dropped column %s.%s", s.Table, s.Column.Name)
	case connector.AlterColumn:
		return fmt.Sprintf("altered column %s.%s (%s)", s.Table, s.Column.Name, s.Changes)
	case connector.CreateIndex:
		kind := "index"
		if s.Index.Unique {
			kind = "unique index"
		}
		return fmt.Sprintf("added %s %s on %s(%s)", kind, s.Index.Name, s.Table, strings.Join(s.Index.Columns, ", "))
	case connector.DropIndex:
		return fmt.Sprintf("dropped index %s on %s", s.Index.Name, s.Table)
	case connector.AddForeignKey:
		return fmt.Sprintf("added foreign key %s on %s(%s) -> %s(%s)", s.ForeignKey.Name, s.Table,
			strings.Join(s.ForeignKey.Columns, ", "), s.ForeignKey.ReferencedTable,
			strings.Join(s.ForeignKey.ReferencedColumns, ", "))
	case connector.DropForeignKey:
		return fmt.Sprintf("dropped foreign key %s on %s", s.ForeignKey.Name, s.Table)
	case connector.CreateEnum:
		return fmt.Sprintf("added enum %s", s.Enum.Name)
	case connector.DropEnum:
		return fmt.Sprintf("dropped enum %s", s.Enum.Name)
	case connector.AlterEnum:
		var parts []string
		if len(s.EnumDiff.AddedValues) > 0 {
			parts = append(parts, "added "+strings.Join(s.EnumDiff.AddedValues, ", "))
		}
		if len(s.EnumDiff.RemovedValues) > 0 {
			parts = append(parts, "removed "+strings.Join(s.EnumDiff.RemovedValues, ", "))
		}
		if s.EnumDiff.OrderChanged {
			parts = append(parts, "reordered")
		}
		return fmt.Sprintf("altered enum %s (%s)", s.Enum.Name, strings.Join(parts, "; "))
	}
	return s.Kind.String()
}

// Summary is the line shown to a human reviewing the plan.
func (s *Step) Summary() string {
	switch s.Destructiveness.Level {
	case Warning:
		return "warning: " + s.Destructiveness.Reason
	case Unexecutable:
		return "unexecutable: " + s.Destructiveness.Reason
	default:
		return s.Description()
	}
}

func (s *Step) String() string {
	return s.Description()
}
