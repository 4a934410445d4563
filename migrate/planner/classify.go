package planner

import (
	"strings"

	"github.com/satishbabariya/schema-engine/migrate/connector"
	"github.com/satishbabariya/schema-engine/migrate/diff"
	"github.com/satishbabariya/schema-engine/migrate/schema"
)

func (b *build) classify(s *Step) Destructiveness {
	if !b.conn().Supports(s.Kind) {
		return unexecutable("%s is not supported by the target database", s.Description())
	}

	switch s.Kind {
	case connector.CreateTable:
		return b.storable(s.Table, s.TableDef.Columns...)
	case connector.DropTable:
		return b.ifPopulated(s.Table, warning("dropping table %s loses all of its rows", s.Table))
	case connector.AddColumn:
		return b.classifyAdd(s.Table, s.Column)
	case connector.DropColumn:
		return b.ifPopulated(s.Table, warning("dropping column %s.%s loses its data", s.Table, s.Column.Name))
	case connector.AlterColumn:
		return b.classifyAlter(s.Table, s.Previous, s.Column, s.Changes)
	case connector.RedefineTable:
		return b.classifyRedefine(s)
	case connector.AlterEnum:
		if removed := s.EnumDiff.RemovedValues; len(removed) > 0 {
			return warning("removing values %s from enum %s invalidates rows holding them",
				strings.Join(removed, ", "), s.Enum.Name)
		}
	}
	return safe()
}

// storable rejects columns the connector has no way of storing.
func (b *build) storable(table string, cols ...*schema.Column) Destructiveness {
	var ds []Destructiveness
	for _, c := range cols {
		if c.Type.IsList() && !b.conn().SupportsScalarLists() {
			ds = append(ds, unexecutable("column %s.%s is a list, which the target database cannot store", table, c.Name))
		}
		if c.Type.Family == schema.FamilyEnum && b.conn().EnumStrategy() == connector.EnumsUnsupported {
			ds = append(ds, unexecutable("column %s.%s uses enum %s, which the target database cannot store",
				table, c.Name, c.Type.Enum))
		}
	}
	return worst(ds...)
}

func (b *build) classifyAdd(table string, c *schema.Column) Destructiveness {
	ds := []Destructiveness{b.storable(table, c)}
	if c.Required() && !b.knownEmpty(table) {
		ds = append(ds, unexecutable("added required column %s.%s has no default, and table %s is not known to be empty",
			table, c.Name, table))
	}
	return worst(ds...)
}

func (b *build) classifyAlter(table string, prev, next *schema.Column, changes diff.ColumnChanges) Destructiveness {
	ds := []Destructiveness{b.storable(table, next)}

	if changes.Has(diff.TypeChanged) {
		ds = append(ds, b.classifyTypeChange(table, prev, next))
	}
	if changes.Has(diff.ArityChanged) {
		ds = append(ds, warning("changing column %s.%s from %s to %s recreates it and loses its data",
			table, next.Name, prev.Type.Arity, next.Type.Arity))
	}
	if changes.Has(diff.NullabilityChanged) && next.Type.Arity == schema.ArityRequired {
		ds = append(ds, warning("making column %s.%s required fails if it holds NULL values", table, next.Name))
	}
	if changes.Has(diff.DefaultChanged) && next.Default == nil {
		ds = append(ds, warning("removing the default of column %s.%s", table, next.Name))
	}
	return b.ifPopulated(table, worst(ds...))
}

func (b *build) classifyTypeChange(table string, prev, next *schema.Column) Destructiveness {
	pt, nt := prev.Type, next.Type
	switch {
	case pt.Family != nt.Family || pt.Enum != nt.Enum:
		return warning("changing column %s.%s from %s to %s may fail or lose data", table, next.Name, pt, nt)
	case nt.Family == schema.FamilyEnum:
		if ed := b.inlineChanges[nt.Enum]; ed != nil && len(ed.RemovedValues) > 0 {
			return warning("removing values %s from column %s.%s invalidates rows holding them",
				strings.Join(ed.RemovedValues, ", "), table, next.Name)
		}
		return safe()
	case nt.Family == schema.FamilyUnsupported:
		return warning("changing column %s.%s from %s to %s may fail or lose data", table, next.Name, pt, nt)
	case !b.conn().Widens(nt.Family, pt.Native, nt.Native):
		return warning("narrowing column %s.%s from %s to %s may truncate data", table, next.Name, pt, nt)
	}
	return safe()
}

func (b *build) classifyRedefine(s *Step) Destructiveness {
	td := s.TableDiff
	ds := []Destructiveness{b.storable(s.Table, s.TableDef.Columns...)}

	for _, c := range td.DroppedColumns {
		ds = append(ds, warning("dropping column %s.%s loses its data", s.Table, c.Name))
	}
	for _, c := range td.CreatedColumns {
		ds = append(ds, b.classifyAdd(s.Table, c))
	}
	for _, cd := range td.ColumnChanges {
		ds = append(ds, b.classifyAlter(s.Table, cd.Previous, cd.Next, cd.Changes))
	}
	if td.PrimaryKeyChanged() {
		ds = append(ds, warning("changing the primary key of %s fails if existing rows are not unique under it", s.Table))
	}
	return b.ifPopulated(s.Table, worst(ds...))
}

// ifPopulated downgrades a warning to safe when the table is known to be empty.
func (b *build) ifPopulated(table string, d Destructiveness) Destructiveness {
	if d.Level == Warning && b.knownEmpty(table) {
		return safe()
	}
	return d
}

func (b *build) knownEmpty(table string) bool {
	stats := b.p.stats
	if stats == nil {
		return false
	}
	if n, ok := stats[table]; ok {
		return n == 0
	}
	if b.conn().FoldNames() {
		for name, n := range stats {
			if strings.EqualFold(name, table) {
				return n == 0
			}
		}
	}
	return false
}
