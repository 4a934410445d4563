// Package diff computes the structural difference between two schema models.
//
// The differ is a pure function: it never mutates its inputs and its outputs are deterministic. Tables,
// enums, indexes and foreign keys are sorted by name, columns keep their declaration order. Ordering the
// changes for execution is the planner's job.
package diff

import (
	"github.com/satishbabariya/schema-engine/migrate/schema"
)

// Flavour is what the differ needs to know about the target connector.
type Flavour interface {
	// AreEquivalent reports whether two native types of a family denote the same database type.
	AreEquivalent(family schema.Family, a, b *schema.NativeType) bool
	// FoldNames reports whether table names compare case-insensitively.
	FoldNames() bool
}

// SchemaDiff is the structural difference between a current and a desired model.
type SchemaDiff struct {
	CreatedTables []*schema.Table
	DroppedTables []*schema.Table
	TableChanges  []*TableDiff

	CreatedEnums []*schema.Enum
	DroppedEnums []*schema.Enum
	EnumChanges  []*EnumDiff
}

// IsEmpty reports whether the two models are structurally equal.
func (d *SchemaDiff) IsEmpty() bool {
	return len(d.CreatedTables) == 0 && len(d.DroppedTables) == 0 && len(d.TableChanges) == 0 &&
		len(d.CreatedEnums) == 0 && len(d.DroppedEnums) == 0 && len(d.EnumChanges) == 0
}

// TableDiff holds the changes to a table present in both models.
type TableDiff struct {
	Previous *schema.Table
	Next     *schema.Table

	CreatedColumns []*schema.Column
	DroppedColumns []*schema.Column
	ColumnChanges  []*ColumnDiff

	CreatedIndexes []*schema.Index
	DroppedIndexes []*schema.Index

	CreatedForeignKeys []*schema.ForeignKey
	DroppedForeignKeys []*schema.ForeignKey
}

// Name is the desired table name.
func (td *TableDiff) Name() string {
	return td.Next.Name
}

// IsEmpty reports whether nothing changed.
func (td *TableDiff) IsEmpty() bool {
	return len(td.CreatedColumns) == 0 && len(td.DroppedColumns) == 0 && len(td.ColumnChanges) == 0 &&
		len(td.CreatedIndexes) == 0 && len(td.DroppedIndexes) == 0 &&
		len(td.CreatedForeignKeys) == 0 && len(td.DroppedForeignKeys) == 0
}

// PrimaryKeyChanged reports whether the ordered primary key columns differ.
func (td *TableDiff) PrimaryKeyChanged() bool {
	prev, next := td.Previous.PrimaryKey(), td.Next.PrimaryKey()
	if len(prev) != len(next) {
		return true
	}
	for i := range prev {
		if prev[i] != next[i] {
			return true
		}
	}
	return false
}

// ColumnDiff is a column present on both sides that differs in at least one field.
type ColumnDiff struct {
	Previous *schema.Column
	Next     *schema.Column
	Changes  ColumnChanges
}

// Name is the column name.
func (cd *ColumnDiff) Name() string {
	return cd.Next.Name
}

// EnumDiff is an enum present on both sides whose value sequence differs.
type EnumDiff struct {
	Previous *schema.Enum
	Next     *schema.Enum

	AddedValues   []string
	RemovedValues []string
	// OrderChanged is set when the values common to both sides appear in a different order.
	OrderChanged bool
}

// Name is the enum name.
func (ed *EnumDiff) Name() string {
	return ed.Next.Name
}

// Diff compares current against desired.
func Diff(current, desired *schema.SchemaModel, f Flavour) *SchemaDiff {
	if current == nil {
		current = &schema.SchemaModel{}
	}
	if desired == nil {
		desired = &schema.SchemaModel{}
	}

	db := NewDifferDatabase(current, desired, f)
	out := &SchemaDiff{
		CreatedTables: db.CreatedTables(),
		DroppedTables: db.DroppedTables(),
	}
	for _, pair := range db.TablePairs() {
		td := NewTableDiffer(pair.Table.Previous, pair.Table.Next, db).Compare()
		if !td.IsEmpty() {
			out.TableChanges = append(out.TableChanges, td)
		}
	}
	out.CreatedEnums, out.DroppedEnums, out.EnumChanges = diffEnums(current.Enums, desired.Enums)
	return out
}
