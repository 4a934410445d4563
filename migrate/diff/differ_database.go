package diff

import (
	"sort"
	"strings"

	"github.com/satishbabariya/schema-engine/migrate/schema"
)

// MigrationPair holds the previous and next version of a schema element.
type MigrationPair[T any] struct {
	Previous T
	Next     T
}

// TablePair is a table present in both models, keyed by its comparison name.
type TablePair struct {
	Name  string
	Table MigrationPair[*schema.Table]
}

// ColumnPair is a column present on both sides of a table pair.
type ColumnPair struct {
	TableName  string
	ColumnName string
	Column     MigrationPair[*schema.Column]
}

// DifferDatabase pairs the elements of two models by name.
type DifferDatabase struct {
	flavour Flavour

	prev map[string]*schema.Table
	next map[string]*schema.Table
	keys []string
}

// NewDifferDatabase indexes both models.
func NewDifferDatabase(prevSchema, nextSchema *schema.SchemaModel, f Flavour) *DifferDatabase {
	db := &DifferDatabase{
		flavour: f,
		prev:    make(map[string]*schema.Table, len(prevSchema.Tables)),
		next:    make(map[string]*schema.Table, len(nextSchema.Tables)),
	}

	seen := make(map[string]bool)
	for _, t := range prevSchema.Tables {
		key := db.normalizeTableName(t.Name)
		db.prev[key] = t
		seen[key] = true
	}
	for _, t := range nextSchema.Tables {
		key := db.normalizeTableName(t.Name)
		db.next[key] = t
		seen[key] = true
	}
	for key := range seen {
		db.keys = append(db.keys, key)
	}
	sort.Strings(db.keys)
	return db
}

func (db *DifferDatabase) normalizeTableName(name string) string {
	if db.flavour.FoldNames() {
		return strings.ToLower(name)
	}
	return name
}

// CreatedTables returns the tables that exist only in the next model.
func (db *DifferDatabase) CreatedTables() []*schema.Table {
	var result []*schema.Table
	for _, key := range db.keys {
		if _, ok := db.prev[key]; !ok {
			result = append(result, db.next[key])
		}
	}
	return result
}

// DroppedTables returns the tables that exist only in the previous model.
func (db *DifferDatabase) DroppedTables() []*schema.Table {
	var result []*schema.Table
	for _, key := range db.keys {
		if _, ok := db.next[key]; !ok {
			result = append(result, db.prev[key])
		}
	}
	return result
}

// TablePairs returns the tables present in both models.
func (db *DifferDatabase) TablePairs() []TablePair {
	var result []TablePair
	for _, key := range db.keys {
		prev, okPrev := db.prev[key]
		next, okNext := db.next[key]
		if okPrev && okNext {
			result = append(result, TablePair{
				Name:  key,
				Table: MigrationPair[*schema.Table]{Previous: prev, Next: next},
			})
		}
	}
	return result
}

// ColumnPairs returns the columns of a table pair present on both sides, in next-table order.
func (db *DifferDatabase) ColumnPairs(pair MigrationPair[*schema.Table]) []ColumnPair {
	var result []ColumnPair
	for _, next := range pair.Next.Columns {
		if prev := pair.Previous.Column(next.Name); prev != nil {
			result = append(result, ColumnPair{
				TableName:  pair.Next.Name,
				ColumnName: next.Name,
				Column:     MigrationPair[*schema.Column]{Previous: prev, Next: next},
			})
		}
	}
	return result
}

// CreatedColumns returns the columns only the next table has.
func (db *DifferDatabase) CreatedColumns(pair MigrationPair[*schema.Table]) []*schema.Column {
	var result []*schema.Column
	for _, c := range pair.Next.Columns {
		if pair.Previous.Column(c.Name) == nil {
			result = append(result, c)
		}
	}
	return result
}

// DroppedColumns returns the columns only the previous table has.
func (db *DifferDatabase) DroppedColumns(pair MigrationPair[*schema.Table]) []*schema.Column {
	var result []*schema.Column
	for _, c := range pair.Previous.Columns {
		if pair.Next.Column(c.Name) == nil {
			result = append(result, c)
		}
	}
	return result
}
