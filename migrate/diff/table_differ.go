package diff

import (
	"sort"
	"strconv"
	"strings"

	"github.com/satishbabariya/schema-engine/migrate/schema"
)

// TableDiffer compares two versions of a table.
type TableDiffer struct {
	prevTable *schema.Table
	nextTable *schema.Table
	db        *DifferDatabase
}

// NewTableDiffer creates a new TableDiffer.
func NewTableDiffer(prevTable, nextTable *schema.Table, db *DifferDatabase) *TableDiffer {
	return &TableDiffer{
		prevTable: prevTable,
		nextTable: nextTable,
		db:        db,
	}
}

// Compare returns the table's changes. The result may be empty.
func (td *TableDiffer) Compare() *TableDiff {
	pair := MigrationPair[*schema.Table]{Previous: td.prevTable, Next: td.nextTable}
	out := &TableDiff{
		Previous:       td.prevTable,
		Next:           td.nextTable,
		CreatedColumns: td.db.CreatedColumns(pair),
		DroppedColumns: td.db.DroppedColumns(pair),
	}

	for _, cp := range td.db.ColumnPairs(pair) {
		changes := allColumnChanges(cp.Column.Previous, cp.Column.Next, td.db.flavour)
		if changes.DiffersInSomething() {
			out.ColumnChanges = append(out.ColumnChanges, &ColumnDiff{
				Previous: cp.Column.Previous,
				Next:     cp.Column.Next,
				Changes:  changes,
			})
		}
	}

	out.CreatedIndexes, out.DroppedIndexes = matchByKey(td.prevTable.Indexes, td.nextTable.Indexes, indexKey,
		func(idx *schema.Index) string { return idx.Name })
	out.CreatedForeignKeys, out.DroppedForeignKeys = matchByKey(td.prevTable.ForeignKeys, td.nextTable.ForeignKeys,
		td.foreignKeyKey, func(fk *schema.ForeignKey) string { return fk.Name })

	return out
}

// indexKey is the structural identity of an index. Names are not part of it.
func indexKey(idx *schema.Index) string {
	return strings.Join(idx.Columns, "\x00") + "|" + strconv.FormatBool(idx.Unique) + "|" +
		strconv.FormatBool(idx.IsClustered())
}

// foreignKeyKey is the structural identity of a foreign key. Names are not part of it.
func (td *TableDiffer) foreignKeyKey(fk *schema.ForeignKey) string {
	return strings.Join(fk.Columns, "\x00") + "|" + td.db.normalizeTableName(fk.ReferencedTable) + "|" +
		strings.Join(fk.ReferencedColumns, "\x00") + "|" + fk.OnDelete.String() + "|" + fk.OnUpdate.String()
}

// matchByKey pairs elements with equal structural keys as a multiset and returns the unmatched next
// elements (created) and unmatched previous elements (dropped), each sorted by name.
func matchByKey[T any](prev, next []T, key func(T) string, name func(T) string) (created, dropped []T) {
	byName := func(s []T) []T {
		out := append([]T(nil), s...)
		sort.SliceStable(out, func(i, j int) bool { return name(out[i]) < name(out[j]) })
		return out
	}
	prev, next = byName(prev), byName(next)

	pending := make(map[string][]int)
	for i, p := range prev {
		k := key(p)
		pending[k] = append(pending[k], i)
	}
	matched := make([]bool, len(prev))
	for _, n := range next {
		k := key(n)
		if idx := pending[k]; len(idx) > 0 {
			matched[idx[0]] = true
			pending[k] = idx[1:]
			continue
		}
		created = append(created, n)
	}
	for i, p := range prev {
		if !matched[i] {
			dropped = append(dropped, p)
		}
	}
	return created, dropped
}
