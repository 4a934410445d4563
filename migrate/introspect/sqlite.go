package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

// SQLiteIntrospector implements introspection for SQLite
type SQLiteIntrospector struct {
	db *sql.DB
}

// read reads the SQLite catalog
func (i *SQLiteIntrospector) read(ctx context.Context) (*DatabaseSchema, error) {
	tables, err := i.introspectTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect tables: %w", err)
	}
	return &DatabaseSchema{Tables: tables}, nil
}

// introspectTables reads all tables and their columns
func (i *SQLiteIntrospector) introspectTables(ctx context.Context) ([]Table, error) {
	query := `
		SELECT name, sql
		FROM sqlite_master
		WHERE type = 'table'
		  AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`

	rows, err := i.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}

	type entry struct{ name, ddl string }
	var entries []entry
	for rows.Next() {
		var e entry
		var ddl sql.NullString
		if err := rows.Scan(&e.name, &ddl); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		e.ddl = ddl.String
		entries = append(entries, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tables := make([]Table, 0, len(entries))
	for _, e := range entries {
		table := Table{Name: e.name}

		if table.Columns, table.PrimaryKey, err = i.introspectColumns(ctx, e.name); err != nil {
			return nil, fmt.Errorf("failed to introspect columns for %s: %w", e.name, err)
		}
		// Only a single INTEGER PRIMARY KEY column can be AUTOINCREMENT.
		if len(table.PrimaryKey) == 1 && strings.Contains(strings.ToUpper(e.ddl), "AUTOINCREMENT") {
			for ci := range table.Columns {
				if table.Columns[ci].Name == table.PrimaryKey[0] {
					table.Columns[ci].AutoIncrement = true
				}
			}
		}
		if table.Indexes, err = i.introspectIndexes(ctx, e.name); err != nil {
			return nil, fmt.Errorf("failed to introspect indexes for %s: %w", e.name, err)
		}
		if table.ForeignKeys, err = i.introspectForeignKeys(ctx, e.name, e.ddl); err != nil {
			return nil, fmt.Errorf("failed to introspect foreign keys for %s: %w", e.name, err)
		}

		tables = append(tables, table)
	}
	return tables, nil
}

// introspectColumns reads all columns for a table using PRAGMA. The primary key is ordered by its
// position in the key, not in the table.
func (i *SQLiteIntrospector) introspectColumns(ctx context.Context, tableName string) ([]Column, []string, error) {
	rows, err := i.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteSQLite(tableName)))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var columns []Column
	pk := map[int]string{}
	for rows.Next() {
		var cid, notNull, pkPos int
		var col Column
		var dfltValue sql.NullString

		if err := rows.Scan(&cid, &col.Name, &col.Raw, &notNull, &dfltValue, &pkPos); err != nil {
			return nil, nil, fmt.Errorf("failed to scan column: %w", err)
		}

		col.Type = parseDataType(col.Raw)
		col.Nullable = notNull == 0 && pkPos == 0
		if dfltValue.Valid {
			col.Default = &dfltValue.String
		}
		if pkPos > 0 {
			pk[pkPos] = col.Name
		}

		columns = append(columns, col)
	}

	positions := make([]int, 0, len(pk))
	for p := range pk {
		positions = append(positions, p)
	}
	sort.Ints(positions)
	var primaryKey []string
	for _, p := range positions {
		primaryKey = append(primaryKey, pk[p])
	}
	return columns, primaryKey, rows.Err()
}

// introspectIndexes reads the indexes created with CREATE INDEX. Indexes backing inline constraints
// are skipped.
func (i *SQLiteIntrospector) introspectIndexes(ctx context.Context, tableName string) ([]Index, error) {
	rows, err := i.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_list(%s)", quoteSQLite(tableName)))
	if err != nil {
		return nil, fmt.Errorf("failed to query indexes: %w", err)
	}

	var indexes []Index
	for rows.Next() {
		var seq, unique, partial int
		var idx Index
		var origin string

		if err := rows.Scan(&seq, &idx.Name, &unique, &origin, &partial); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan index: %w", err)
		}
		if origin != "c" {
			continue
		}
		idx.IsUnique = unique == 1
		indexes = append(indexes, idx)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for n := range indexes {
		cols, err := i.indexColumns(ctx, indexes[n].Name)
		if err != nil {
			return nil, err
		}
		indexes[n].Columns = cols
	}
	sort.Slice(indexes, func(a, b int) bool { return indexes[a].Name < indexes[b].Name })
	return indexes, nil
}

func (i *SQLiteIntrospector) indexColumns(ctx context.Context, index string) ([]string, error) {
	rows, err := i.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_info(%s)", quoteSQLite(index)))
	if err != nil {
		return nil, fmt.Errorf("failed to query index %s: %w", index, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var seqno, cid int
		var name sql.NullString
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, fmt.Errorf("failed to scan index column: %w", err)
		}
		if name.Valid {
			columns = append(columns, name.String)
		}
	}
	return columns, rows.Err()
}

// introspectForeignKeys reads all foreign keys for a table. PRAGMA foreign_key_list does not report
// constraint names, so they are recovered from the table's DDL in declaration order.
func (i *SQLiteIntrospector) introspectForeignKeys(ctx context.Context, tableName, ddl string) ([]ForeignKey, error) {
	rows, err := i.db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteSQLite(tableName)))
	if err != nil {
		return nil, fmt.Errorf("failed to query foreign keys: %w", err)
	}
	defer rows.Close()

	// One row per column pair, grouped by id.
	byID := make(map[int]*ForeignKey)
	var ids []int
	for rows.Next() {
		var id, seq int
		var table, from string
		var to sql.NullString
		var onUpdate, onDelete, match string

		if err := rows.Scan(&id, &seq, &table, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key: %w", err)
		}

		fk, exists := byID[id]
		if !exists {
			fk = &ForeignKey{ReferencedTable: table, OnUpdate: onUpdate, OnDelete: onDelete}
			byID[id] = fk
			ids = append(ids, id)
		}
		fk.Columns = append(fk.Columns, from)
		fk.ReferencedColumns = append(fk.ReferencedColumns, to.String)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Ids count down from the last declared constraint.
	sort.Sort(sort.Reverse(sort.IntSlice(ids)))
	names := constraintNames(ddl)
	fks := make([]ForeignKey, 0, len(ids))
	for n, id := range ids {
		fk := byID[id]
		if n < len(names) && names[n] != "" {
			fk.Name = names[n]
		} else {
			fk.Name = fmt.Sprintf("%s_%s_fkey", tableName, strings.Join(fk.Columns, "_"))
		}
		fks = append(fks, *fk)
	}
	return fks, nil
}

// constraintNames returns, for each FOREIGN KEY clause in a CREATE TABLE statement, the name given
// by a preceding CONSTRAINT clause or "".
func constraintNames(ddl string) []string {
	tokens := strings.FieldsFunc(ddl, func(r rune) bool {
		return r == ' ' || r == '\n' || r == '\t' || r == '\r' || r == ',' || r == '('
	})
	var names []string
	for n := 0; n < len(tokens); n++ {
		if !strings.EqualFold(tokens[n], "FOREIGN") || n+1 >= len(tokens) || !strings.EqualFold(tokens[n+1], "KEY") {
			continue
		}
		name := ""
		if n >= 2 && strings.EqualFold(tokens[n-2], "CONSTRAINT") {
			name = unquoteSQLite(tokens[n-1])
		}
		names = append(names, name)
	}
	return names
}

func quoteSQLite(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func unquoteSQLite(name string) string {
	if len(name) >= 2 {
		switch name[0] {
		case '"', '`', '[':
			return strings.ReplaceAll(name[1:len(name)-1], `""`, `"`)
		}
	}
	return name
}
