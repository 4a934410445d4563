package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// SQLServerIntrospector implements introspection for SQL Server
type SQLServerIntrospector struct {
	db     *sql.DB
	schema string
}

// NewSQLServerIntrospector creates a new SQL Server introspector for the dbo schema
func NewSQLServerIntrospector(db *sql.DB) *SQLServerIntrospector {
	return &SQLServerIntrospector{db: db, schema: "dbo"}
}

// read reads the SQL Server catalog
func (i *SQLServerIntrospector) read(ctx context.Context) (*DatabaseSchema, error) {
	query := `
		SELECT TABLE_NAME
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_TYPE = 'BASE TABLE'
		  AND TABLE_SCHEMA = @p1
		ORDER BY TABLE_NAME
	`
	names, err := queryStrings(ctx, i.db, query, i.schema)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}

	raw := &DatabaseSchema{}
	for _, name := range names {
		table := Table{Name: name}

		if table.Columns, err = i.introspectColumns(ctx, name); err != nil {
			return nil, fmt.Errorf("failed to introspect columns for %s: %w", name, err)
		}
		if table.PrimaryKey, err = i.introspectPrimaryKey(ctx, name); err != nil {
			return nil, fmt.Errorf("failed to introspect primary key for %s: %w", name, err)
		}
		if table.Indexes, err = i.introspectIndexes(ctx, name); err != nil {
			return nil, fmt.Errorf("failed to introspect indexes for %s: %w", name, err)
		}
		if table.ForeignKeys, err = i.introspectForeignKeys(ctx, name); err != nil {
			return nil, fmt.Errorf("failed to introspect foreign keys for %s: %w", name, err)
		}

		raw.Tables = append(raw.Tables, table)
	}
	return raw, nil
}

// introspectColumns reads all columns for a table
func (i *SQLServerIntrospector) introspectColumns(ctx context.Context, tableName string) ([]Column, error) {
	query := `
		SELECT
			c.COLUMN_NAME,
			c.DATA_TYPE,
			c.IS_NULLABLE,
			c.COLUMN_DEFAULT,
			c.CHARACTER_MAXIMUM_LENGTH,
			c.NUMERIC_PRECISION,
			c.NUMERIC_SCALE,
			c.DATETIME_PRECISION,
			COLUMNPROPERTY(OBJECT_ID(c.TABLE_SCHEMA + '.' + c.TABLE_NAME), c.COLUMN_NAME, 'IsIdentity')
		FROM INFORMATION_SCHEMA.COLUMNS c
		WHERE c.TABLE_SCHEMA = @p1
		  AND c.TABLE_NAME = @p2
		ORDER BY c.ORDINAL_POSITION
	`

	rows, err := i.db.QueryContext(ctx, query, i.schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var col Column
		var dataType, isNullable string
		var defaultValue sql.NullString
		var maxLength, precision, scale, timePrecision, identity sql.NullInt64

		err := rows.Scan(&col.Name, &dataType, &isNullable, &defaultValue,
			&maxLength, &precision, &scale, &timePrecision, &identity)
		if err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}

		col.Raw = dataType
		col.Type.Name = strings.ToLower(dataType)
		col.Type.Length = nullableInt(maxLength)
		col.Type.Precision = nullableInt(precision)
		col.Type.Scale = nullableInt(scale)
		col.Type.TimePrecision = nullableInt(timePrecision)
		col.Nullable = isNullable == "YES"
		col.AutoIncrement = identity.Valid && identity.Int64 == 1
		if defaultValue.Valid {
			col.Default = &defaultValue.String
		}

		columns = append(columns, col)
	}
	return columns, rows.Err()
}

// introspectPrimaryKey reads the primary key columns of a table
func (i *SQLServerIntrospector) introspectPrimaryKey(ctx context.Context, tableName string) ([]string, error) {
	query := `
		SELECT col.name
		FROM sys.indexes ind
		JOIN sys.index_columns ic ON ic.object_id = ind.object_id AND ic.index_id = ind.index_id
		JOIN sys.columns col ON col.object_id = ic.object_id AND col.column_id = ic.column_id
		WHERE ind.object_id = OBJECT_ID(@p1)
		  AND ind.is_primary_key = 1
		ORDER BY ic.key_ordinal
	`
	columns, err := queryStrings(ctx, i.db, query, i.schema+"."+tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query primary key: %w", err)
	}
	return columns, nil
}

// introspectIndexes reads all secondary indexes for a table, including whether they are clustered
func (i *SQLServerIntrospector) introspectIndexes(ctx context.Context, tableName string) ([]Index, error) {
	query := `
		SELECT ind.name, col.name, ind.is_unique, ind.type
		FROM sys.indexes ind
		JOIN sys.index_columns ic ON ic.object_id = ind.object_id AND ic.index_id = ind.index_id
		JOIN sys.columns col ON col.object_id = ic.object_id AND col.column_id = ic.column_id
		WHERE ind.object_id = OBJECT_ID(@p1)
		  AND ind.is_primary_key = 0
		  AND ind.is_unique_constraint = 0
		  AND ic.is_included_column = 0
		ORDER BY ind.name, ic.key_ordinal
	`

	rows, err := i.db.QueryContext(ctx, query, i.schema+"."+tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query indexes: %w", err)
	}
	defer rows.Close()

	var indexes []Index
	for rows.Next() {
		var name, column string
		var unique bool
		var kind int
		if err := rows.Scan(&name, &column, &unique, &kind); err != nil {
			return nil, fmt.Errorf("failed to scan index: %w", err)
		}
		if n := len(indexes); n > 0 && indexes[n-1].Name == name {
			indexes[n-1].Columns = append(indexes[n-1].Columns, column)
			continue
		}
		clustered := kind == 1
		indexes = append(indexes, Index{Name: name, Columns: []string{column}, IsUnique: unique, Clustered: &clustered})
	}
	return indexes, rows.Err()
}

// introspectForeignKeys reads all foreign keys for a table
func (i *SQLServerIntrospector) introspectForeignKeys(ctx context.Context, tableName string) ([]ForeignKey, error) {
	query := `
		SELECT
			fk.name,
			pc.name,
			rt.name,
			rc.name,
			fk.delete_referential_action_desc,
			fk.update_referential_action_desc
		FROM sys.foreign_keys fk
		JOIN sys.foreign_key_columns fkc ON fkc.constraint_object_id = fk.object_id
		JOIN sys.columns pc ON pc.object_id = fkc.parent_object_id AND pc.column_id = fkc.parent_column_id
		JOIN sys.columns rc ON rc.object_id = fkc.referenced_object_id AND rc.column_id = fkc.referenced_column_id
		JOIN sys.tables rt ON rt.object_id = fk.referenced_object_id
		WHERE fk.parent_object_id = OBJECT_ID(@p1)
		ORDER BY fk.name, fkc.constraint_column_id
	`

	rows, err := i.db.QueryContext(ctx, query, i.schema+"."+tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query foreign keys: %w", err)
	}
	defer rows.Close()

	var fks []ForeignKey
	for rows.Next() {
		var name, column, refTable, refColumn, onDelete, onUpdate string
		if err := rows.Scan(&name, &column, &refTable, &refColumn, &onDelete, &onUpdate); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key: %w", err)
		}
		if n := len(fks); n > 0 && fks[n-1].Name == name {
			fks[n-1].Columns = append(fks[n-1].Columns, column)
			fks[n-1].ReferencedColumns = append(fks[n-1].ReferencedColumns, refColumn)
			continue
		}
		fks = append(fks, ForeignKey{
			Name:              name,
			Columns:           []string{column},
			ReferencedTable:   refTable,
			ReferencedColumns: []string{refColumn},
			// The catalog spells actions with underscores, e.g. SET_NULL.
			OnDelete: strings.ReplaceAll(onDelete, "_", " "),
			OnUpdate: strings.ReplaceAll(onUpdate, "_", " "),
		})
	}
	return fks, rows.Err()
}
