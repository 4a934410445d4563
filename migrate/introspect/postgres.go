package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"

	"github.com/lib/pq"

	"github.com/satishbabariya/schema-engine/migrate/nativetypes"
)

// PostgresIntrospector implements introspection for PostgreSQL
type PostgresIntrospector struct {
	db     *sql.DB
	schema string
}

// read reads the PostgreSQL catalog
func (i *PostgresIntrospector) read(ctx context.Context) (*DatabaseSchema, error) {
	enums, err := i.introspectEnums(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect enums: %w", err)
	}

	tables, err := i.introspectTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect tables: %w", err)
	}

	return &DatabaseSchema{Tables: tables, Enums: enums}, nil
}

// introspectTables reads all tables and their columns
func (i *PostgresIntrospector) introspectTables(ctx context.Context) ([]Table, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	names, err := queryStrings(ctx, i.db, query, i.schema)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}

	tables := make([]Table, 0, len(names))
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

		tables = append(tables, table)
	}
	return tables, nil
}

// introspectColumns reads all columns for a table. Array columns report their element type.
func (i *PostgresIntrospector) introspectColumns(ctx context.Context, tableName string) ([]Column, error) {
	query := `
		SELECT
			a.attname,
			format_type(a.atttypid, a.atttypmod),
			COALESCE(et.typname, t.typname),
			t.typcategory = 'A',
			COALESCE(et.typtype, t.typtype) = 'e',
			NOT a.attnotnull,
			pg_get_expr(d.adbin, d.adrelid),
			a.attidentity <> ''
		FROM pg_attribute a
		JOIN pg_class c ON c.oid = a.attrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		JOIN pg_type t ON t.oid = a.atttypid
		LEFT JOIN pg_type et ON et.oid = t.typelem AND t.typcategory = 'A'
		LEFT JOIN pg_attrdef d ON d.adrelid = a.attrelid AND d.adnum = a.attnum
		WHERE n.nspname = $1
		  AND c.relname = $2
		  AND a.attnum > 0
		  AND NOT a.attisdropped
		ORDER BY a.attnum
	`

	rows, err := i.db.QueryContext(ctx, query, i.schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var col Column
		var typeName string
		var isEnum, identity bool
		var defaultValue sql.NullString

		err := rows.Scan(&col.Name, &col.Raw, &typeName, &col.Array, &isEnum, &col.Nullable, &defaultValue, &identity)
		if err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}

		if isEnum {
			col.Enum = typeName
		} else {
			col.Type = postgresType(typeName, col.Raw)
		}
		if defaultValue.Valid {
			col.Default = &defaultValue.String
		}
		col.AutoIncrement = identity

		columns = append(columns, col)
	}
	return columns, rows.Err()
}

var postgresModifiers = regexp.MustCompile(`\((\d+)(?:,(\d+))?\)`)

// postgresType builds the catalog type from the element type name and the format_type spelling,
// e.g. "varchar" and "character varying(20)[]".
func postgresType(typeName, formatted string) nativetypes.DBType {
	t := nativetypes.DBType{Name: typeName}
	m := postgresModifiers.FindStringSubmatch(formatted)
	if m == nil {
		return t
	}
	first, _ := strconv.Atoi(m[1])
	switch typeName {
	case "numeric":
		t.Precision = intPtr(first)
		if m[2] != "" {
			scale, _ := strconv.Atoi(m[2])
			t.Scale = intPtr(scale)
		}
	case "timestamp", "timestamptz", "time", "timetz", "interval":
		t.TimePrecision = intPtr(first)
	default:
		t.Length = intPtr(first)
	}
	return t
}

// introspectPrimaryKey reads the primary key columns of a table
func (i *PostgresIntrospector) introspectPrimaryKey(ctx context.Context, tableName string) ([]string, error) {
	query := `
		SELECT
			array_agg(kcu.column_name::text ORDER BY kcu.ordinal_position) as columns
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
			AND tc.table_name = kcu.table_name
		WHERE tc.constraint_type = 'PRIMARY KEY'
		  AND tc.table_schema = $1
		  AND tc.table_name = $2
		GROUP BY tc.constraint_name
	`

	var columns []string
	err := i.db.QueryRowContext(ctx, query, i.schema, tableName).Scan(pq.Array(&columns))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query primary key: %w", err)
	}
	return columns, nil
}

// introspectIndexes reads all secondary indexes for a table
func (i *PostgresIntrospector) introspectIndexes(ctx context.Context, tableName string) ([]Index, error) {
	query := `
		SELECT
			i.relname as index_name,
			array_agg(a.attname::text ORDER BY array_position(ix.indkey::int2[], a.attnum)) as columns,
			ix.indisunique as is_unique
		FROM pg_class t
		JOIN pg_index ix ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE n.nspname = $1
		  AND t.relname = $2
		  AND NOT ix.indisprimary
		GROUP BY i.relname, ix.indisunique
		ORDER BY i.relname
	`

	rows, err := i.db.QueryContext(ctx, query, i.schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query indexes: %w", err)
	}
	defer rows.Close()

	var indexes []Index
	for rows.Next() {
		var idx Index
		if err := rows.Scan(&idx.Name, pq.Array(&idx.Columns), &idx.IsUnique); err != nil {
			return nil, fmt.Errorf("failed to scan index: %w", err)
		}
		indexes = append(indexes, idx)
	}
	return indexes, rows.Err()
}

// introspectForeignKeys reads all foreign keys for a table. Column pairs keep their declared order.
func (i *PostgresIntrospector) introspectForeignKeys(ctx context.Context, tableName string) ([]ForeignKey, error) {
	query := `
		SELECT
			con.conname,
			ARRAY(
				SELECT a.attname::text
				FROM unnest(con.conkey) WITH ORDINALITY AS k(attnum, ord)
				JOIN pg_attribute a ON a.attrelid = con.conrelid AND a.attnum = k.attnum
				ORDER BY k.ord
			) as columns,
			ref.relname as referenced_table,
			ARRAY(
				SELECT a.attname::text
				FROM unnest(con.confkey) WITH ORDINALITY AS k(attnum, ord)
				JOIN pg_attribute a ON a.attrelid = con.confrelid AND a.attnum = k.attnum
				ORDER BY k.ord
			) as referenced_columns,
			con.confdeltype,
			con.confupdtype
		FROM pg_constraint con
		JOIN pg_class c ON c.oid = con.conrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		JOIN pg_class ref ON ref.oid = con.confrelid
		WHERE con.contype = 'f'
		  AND n.nspname = $1
		  AND c.relname = $2
		ORDER BY con.conname
	`

	rows, err := i.db.QueryContext(ctx, query, i.schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query foreign keys: %w", err)
	}
	defer rows.Close()

	var fks []ForeignKey
	for rows.Next() {
		var fk ForeignKey
		err := rows.Scan(
			&fk.Name,
			pq.Array(&fk.Columns),
			&fk.ReferencedTable,
			pq.Array(&fk.ReferencedColumns),
			&fk.OnDelete,
			&fk.OnUpdate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan foreign key: %w", err)
		}
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}

// introspectEnums reads all enum types with their values in declaration order
func (i *PostgresIntrospector) introspectEnums(ctx context.Context) ([]Enum, error) {
	query := `
		SELECT
			t.typname as enum_name,
			array_agg(e.enumlabel::text ORDER BY e.enumsortorder) as enum_values
		FROM pg_type t
		JOIN pg_enum e ON t.oid = e.enumtypid
		JOIN pg_namespace n ON n.oid = t.typnamespace
		WHERE n.nspname = $1
		GROUP BY t.typname
		ORDER BY t.typname
	`

	rows, err := i.db.QueryContext(ctx, query, i.schema)
	if err != nil {
		return nil, fmt.Errorf("failed to query enums: %w", err)
	}
	defer rows.Close()

	var enums []Enum
	for rows.Next() {
		var enum Enum
		if err := rows.Scan(&enum.Name, pq.Array(&enum.Values)); err != nil {
			return nil, fmt.Errorf("failed to scan enum: %w", err)
		}
		enums = append(enums, enum)
	}
	return enums, rows.Err()
}

// queryStrings runs a query returning a single text column.
func queryStrings(ctx context.Context, db *sql.DB, query string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
