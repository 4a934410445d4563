package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"github.com/satishbabariya/schema-engine/migrate/drift"
	"github.com/satishbabariya/schema-engine/migrate/schema"
)

// MySQLIntrospector implements introspection for MySQL. Enum values are read from the column type
// and reported as one enum per column.
type MySQLIntrospector struct {
	db *sql.DB
}

// read reads the MySQL catalog of the current database
func (i *MySQLIntrospector) read(ctx context.Context) (*DatabaseSchema, error) {
	var dbName string
	if err := i.db.QueryRowContext(ctx, "SELECT DATABASE()").Scan(&dbName); err != nil {
		return nil, fmt.Errorf("failed to get database name: %w", err)
	}

	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ?
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`
	names, err := queryStrings(ctx, i.db, query, dbName)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}

	raw := &DatabaseSchema{}
	for _, name := range names {
		table := Table{Name: name}

		var enums []Enum
		if table.Columns, enums, err = i.introspectColumns(ctx, dbName, name); err != nil {
			return nil, fmt.Errorf("failed to introspect columns for %s: %w", name, err)
		}
		raw.Enums = append(raw.Enums, enums...)

		if table.PrimaryKey, err = i.introspectPrimaryKey(ctx, dbName, name); err != nil {
			return nil, fmt.Errorf("failed to introspect primary key for %s: %w", name, err)
		}
		if table.ForeignKeys, err = i.introspectForeignKeys(ctx, dbName, name); err != nil {
			return nil, fmt.Errorf("failed to introspect foreign keys for %s: %w", name, err)
		}
		indexes, err := i.introspectIndexes(ctx, dbName, name)
		if err != nil {
			return nil, fmt.Errorf("failed to introspect indexes for %s: %w", name, err)
		}
		table.Indexes = withoutForeignKeyIndexes(indexes, table.ForeignKeys)

		raw.Tables = append(raw.Tables, table)
	}
	return raw, nil
}

// introspectColumns reads all columns for a table
func (i *MySQLIntrospector) introspectColumns(ctx context.Context, dbName, tableName string) ([]Column, []Enum, error) {
	query := `
		SELECT
			column_name,
			column_type,
			is_nullable,
			column_default,
			extra
		FROM information_schema.columns
		WHERE table_schema = ?
		  AND table_name = ?
		ORDER BY ordinal_position
	`

	rows, err := i.db.QueryContext(ctx, query, dbName, tableName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var columns []Column
	var enums []Enum
	for rows.Next() {
		var col Column
		var isNullable, extra string
		var defaultValue sql.NullString

		if err := rows.Scan(&col.Name, &col.Raw, &isNullable, &defaultValue, &extra); err != nil {
			return nil, nil, fmt.Errorf("failed to scan column: %w", err)
		}

		col.Nullable = isNullable == "YES"
		col.AutoIncrement = strings.Contains(strings.ToLower(extra), "auto_increment")

		if values, ok := mysqlEnumValues(col.Raw); ok {
			col.Enum = drift.InlineEnumName(tableName, col.Name)
			enums = append(enums, Enum{Name: col.Enum, Values: values})
		} else {
			col.Type = parseDataType(col.Raw)
			if strings.EqualFold(col.Raw, "tinyint(1)") {
				boolean := schema.FamilyBoolean
				col.Family = &boolean
			}
		}

		if defaultValue.Valid {
			def := mysqlDefault(defaultValue.String, extra)
			col.Default = &def
		}

		columns = append(columns, col)
	}
	return columns, enums, rows.Err()
}

// mysqlDefault turns information_schema's column_default into an SQL expression. MySQL 8 reports
// string literals unquoted and marks expressions in extra; MariaDB quotes literals itself.
func mysqlDefault(value, extra string) string {
	if strings.Contains(strings.ToUpper(extra), "DEFAULT_GENERATED") ||
		strings.HasPrefix(value, "'") || numericLiteral.MatchString(value) ||
		strings.HasPrefix(strings.ToUpper(value), "CURRENT_TIMESTAMP") {
		return value
	}
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

// mysqlEnumValues parses enum('a','b') into its values.
func mysqlEnumValues(columnType string) ([]string, bool) {
	inner, ok := strings.CutPrefix(strings.TrimSpace(columnType), "enum(")
	if !ok {
		return nil, false
	}
	inner = strings.TrimSuffix(inner, ")")

	var values []string
	for len(inner) > 0 {
		v, ok := quotedPrefix(inner)
		if !ok {
			return nil, false
		}
		values = append(values, v.value)
		inner = strings.TrimPrefix(strings.TrimSpace(inner[v.end:]), ",")
	}
	return values, true
}

type quoted struct {
	value string
	end   int
}

func quotedPrefix(s string) (quoted, bool) {
	if s == "" || s[0] != '\'' {
		return quoted{}, false
	}
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		if s[i] != '\'' {
			b.WriteByte(s[i])
			continue
		}
		if i+1 < len(s) && s[i+1] == '\'' {
			b.WriteByte('\'')
			i++
			continue
		}
		return quoted{value: b.String(), end: i + 1}, true
	}
	return quoted{}, false
}

// introspectPrimaryKey reads the primary key columns of a table
func (i *MySQLIntrospector) introspectPrimaryKey(ctx context.Context, dbName, tableName string) ([]string, error) {
	query := `
		SELECT column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = ?
		  AND table_name = ?
		  AND constraint_name = 'PRIMARY'
		ORDER BY ordinal_position
	`
	columns, err := queryStrings(ctx, i.db, query, dbName, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query primary key: %w", err)
	}
	return columns, nil
}

// introspectIndexes reads all secondary indexes for a table
func (i *MySQLIntrospector) introspectIndexes(ctx context.Context, dbName, tableName string) ([]Index, error) {
	query := `
		SELECT
			index_name,
			GROUP_CONCAT(column_name ORDER BY seq_in_index) as columns,
			MAX(non_unique) as is_non_unique
		FROM information_schema.statistics
		WHERE table_schema = ?
		  AND table_name = ?
		  AND index_name != 'PRIMARY'
		GROUP BY index_name
		ORDER BY index_name
	`

	rows, err := i.db.QueryContext(ctx, query, dbName, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query indexes: %w", err)
	}
	defer rows.Close()

	var indexes []Index
	for rows.Next() {
		var idx Index
		var columnsStr string
		var isNonUnique int

		if err := rows.Scan(&idx.Name, &columnsStr, &isNonUnique); err != nil {
			return nil, fmt.Errorf("failed to scan index: %w", err)
		}

		idx.Columns = strings.Split(columnsStr, ",")
		idx.IsUnique = isNonUnique == 0

		indexes = append(indexes, idx)
	}
	return indexes, rows.Err()
}

// withoutForeignKeyIndexes hides the indexes MySQL creates implicitly for foreign keys. They carry
// the constraint's name and exactly its columns.
func withoutForeignKeyIndexes(indexes []Index, fks []ForeignKey) []Index {
	return slices.DeleteFunc(indexes, func(idx Index) bool {
		if idx.IsUnique {
			return false
		}
		return slices.ContainsFunc(fks, func(fk ForeignKey) bool {
			return fk.Name == idx.Name && slices.Equal(fk.Columns, idx.Columns)
		})
	})
}

// introspectForeignKeys reads all foreign keys for a table
func (i *MySQLIntrospector) introspectForeignKeys(ctx context.Context, dbName, tableName string) ([]ForeignKey, error) {
	query := `
		SELECT
			kcu.constraint_name,
			GROUP_CONCAT(kcu.column_name ORDER BY kcu.ordinal_position) as columns,
			kcu.referenced_table_name,
			GROUP_CONCAT(kcu.referenced_column_name ORDER BY kcu.ordinal_position) as referenced_columns,
			rc.update_rule,
			rc.delete_rule
		FROM information_schema.key_column_usage kcu
		JOIN information_schema.referential_constraints rc
			ON kcu.constraint_name = rc.constraint_name
			AND kcu.constraint_schema = rc.constraint_schema
		WHERE kcu.table_schema = ?
		  AND kcu.table_name = ?
		  AND kcu.referenced_table_name IS NOT NULL
		GROUP BY kcu.constraint_name, kcu.referenced_table_name, rc.update_rule, rc.delete_rule
		ORDER BY kcu.constraint_name
	`

	rows, err := i.db.QueryContext(ctx, query, dbName, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query foreign keys: %w", err)
	}
	defer rows.Close()

	var fks []ForeignKey
	for rows.Next() {
		var fk ForeignKey
		var columnsStr, refColumnsStr string

		err := rows.Scan(
			&fk.Name,
			&columnsStr,
			&fk.ReferencedTable,
			&refColumnsStr,
			&fk.OnUpdate,
			&fk.OnDelete,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan foreign key: %w", err)
		}

		fk.Columns = strings.Split(columnsStr, ",")
		fk.ReferencedColumns = strings.Split(refColumnsStr, ",")

		fks = append(fks, fk)
	}
	return fks, rows.Err()
}
