package sqlgen

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/schema-engine/migrate/connector"
	"github.com/satishbabariya/schema-engine/migrate/diff"
	"github.com/satishbabariya/schema-engine/migrate/planner"
	"github.com/satishbabariya/schema-engine/migrate/schema"
)

// SQLServerRenderer renders SQL Server DDL. Defaults are named constraints so they can be dropped.
type SQLServerRenderer struct {
	base
}

// NewSQLServerRenderer creates a new SQL Server renderer
func NewSQLServerRenderer(d *connector.Descriptor) *SQLServerRenderer {
	return &SQLServerRenderer{base: base{conn: d, quote: quoteIdentifierSQLServer}}
}

// quoteIdentifierSQLServer quotes identifiers for SQL Server
func quoteIdentifierSQLServer(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// Render returns the statements for one step
func (r *SQLServerRenderer) Render(s *planner.Step) ([]string, error) {
	switch s.Kind {
	case connector.CreateTable:
		return r.createTable(s.TableDef, s.ForeignKeys)
	case connector.DropTable:
		return []string{fmt.Sprintf("DROP TABLE %s", r.q(s.Table))}, nil
	case connector.RedefineTable:
		return redefineInPlace(r, s)
	case connector.AddColumn:
		return r.addColumn(s, s.Table, s.Column)
	case connector.DropColumn:
		return r.dropColumn(s.Table, s.Column), nil
	case connector.AlterColumn:
		return r.alterColumn(s, s.Table, s.Previous, s.Column, s.Changes)
	case connector.CreateIndex:
		return []string{r.createIndexSQL(s.Table, s.Index)}, nil
	case connector.DropIndex:
		return []string{r.dropIndexSQL(s.Table, s.Index)}, nil
	case connector.AddForeignKey:
		return []string{fmt.Sprintf("ALTER TABLE %s ADD %s", r.q(s.Table), r.foreignKey(s.Table, s.ForeignKey, mssqlAction))}, nil
	case connector.DropForeignKey:
		return []string{fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", r.q(s.Table), r.q(s.ForeignKey.Name))}, nil
	}
	return nil, unsupported(s, r.Dialect())
}

// mssqlAction maps RESTRICT, which SQL Server lacks, onto its default.
func mssqlAction(a schema.ReferentialAction) string {
	if a == schema.Restrict {
		return schema.NoAction.String()
	}
	return a.String()
}

func defaultConstraintName(table, column string) string {
	return table + "_" + column + "_df"
}

func (r *SQLServerRenderer) createTable(t *schema.Table, fks []*schema.ForeignKey) ([]string, error) {
	var lines []string
	for _, c := range t.Columns {
		spec, err := r.columnSpec(t.Name, c)
		if err != nil {
			return nil, err
		}
		lines = append(lines, spec)
	}
	if pk := t.PrimaryKey(); len(pk) > 0 {
		clustering := "CLUSTERED"
		for _, idx := range t.Indexes {
			if idx.IsClustered() {
				clustering = "NONCLUSTERED"
			}
		}
		lines = append(lines, fmt.Sprintf("CONSTRAINT %s PRIMARY KEY %s (%s)", r.q(primaryKeyName(t.Name)), clustering, r.list(pk)))
	}
	for _, fk := range fks {
		lines = append(lines, r.foreignKey(t.Name, fk, mssqlAction))
	}
	return []string{fmt.Sprintf("CREATE TABLE %s (\n    %s\n)", r.q(t.Name), strings.Join(lines, ",\n    "))}, nil
}

func (r *SQLServerRenderer) columnType(c *schema.Column) (string, error) {
	switch {
	case c.Type.IsList():
		return "", fmt.Errorf("%w: %s is a list", ErrUnsupportedColumn, c.Name)
	case c.Type.Family == schema.FamilyEnum:
		return "", fmt.Errorf("%w: %s uses enum %s", ErrUnsupportedColumn, c.Name, c.Type.Enum)
	case c.Type.Family == schema.FamilyUnsupported:
		return c.Type.Raw, nil
	}
	return r.nativeSQL(c)
}

func (r *SQLServerRenderer) columnSpec(table string, c *schema.Column) (string, error) {
	typ, err := r.columnType(c)
	if err != nil {
		return "", err
	}
	parts := []string{r.q(c.Name), typ}
	if notNull(c) {
		parts = append(parts, "NOT NULL")
	} else {
		parts = append(parts, "NULL")
	}
	if c.Default != nil && c.Default.Kind == schema.DefaultSequence {
		parts = append(parts, "IDENTITY(1,1)")
	} else if def := r.defaultSQL(c); def != "" {
		parts = append(parts, fmt.Sprintf("CONSTRAINT %s DEFAULT %s", r.q(defaultConstraintName(table, c.Name)), def))
	}
	return strings.Join(parts, " "), nil
}

func (r *SQLServerRenderer) defaultSQL(c *schema.Column) string {
	d := c.Default
	if d == nil {
		return ""
	}
	switch d.Kind {
	case schema.DefaultLiteral:
		v := literal(c, "1", "0")
		if c.Type.Family == schema.FamilyString && strings.HasPrefix(v, "'") {
			return "N" + v
		}
		return v
	case schema.DefaultExpression:
		if isNow(d) {
			return "CURRENT_TIMESTAMP"
		}
		return d.Value
	case schema.DefaultDBGenerated:
		return d.Value
	}
	return ""
}

func (r *SQLServerRenderer) addColumn(_ *planner.Step, table string, c *schema.Column) ([]string, error) {
	spec, err := r.columnSpec(table, c)
	if err != nil {
		return nil, err
	}
	return []string{fmt.Sprintf("ALTER TABLE %s ADD %s", r.q(table), spec)}, nil
}

func (r *SQLServerRenderer) dropColumn(table string, c *schema.Column) []string {
	var out []string
	if c.Default != nil && c.Default.Kind != schema.DefaultSequence {
		out = append(out, r.dropDefault(table, c.Name))
	}
	return append(out, fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", r.q(table), r.q(c.Name)))
}

func (r *SQLServerRenderer) dropDefault(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", r.q(table), r.q(defaultConstraintName(table, column)))
}

// alterColumn drops the default constraint around type changes, which SQL Server refuses otherwise.
func (r *SQLServerRenderer) alterColumn(_ *planner.Step, table string, prev, next *schema.Column, changes diff.ColumnChanges) ([]string, error) {
	if changes.Has(diff.DefaultChanged) && next.Default != nil && next.Default.Kind == schema.DefaultSequence {
		return nil, fmt.Errorf("%w: IDENTITY cannot be added to existing column %s", ErrUnsupportedColumn, next.Name)
	}
	retype := changes.Has(diff.TypeChanged) || changes.Has(diff.NullabilityChanged) || changes.Has(diff.ArityChanged)
	hadDefault := prev != nil && prev.Default != nil && prev.Default.Kind != schema.DefaultSequence

	var out []string
	dropped := hadDefault && (changes.Has(diff.DefaultChanged) || retype)
	if dropped {
		out = append(out, r.dropDefault(table, next.Name))
	}
	if retype {
		typ, err := r.columnType(next)
		if err != nil {
			return nil, err
		}
		null := "NULL"
		if notNull(next) {
			null = "NOT NULL"
		}
		out = append(out, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s %s %s", r.q(table), r.q(next.Name), typ, null))
	}
	if def := r.defaultSQL(next); def != "" && (dropped || changes.Has(diff.DefaultChanged)) {
		out = append(out, fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s DEFAULT %s FOR %s", r.q(table),
			r.q(defaultConstraintName(table, next.Name)), def, r.q(next.Name)))
	}
	return out, nil
}

func (r *SQLServerRenderer) createIndexSQL(table string, idx *schema.Index) string {
	var kind []string
	if idx.Unique {
		kind = append(kind, "UNIQUE")
	}
	if idx.Clustered != nil {
		if *idx.Clustered {
			kind = append(kind, "CLUSTERED")
		} else {
			kind = append(kind, "NONCLUSTERED")
		}
	}
	kind = append(kind, "INDEX")
	return fmt.Sprintf("CREATE %s %s ON %s(%s)", strings.Join(kind, " "), r.q(indexName(table, idx)), r.q(table), r.list(idx.Columns))
}

func (r *SQLServerRenderer) dropIndexSQL(table string, idx *schema.Index) string {
	return fmt.Sprintf("DROP INDEX %s ON %s", r.q(idx.Name), r.q(table))
}

func (r *SQLServerRenderer) dropPrimaryKey(table string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", r.q(table), r.q(primaryKeyName(table)))
}

func (r *SQLServerRenderer) addPrimaryKey(table string, cols []string) string {
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s PRIMARY KEY (%s)", r.q(table), r.q(primaryKeyName(table)), r.list(cols))
}
