package sqlgen

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/schema-engine/migrate/connector"
	"github.com/satishbabariya/schema-engine/migrate/planner"
	"github.com/satishbabariya/schema-engine/migrate/schema"
)

// SQLiteRenderer renders SQLite DDL. Tables that cannot be altered in place are rebuilt.
type SQLiteRenderer struct {
	base
}

// NewSQLiteRenderer creates a new SQLite renderer
func NewSQLiteRenderer(d *connector.Descriptor) *SQLiteRenderer {
	return &SQLiteRenderer{base: base{conn: d, quote: quoteIdentifier}}
}

// Render returns the statements for one step
func (r *SQLiteRenderer) Render(s *planner.Step) ([]string, error) {
	switch s.Kind {
	case connector.CreateTable:
		stmt, err := r.createTable(s.Table, s.TableDef, s.ForeignKeys)
		if err != nil {
			return nil, err
		}
		return []string{stmt}, nil
	case connector.DropTable:
		return []string{fmt.Sprintf("DROP TABLE %s", r.q(s.Table))}, nil
	case connector.RedefineTable:
		return r.redefine(s)
	case connector.AddColumn:
		spec, err := r.columnSpec(s.Column, false)
		if err != nil {
			return nil, err
		}
		return []string{fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", r.q(s.Table), spec)}, nil
	case connector.CreateIndex:
		return []string{r.createIndex(s.Table, s.Index)}, nil
	case connector.DropIndex:
		return []string{fmt.Sprintf("DROP INDEX %s", r.q(s.Index.Name))}, nil
	}
	return nil, unsupported(s, r.Dialect())
}

// redefine copies the table into a new one with the desired shape and swaps it in.
func (r *SQLiteRenderer) redefine(s *planner.Step) ([]string, error) {
	tmp := "new_" + s.Table
	create, err := r.createTable(tmp, s.TableDef, s.ForeignKeys)
	if err != nil {
		return nil, err
	}
	out := []string{
		"PRAGMA defer_foreign_keys=ON",
		"PRAGMA foreign_keys=OFF",
		create,
	}
	if cols := copyable(s); len(cols) > 0 {
		out = append(out, fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s", r.q(tmp), r.list(cols), r.list(cols), r.q(s.PreviousTable.Name)))
	}
	return append(out,
		fmt.Sprintf("DROP TABLE %s", r.q(s.PreviousTable.Name)),
		fmt.Sprintf("ALTER TABLE %s RENAME TO %s", r.q(tmp), r.q(s.Table)),
		"PRAGMA foreign_keys=ON",
		"PRAGMA defer_foreign_keys=OFF",
	), nil
}

func (r *SQLiteRenderer) createTable(name string, t *schema.Table, fks []*schema.ForeignKey) (string, error) {
	pk := t.PrimaryKey()
	inlinePK := len(pk) == 1

	var lines []string
	for _, c := range t.Columns {
		spec, err := r.columnSpec(c, inlinePK && c.PrimaryKey)
		if err != nil {
			return "", err
		}
		lines = append(lines, spec)
	}
	if len(pk) > 1 {
		lines = append(lines, fmt.Sprintf("PRIMARY KEY (%s)", r.list(pk)))
	}
	for _, fk := range fks {
		lines = append(lines, r.foreignKey(t.Name, fk, sqlAction))
	}
	return fmt.Sprintf("CREATE TABLE %s (\n    %s\n)", r.q(name), strings.Join(lines, ",\n    ")), nil
}

func (r *SQLiteRenderer) columnSpec(c *schema.Column, primaryKey bool) (string, error) {
	switch {
	case c.Type.IsList():
		return "", fmt.Errorf("%w: %s is a list", ErrUnsupportedColumn, c.Name)
	case c.Type.Family == schema.FamilyEnum:
		return "", fmt.Errorf("%w: %s uses enum %s", ErrUnsupportedColumn, c.Name, c.Type.Enum)
	}

	typ := c.Type.Raw
	if c.Type.Family != schema.FamilyUnsupported {
		native, err := r.nativeSQL(c)
		if err != nil {
			return "", err
		}
		typ = native
	}
	parts := []string{r.q(c.Name), typ}
	if notNull(c) {
		parts = append(parts, "NOT NULL")
	}
	if primaryKey {
		parts = append(parts, "PRIMARY KEY")
		if c.Default != nil && c.Default.Kind == schema.DefaultSequence {
			parts = append(parts, "AUTOINCREMENT")
		}
	}
	if def := r.defaultSQL(c); def != "" {
		parts = append(parts, "DEFAULT "+def)
	}
	return strings.Join(parts, " "), nil
}

func (r *SQLiteRenderer) defaultSQL(c *schema.Column) string {
	d := c.Default
	if d == nil {
		return ""
	}
	switch d.Kind {
	case schema.DefaultLiteral:
		return literal(c, "true", "false")
	case schema.DefaultExpression:
		if isNow(d) {
			return "CURRENT_TIMESTAMP"
		}
		return "(" + d.Value + ")"
	case schema.DefaultDBGenerated:
		if strings.HasPrefix(d.Value, "(") {
			return d.Value
		}
		return "(" + d.Value + ")"
	}
	return ""
}
