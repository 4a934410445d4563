package sqlgen

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/schema-engine/migrate/connector"
	"github.com/satishbabariya/schema-engine/migrate/diff"
	"github.com/satishbabariya/schema-engine/migrate/planner"
	"github.com/satishbabariya/schema-engine/migrate/schema"
)

// MySQLRenderer renders MySQL DDL. Enum values are declared on each column.
type MySQLRenderer struct {
	base
}

// NewMySQLRenderer creates a new MySQL renderer
func NewMySQLRenderer(d *connector.Descriptor) *MySQLRenderer {
	return &MySQLRenderer{base: base{conn: d, quote: quoteIdentifierMySQL}}
}

func quoteIdentifierMySQL(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// Render returns the statements for one step
func (r *MySQLRenderer) Render(s *planner.Step) ([]string, error) {
	switch s.Kind {
	case connector.CreateTable:
		return r.createTable(s)
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
		return []string{r.createIndex(s.Table, s.Index)}, nil
	case connector.DropIndex:
		return []string{r.dropIndexSQL(s.Table, s.Index)}, nil
	case connector.AddForeignKey:
		return []string{fmt.Sprintf("ALTER TABLE %s ADD %s", r.q(s.Table), r.foreignKey(s.Table, s.ForeignKey, sqlAction))}, nil
	case connector.DropForeignKey:
		return []string{fmt.Sprintf("ALTER TABLE %s DROP FOREIGN KEY %s", r.q(s.Table), r.q(s.ForeignKey.Name))}, nil
	}
	return nil, unsupported(s, r.Dialect())
}

func (r *MySQLRenderer) createTable(s *planner.Step) ([]string, error) {
	t := s.TableDef
	var lines []string
	for _, c := range t.Columns {
		spec, err := r.columnSpec(s, c)
		if err != nil {
			return nil, err
		}
		lines = append(lines, spec)
	}
	if pk := t.PrimaryKey(); len(pk) > 0 {
		lines = append(lines, fmt.Sprintf("PRIMARY KEY (%s)", r.list(pk)))
	}
	for _, fk := range s.ForeignKeys {
		lines = append(lines, r.foreignKey(t.Name, fk, sqlAction))
	}
	return []string{fmt.Sprintf("CREATE TABLE %s (\n    %s\n) DEFAULT CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci",
		r.q(t.Name), strings.Join(lines, ",\n    "))}, nil
}

func (r *MySQLRenderer) columnType(s *planner.Step, c *schema.Column) (string, error) {
	if c.Type.IsList() {
		return "", fmt.Errorf("%w: %s is a list", ErrUnsupportedColumn, c.Name)
	}
	switch c.Type.Family {
	case schema.FamilyEnum:
		e, err := r.enum(s, c.Type.Enum)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("ENUM(%s)", enumValues(e.Values)), nil
	case schema.FamilyUnsupported:
		return c.Type.Raw, nil
	}
	return r.nativeSQL(c)
}

func (r *MySQLRenderer) columnSpec(s *planner.Step, c *schema.Column) (string, error) {
	typ, err := r.columnType(s, c)
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
		parts = append(parts, "AUTO_INCREMENT")
	} else if def := r.defaultSQL(c); def != "" {
		parts = append(parts, "DEFAULT "+def)
	}
	return strings.Join(parts, " "), nil
}

func (r *MySQLRenderer) defaultSQL(c *schema.Column) string {
	d := c.Default
	if d == nil {
		return ""
	}
	switch d.Kind {
	case schema.DefaultLiteral:
		return literal(c, "true", "false")
	case schema.DefaultExpression:
		if isNow(d) {
			// The precision has to match the column's.
			if nt := r.native(c); nt != nil && len(nt.Args) > 0 {
				return fmt.Sprintf("CURRENT_TIMESTAMP(%d)", nt.Args[0])
			}
			return "CURRENT_TIMESTAMP"
		}
		return "(" + d.Value + ")"
	case schema.DefaultDBGenerated:
		return d.Value
	}
	return ""
}

func (r *MySQLRenderer) addColumn(s *planner.Step, table string, c *schema.Column) ([]string, error) {
	spec, err := r.columnSpec(s, c)
	if err != nil {
		return nil, err
	}
	return []string{fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", r.q(table), spec)}, nil
}

func (r *MySQLRenderer) dropColumn(table string, c *schema.Column) []string {
	return []string{fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", r.q(table), r.q(c.Name))}
}

// alterColumn restates the whole column, which MODIFY requires.
func (r *MySQLRenderer) alterColumn(s *planner.Step, table string, _, next *schema.Column, changes diff.ColumnChanges) ([]string, error) {
	if changes.OnlyDefault() {
		if def := r.defaultSQL(next); def != "" && next.Default.Kind != schema.DefaultSequence {
			return []string{fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s", r.q(table), r.q(next.Name), def)}, nil
		}
		if next.Default == nil {
			return []string{fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT", r.q(table), r.q(next.Name))}, nil
		}
	}
	spec, err := r.columnSpec(s, next)
	if err != nil {
		return nil, err
	}
	return []string{fmt.Sprintf("ALTER TABLE %s MODIFY %s", r.q(table), spec)}, nil
}

func (r *MySQLRenderer) dropIndexSQL(table string, idx *schema.Index) string {
	return fmt.Sprintf("DROP INDEX %s ON %s", r.q(idx.Name), r.q(table))
}

func (r *MySQLRenderer) dropPrimaryKey(table string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP PRIMARY KEY", r.q(table))
}

func (r *MySQLRenderer) addPrimaryKey(table string, cols []string) string {
	return fmt.Sprintf("ALTER TABLE %s ADD PRIMARY KEY (%s)", r.q(table), r.list(cols))
}
