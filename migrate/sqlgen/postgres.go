package sqlgen

import (
	"fmt"
	"slices"
	"strings"

	"github.com/satishbabariya/schema-engine/migrate/connector"
	"github.com/satishbabariya/schema-engine/migrate/diff"
	"github.com/satishbabariya/schema-engine/migrate/planner"
	"github.com/satishbabariya/schema-engine/migrate/schema"
)

// PostgresRenderer renders PostgreSQL DDL
type PostgresRenderer struct {
	base

	// identity turns a column type into an auto-incrementing one.
	identity func(typ string) string
	// dropIndex renders DROP INDEX.
	dropIndex func(table string, idx *schema.Index) string
}

// NewPostgresRenderer creates a new PostgreSQL renderer
func NewPostgresRenderer(d *connector.Descriptor) *PostgresRenderer {
	r := &PostgresRenderer{base: base{conn: d, quote: quoteIdentifier}}
	r.identity = serial
	r.dropIndex = func(_ string, idx *schema.Index) string {
		return fmt.Sprintf("DROP INDEX %s", r.q(idx.Name))
	}
	return r
}

// quoteIdentifier quotes an identifier for PostgreSQL
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func serial(typ string) string {
	switch typ {
	case "SMALLINT":
		return "SMALLSERIAL"
	case "INTEGER":
		return "SERIAL"
	case "BIGINT":
		return "BIGSERIAL"
	}
	return typ
}

// Render returns the statements for one step
func (r *PostgresRenderer) Render(s *planner.Step) ([]string, error) {
	switch s.Kind {
	case connector.CreateEnum:
		return []string{fmt.Sprintf("CREATE TYPE %s AS ENUM (%s)", r.q(s.Enum.Name), enumValues(s.Enum.Values))}, nil
	case connector.DropEnum:
		return []string{fmt.Sprintf("DROP TYPE %s", r.q(s.Enum.Name))}, nil
	case connector.AlterEnum:
		return r.alterEnum(s)
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
		return []string{r.createIndex(s.Table, s.Index)}, nil
	case connector.DropIndex:
		return []string{r.dropIndex(s.Table, s.Index)}, nil
	case connector.AddForeignKey:
		return []string{fmt.Sprintf("ALTER TABLE %s ADD %s", r.q(s.Table), r.foreignKey(s.Table, s.ForeignKey, sqlAction))}, nil
	case connector.DropForeignKey:
		return []string{fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", r.q(s.Table), r.q(s.ForeignKey.Name))}, nil
	}
	return nil, unsupported(s, r.Dialect())
}

func (r *PostgresRenderer) createTable(t *schema.Table, fks []*schema.ForeignKey) ([]string, error) {
	var lines []string
	for _, c := range t.Columns {
		spec, err := r.columnSpec(c)
		if err != nil {
			return nil, err
		}
		lines = append(lines, spec)
	}
	if pk := t.PrimaryKey(); len(pk) > 0 {
		lines = append(lines, fmt.Sprintf("CONSTRAINT %s PRIMARY KEY (%s)", r.q(primaryKeyName(t.Name)), r.list(pk)))
	}
	for _, fk := range fks {
		lines = append(lines, r.foreignKey(t.Name, fk, sqlAction))
	}
	return []string{fmt.Sprintf("CREATE TABLE %s (\n    %s\n)", r.q(t.Name), strings.Join(lines, ",\n    "))}, nil
}

func (r *PostgresRenderer) columnType(c *schema.Column) (string, error) {
	var typ string
	switch c.Type.Family {
	case schema.FamilyEnum:
		typ = r.q(c.Type.Enum)
	case schema.FamilyUnsupported:
		typ = c.Type.Raw
	default:
		native, err := r.nativeSQL(c)
		if err != nil {
			return "", err
		}
		typ = native
	}
	if c.Type.IsList() {
		typ += "[]"
	}
	return typ, nil
}

func (r *PostgresRenderer) columnSpec(c *schema.Column) (string, error) {
	typ, err := r.columnType(c)
	if err != nil {
		return "", err
	}
	if c.Default != nil && c.Default.Kind == schema.DefaultSequence {
		typ = r.identity(typ)
	}
	parts := []string{r.q(c.Name), typ}
	if notNull(c) {
		parts = append(parts, "NOT NULL")
	}
	if def := r.defaultSQL(c); def != "" {
		parts = append(parts, "DEFAULT "+def)
	}
	return strings.Join(parts, " "), nil
}

func (r *PostgresRenderer) defaultSQL(c *schema.Column) string {
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
		return d.Value
	case schema.DefaultDBGenerated:
		return d.Value
	}
	return ""
}

func (r *PostgresRenderer) addColumn(_ *planner.Step, table string, c *schema.Column) ([]string, error) {
	spec, err := r.columnSpec(c)
	if err != nil {
		return nil, err
	}
	return []string{fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", r.q(table), spec)}, nil
}

func (r *PostgresRenderer) dropColumn(table string, c *schema.Column) []string {
	return []string{fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", r.q(table), r.q(c.Name))}
}

func (r *PostgresRenderer) alterColumn(_ *planner.Step, table string, prev, next *schema.Column, changes diff.ColumnChanges) ([]string, error) {
	col := r.q(next.Name)
	var actions, after []string

	if changes.Has(diff.TypeChanged) || changes.Has(diff.ArityChanged) {
		typ, err := r.columnType(next)
		if err != nil {
			return nil, err
		}
		actions = append(actions, fmt.Sprintf("ALTER COLUMN %s SET DATA TYPE %s USING %s::%s", col, typ, col, typ))
	}
	if changes.Has(diff.NullabilityChanged) || changes.Has(diff.ArityChanged) {
		if notNull(next) {
			actions = append(actions, fmt.Sprintf("ALTER COLUMN %s SET NOT NULL", col))
		} else {
			actions = append(actions, fmt.Sprintf("ALTER COLUMN %s DROP NOT NULL", col))
		}
	}
	if changes.Has(diff.DefaultChanged) {
		switch {
		case next.Default == nil:
			actions = append(actions, fmt.Sprintf("ALTER COLUMN %s DROP DEFAULT", col))
		case next.Default.Kind == schema.DefaultSequence:
			seq := table + "_" + next.Name + "_seq"
			actions = append(actions, fmt.Sprintf("ALTER COLUMN %s SET DEFAULT nextval(%s)", col, quoteString(r.q(seq))))
			after = append(after, fmt.Sprintf("ALTER SEQUENCE %s OWNED BY %s.%s", r.q(seq), r.q(table), col))
			return append(append([]string{fmt.Sprintf("CREATE SEQUENCE %s", r.q(seq))}, r.alterTable(table, actions)...), after...), nil
		default:
			actions = append(actions, fmt.Sprintf("ALTER COLUMN %s SET DEFAULT %s", col, r.defaultSQL(next)))
		}
	}
	if prev != nil && prev.Default != nil && prev.Default.Kind == schema.DefaultSequence &&
		(next.Default == nil || next.Default.Kind != schema.DefaultSequence) {
		after = append(after, fmt.Sprintf("DROP SEQUENCE IF EXISTS %s", r.q(table+"_"+next.Name+"_seq")))
	}
	return append(r.alterTable(table, actions), after...), nil
}

func (r *PostgresRenderer) alterTable(table string, actions []string) []string {
	if len(actions) == 0 {
		return nil
	}
	return []string{fmt.Sprintf("ALTER TABLE %s %s", r.q(table), strings.Join(actions, ",\n"))}
}

func (r *PostgresRenderer) dropIndexSQL(table string, idx *schema.Index) string {
	return r.dropIndex(table, idx)
}

func (r *PostgresRenderer) dropPrimaryKey(table string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", r.q(table), r.q(primaryKeyName(table)))
}

func (r *PostgresRenderer) addPrimaryKey(table string, cols []string) string {
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s PRIMARY KEY (%s)", r.q(table), r.q(primaryKeyName(table)), r.list(cols))
}

// alterEnum appends values in place when it can. Removals and reorders rebuild the type and cast every
// column using it.
func (r *PostgresRenderer) alterEnum(s *planner.Step) ([]string, error) {
	ed, name := s.EnumDiff, s.Enum.Name
	values := s.Enum.Values

	if len(ed.RemovedValues) == 0 && !ed.OrderChanged {
		var out []string
		for _, v := range ed.AddedValues {
			i := slices.Index(values, v)
			switch {
			case i > 0:
				out = append(out, fmt.Sprintf("ALTER TYPE %s ADD VALUE %s AFTER %s", r.q(name), quoteString(v), quoteString(values[i-1])))
			case len(values) > 1:
				out = append(out, fmt.Sprintf("ALTER TYPE %s ADD VALUE %s BEFORE %s", r.q(name), quoteString(v), quoteString(values[1])))
			default:
				out = append(out, fmt.Sprintf("ALTER TYPE %s ADD VALUE %s", r.q(name), quoteString(v)))
			}
		}
		return out, nil
	}

	old := name + "_old"
	out := []string{
		fmt.Sprintf("ALTER TYPE %s RENAME TO %s", r.q(name), r.q(old)),
		fmt.Sprintf("CREATE TYPE %s AS ENUM (%s)", r.q(name), enumValues(values)),
	}
	for _, u := range s.EnumUsers {
		col, table := r.q(u.Column.Name), r.q(u.Table)
		typ, text := r.q(name), "text"
		if u.Column.Type.IsList() {
			typ, text = typ+"[]", "text[]"
		}
		d := u.Column.Default
		if d != nil {
			out = append(out, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT", table, col))
		}
		out = append(out, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s USING (%s::%s::%s)", table, col, typ, col, text, typ))
		if d != nil && d.Kind == schema.DefaultLiteral && slices.Contains(values, strings.Trim(d.Value, "'")) {
			out = append(out, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s", table, col, quoteString(strings.Trim(d.Value, "'"))))
		}
	}
	return append(out, fmt.Sprintf("DROP TYPE %s", r.q(old))), nil
}

func enumValues(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = quoteString(v)
	}
	return strings.Join(quoted, ", ")
}
