// Package sqlgen renders migration steps as SQL for each supported database.
package sqlgen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/satishbabariya/schema-engine/migrate/connector"
	"github.com/satishbabariya/schema-engine/migrate/diff"
	"github.com/satishbabariya/schema-engine/migrate/planner"
	"github.com/satishbabariya/schema-engine/migrate/schema"
)

var (
	// ErrUnsupportedStep is returned for steps the dialect has no SQL for.
	ErrUnsupportedStep = errors.New("step cannot be rendered for this database")
	// ErrUnsupportedColumn is returned for columns the dialect cannot store.
	ErrUnsupportedColumn = errors.New("column cannot be stored in this database")
)

// Renderer turns plan steps into SQL statements
type Renderer interface {
	// Dialect names the connector the renderer targets.
	Dialect() string
	// Render returns the statements for one step, in execution order, without trailing semicolons.
	Render(step *planner.Step) ([]string, error)
}

// ForConnector returns the renderer for a connector descriptor
func ForConnector(d *connector.Descriptor) (Renderer, error) {
	switch d.Name {
	case "postgres":
		return NewPostgresRenderer(d), nil
	case "cockroachdb":
		return NewCockroachDBRenderer(d), nil
	case "mysql":
		return NewMySQLRenderer(d), nil
	case "sqlite":
		return NewSQLiteRenderer(d), nil
	case "sqlserver":
		return NewSQLServerRenderer(d), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", d.Name)
	}
}

// RenderPlan renders every step of a plan.
func RenderPlan(r Renderer, p *planner.Plan) ([][]string, error) {
	out := make([][]string, len(p.Steps))
	for i, s := range p.Steps {
		stmts, err := r.Render(s)
		if err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", s.Description(), err)
		}
		out[i] = stmts
	}
	return out, nil
}

// Script renders a plan as one SQL script with a comment before each step.
func Script(r Renderer, p *planner.Plan) (string, error) {
	rendered, err := RenderPlan(r, p)
	if err != nil {
		return "", err
	}
	var sql strings.Builder
	for i, s := range p.Steps {
		if i > 0 {
			sql.WriteString("\n")
		}
		sql.WriteString(fmt.Sprintf("-- %s\n", s.Summary()))
		for _, stmt := range rendered[i] {
			sql.WriteString(stmt)
			sql.WriteString(";\n")
		}
	}
	return sql.String(), nil
}

// base holds what every dialect shares.
type base struct {
	conn  *connector.Descriptor
	quote func(string) string
}

func (b *base) Dialect() string { return b.conn.Name }

func (b *base) q(name string) string { return b.quote(name) }

func (b *base) list(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = b.quote(n)
	}
	return strings.Join(quoted, ", ")
}

// nativeSQL renders the column's native type, falling back to the family default.
func (b *base) nativeSQL(c *schema.Column) (string, error) {
	nt := c.Type.Native
	if nt == nil {
		def, ok := b.conn.Registry.Default(c.Type.Family)
		if !ok {
			return "", fmt.Errorf("%w: %s has no %s type for %s", ErrUnsupportedColumn, b.conn.Name, c.Type.Family, c.Name)
		}
		nt = def
	}
	return b.conn.Registry.SQL(nt), nil
}

// native returns the effective native type of a column.
func (b *base) native(c *schema.Column) *schema.NativeType {
	if c.Type.Native != nil {
		return c.Type.Native
	}
	nt, _ := b.conn.Registry.Default(c.Type.Family)
	return nt
}

func (b *base) foreignKey(table string, fk *schema.ForeignKey, actions func(schema.ReferentialAction) string) string {
	return fmt.Sprintf("CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s(%s) ON DELETE %s ON UPDATE %s",
		b.q(foreignKeyName(table, fk)), b.list(fk.Columns), b.q(fk.ReferencedTable), b.list(fk.ReferencedColumns),
		actions(fk.OnDelete), actions(fk.OnUpdate))
}

func (b *base) createIndex(table string, idx *schema.Index) string {
	unique := ""
	if idx.Unique {
		unique = "UNIQUE "
	}
	return fmt.Sprintf("CREATE %sINDEX %s ON %s(%s)", unique, b.q(indexName(table, idx)), b.q(table), b.list(idx.Columns))
}

func (b *base) enum(s *planner.Step, name string) (*schema.Enum, error) {
	for _, e := range s.Enums {
		if e.Name == name {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: enum %s is not part of the step", ErrUnsupportedColumn, name)
}

func sqlAction(a schema.ReferentialAction) string { return a.String() }

func indexName(table string, idx *schema.Index) string {
	if idx.Name != "" {
		return idx.Name
	}
	suffix := "idx"
	if idx.Unique {
		suffix = "key"
	}
	return table + "_" + strings.Join(idx.Columns, "_") + "_" + suffix
}

func foreignKeyName(table string, fk *schema.ForeignKey) string {
	if fk.Name != "" {
		return fk.Name
	}
	return table + "_" + strings.Join(fk.Columns, "_") + "_fkey"
}

func primaryKeyName(table string) string {
	return table + "_pkey"
}

// quoteString renders a SQL string literal.
func quoteString(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

// literal renders a literal default. Booleans use the given spellings.
func literal(c *schema.Column, yes, no string) string {
	v := c.Default.Value
	switch c.Type.Family {
	case schema.FamilyInt, schema.FamilyBigInt, schema.FamilyFloat, schema.FamilyDecimal:
		return v
	case schema.FamilyBoolean:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "t", "yes", "on":
			return yes
		default:
			return no
		}
	}
	return quoteString(strings.Trim(v, "'"))
}

// isNow reports whether an expression default means the current timestamp.
func isNow(d *schema.DefaultValue) bool {
	if d == nil || d.Kind != schema.DefaultExpression {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(d.Value)) {
	case "now()", "current_timestamp", "current_timestamp()":
		return true
	}
	return false
}

// copyable returns the columns whose data survives a rebuild of the table.
func copyable(s *planner.Step) []string {
	recreated := make(map[string]bool)
	for _, cd := range s.TableDiff.ColumnChanges {
		if cd.Previous.Type.Arity != cd.Next.Type.Arity && (cd.Previous.Type.IsList() || cd.Next.Type.IsList()) {
			recreated[cd.Name()] = true
		}
	}
	var out []string
	for _, c := range s.TableDef.Columns {
		if recreated[c.Name] || s.PreviousTable.Column(c.Name) == nil {
			continue
		}
		out = append(out, c.Name)
	}
	return out
}

func unsupported(s *planner.Step, dialect string) error {
	return fmt.Errorf("%w: %s on %s", ErrUnsupportedStep, s.Kind, dialect)
}

// alterer is implemented by dialects that change tables in place.
type alterer interface {
	addColumn(s *planner.Step, table string, c *schema.Column) ([]string, error)
	dropColumn(table string, c *schema.Column) []string
	alterColumn(s *planner.Step, table string, prev, next *schema.Column, changes diff.ColumnChanges) ([]string, error)
	dropIndexSQL(table string, idx *schema.Index) string
	dropPrimaryKey(table string) string
	addPrimaryKey(table string, cols []string) string
}

// redefineInPlace rebuilds a table with ALTER TABLE statements. Secondary indexes are dropped here and
// re-created by the plan's CreateIndex steps.
func redefineInPlace(a alterer, s *planner.Step) ([]string, error) {
	prev, next, td := s.PreviousTable, s.TableDef, s.TableDiff
	var out []string
	add := func(stmts []string, err error) error {
		out = append(out, stmts...)
		return err
	}

	for _, idx := range prev.Indexes {
		out = append(out, a.dropIndexSQL(prev.Name, idx))
	}
	pkChanged := td.PrimaryKeyChanged()
	if pkChanged && len(prev.PrimaryKey()) > 0 {
		out = append(out, a.dropPrimaryKey(prev.Name))
	}
	for _, c := range td.DroppedColumns {
		out = append(out, a.dropColumn(prev.Name, c)...)
	}
	for _, cd := range td.ColumnChanges {
		changes := cd.Changes &^ diff.PrimaryKeyChanged
		if changes.Has(diff.ArityChanged) {
			out = append(out, a.dropColumn(prev.Name, cd.Previous)...)
			if err := add(a.addColumn(s, next.Name, cd.Next)); err != nil {
				return nil, err
			}
			continue
		}
		if !changes.DiffersInSomething() {
			continue
		}
		if err := add(a.alterColumn(s, next.Name, cd.Previous, cd.Next, changes)); err != nil {
			return nil, err
		}
	}
	for _, c := range td.CreatedColumns {
		if err := add(a.addColumn(s, next.Name, c)); err != nil {
			return nil, err
		}
	}
	if pkChanged {
		if pk := next.PrimaryKey(); len(pk) > 0 {
			out = append(out, a.addPrimaryKey(next.Name, pk))
		}
	}
	return out, nil
}

// notNull reports whether the column is declared NOT NULL. Unlike Column.Required it ignores defaults.
func notNull(c *schema.Column) bool {
	return c.Type.Arity == schema.ArityRequired
}
