// Package introspect reads the live schema of a database into a schema.SchemaModel.
package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/satishbabariya/schema-engine/internal/debug"
	"github.com/satishbabariya/schema-engine/migrate/connector"
	"github.com/satishbabariya/schema-engine/migrate/nativetypes"
	"github.com/satishbabariya/schema-engine/migrate/schema"
)

// Introspector reads the database schema
type Introspector interface {
	Introspect(ctx context.Context) (*schema.SchemaModel, error)
}

// DatabaseSchema is the catalog as the database reports it, before types and defaults are mapped
// onto the schema model.
type DatabaseSchema struct {
	Tables []Table
	Enums  []Enum
}

// Table represents a database table
type Table struct {
	Name        string
	Columns     []Column
	PrimaryKey  []string
	Indexes     []Index
	ForeignKeys []ForeignKey
}

// Column represents a table column
type Column struct {
	Name string
	// Type is the catalog type name and its modifiers.
	Type nativetypes.DBType
	// Raw is the full type as the database spells it. It becomes the text of unsupported types.
	Raw      string
	Array    bool
	Nullable bool
	// Enum names the enum type of the column, if any.
	Enum string
	// Family overrides the registry's family for catalog types shared by several families.
	Family        *schema.Family
	Default       *string
	AutoIncrement bool
}

// Index represents a database index
type Index struct {
	Name      string
	Columns   []string
	IsUnique  bool
	Clustered *bool
}

// ForeignKey represents a foreign key constraint
type ForeignKey struct {
	Name              string
	Columns           []string
	ReferencedTable   string
	ReferencedColumns []string
	OnDelete          string
	OnUpdate          string
}

// Enum represents a database enum type
type Enum struct {
	Name   string
	Values []string
}

// Option configures an introspector
type Option func(*options)

type options struct {
	timeout       time.Duration
	parseDefault  func(string) *schema.DefaultValue
	includeHidden bool
}

// WithTimeout bounds the whole introspection.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithDenylisted keeps tables the connector treats as externally owned.
func WithDenylisted() Option {
	return func(o *options) { o.includeHidden = true }
}

// reader reads the raw catalog of one dialect.
type reader interface {
	read(ctx context.Context) (*DatabaseSchema, error)
}

// introspector wraps a dialect reader with the shared mapping onto the schema model.
type introspector struct {
	conn   *connector.Descriptor
	reader reader
	opts   options
}

// NewIntrospector creates a new introspector for the given database
func NewIntrospector(db *sql.DB, conn *connector.Descriptor, opts ...Option) (Introspector, error) {
	o := options{timeout: 30 * time.Second, parseDefault: ParseDefault}
	for _, opt := range opts {
		opt(&o)
	}

	var r reader
	switch conn.Name {
	case "postgres":
		r = &PostgresIntrospector{db: db, schema: "public"}
	case "cockroachdb":
		r = NewCockroachDBIntrospector(db)
	case "mysql":
		r = &MySQLIntrospector{db: db}
	case "sqlite":
		r = &SQLiteIntrospector{db: db}
	case "sqlserver":
		r = NewSQLServerIntrospector(db)
		o.parseDefault = parseSQLServerDefault
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, conn.Name)
	}
	return &introspector{conn: conn, reader: r, opts: o}, nil
}

// Introspect reads the catalog and maps it onto a schema model
func (i *introspector) Introspect(ctx context.Context) (*schema.SchemaModel, error) {
	if i.opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.opts.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := i.reader.read(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIntrospectionFailed, err)
	}
	model := i.build(raw)
	if err := model.ValidateWith(i.conn.ValidateOptions()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIntrospectionFailed, err)
	}
	debug.Debug("introspect: read schema", "connector", i.conn.Name,
		"tables", len(model.Tables), "enums", len(model.Enums), "took", time.Since(start))
	return model, nil
}

// Build maps a raw catalog onto a schema model using the connector's type registry.
func Build(raw *DatabaseSchema, conn *connector.Descriptor) *schema.SchemaModel {
	i := &introspector{conn: conn, opts: options{parseDefault: ParseDefault}}
	if conn.Name == "sqlserver" {
		i.opts.parseDefault = parseSQLServerDefault
	}
	return i.build(raw)
}

func (i *introspector) build(raw *DatabaseSchema) *schema.SchemaModel {
	model := &schema.SchemaModel{}
	for _, e := range raw.Enums {
		model.Enums = append(model.Enums, &schema.Enum{Name: e.Name, Values: append([]string(nil), e.Values...)})
	}

	reg := i.conn.NativeTypes()
	for _, rt := range raw.Tables {
		if !i.opts.includeHidden && i.conn.IsDenylisted(rt.Name) {
			continue
		}
		t := &schema.Table{Name: rt.Name}
		for _, rc := range rt.Columns {
			t.Columns = append(t.Columns, i.column(reg, rc, rt.PrimaryKey))
		}
		for _, idx := range rt.Indexes {
			t.Indexes = append(t.Indexes, &schema.Index{
				Name:      idx.Name,
				Columns:   append([]string(nil), idx.Columns...),
				Unique:    idx.IsUnique,
				Clustered: idx.Clustered,
			})
		}
		for _, fk := range rt.ForeignKeys {
			t.ForeignKeys = append(t.ForeignKeys, &schema.ForeignKey{
				Name:              fk.Name,
				Columns:           append([]string(nil), fk.Columns...),
				ReferencedTable:   fk.ReferencedTable,
				ReferencedColumns: append([]string(nil), fk.ReferencedColumns...),
				OnDelete:          parseAction(fk.OnDelete),
				OnUpdate:          parseAction(fk.OnUpdate),
			})
		}
		model.Tables = append(model.Tables, t)
	}
	return model
}

func (i *introspector) column(reg *nativetypes.Registry, rc Column, pk []string) *schema.Column {
	c := &schema.Column{Name: rc.Name}
	for _, p := range pk {
		if p == rc.Name {
			c.PrimaryKey = true
		}
	}

	switch {
	case rc.Enum != "":
		c.Type.Family = schema.FamilyEnum
		c.Type.Enum = rc.Enum
	default:
		family, native, ok := reg.FromDatabase(rc.Type)
		if !ok {
			c.Type.Family = schema.FamilyUnsupported
			c.Type.Raw = rc.Raw
			break
		}
		if rc.Family != nil {
			family = *rc.Family
		}
		c.Type.Family = family
		c.Type.Native = native
	}

	switch {
	case rc.Array:
		c.Type.Arity = schema.ArityList
	case rc.Nullable:
		c.Type.Arity = schema.ArityNullable
	default:
		c.Type.Arity = schema.ArityRequired
	}

	switch {
	case rc.AutoIncrement:
		c.Default = schema.Sequence()
	case rc.Default != nil:
		c.Default = i.opts.parseDefault(*rc.Default)
	}
	return c
}

var numericLiteral = regexp.MustCompile(`^-?\d+(\.\d+)?([eE][-+]?\d+)?$`)

// ParseDefault classifies a catalog default expression. Sequence calls become Sequence, quoted
// strings (with any trailing casts) and bare numbers or booleans become literals, and everything
// else is kept verbatim as a database-generated expression.
func ParseDefault(expr string) *schema.DefaultValue {
	s := strings.TrimSpace(expr)
	switch {
	case s == "", strings.EqualFold(s, "null"), strings.HasPrefix(strings.ToLower(s), "null::"):
		return nil
	case strings.HasPrefix(strings.ToLower(s), "nextval("):
		return schema.Sequence()
	}
	if v, ok := quotedLiteral(s); ok {
		return schema.Literal(v)
	}
	if inner, ok := strings.CutPrefix(s, "("); ok {
		// Negative numbers are echoed as (-1)::integer by some versions.
		lit, cast, _ := strings.Cut(inner, ")")
		if (cast == "" || strings.HasPrefix(cast, "::")) && numericLiteral.MatchString(lit) {
			return schema.Literal(lit)
		}
	}
	bare, _, _ := strings.Cut(s, "::")
	switch {
	case numericLiteral.MatchString(bare):
		return schema.Literal(bare)
	case strings.EqualFold(bare, "true"), strings.EqualFold(bare, "false"):
		return schema.Literal(strings.ToLower(bare))
	}
	return schema.DBGenerated(s)
}

// parseSQLServerDefault strips the parentheses SQL Server wraps around every default.
func parseSQLServerDefault(expr string) *schema.DefaultValue {
	s := strings.TrimSpace(expr)
	for len(s) >= 2 && s[0] == '(' && s[len(s)-1] == ')' && balanced(s[1:len(s)-1]) {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if rest, ok := strings.CutPrefix(s, "N'"); ok {
		s = "'" + rest
	}
	return ParseDefault(s)
}

func balanced(s string) bool {
	depth := 0
	quoted := false
	for _, r := range s {
		switch {
		case r == '\'':
			quoted = !quoted
		case quoted:
		case r == '(':
			depth++
		case r == ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0 && !quoted
}

// quotedLiteral unquotes 'it''s'::text into it's. The boolean is false unless s is a single
// quoted string followed by nothing but casts.
func quotedLiteral(s string) (string, bool) {
	if s == "" || s[0] != '\'' {
		return "", false
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
		rest := strings.TrimSpace(s[i+1:])
		if rest == "" || strings.HasPrefix(rest, "::") {
			return b.String(), true
		}
		return "", false
	}
	return "", false
}

func parseAction(rule string) schema.ReferentialAction {
	switch strings.ToLower(strings.TrimSpace(rule)) {
	// pg_constraint codes
	case "a":
		return schema.NoAction
	case "r":
		return schema.Restrict
	case "c":
		return schema.Cascade
	case "n":
		return schema.SetNull
	case "d":
		return schema.SetDefault
	}
	if a, ok := schema.ParseReferentialAction(rule); ok {
		return a
	}
	return schema.NoAction
}

var typeArgs = regexp.MustCompile(`\(\s*(\d+|max)\s*(?:,\s*(\d+)\s*)?\)`)

// parseDataType splits a spelled-out type such as "decimal(10,2) unsigned" into its catalog name and
// modifiers. Every modifier slot is filled from the arguments; the registry reads the ones its
// constructor declares.
func parseDataType(spelled string) nativetypes.DBType {
	s := strings.ToLower(strings.TrimSpace(spelled))
	t := nativetypes.DBType{}

	if m := typeArgs.FindStringSubmatchIndex(s); m != nil {
		first := s[m[2]:m[3]]
		if first == "max" {
			t.Length = intPtr(schema.MaxLength)
		} else if n, err := strconv.Atoi(first); err == nil {
			t.Length, t.Precision, t.TimePrecision = intPtr(n), intPtr(n), intPtr(n)
		}
		if m[4] >= 0 {
			if n, err := strconv.Atoi(s[m[4]:m[5]]); err == nil {
				t.Scale = intPtr(n)
			}
		}
		s = s[:m[0]] + s[m[1]:]
	}
	t.Name = strings.Join(strings.Fields(s), " ")
	return t
}

func intPtr(v int) *int { return &v }

func nullableInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	return intPtr(int(v.Int64))
}
