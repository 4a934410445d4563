// Package converter builds schema models from parsed declaration files.
package converter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/satishbabariya/schema-engine/internal/debug"
	"github.com/satishbabariya/schema-engine/migrate/connector"
	"github.com/satishbabariya/schema-engine/migrate/nativetypes"
	"github.com/satishbabariya/schema-engine/migrate/schema"
	"github.com/satishbabariya/schema-engine/psl"
)

// Connector returns the descriptor for the schema's datasource provider.
func Connector(s *psl.Schema) (*connector.Descriptor, error) {
	ds := s.Datasource()
	if ds == nil {
		return nil, psl.ErrMissingDatasource
	}
	return connector.ForProvider(ds.Provider())
}

// Build converts a parsed schema into a validated SchemaModel for conn.
func Build(s *psl.Schema, conn *connector.Descriptor) (*schema.SchemaModel, error) {
	b := &builder{
		ast:   s,
		conn:  conn,
		ds:    "db",
		enums: make(map[string]*enumInfo),
	}
	if ds := s.Datasource(); ds != nil {
		b.ds = ds.Name
	}

	model := &schema.SchemaModel{}
	for _, e := range s.Enums() {
		enum, info := b.convertEnum(e)
		b.enums[e.Name] = info
		model.Enums = append(model.Enums, enum)
	}

	for _, m := range s.Models() {
		table, err := b.convertModel(m)
		if err != nil {
			return nil, fmt.Errorf("failed to convert model %s: %w", m.Name, err)
		}
		model.Tables = append(model.Tables, table)
	}

	if err := conn.Validate(model); err != nil {
		return nil, err
	}
	debug.Debug("converter: built schema", "tables", len(model.Tables), "enums", len(model.Enums))
	return model, nil
}

type builder struct {
	ast   *psl.Schema
	conn  *connector.Descriptor
	ds    string
	enums map[string]*enumInfo
}

// enumInfo maps declared enum and value names onto database names.
type enumInfo struct {
	name   string
	values map[string]string
}

func (b *builder) convertEnum(e *psl.Enum) (*schema.Enum, *enumInfo) {
	info := &enumInfo{name: mappedName(e.Attribute("map"), e.Name), values: make(map[string]string)}
	enum := &schema.Enum{Name: info.name}
	for _, v := range e.Values() {
		name := v.Name
		if a := v.Attribute("map"); a != nil {
			if s, ok := a.Arg("name", 0).AsString(); ok {
				name = s
			}
		}
		info.values[v.Name] = name
		enum.Values = append(enum.Values, name)
	}
	return enum, info
}

func (b *builder) tableName(m *psl.Model) string {
	return mappedName(m.Attribute("map"), m.Name)
}

func columnName(f *psl.Field) string {
	if a := f.Attribute("map"); a != nil {
		if s, ok := a.Arg("name", 0).AsString(); ok {
			return s
		}
	}
	return f.Name
}

func mappedName(a *psl.BlockAttribute, fallback string) string {
	if a == nil {
		return fallback
	}
	if s, ok := a.Arg("name", 0).AsString(); ok {
		return s
	}
	return fallback
}

// isRelation reports whether a field's type names a model.
func (b *builder) isRelation(f *psl.Field) bool {
	return f.Type.Unsupported == nil && b.ast.Model(f.Type.Name) != nil
}

func (b *builder) convertModel(m *psl.Model) (*schema.Table, error) {
	table := &schema.Table{Name: b.tableName(m)}

	for _, f := range m.Fields() {
		if b.isRelation(f) {
			continue
		}
		col, err := b.convertField(table.Name, f)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		table.Columns = append(table.Columns, col)

		if a := f.Attribute("unique"); a != nil {
			table.Indexes = append(table.Indexes, &schema.Index{
				Name:    indexName(a.Arg("map", -1), table.Name, []string{col.Name}, "key"),
				Columns: []string{col.Name},
				Unique:  true,
			})
		}
	}

	for _, attr := range m.Attributes() {
		switch attr.Name {
		case "id":
			cols, err := b.fieldColumns(m, attr.Arg("fields", 0))
			if err != nil {
				return nil, fmt.Errorf("@@id: %w", err)
			}
			for _, name := range cols {
				table.Column(name).PrimaryKey = true
			}
		case "unique", "index":
			cols, err := b.fieldColumns(m, attr.Arg("fields", 0))
			if err != nil {
				return nil, fmt.Errorf("@@%s: %w", attr.Name, err)
			}
			unique := attr.Name == "unique"
			suffix := "idx"
			if unique {
				suffix = "key"
			}
			explicit := attr.Arg("map", -1)
			if explicit == nil {
				explicit = attr.Arg("name", -1)
			}
			table.Indexes = append(table.Indexes, &schema.Index{
				Name:    indexName(explicit, table.Name, cols, suffix),
				Columns: cols,
				Unique:  unique,
			})
		}
	}

	for _, f := range m.Fields() {
		rel := f.Attribute("relation")
		if rel == nil || !b.isRelation(f) || rel.Arg("fields", -1) == nil {
			continue
		}
		fk, err := b.convertRelation(m, table.Name, f, rel)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		table.ForeignKeys = append(table.ForeignKeys, fk)
	}

	return table, nil
}

// fieldColumns resolves a list of field names to column names.
func (b *builder) fieldColumns(m *psl.Model, e *psl.Expr) ([]string, error) {
	names, ok := e.Idents()
	if !ok || len(names) == 0 {
		return nil, fmt.Errorf("%w: expected a list of fields, got %s", ErrInvalidAttribute, e)
	}
	cols := make([]string, len(names))
	for i, n := range names {
		f := m.Field(n)
		if f == nil || b.isRelation(f) {
			return nil, fmt.Errorf("%w: unknown field %s in model %s", ErrInvalidAttribute, n, m.Name)
		}
		cols[i] = columnName(f)
	}
	return cols, nil
}

func indexName(explicit *psl.Expr, table string, cols []string, suffix string) string {
	if s, ok := explicit.AsString(); ok {
		return s
	}
	return fmt.Sprintf("%s_%s_%s", table, strings.Join(cols, "_"), suffix)
}

func (b *builder) convertField(table string, f *psl.Field) (*schema.Column, error) {
	col := &schema.Column{Name: columnName(f)}

	switch {
	case f.Type.Unsupported != nil:
		col.Type.Family = schema.FamilyUnsupported
		col.Type.Raw = *f.Type.Unsupported
	case b.enums[f.Type.Name] != nil:
		col.Type.Family = schema.FamilyEnum
		col.Type.Enum = b.enums[f.Type.Name].name
	default:
		family, ok := schema.ParseFamily(f.Type.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownType, f.Type.Name)
		}
		col.Type.Family = family
	}

	switch {
	case f.List:
		col.Type.Arity = schema.ArityList
	case f.Optional:
		col.Type.Arity = schema.ArityNullable
	default:
		col.Type.Arity = schema.ArityRequired
	}

	col.PrimaryKey = f.Attribute("id") != nil

	if a := f.NativeType(b.ds); a != nil {
		nt, err := nativeType(a, b.ds)
		if err != nil {
			return nil, err
		}
		if err := b.conn.NativeTypes().Validate(col.Type.Family, nt); err != nil {
			var unsupported *nativetypes.UnsupportedNativeTypeError
			if errors.As(err, &unsupported) {
				return nil, unsupported.ForColumn(table, col.Name)
			}
			return nil, err
		}
		col.Type.Native = nt
	}

	if a := f.Attribute("default"); a != nil {
		def, err := b.defaultValue(f, a.Arg("value", 0))
		if err != nil {
			return nil, err
		}
		col.Default = def
	}
	return col, nil
}

// nativeType converts @db.Name(args) into a native type.
func nativeType(a *psl.Attribute, ds string) (*schema.NativeType, error) {
	nt := &schema.NativeType{Name: strings.TrimPrefix(a.Name, ds+".")}
	for _, arg := range a.Args {
		switch {
		case arg.Value.Number != nil:
			n, err := strconv.Atoi(*arg.Value.Number)
			if err != nil {
				return nil, fmt.Errorf("%w: @%s argument %s", ErrInvalidAttribute, a.Name, *arg.Value.Number)
			}
			nt.Args = append(nt.Args, n)
		case arg.Value.Ident != nil && strings.EqualFold(*arg.Value.Ident, "max"):
			nt.Args = append(nt.Args, schema.MaxLength)
		default:
			return nil, fmt.Errorf("%w: @%s argument %s", ErrInvalidAttribute, a.Name, arg.Value)
		}
	}
	return nt, nil
}

// defaultValue converts a @default argument. uuid() and cuid() are generated by the client, so they
// have no database default.
func (b *builder) defaultValue(f *psl.Field, e *psl.Expr) (*schema.DefaultValue, error) {
	switch {
	case e == nil:
		return nil, fmt.Errorf("%w: @default needs a value", ErrInvalidAttribute)
	case e.Str != nil:
		return schema.Literal(*e.Str), nil
	case e.Number != nil:
		return schema.Literal(*e.Number), nil
	case e.Func != nil:
		switch e.Func.Name {
		case "autoincrement":
			return schema.Sequence(), nil
		case "now":
			return schema.Expression("now()"), nil
		case "dbgenerated":
			if len(e.Func.Args) == 0 {
				return schema.DBGenerated(""), nil
			}
			raw, ok := e.Func.Args[0].Value.AsString()
			if !ok {
				return nil, fmt.Errorf("%w: dbgenerated() takes a string", ErrInvalidAttribute)
			}
			return schema.DBGenerated(raw), nil
		case "uuid", "cuid":
			return nil, nil
		}
		return nil, fmt.Errorf("%w: unknown default function %s()", ErrInvalidAttribute, e.Func.Name)
	case e.Ident != nil:
		v := *e.Ident
		if v == "true" || v == "false" {
			return schema.Literal(v), nil
		}
		if info := b.enums[f.Type.Name]; info != nil {
			if mapped, ok := info.values[v]; ok {
				return schema.Literal(mapped), nil
			}
			return nil, fmt.Errorf("%w: %s is not a value of enum %s", ErrInvalidAttribute, v, f.Type.Name)
		}
	}
	return nil, fmt.Errorf("%w: unsupported default %s", ErrInvalidAttribute, e)
}

func (b *builder) convertRelation(m *psl.Model, table string, f *psl.Field, rel *psl.Attribute) (*schema.ForeignKey, error) {
	cols, err := b.fieldColumns(m, rel.Arg("fields", -1))
	if err != nil {
		return nil, fmt.Errorf("@relation fields: %w", err)
	}
	target := b.ast.Model(f.Type.Name)
	refs, err := b.fieldColumns(target, rel.Arg("references", -1))
	if err != nil {
		return nil, fmt.Errorf("@relation references: %w", err)
	}

	fk := &schema.ForeignKey{
		Name:              indexName(rel.Arg("map", -1), table, cols, "fkey"),
		Columns:           cols,
		ReferencedTable:   b.tableName(target),
		ReferencedColumns: refs,
	}
	if fk.OnDelete, err = referentialAction(rel.Arg("onDelete", -1)); err != nil {
		return nil, err
	}
	if fk.OnUpdate, err = referentialAction(rel.Arg("onUpdate", -1)); err != nil {
		return nil, err
	}
	return fk, nil
}

// referentialAction parses an action. An undeclared action is NoAction, the database default.
func referentialAction(e *psl.Expr) (schema.ReferentialAction, error) {
	if e == nil {
		return schema.NoAction, nil
	}
	name, _ := e.AsIdent()
	action, ok := schema.ParseReferentialAction(name)
	if !ok || name == "" {
		return schema.NoAction, fmt.Errorf("%w: unknown referential action %s", ErrInvalidAttribute, e)
	}
	return action, nil
}
