package psl

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// Schema is a parsed declaration file.
type Schema struct {
	Pos   lexer.Position
	Items []*Item `@@*`
}

// Item is one top-level block.
type Item struct {
	Datasource *Datasource `  @@`
	Generator  *Generator  `| @@`
	Model      *Model      `| @@`
	Enum       *Enum       `| @@`
}

// Datasource is a datasource block.
type Datasource struct {
	Pos        lexer.Position
	Name       string      `"datasource" @Ident "{"`
	Properties []*Property `@@* "}"`
}

// Generator is a generator block. Generators are parsed and otherwise ignored.
type Generator struct {
	Pos        lexer.Position
	Name       string      `"generator" @Ident "{"`
	Properties []*Property `@@* "}"`
}

// Property is a key = value line of a config block.
type Property struct {
	Pos   lexer.Position
	Name  string `@Ident "="`
	Value *Expr  `@@`
}

// Model is a model block.
type Model struct {
	Pos     lexer.Position
	Name    string         `"model" @Ident "{"`
	Members []*ModelMember `@@* "}"`
}

// ModelMember is a field or a block attribute.
type ModelMember struct {
	Attribute *BlockAttribute `  @@`
	Field     *Field          `| @@`
}

// Field is a model field.
type Field struct {
	Pos        lexer.Position
	Name       string       `@Ident`
	Type       *FieldType   `@@`
	List       bool         `@("[" "]")?`
	Optional   bool         `@"?"?`
	Attributes []*Attribute `@@*`
}

// FieldType is a scalar, enum or model name, or Unsupported("raw").
type FieldType struct {
	Unsupported *string `  "Unsupported" "(" @String ")"`
	Name        string  `| @Ident`
}

func (t *FieldType) String() string {
	if t.Unsupported != nil {
		return fmt.Sprintf("Unsupported(%q)", *t.Unsupported)
	}
	return t.Name
}

// Attribute is a field attribute such as @id or @db.VarChar(255).
type Attribute struct {
	Pos  lexer.Position
	Name string `"@" @Ident (@"." @Ident)?`
	Args []*Arg `("(" (@@ ("," @@)*)? ")")?`
}

// BlockAttribute is a block attribute such as @@index([a, b]).
type BlockAttribute struct {
	Pos  lexer.Position
	Name string `"@@" @Ident`
	Args []*Arg `("(" (@@ ("," @@)*)? ")")?`
}

// Arg is a positional or named argument.
type Arg struct {
	Pos   lexer.Position
	Name  string `(@Ident ":")?`
	Value *Expr  `@@`
}

// Expr is an argument or property value.
type Expr struct {
	Pos    lexer.Position
	Str    *string    `  @String`
	Number *string    `| @Number`
	Array  *ArrayExpr `| @@`
	Func   *FuncCall  `| @@`
	Ident  *string    `| @Ident`
}

// ArrayExpr is a bracketed list.
type ArrayExpr struct {
	Elements []*Expr `"[" (@@ ("," @@)*)? "]"`
}

// FuncCall is a function call such as now() or env("DATABASE_URL").
type FuncCall struct {
	Name string `@Ident "("`
	Args []*Arg `(@@ ("," @@)*)? ")"`
}

func (e *Expr) String() string {
	switch {
	case e == nil:
		return ""
	case e.Str != nil:
		return fmt.Sprintf("%q", *e.Str)
	case e.Number != nil:
		return *e.Number
	case e.Array != nil:
		parts := make([]string, len(e.Array.Elements))
		for i, el := range e.Array.Elements {
			parts[i] = el.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case e.Func != nil:
		parts := make([]string, len(e.Func.Args))
		for i, a := range e.Func.Args {
			parts[i] = a.Value.String()
		}
		return e.Func.Name + "(" + strings.Join(parts, ", ") + ")"
	case e.Ident != nil:
		return *e.Ident
	}
	return ""
}

// Datasource returns the first datasource block, if any.
func (s *Schema) Datasource() *Datasource {
	for _, it := range s.Items {
		if it.Datasource != nil {
			return it.Datasource
		}
	}
	return nil
}

// Models returns the model blocks in declaration order.
func (s *Schema) Models() []*Model {
	var out []*Model
	for _, it := range s.Items {
		if it.Model != nil {
			out = append(out, it.Model)
		}
	}
	return out
}

// Enums returns the enum blocks in declaration order.
func (s *Schema) Enums() []*Enum {
	var out []*Enum
	for _, it := range s.Items {
		if it.Enum != nil {
			out = append(out, it.Enum)
		}
	}
	return out
}

// Model finds a model by name.
func (s *Schema) Model(name string) *Model {
	for _, m := range s.Models() {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Enum finds an enum by name.
func (s *Schema) Enum(name string) *Enum {
	for _, e := range s.Enums() {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// Fields returns the model's fields in declaration order.
func (m *Model) Fields() []*Field {
	var out []*Field
	for _, mem := range m.Members {
		if mem.Field != nil {
			out = append(out, mem.Field)
		}
	}
	return out
}

// Field finds a field by name.
func (m *Model) Field(name string) *Field {
	for _, f := range m.Fields() {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Attributes returns the model's block attributes.
func (m *Model) Attributes() []*BlockAttribute {
	var out []*BlockAttribute
	for _, mem := range m.Members {
		if mem.Attribute != nil {
			out = append(out, mem.Attribute)
		}
	}
	return out
}

// Attribute returns the first block attribute with the given name.
func (m *Model) Attribute(name string) *BlockAttribute {
	for _, a := range m.Attributes() {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// Attribute returns the first attribute with the given name.
func (f *Field) Attribute(name string) *Attribute {
	for _, a := range f.Attributes {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// NativeType returns the @<datasource>.Type attribute, if any.
func (f *Field) NativeType(datasource string) *Attribute {
	prefix := datasource + "."
	for _, a := range f.Attributes {
		if strings.HasPrefix(a.Name, prefix) {
			return a
		}
	}
	return nil
}

// Arg returns the named argument, or else the unnamed argument at position pos (-1 for none).
func (a *Attribute) Arg(name string, pos int) *Expr {
	return findArg(a.Args, name, pos)
}

// Arg returns the named argument, or else the unnamed argument at position pos (-1 for none).
func (a *BlockAttribute) Arg(name string, pos int) *Expr {
	return findArg(a.Args, name, pos)
}

func findArg(args []*Arg, name string, pos int) *Expr {
	i := 0
	var positional *Expr
	for _, arg := range args {
		if arg.Name != "" {
			if arg.Name == name {
				return arg.Value
			}
			continue
		}
		if i == pos {
			positional = arg.Value
		}
		i++
	}
	return positional
}

// AsString returns the value of a string literal.
func (e *Expr) AsString() (string, bool) {
	if e == nil || e.Str == nil {
		return "", false
	}
	return *e.Str, true
}

// AsIdent returns the value of a bare identifier.
func (e *Expr) AsIdent() (string, bool) {
	if e == nil || e.Ident == nil {
		return "", false
	}
	return *e.Ident, true
}

// Idents returns the identifiers of a list such as [a, b]. A single identifier is a one-element list.
func (e *Expr) Idents() ([]string, bool) {
	if id, ok := e.AsIdent(); ok {
		return []string{id}, true
	}
	if e == nil || e.Array == nil {
		return nil, false
	}
	out := make([]string, 0, len(e.Array.Elements))
	for _, el := range e.Array.Elements {
		switch {
		case el.Ident != nil:
			out = append(out, *el.Ident)
		case el.Func != nil:
			// Sort or length modifiers such as title(sort: Desc) keep only the field.
			out = append(out, el.Func.Name)
		default:
			return nil, false
		}
	}
	return out, true
}

// Enum is an enum block.
type Enum struct {
	Pos     lexer.Position
	Name    string        `"enum" @Ident "{"`
	Members []*EnumMember `@@* "}"`
}

// EnumMember is a value or a block attribute.
type EnumMember struct {
	Attribute *BlockAttribute `  @@`
	Value     *EnumValue      `| @@`
}

// EnumValue is one enum value with its attributes.
type EnumValue struct {
	Pos        lexer.Position
	Name       string       `@Ident`
	Attributes []*Attribute `@@*`
}

// Values returns the enum's values in declaration order.
func (e *Enum) Values() []*EnumValue {
	var out []*EnumValue
	for _, mem := range e.Members {
		if mem.Value != nil {
			out = append(out, mem.Value)
		}
	}
	return out
}

// Attribute returns the first block attribute with the given name.
func (e *Enum) Attribute(name string) *BlockAttribute {
	for _, mem := range e.Members {
		if mem.Attribute != nil && mem.Attribute.Name == name {
			return mem.Attribute
		}
	}
	return nil
}

// Attribute returns the first attribute with the given name.
func (v *EnumValue) Attribute(name string) *Attribute {
	for _, a := range v.Attributes {
		if a.Name == name {
			return a
		}
	}
	return nil
}
