package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Family is the abstract type class of a column.
type Family int

const (
	FamilyInt Family = iota
	FamilyBigInt
	FamilyDecimal
	FamilyFloat
	FamilyString
	FamilyBoolean
	FamilyDateTime
	FamilyBytes
	FamilyJSON
	FamilyEnum
	FamilyUnsupported
)

var familyNames = map[Family]string{
	FamilyInt:         "Int",
	FamilyBigInt:      "BigInt",
	FamilyDecimal:     "Decimal",
	FamilyFloat:       "Float",
	FamilyString:      "String",
	FamilyBoolean:     "Boolean",
	FamilyDateTime:    "DateTime",
	FamilyBytes:       "Bytes",
	FamilyJSON:        "Json",
	FamilyEnum:        "Enum",
	FamilyUnsupported: "Unsupported",
}

func (f Family) String() string {
	if name, ok := familyNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Family(%d)", int(f))
}

// ParseFamily maps a declared scalar type name onto a family. Enum and model names are not families.
func ParseFamily(name string) (Family, bool) {
	for f, n := range familyNames {
		if n == name && f != FamilyEnum && f != FamilyUnsupported {
			return f, true
		}
	}
	return 0, false
}

// Arity describes how many values a column holds.
type Arity int

const (
	ArityRequired Arity = iota
	ArityNullable
	ArityList
)

func (a Arity) String() string {
	switch a {
	case ArityNullable:
		return "nullable"
	case ArityList:
		return "list"
	default:
		return "required"
	}
}

// MaxLength stands for the "Max" length argument some dialects accept, e.g. NVarChar(Max).
const MaxLength = -1

// NativeType is a dialect type name with optional integer parameters, e.g. VarChar(200).
type NativeType struct {
	Name string `json:"name"`
	Args []int  `json:"args,omitempty"`
}

// NewNativeType is shorthand for a native type literal.
func NewNativeType(name string, args ...int) *NativeType {
	return &NativeType{Name: name, Args: args}
}

func (n *NativeType) String() string {
	if n == nil {
		return ""
	}
	if len(n.Args) == 0 {
		return n.Name
	}
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		if a == MaxLength {
			parts[i] = "Max"
			continue
		}
		parts[i] = strconv.Itoa(a)
	}
	return n.Name + "(" + strings.Join(parts, ",") + ")"
}

// Equal is strict structural equality; see nativetypes.Registry.AreEquivalent for the lenient form.
func (n *NativeType) Equal(o *NativeType) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.Name != o.Name || len(n.Args) != len(o.Args) {
		return false
	}
	for i := range n.Args {
		if n.Args[i] != o.Args[i] {
			return false
		}
	}
	return true
}

// ColumnType is the full type of a column.
type ColumnType struct {
	Family Family      `json:"family"`
	Enum   string      `json:"enum,omitempty"`
	Arity  Arity       `json:"arity"`
	Native *NativeType `json:"native,omitempty"`
	// Raw is the full data type as reported by the catalog, or the text of Unsupported("...").
	Raw string `json:"raw,omitempty"`
}

// IsList reports whether the column stores a list of values.
func (t ColumnType) IsList() bool { return t.Arity == ArityList }

func (t ColumnType) String() string {
	name := t.Family.String()
	switch t.Family {
	case FamilyEnum:
		name = t.Enum
	case FamilyUnsupported:
		name = fmt.Sprintf("Unsupported(%q)", t.Raw)
	}
	switch t.Arity {
	case ArityNullable:
		name += "?"
	case ArityList:
		name += "[]"
	}
	if t.Native != nil {
		name += " @" + t.Native.String()
	}
	return name
}

// DefaultKind classifies a column default.
type DefaultKind int

const (
	// DefaultLiteral is a constant value, stored unquoted.
	DefaultLiteral DefaultKind = iota + 1
	// DefaultExpression is an engine-understood expression such as now().
	DefaultExpression
	// DefaultDBGenerated is an opaque database-side expression.
	DefaultDBGenerated
	// DefaultSequence is an auto-incrementing default.
	DefaultSequence
)

func (k DefaultKind) String() string {
	switch k {
	case DefaultLiteral:
		return "literal"
	case DefaultExpression:
		return "expression"
	case DefaultDBGenerated:
		return "dbgenerated"
	case DefaultSequence:
		return "sequence"
	default:
		return "none"
	}
}

// DefaultValue is a column default. A nil *DefaultValue means the column has none.
type DefaultValue struct {
	Kind  DefaultKind `json:"kind"`
	Value string      `json:"value,omitempty"`
}

// Literal returns a literal default.
func Literal(v string) *DefaultValue { return &DefaultValue{Kind: DefaultLiteral, Value: v} }

// Expression returns an expression default such as now().
func Expression(v string) *DefaultValue { return &DefaultValue{Kind: DefaultExpression, Value: v} }

// DBGenerated returns an opaque database-side default.
func DBGenerated(v string) *DefaultValue { return &DefaultValue{Kind: DefaultDBGenerated, Value: v} }

// Sequence returns an auto-increment default.
func Sequence() *DefaultValue { return &DefaultValue{Kind: DefaultSequence} }

func (d *DefaultValue) String() string {
	if d == nil {
		return "<none>"
	}
	switch d.Kind {
	case DefaultSequence:
		return "autoincrement()"
	case DefaultDBGenerated:
		return fmt.Sprintf("dbgenerated(%q)", d.Value)
	case DefaultLiteral:
		return strconv.Quote(d.Value)
	default:
		return d.Value
	}
}

// Column is a table column.
type Column struct {
	Name       string        `json:"name"`
	Type       ColumnType    `json:"type"`
	Default    *DefaultValue `json:"default,omitempty"`
	PrimaryKey bool          `json:"primaryKey,omitempty"`
}

// Nullable reports whether the column accepts NULL.
func (c *Column) Nullable() bool {
	return c.Type.Arity == ArityNullable
}

// Required reports whether inserting a row needs an explicit value for this column.
func (c *Column) Required() bool {
	return c.Type.Arity == ArityRequired && c.Default == nil
}

// Clone returns a deep copy of the column.
func (c *Column) Clone() *Column {
	out := *c
	if c.Type.Native != nil {
		out.Type.Native = &NativeType{Name: c.Type.Native.Name, Args: append([]int(nil), c.Type.Native.Args...)}
	}
	if c.Default != nil {
		d := *c.Default
		out.Default = &d
	}
	return &out
}
