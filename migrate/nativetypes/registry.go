// Package nativetypes maps abstract column families onto dialect-native types.
//
// Each connector owns one immutable Registry. Besides validation and default resolution, the registry
// decides when two native types are equivalent, which is what keeps an omitted type modifier from
// being reported as drift once introspection reconstructs it with the dialect's default.
package nativetypes

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/schema-engine/migrate/schema"
)

// Param names the catalog attribute a constructor parameter is read from during introspection.
type Param int

const (
	ParamLength Param = iota + 1
	ParamPrecision
	ParamScale
	ParamTimePrecision
)

// Range bounds a constructor parameter.
type Range struct {
	Min, Max int
	// AllowMax accepts schema.MaxLength in addition to the bounds.
	AllowMax bool
}

// Constructor describes one native type a connector accepts.
type Constructor struct {
	Name string
	// Families lists the abstract families the type may back. The first one is reported by introspection.
	Families []schema.Family
	// Params lists the parameters in declaration order; Required of them are mandatory.
	Params   []Param
	Required int
	Ranges   []Range
	// Defaults are the values the database assumes for omitted parameters. A nil slice means an
	// omitted parameter leaves the type unbounded.
	Defaults []int
	// DBNames are the catalog spellings reported by introspection; the first one is canonical.
	DBNames []string
	// SQLName is the DDL keyword.
	SQLName string
	// Group and Rank order types for widening checks. Types in different groups never widen.
	Group string
	Rank  int
}

// Registry is a connector's immutable native type table.
type Registry struct {
	connector string
	ctors     []*Constructor
	byName    map[string]*Constructor
	byDBName  map[string]*Constructor
	defaults  map[schema.Family]schema.NativeType
}

// NewRegistry builds a registry. Default native types must name registered constructors.
func NewRegistry(connector string, defaults map[schema.Family]schema.NativeType, ctors ...Constructor) *Registry {
	r := &Registry{
		connector: connector,
		byName:    make(map[string]*Constructor, len(ctors)),
		byDBName:  make(map[string]*Constructor, len(ctors)),
		defaults:  defaults,
	}
	for i := range ctors {
		c := &ctors[i]
		r.ctors = append(r.ctors, c)
		r.byName[strings.ToLower(c.Name)] = c
		for _, db := range c.DBNames {
			if _, taken := r.byDBName[db]; !taken {
				r.byDBName[db] = c
			}
		}
	}
	for family, nt := range defaults {
		if _, ok := r.byName[strings.ToLower(nt.Name)]; !ok {
			panic(fmt.Sprintf("nativetypes: %s default for %s names unknown type %q", connector, family, nt.Name))
		}
	}
	return r
}

// Connector returns the connector name the registry belongs to.
func (r *Registry) Connector() string { return r.connector }

// Lookup finds a constructor by declared name, case-insensitively.
func (r *Registry) Lookup(name string) (*Constructor, bool) {
	c, ok := r.byName[strings.ToLower(name)]
	return c, ok
}

// Constructors returns the accepted native types in registration order.
func (r *Registry) Constructors() []*Constructor {
	return r.ctors
}

// Default returns the canonical native type for a family. Enum and Unsupported columns have none.
func (r *Registry) Default(family schema.Family) (*schema.NativeType, bool) {
	nt, ok := r.defaults[family]
	if !ok {
		return nil, false
	}
	return &schema.NativeType{Name: nt.Name, Args: append([]int(nil), nt.Args...)}, true
}

// Resolve returns requested verbatim when given and valid, else the family's canonical default.
// Enum and Unsupported columns resolve to nil.
func (r *Registry) Resolve(family schema.Family, requested *schema.NativeType) (*schema.NativeType, error) {
	if requested != nil {
		if err := r.Validate(family, requested); err != nil {
			return nil, err
		}
		return requested, nil
	}
	if family == schema.FamilyEnum || family == schema.FamilyUnsupported {
		return nil, nil
	}
	nt, ok := r.Default(family)
	if !ok {
		return nil, &UnsupportedNativeTypeError{
			Connector:  r.connector,
			NativeType: family.String(),
			Reason:     ErrNoDefaultNativeType.Error(),
		}
	}
	return nt, nil
}

// Validate checks an explicit native type against the accepted set.
func (r *Registry) Validate(family schema.Family, nt *schema.NativeType) error {
	fail := func(format string, args ...any) error {
		return &UnsupportedNativeTypeError{
			Connector:  r.connector,
			NativeType: nt.String(),
			Reason:     fmt.Sprintf(format, args...),
		}
	}

	c, ok := r.Lookup(nt.Name)
	if !ok {
		return fail("unknown type")
	}
	if family != schema.FamilyUnsupported && !c.accepts(family) {
		return fail("not compatible with %s", family)
	}
	if len(nt.Args) > len(c.Params) {
		return fail("takes at most %d arguments", len(c.Params))
	}
	if len(nt.Args) < c.Required {
		return fail("requires %d arguments", c.Required)
	}
	for i, a := range nt.Args {
		if i >= len(c.Ranges) {
			continue
		}
		rg := c.Ranges[i]
		if a == schema.MaxLength && rg.AllowMax {
			continue
		}
		if a < rg.Min || a > rg.Max {
			return fail("argument %d must be between %d and %d", i+1, rg.Min, rg.Max)
		}
	}
	return nil
}

// Canonical fills in the family default for a nil type and the constructor defaults for omitted
// parameters, and spells the name the way the constructor does.
func (r *Registry) Canonical(family schema.Family, nt *schema.NativeType) *schema.NativeType {
	if nt == nil {
		def, ok := r.Default(family)
		if !ok {
			return nil
		}
		nt = def
	}
	c, ok := r.Lookup(nt.Name)
	if !ok {
		return nt
	}
	out := &schema.NativeType{Name: c.Name, Args: append([]int(nil), nt.Args...)}
	if len(c.Defaults) > len(out.Args) {
		out.Args = append(out.Args, c.Defaults[len(out.Args):]...)
	}
	return out
}

// AreEquivalent reports whether two native types for the same family denote the same database type.
// A nil type stands for the family's canonical default.
func (r *Registry) AreEquivalent(family schema.Family, a, b *schema.NativeType) bool {
	if a.Equal(b) {
		return true
	}
	return r.Canonical(family, a).Equal(r.Canonical(family, b))
}

// Widens reports whether changing a column from one native type to another cannot lose data.
func (r *Registry) Widens(family schema.Family, from, to *schema.NativeType) bool {
	from, to = r.Canonical(family, from), r.Canonical(family, to)
	if from == nil || to == nil {
		return from.Equal(to)
	}
	fc, ok1 := r.Lookup(from.Name)
	tc, ok2 := r.Lookup(to.Name)
	if !ok1 || !ok2 {
		return false
	}
	if fc != tc {
		if fc.Group == "" || fc.Group != tc.Group || tc.Rank < fc.Rank {
			return false
		}
	}
	// An omitted argument with no database default leaves the type unbounded.
	if len(to.Args) == 0 {
		return true
	}
	if len(from.Args) == 0 {
		return false
	}
	for i := 0; i < len(from.Args) && i < len(to.Args); i++ {
		if from.Args[i] == schema.MaxLength {
			if to.Args[i] != schema.MaxLength {
				return false
			}
			continue
		}
		if to.Args[i] != schema.MaxLength && to.Args[i] < from.Args[i] {
			return false
		}
	}
	return true
}

// DBType is what an introspector knows about a catalog type.
type DBType struct {
	Name          string
	Length        *int
	Precision     *int
	Scale         *int
	TimePrecision *int
}

// FromDatabase maps a catalog type back onto a family and native type. The boolean is false for
// types the registry does not know, which introspectors report as Unsupported.
func (r *Registry) FromDatabase(t DBType) (schema.Family, *schema.NativeType, bool) {
	c, ok := r.byDBName[strings.ToLower(t.Name)]
	if !ok {
		return schema.FamilyUnsupported, nil, false
	}
	nt := &schema.NativeType{Name: c.Name}
	for _, p := range c.Params {
		var v *int
		switch p {
		case ParamLength:
			v = t.Length
		case ParamPrecision:
			v = t.Precision
		case ParamScale:
			v = t.Scale
		case ParamTimePrecision:
			v = t.TimePrecision
		}
		if v == nil {
			break
		}
		nt.Args = append(nt.Args, *v)
	}
	return c.Families[0], nt, true
}

// DatabaseName returns the catalog spelling of a native type, e.g. "int4" for Integer.
func (r *Registry) DatabaseName(nt *schema.NativeType) string {
	if nt == nil {
		return ""
	}
	c, ok := r.Lookup(nt.Name)
	if !ok || len(c.DBNames) == 0 {
		return strings.ToLower(nt.Name)
	}
	return c.DBNames[0]
}

// SQL renders a native type as a DDL type expression.
func (r *Registry) SQL(nt *schema.NativeType) string {
	if nt == nil {
		return ""
	}
	name := strings.ToUpper(nt.Name)
	if c, ok := r.Lookup(nt.Name); ok && c.SQLName != "" {
		name = c.SQLName
	}
	if len(nt.Args) == 0 {
		return name
	}
	args := make([]string, len(nt.Args))
	for i, a := range nt.Args {
		if a == schema.MaxLength {
			args[i] = "MAX"
			continue
		}
		args[i] = fmt.Sprint(a)
	}
	return name + "(" + strings.Join(args, ",") + ")"
}

func (c *Constructor) accepts(f schema.Family) bool {
	for _, have := range c.Families {
		if have == f {
			return true
		}
	}
	return false
}
