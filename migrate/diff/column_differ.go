package diff

import (
	"encoding/json"
	"math/big"
	"reflect"
	"strings"

	"github.com/satishbabariya/schema-engine/migrate/schema"
)

// ColumnChanges is the set of fields in which two versions of a column differ.
type ColumnChanges uint8

const (
	TypeChanged ColumnChanges = 1 << iota
	ArityChanged
	NullabilityChanged
	DefaultChanged
	PrimaryKeyChanged
)

var columnChangeNames = []struct {
	flag ColumnChanges
	name string
}{
	{TypeChanged, "type"},
	{ArityChanged, "arity"},
	{NullabilityChanged, "nullability"},
	{DefaultChanged, "default"},
	{PrimaryKeyChanged, "primary key"},
}

// Has reports whether every flag in c is set.
func (cc ColumnChanges) Has(c ColumnChanges) bool {
	return cc&c == c
}

// DiffersInSomething reports whether any change was detected.
func (cc ColumnChanges) DiffersInSomething() bool {
	return cc != 0
}

// OnlyDefault reports whether the default is the only thing that changed.
func (cc ColumnChanges) OnlyDefault() bool {
	return cc == DefaultChanged
}

// Reasons names the changed fields.
func (cc ColumnChanges) Reasons() []string {
	var out []string
	for _, n := range columnChangeNames {
		if cc.Has(n.flag) {
			out = append(out, n.name)
		}
	}
	return out
}

func (cc ColumnChanges) String() string {
	return strings.Join(cc.Reasons(), ", ")
}

// allColumnChanges detects every change between two versions of a column.
func allColumnChanges(prev, next *schema.Column, f Flavour) ColumnChanges {
	var changes ColumnChanges

	if !typesMatch(prev.Type, next.Type, f) {
		changes |= TypeChanged
	}

	switch {
	case prev.Type.Arity == next.Type.Arity:
	case prev.Type.IsList() || next.Type.IsList():
		changes |= ArityChanged
	default:
		changes |= NullabilityChanged
	}

	if !defaultsMatch(prev, next) {
		changes |= DefaultChanged
	}

	if prev.PrimaryKey != next.PrimaryKey {
		changes |= PrimaryKeyChanged
	}

	return changes
}

func typesMatch(prev, next schema.ColumnType, f Flavour) bool {
	if prev.Family != next.Family {
		return false
	}
	switch prev.Family {
	case schema.FamilyEnum:
		return prev.Enum == next.Enum
	case schema.FamilyUnsupported:
		return strings.EqualFold(strings.TrimSpace(prev.Raw), strings.TrimSpace(next.Raw))
	}
	return f.AreEquivalent(prev.Family, prev.Native, next.Native)
}

// defaultsMatch compares defaults. Literals are compared by value for numeric, boolean and JSON
// columns, since the database echoes them back in its own spelling.
func defaultsMatch(prev, next *schema.Column) bool {
	a, b := prev.Default, next.Default
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind != b.Kind {
		return false
	}

	switch a.Kind {
	case schema.DefaultSequence:
		return true
	case schema.DefaultExpression:
		return strings.EqualFold(strings.TrimSpace(a.Value), strings.TrimSpace(b.Value))
	case schema.DefaultDBGenerated:
		return strings.TrimSpace(a.Value) == strings.TrimSpace(b.Value)
	}

	if a.Value == b.Value {
		return true
	}
	switch next.Type.Family {
	case schema.FamilyJSON:
		return jsonDefaultsMatch(a.Value, b.Value)
	case schema.FamilyInt, schema.FamilyBigInt, schema.FamilyFloat, schema.FamilyDecimal:
		return numericDefaultsMatch(a.Value, b.Value)
	case schema.FamilyBoolean:
		pa, okA := parseBool(a.Value)
		pb, okB := parseBool(b.Value)
		return okA && okB && pa == pb
	case schema.FamilyEnum:
		return strings.Trim(a.Value, `"'`) == strings.Trim(b.Value, `"'`)
	}
	return false
}

// jsonDefaultsMatch compares JSON default values by parsing them.
func jsonDefaultsMatch(prev, next string) bool {
	var prevJSON, nextJSON any
	if err := json.Unmarshal([]byte(prev), &prevJSON); err != nil {
		return prev == next
	}
	if err := json.Unmarshal([]byte(next), &nextJSON); err != nil {
		return prev == next
	}
	return reflect.DeepEqual(prevJSON, nextJSON)
}

func numericDefaultsMatch(prev, next string) bool {
	a, okA := new(big.Rat).SetString(strings.TrimSpace(prev))
	b, okB := new(big.Rat).SetString(strings.TrimSpace(next))
	if !okA || !okB {
		return false
	}
	return a.Cmp(b) == 0
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.Trim(strings.TrimSpace(s), `'`)) {
	case "true", "1", "t":
		return true, true
	case "false", "0", "f":
		return false, true
	}
	return false, false
}
