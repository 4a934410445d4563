// Package drift removes differences between a declared and an introspected model that are not real
// drift: externally-owned tables, dialect-specific enum placement and textual variations of
// allow-listed generation-function defaults.
package drift

import (
	"regexp"
	"strings"

	"github.com/satishbabariya/schema-engine/internal/debug"
	"github.com/satishbabariya/schema-engine/migrate/connector"
	"github.com/satishbabariya/schema-engine/migrate/schema"
)

// Normalize returns a normalized copy of model. The input is not modified.
func Normalize(model *schema.SchemaModel, conn *connector.Descriptor) *schema.SchemaModel {
	if model == nil {
		return nil
	}
	out := model.Clone()

	kept := out.Tables[:0]
	for _, t := range out.Tables {
		if conn.IsDenylisted(t.Name) {
			debug.Debug("drift: ignoring externally-owned table", "table", t.Name, "connector", conn.Name)
			continue
		}
		kept = append(kept, t)
	}
	out.Tables = kept

	for _, t := range out.Tables {
		fks := t.ForeignKeys[:0]
		for _, fk := range t.ForeignKeys {
			if conn.IsDenylisted(fk.ReferencedTable) {
				continue
			}
			fks = append(fks, fk)
		}
		t.ForeignKeys = fks

		for i, c := range t.Columns {
			t.Columns[i] = NormalizeDefault(c, conn)
		}
	}

	if conn.EnumStrategy() == connector.EnumsInline {
		inlineEnums(out)
	}
	return out
}

// InlineEnumName is the enum name a column gets on connectors that declare enum values per column.
func InlineEnumName(table, column string) string {
	return table + "_" + column
}

func inlineEnums(m *schema.SchemaModel) {
	source := make(map[string]*schema.Enum, len(m.Enums))
	for _, e := range m.Enums {
		source[e.Name] = e
	}

	var enums []*schema.Enum
	for _, t := range m.Tables {
		for _, c := range t.Columns {
			if c.Type.Family != schema.FamilyEnum {
				continue
			}
			e, ok := source[c.Type.Enum]
			if !ok {
				continue
			}
			name := InlineEnumName(t.Name, c.Name)
			c.Type.Enum = name
			enums = append(enums, &schema.Enum{Name: name, Values: append([]string(nil), e.Values...)})
		}
	}
	m.Enums = enums
}

var (
	qualified = regexp.MustCompile(`^[a-z_][a-z0-9_]*\.([a-z_][a-z0-9_]*\s*\()`)
	signature = regexp.MustCompile(`^([a-z_][a-z0-9_]*)\s*(?:\(\s*\d*\s*\))?$`)
)

// NormalizeDefault rewrites a generated default whose function is on the connector's allow-list into
// its canonical form. Every other default is returned unchanged.
func NormalizeDefault(col *schema.Column, conn *connector.Descriptor) *schema.Column {
	d := col.Default
	if d == nil || (d.Kind != schema.DefaultDBGenerated && d.Kind != schema.DefaultExpression) {
		return col
	}
	key, ok := Signature(d.Value)
	if !ok {
		return col
	}
	canonical, ok := conn.GeneratedDefaults[key]
	if !ok || *d == canonical {
		return col
	}
	out := col.Clone()
	out.Default = &canonical
	return out
}

// Signature reduces a function-call expression to "name()". It strips schema qualification, outer
// parentheses, trailing casts and case. The boolean is false for anything that is not a bare call.
func Signature(expr string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(expr))
	for {
		before := s
		s = stripCast(s)
		s = stripParens(s)
		s = strings.TrimSpace(s)
		if s == before {
			break
		}
	}
	s = qualified.ReplaceAllString(s, "$1")
	m := signature.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1] + "()", true
}

func stripParens(s string) string {
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return s
	}
	depth := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 && i != len(s)-1 {
				return s
			}
		}
	}
	return s[1 : len(s)-1]
}

func stripCast(s string) string {
	depth := 0
	for i := 0; i < len(s)-1; i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case '\'':
			return s
		case ':':
			if depth == 0 && s[i+1] == ':' {
				return s[:i]
			}
		}
	}
	return s
}
