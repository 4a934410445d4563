package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ValidateOptions tune name comparison during validation.
type ValidateOptions struct {
	// CaseInsensitiveNames makes table names that differ only in case collide.
	CaseInsensitiveNames bool
	// External reports tables owned outside the model. Foreign keys may reference them although the
	// model does not contain them.
	External func(table string) bool
}

// Validate checks the model invariants with case-sensitive names.
func (m *SchemaModel) Validate() error {
	return m.ValidateWith(ValidateOptions{})
}

// ValidateWith checks that every foreign key, index and enum reference resolves and that names are
// unique. All violations are joined into one error; each one matches ErrInvalidModel.
func (m *SchemaModel) ValidateWith(opts ValidateOptions) error {
	var errs []error
	fail := func(table, column, format string, args ...any) {
		errs = append(errs, &ValidationError{Table: table, Column: column, Reason: fmt.Sprintf(format, args...)})
	}

	key := func(s string) string {
		if opts.CaseInsensitiveNames {
			return strings.ToLower(s)
		}
		return s
	}

	enums := make(map[string]bool, len(m.Enums))
	for _, e := range m.Enums {
		if enums[e.Name] {
			fail("", "", "enum %q is defined more than once", e.Name)
		}
		enums[e.Name] = true
		if len(e.Values) == 0 {
			fail("", "", "enum %q has no values", e.Name)
		}
		seen := make(map[string]bool, len(e.Values))
		for _, v := range e.Values {
			if seen[v] {
				fail("", "", "enum %q repeats value %q", e.Name, v)
			}
			seen[v] = true
		}
	}

	tables := make(map[string]*Table, len(m.Tables))
	for _, t := range m.Tables {
		if _, dup := tables[key(t.Name)]; dup {
			fail(t.Name, "", "table is defined more than once")
		}
		tables[key(t.Name)] = t
	}

	for _, t := range m.Tables {
		cols := make(map[string]*Column, len(t.Columns))
		for _, c := range t.Columns {
			if _, dup := cols[c.Name]; dup {
				fail(t.Name, c.Name, "column is defined more than once")
			}
			cols[c.Name] = c
			if c.Type.Family == FamilyEnum {
				if c.Type.Enum == "" {
					fail(t.Name, c.Name, "enum column has no enum name")
				} else if !enums[c.Type.Enum] {
					fail(t.Name, c.Name, "references undefined enum %q", c.Type.Enum)
				}
			}
			if c.PrimaryKey && c.Type.Arity != ArityRequired {
				fail(t.Name, c.Name, "primary key column must be required")
			}
		}

		for _, idx := range t.Indexes {
			if len(idx.Columns) == 0 {
				fail(t.Name, "", "index %q has no columns", idx.Name)
			}
			for _, col := range idx.Columns {
				if cols[col] == nil {
					fail(t.Name, col, "index %q references nonexistent column", idx.Name)
				}
			}
		}

		for _, fk := range t.ForeignKeys {
			if len(fk.Columns) == 0 || len(fk.Columns) != len(fk.ReferencedColumns) {
				fail(t.Name, "", "foreign key %q has %d local and %d referenced columns",
					fk.Name, len(fk.Columns), len(fk.ReferencedColumns))
			}
			for _, col := range fk.Columns {
				if cols[col] == nil {
					fail(t.Name, col, "foreign key %q references nonexistent local column", fk.Name)
				}
			}
			ref, ok := tables[key(fk.ReferencedTable)]
			if !ok && opts.External != nil && opts.External(fk.ReferencedTable) {
				continue
			}
			if !ok {
				fail(t.Name, "", "foreign key %q references nonexistent table %q", fk.Name, fk.ReferencedTable)
				continue
			}
			for _, col := range fk.ReferencedColumns {
				if ref.Column(col) == nil {
					fail(t.Name, "", "foreign key %q references nonexistent column %q.%q", fk.Name, ref.Name, col)
				}
			}
		}
	}

	return errors.Join(errs...)
}
