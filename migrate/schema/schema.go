// Package schema holds the canonical, dialect-neutral representation of a database structure.
//
// A SchemaModel is built once per diff cycle, either from a declaration (see migrate/converter) or from
// a live database (see migrate/introspect), and is treated as an immutable snapshot afterwards.
package schema

import (
	"strings"
)

// SchemaModel is an ordered set of tables plus the enums they may reference.
type SchemaModel struct {
	Tables []*Table `json:"tables"`
	Enums  []*Enum  `json:"enums,omitempty"`
}

// Table is a database table owned by exactly one SchemaModel.
type Table struct {
	Name        string        `json:"name"`
	Columns     []*Column     `json:"columns"`
	Indexes     []*Index      `json:"indexes,omitempty"`
	ForeignKeys []*ForeignKey `json:"foreignKeys,omitempty"`
}

// Index is a (possibly unique) index over an ordered list of columns.
type Index struct {
	Name      string   `json:"name"`
	Columns   []string `json:"columns"`
	Unique    bool     `json:"unique,omitempty"`
	Clustered *bool    `json:"clustered,omitempty"`
}

// ReferentialAction is the action taken on the referencing rows of a foreign key.
type ReferentialAction int

const (
	NoAction ReferentialAction = iota
	Restrict
	Cascade
	SetNull
	SetDefault
)

// String returns the SQL spelling of the action.
func (a ReferentialAction) String() string {
	switch a {
	case Restrict:
		return "RESTRICT"
	case Cascade:
		return "CASCADE"
	case SetNull:
		return "SET NULL"
	case SetDefault:
		return "SET DEFAULT"
	default:
		return "NO ACTION"
	}
}

// ParseReferentialAction accepts both the SQL spelling ("SET NULL") and the declaration spelling
// ("SetNull").
func ParseReferentialAction(s string) (ReferentialAction, bool) {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", "")) {
	case "NOACTION", "":
		return NoAction, true
	case "RESTRICT":
		return Restrict, true
	case "CASCADE":
		return Cascade, true
	case "SETNULL":
		return SetNull, true
	case "SETDEFAULT":
		return SetDefault, true
	}
	return NoAction, false
}

// ForeignKey maps an ordered list of local columns onto columns of a referenced table.
type ForeignKey struct {
	Name              string            `json:"name"`
	Columns           []string          `json:"columns"`
	ReferencedTable   string            `json:"referencedTable"`
	ReferencedColumns []string          `json:"referencedColumns"`
	OnDelete          ReferentialAction `json:"onDelete"`
	OnUpdate          ReferentialAction `json:"onUpdate"`
}

// Enum is a named, ordered set of values.
type Enum struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// Table returns the table with the given name, or nil.
func (m *SchemaModel) Table(name string) *Table {
	for _, t := range m.Tables {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// TableFold is like Table but compares names case-insensitively.
func (m *SchemaModel) TableFold(name string) *Table {
	for _, t := range m.Tables {
		if strings.EqualFold(t.Name, name) {
			return t
		}
	}
	return nil
}

// Enum returns the enum with the given name, or nil.
func (m *SchemaModel) Enum(name string) *Enum {
	for _, e := range m.Enums {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// TableNames returns the table names in model order.
func (m *SchemaModel) TableNames() []string {
	names := make([]string, len(m.Tables))
	for i, t := range m.Tables {
		names[i] = t.Name
	}
	return names
}

// EnumUsers returns every (table, column) pair whose family references the named enum.
func (m *SchemaModel) EnumUsers(enum string) []ColumnRef {
	var refs []ColumnRef
	for _, t := range m.Tables {
		for _, c := range t.Columns {
			if c.Type.Family == FamilyEnum && c.Type.Enum == enum {
				refs = append(refs, ColumnRef{Table: t.Name, Column: c.Name})
			}
		}
	}
	return refs
}

// ColumnRef identifies a column within a model.
type ColumnRef struct {
	Table  string
	Column string
}

func (r ColumnRef) String() string {
	return r.Table + "." + r.Column
}

// Column returns the column with the given name, or nil.
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Index returns the index with the given name, or nil.
func (t *Table) Index(name string) *Index {
	for _, idx := range t.Indexes {
		if idx.Name == name {
			return idx
		}
	}
	return nil
}

// PrimaryKey returns the primary key column names in column order.
func (t *Table) PrimaryKey() []string {
	var pk []string
	for _, c := range t.Columns {
		if c.PrimaryKey {
			pk = append(pk, c.Name)
		}
	}
	return pk
}

// ReferencedTables returns the distinct tables this table points at through foreign keys.
func (t *Table) ReferencedTables() []string {
	seen := make(map[string]bool)
	var out []string
	for _, fk := range t.ForeignKeys {
		if !seen[fk.ReferencedTable] {
			seen[fk.ReferencedTable] = true
			out = append(out, fk.ReferencedTable)
		}
	}
	return out
}

// Covers reports whether the index or key spans the named column.
func (idx *Index) Covers(column string) bool {
	for _, c := range idx.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// IsClustered treats an unset clustering flag as non-clustered.
func (idx *Index) IsClustered() bool {
	return idx.Clustered != nil && *idx.Clustered
}

// Clone returns a deep copy of the model.
func (m *SchemaModel) Clone() *SchemaModel {
	if m == nil {
		return nil
	}
	out := &SchemaModel{
		Tables: make([]*Table, len(m.Tables)),
		Enums:  make([]*Enum, len(m.Enums)),
	}
	for i, t := range m.Tables {
		out.Tables[i] = t.Clone()
	}
	for i, e := range m.Enums {
		out.Enums[i] = &Enum{Name: e.Name, Values: append([]string(nil), e.Values...)}
	}
	return out
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := &Table{
		Name:        t.Name,
		Columns:     make([]*Column, len(t.Columns)),
		Indexes:     make([]*Index, len(t.Indexes)),
		ForeignKeys: make([]*ForeignKey, len(t.ForeignKeys)),
	}
	for i, c := range t.Columns {
		out.Columns[i] = c.Clone()
	}
	for i, idx := range t.Indexes {
		cp := *idx
		cp.Columns = append([]string(nil), idx.Columns...)
		if idx.Clustered != nil {
			v := *idx.Clustered
			cp.Clustered = &v
		}
		out.Indexes[i] = &cp
	}
	for i, fk := range t.ForeignKeys {
		cp := *fk
		cp.Columns = append([]string(nil), fk.Columns...)
		cp.ReferencedColumns = append([]string(nil), fk.ReferencedColumns...)
		out.ForeignKeys[i] = &cp
	}
	return out
}
