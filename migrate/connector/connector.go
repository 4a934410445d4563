// Package connector describes what each supported database can express.
//
// A Descriptor is fixed configuration: the step kinds a dialect supports natively, its native type
// registry, and the drift denylist and default allow-list. The differ and planner consume it through
// narrow interfaces, so neither branches on connector identity.
package connector

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/satishbabariya/schema-engine/migrate/nativetypes"
	"github.com/satishbabariya/schema-engine/migrate/schema"
)

var (
	ErrUnsupportedProvider = errors.New("unsupported database provider")
)

// StepKind enumerates the structural operations a plan is built from.
type StepKind int

const (
	CreateTable StepKind = iota + 1
	DropTable
	RedefineTable
	AddColumn
	DropColumn
	AlterColumn
	CreateIndex
	DropIndex
	AddForeignKey
	DropForeignKey
	CreateEnum
	DropEnum
	AlterEnum
)

var stepKindNames = [...]string{
	CreateTable:    "CreateTable",
	DropTable:      "DropTable",
	RedefineTable:  "RedefineTable",
	AddColumn:      "AddColumn",
	DropColumn:     "DropColumn",
	AlterColumn:    "AlterColumn",
	CreateIndex:    "CreateIndex",
	DropIndex:      "DropIndex",
	AddForeignKey:  "AddForeignKey",
	DropForeignKey: "DropForeignKey",
	CreateEnum:     "CreateEnum",
	DropEnum:       "DropEnum",
	AlterEnum:      "AlterEnum",
}

func (k StepKind) String() string {
	if k > 0 && int(k) < len(stepKindNames) {
		return stepKindNames[k]
	}
	return fmt.Sprintf("StepKind(%d)", int(k))
}

// AllStepKinds lists every step kind in declaration order.
func AllStepKinds() []StepKind {
	kinds := make([]StepKind, 0, len(stepKindNames)-1)
	for k := CreateTable; k <= AlterEnum; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// EnumStrategy says how a dialect materializes enums.
type EnumStrategy int

const (
	// EnumsNative uses named database types (CREATE TYPE ... AS ENUM).
	EnumsNative EnumStrategy = iota
	// EnumsInline declares the values on each column, e.g. MySQL ENUM('a','b').
	EnumsInline
	// EnumsUnsupported cannot store enums at all.
	EnumsUnsupported
)

// Descriptor is the capability set of one connector.
type Descriptor struct {
	Name string
	// Driver is the database/sql driver name used to open connections.
	Driver string

	Registry *nativetypes.Registry

	steps map[StepKind]bool

	Enums            EnumStrategy
	ScalarLists      bool
	TransactionalDDL bool
	// CaseInsensitiveNames makes table name comparison fold case.
	CaseInsensitiveNames bool
	// ExpressionDefaultsOnAdd is false when ADD COLUMN rejects non-constant defaults.
	ExpressionDefaultsOnAdd bool

	// Denylist holds externally-owned table names, compared case-insensitively.
	Denylist []string
	// GeneratedDefaults maps allow-listed function signatures, written as "name()", onto the
	// canonical default they normalize to.
	GeneratedDefaults map[string]schema.DefaultValue
}

// Supports reports whether the connector can express a step kind natively.
func (d *Descriptor) Supports(kind StepKind) bool {
	return d.steps[kind]
}

// SupportedSteps lists the natively supported step kinds.
func (d *Descriptor) SupportedSteps() []StepKind {
	var out []StepKind
	for _, k := range AllStepKinds() {
		if d.steps[k] {
			out = append(out, k)
		}
	}
	return out
}

// IsDenylisted reports whether a table is externally owned and must be left alone.
func (d *Descriptor) IsDenylisted(table string) bool {
	for _, name := range d.Denylist {
		if strings.EqualFold(name, table) {
			return true
		}
	}
	return false
}

// WithDenylist returns a copy of the descriptor with extra denylisted tables.
func (d *Descriptor) WithDenylist(tables ...string) *Descriptor {
	if len(tables) == 0 {
		return d
	}
	cp := *d
	cp.Denylist = append(slices.Clone(d.Denylist), tables...)
	return &cp
}

// NativeTypes exposes the registry.
func (d *Descriptor) NativeTypes() *nativetypes.Registry {
	return d.Registry
}

// AreEquivalent delegates to the registry.
func (d *Descriptor) AreEquivalent(family schema.Family, a, b *schema.NativeType) bool {
	return d.Registry.AreEquivalent(family, a, b)
}

// Widens delegates to the registry.
func (d *Descriptor) Widens(family schema.Family, from, to *schema.NativeType) bool {
	return d.Registry.Widens(family, from, to)
}

// FoldNames reports whether table names compare case-insensitively.
func (d *Descriptor) FoldNames() bool {
	return d.CaseInsensitiveNames
}

// SupportsScalarLists reports whether list columns can be stored.
func (d *Descriptor) SupportsScalarLists() bool {
	return d.ScalarLists
}

// EnumStrategy reports how enums are stored.
func (d *Descriptor) EnumStrategy() EnumStrategy {
	return d.Enums
}

// AllowsExpressionDefaultsOnAdd reports whether ADD COLUMN accepts non-constant defaults.
func (d *Descriptor) AllowsExpressionDefaultsOnAdd() bool {
	return d.ExpressionDefaultsOnAdd
}

// ValidateOptions returns the model validation options matching the connector. Denylisted tables
// count as external.
func (d *Descriptor) ValidateOptions() schema.ValidateOptions {
	return schema.ValidateOptions{CaseInsensitiveNames: d.CaseInsensitiveNames, External: d.IsDenylisted}
}

// Validate checks the model invariants and every explicit native type against the registry.
// Violations are joined; each matches schema.ErrInvalidModel or nativetypes.ErrUnsupportedNativeType.
func (d *Descriptor) Validate(m *schema.SchemaModel) error {
	errs := []error{m.ValidateWith(d.ValidateOptions())}
	for _, t := range m.Tables {
		for _, c := range t.Columns {
			if c.Type.Native == nil {
				continue
			}
			err := d.Registry.Validate(c.Type.Family, c.Type.Native)
			var unsupported *nativetypes.UnsupportedNativeTypeError
			if errors.As(err, &unsupported) {
				err = unsupported.ForColumn(t.Name, c.Name)
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ForProvider returns the descriptor for a provider name as written in a datasource block.
func ForProvider(provider string) (*Descriptor, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "postgresql", "postgres":
		return Postgres(), nil
	case "cockroachdb", "cockroach":
		return CockroachDB(), nil
	case "mysql":
		return MySQL(), nil
	case "sqlite", "sqlite3":
		return SQLite(), nil
	case "sqlserver", "mssql":
		return SQLServer(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
	}
}

// Providers lists the canonical provider names.
func Providers() []string {
	names := []string{"postgres", "cockroachdb", "mysql", "sqlite", "sqlserver"}
	sort.Strings(names)
	return names
}

// DetectProvider guesses the provider from a connection URL.
func DetectProvider(url string) string {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return "postgres"
	case strings.HasPrefix(url, "cockroachdb://"):
		return "cockroachdb"
	case strings.HasPrefix(url, "mysql://"):
		return "mysql"
	case strings.HasPrefix(url, "sqlserver://"):
		return "sqlserver"
	case strings.HasPrefix(url, "file:"), strings.HasSuffix(url, ".db"), strings.HasSuffix(url, ".sqlite"):
		return "sqlite"
	default:
		return ""
	}
}

func kinds(ks ...StepKind) map[StepKind]bool {
	m := make(map[StepKind]bool, len(ks))
	for _, k := range ks {
		m[k] = true
	}
	return m
}

func except(ks ...StepKind) map[StepKind]bool {
	m := kinds(AllStepKinds()...)
	for _, k := range ks {
		delete(m, k)
	}
	return m
}
