package nativetypes

import (
	"sync"

	"github.com/satishbabariya/schema-engine/migrate/schema"
)

// SQLite returns the SQLite registry. SQLite has type affinities rather than native types, so only
// the canonical spelling of each family is accepted.
var SQLite = sync.OnceValue(func() *Registry {
	return NewRegistry("sqlite", map[schema.Family]schema.NativeType{
		schema.FamilyInt:      {Name: "Integer"},
		schema.FamilyBigInt:   {Name: "BigInt"},
		schema.FamilyFloat:    {Name: "Real"},
		schema.FamilyDecimal:  {Name: "Decimal"},
		schema.FamilyBoolean:  {Name: "Boolean"},
		schema.FamilyString:   {Name: "Text"},
		schema.FamilyDateTime: {Name: "DateTime"},
		schema.FamilyBytes:    {Name: "Blob"},
		schema.FamilyJSON:     {Name: "Jsonb"},
	},
		Constructor{Name: "Integer", Families: fam(schema.FamilyInt), DBNames: []string{"integer", "int"}, SQLName: "INTEGER", Group: "int", Rank: 1},
		Constructor{Name: "BigInt", Families: fam(schema.FamilyBigInt), DBNames: []string{"bigint"}, SQLName: "BIGINT", Group: "int", Rank: 2},
		Constructor{Name: "Real", Families: fam(schema.FamilyFloat), DBNames: []string{"real", "double", "float"}, SQLName: "REAL"},
		Constructor{Name: "Decimal", Families: fam(schema.FamilyDecimal), DBNames: []string{"decimal", "numeric"}, SQLName: "DECIMAL"},
		Constructor{Name: "Boolean", Families: fam(schema.FamilyBoolean), DBNames: []string{"boolean"}, SQLName: "BOOLEAN"},
		Constructor{Name: "Text", Families: stringOnly, DBNames: []string{"text", "varchar"}, SQLName: "TEXT"},
		Constructor{Name: "DateTime", Families: fam(schema.FamilyDateTime), DBNames: []string{"datetime"}, SQLName: "DATETIME"},
		Constructor{Name: "Blob", Families: fam(schema.FamilyBytes), DBNames: []string{"blob"}, SQLName: "BLOB"},
		Constructor{Name: "Jsonb", Families: fam(schema.FamilyJSON), DBNames: []string{"jsonb"}, SQLName: "JSONB"},
	)
})
