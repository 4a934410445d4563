package nativetypes

import (
	"sync"

	"github.com/satishbabariya/schema-engine/migrate/schema"
)

var (
	length     = []Param{ParamLength}
	timePrec   = []Param{ParamTimePrecision}
	precScale  = []Param{ParamPrecision, ParamScale}
	lenRange   = []Range{{Min: 1, Max: 10485760}}
	timeRange  = []Range{{Min: 0, Max: 6}}
	fam        = func(f ...schema.Family) []schema.Family { return f }
	stringOnly = fam(schema.FamilyString)
)

// Postgres returns the PostgreSQL registry.
var Postgres = sync.OnceValue(func() *Registry {
	return NewRegistry("postgres", map[schema.Family]schema.NativeType{
		schema.FamilyInt:      {Name: "Integer"},
		schema.FamilyBigInt:   {Name: "BigInt"},
		schema.FamilyFloat:    {Name: "DoublePrecision"},
		schema.FamilyDecimal:  {Name: "Decimal", Args: []int{65, 30}},
		schema.FamilyBoolean:  {Name: "Boolean"},
		schema.FamilyString:   {Name: "Text"},
		schema.FamilyDateTime: {Name: "Timestamp", Args: []int{3}},
		schema.FamilyBytes:    {Name: "ByteA"},
		schema.FamilyJSON:     {Name: "JsonB"},
	},
		Constructor{Name: "SmallInt", Families: fam(schema.FamilyInt), DBNames: []string{"int2"}, SQLName: "SMALLINT", Group: "int", Rank: 1},
		Constructor{Name: "Integer", Families: fam(schema.FamilyInt), DBNames: []string{"int4"}, SQLName: "INTEGER", Group: "int", Rank: 2},
		Constructor{Name: "BigInt", Families: fam(schema.FamilyBigInt), DBNames: []string{"int8"}, SQLName: "BIGINT", Group: "int", Rank: 3},
		Constructor{Name: "Oid", Families: fam(schema.FamilyInt), DBNames: []string{"oid"}, SQLName: "OID"},
		Constructor{Name: "Decimal", Families: fam(schema.FamilyDecimal), Params: precScale,
			Ranges: []Range{{Min: 1, Max: 1000}, {Min: 0, Max: 1000}}, DBNames: []string{"numeric"}, SQLName: "DECIMAL"},
		Constructor{Name: "Money", Families: fam(schema.FamilyDecimal), DBNames: []string{"money"}, SQLName: "MONEY"},
		Constructor{Name: "Real", Families: fam(schema.FamilyFloat), DBNames: []string{"float4"}, SQLName: "REAL", Group: "float", Rank: 1},
		Constructor{Name: "DoublePrecision", Families: fam(schema.FamilyFloat), DBNames: []string{"float8"}, SQLName: "DOUBLE PRECISION", Group: "float", Rank: 2},
		Constructor{Name: "Char", Families: stringOnly, Params: length, Ranges: lenRange, Defaults: []int{1},
			DBNames: []string{"bpchar"}, SQLName: "CHAR", Group: "text", Rank: 1},
		Constructor{Name: "VarChar", Families: stringOnly, Params: length, Ranges: lenRange,
			DBNames: []string{"varchar"}, SQLName: "VARCHAR", Group: "text", Rank: 2},
		Constructor{Name: "Text", Families: stringOnly, DBNames: []string{"text"}, SQLName: "TEXT", Group: "text", Rank: 3},
		Constructor{Name: "Bit", Families: stringOnly, Params: length, Ranges: lenRange, Defaults: []int{1},
			DBNames: []string{"bit"}, SQLName: "BIT", Group: "bit", Rank: 1},
		Constructor{Name: "VarBit", Families: stringOnly, Params: length, Ranges: lenRange,
			DBNames: []string{"varbit"}, SQLName: "VARBIT", Group: "bit", Rank: 2},
		Constructor{Name: "Uuid", Families: stringOnly, DBNames: []string{"uuid"}, SQLName: "UUID"},
		Constructor{Name: "Xml", Families: stringOnly, DBNames: []string{"xml"}, SQLName: "XML"},
		Constructor{Name: "Inet", Families: stringOnly, DBNames: []string{"inet"}, SQLName: "INET"},
		Constructor{Name: "Citext", Families: stringOnly, DBNames: []string{"citext"}, SQLName: "CITEXT"},
		Constructor{Name: "ByteA", Families: fam(schema.FamilyBytes), DBNames: []string{"bytea"}, SQLName: "BYTEA"},
		Constructor{Name: "Timestamp", Families: fam(schema.FamilyDateTime), Params: timePrec, Ranges: timeRange, Defaults: []int{6},
			DBNames: []string{"timestamp"}, SQLName: "TIMESTAMP"},
		Constructor{Name: "Timestamptz", Families: fam(schema.FamilyDateTime), Params: timePrec, Ranges: timeRange, Defaults: []int{6},
			DBNames: []string{"timestamptz"}, SQLName: "TIMESTAMPTZ"},
		Constructor{Name: "Date", Families: fam(schema.FamilyDateTime), DBNames: []string{"date"}, SQLName: "DATE"},
		Constructor{Name: "Time", Families: fam(schema.FamilyDateTime), Params: timePrec, Ranges: timeRange, Defaults: []int{6},
			DBNames: []string{"time"}, SQLName: "TIME"},
		Constructor{Name: "Timetz", Families: fam(schema.FamilyDateTime), Params: timePrec, Ranges: timeRange, Defaults: []int{6},
			DBNames: []string{"timetz"}, SQLName: "TIMETZ"},
		Constructor{Name: "Boolean", Families: fam(schema.FamilyBoolean), DBNames: []string{"bool"}, SQLName: "BOOLEAN"},
		Constructor{Name: "Json", Families: fam(schema.FamilyJSON), DBNames: []string{"json"}, SQLName: "JSON"},
		Constructor{Name: "JsonB", Families: fam(schema.FamilyJSON), DBNames: []string{"jsonb"}, SQLName: "JSONB"},
	)
})

// CockroachDB returns the CockroachDB registry. Catalog names follow the postgres wire protocol.
var CockroachDB = sync.OnceValue(func() *Registry {
	return NewRegistry("cockroachdb", map[schema.Family]schema.NativeType{
		schema.FamilyInt:      {Name: "Int4"},
		schema.FamilyBigInt:   {Name: "Int8"},
		schema.FamilyFloat:    {Name: "Float8"},
		schema.FamilyDecimal:  {Name: "Decimal", Args: []int{65, 30}},
		schema.FamilyBoolean:  {Name: "Bool"},
		schema.FamilyString:   {Name: "String"},
		schema.FamilyDateTime: {Name: "Timestamp", Args: []int{3}},
		schema.FamilyBytes:    {Name: "Bytes"},
		schema.FamilyJSON:     {Name: "JsonB"},
	},
		Constructor{Name: "Int2", Families: fam(schema.FamilyInt), DBNames: []string{"int2"}, SQLName: "INT2", Group: "int", Rank: 1},
		Constructor{Name: "Int4", Families: fam(schema.FamilyInt), DBNames: []string{"int4"}, SQLName: "INT4", Group: "int", Rank: 2},
		Constructor{Name: "Int8", Families: fam(schema.FamilyBigInt), DBNames: []string{"int8"}, SQLName: "INT8", Group: "int", Rank: 3},
		Constructor{Name: "Oid", Families: fam(schema.FamilyInt), DBNames: []string{"oid"}, SQLName: "OID"},
		Constructor{Name: "Decimal", Families: fam(schema.FamilyDecimal), Params: precScale,
			Ranges: []Range{{Min: 1, Max: 1000}, {Min: 0, Max: 1000}}, DBNames: []string{"numeric"}, SQLName: "DECIMAL"},
		Constructor{Name: "Float4", Families: fam(schema.FamilyFloat), DBNames: []string{"float4"}, SQLName: "FLOAT4", Group: "float", Rank: 1},
		Constructor{Name: "Float8", Families: fam(schema.FamilyFloat), DBNames: []string{"float8"}, SQLName: "FLOAT8", Group: "float", Rank: 2},
		Constructor{Name: "Char", Families: stringOnly, Params: length, Ranges: lenRange, Defaults: []int{1},
			DBNames: []string{"bpchar"}, SQLName: "CHAR", Group: "text", Rank: 1},
		Constructor{Name: "String", Families: stringOnly, Params: length, Ranges: lenRange,
			DBNames: []string{"text", "varchar"}, SQLName: "STRING", Group: "text", Rank: 2},
		Constructor{Name: "CatalogSingleChar", Families: stringOnly, DBNames: []string{"char"}, SQLName: `"char"`},
		Constructor{Name: "Bit", Families: stringOnly, Params: length, Ranges: lenRange, Defaults: []int{1},
			DBNames: []string{"bit"}, SQLName: "BIT", Group: "bit", Rank: 1},
		Constructor{Name: "VarBit", Families: stringOnly, Params: length, Ranges: lenRange,
			DBNames: []string{"varbit"}, SQLName: "VARBIT", Group: "bit", Rank: 2},
		Constructor{Name: "Uuid", Families: stringOnly, DBNames: []string{"uuid"}, SQLName: "UUID"},
		Constructor{Name: "Inet", Families: stringOnly, DBNames: []string{"inet"}, SQLName: "INET"},
		Constructor{Name: "Bytes", Families: fam(schema.FamilyBytes), DBNames: []string{"bytea"}, SQLName: "BYTES"},
		Constructor{Name: "Timestamp", Families: fam(schema.FamilyDateTime), Params: timePrec, Ranges: timeRange, Defaults: []int{6},
			DBNames: []string{"timestamp"}, SQLName: "TIMESTAMP"},
		Constructor{Name: "Timestamptz", Families: fam(schema.FamilyDateTime), Params: timePrec, Ranges: timeRange, Defaults: []int{6},
			DBNames: []string{"timestamptz"}, SQLName: "TIMESTAMPTZ"},
		Constructor{Name: "Date", Families: fam(schema.FamilyDateTime), DBNames: []string{"date"}, SQLName: "DATE"},
		Constructor{Name: "Time", Families: fam(schema.FamilyDateTime), Params: timePrec, Ranges: timeRange, Defaults: []int{6},
			DBNames: []string{"time"}, SQLName: "TIME"},
		Constructor{Name: "Timetz", Families: fam(schema.FamilyDateTime), Params: timePrec, Ranges: timeRange, Defaults: []int{6},
			DBNames: []string{"timetz"}, SQLName: "TIMETZ"},
		Constructor{Name: "Bool", Families: fam(schema.FamilyBoolean), DBNames: []string{"bool"}, SQLName: "BOOL"},
		Constructor{Name: "JsonB", Families: fam(schema.FamilyJSON), DBNames: []string{"jsonb"}, SQLName: "JSONB"},
	)
})
