package nativetypes

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/schema-engine/migrate/schema"
)

func intp(v int) *int { return &v }

// postgresRoundTrip lists declared native types with the catalog row postgres reports for them.
var postgresRoundTrip = []struct {
	field   string
	family  schema.Family
	native  *schema.NativeType
	dbName  string
	catalog DBType
}{
	{"smallint", schema.FamilyInt, schema.NewNativeType("SmallInt"), "int2", DBType{Name: "int2"}},
	{"int", schema.FamilyInt, schema.NewNativeType("Integer"), "int4", DBType{Name: "int4"}},
	{"bigint", schema.FamilyBigInt, schema.NewNativeType("BigInt"), "int8", DBType{Name: "int8"}},
	{"decimal", schema.FamilyDecimal, schema.NewNativeType("Decimal", 4, 2), "numeric", DBType{Name: "numeric", Precision: intp(4), Scale: intp(2)}},
	{"decimaldefault", schema.FamilyDecimal, schema.NewNativeType("Decimal"), "numeric", DBType{Name: "numeric"}},
	{"real", schema.FamilyFloat, schema.NewNativeType("Real"), "float4", DBType{Name: "float4"}},
	{"doublePrecision", schema.FamilyFloat, schema.NewNativeType("DoublePrecision"), "float8", DBType{Name: "float8"}},
	{"varChar", schema.FamilyString, schema.NewNativeType("VarChar", 200), "varchar", DBType{Name: "varchar", Length: intp(200)}},
	{"char", schema.FamilyString, schema.NewNativeType("Char", 200), "bpchar", DBType{Name: "bpchar", Length: intp(200)}},
	{"text", schema.FamilyString, schema.NewNativeType("Text"), "text", DBType{Name: "text"}},
	{"bytea", schema.FamilyBytes, schema.NewNativeType("ByteA"), "bytea", DBType{Name: "bytea"}},
	{"ts", schema.FamilyDateTime, schema.NewNativeType("Timestamp", 0), "timestamp", DBType{Name: "timestamp", TimePrecision: intp(0)}},
	{"tsdefault", schema.FamilyDateTime, schema.NewNativeType("Timestamp"), "timestamp", DBType{Name: "timestamp", TimePrecision: intp(6)}},
	{"tstz", schema.FamilyDateTime, schema.NewNativeType("Timestamptz"), "timestamptz", DBType{Name: "timestamptz", TimePrecision: intp(6)}},
	{"date", schema.FamilyDateTime, schema.NewNativeType("Date"), "date", DBType{Name: "date", TimePrecision: intp(0)}},
	{"time", schema.FamilyDateTime, schema.NewNativeType("Time", 2), "time", DBType{Name: "time", TimePrecision: intp(2)}},
	{"timedefault", schema.FamilyDateTime, schema.NewNativeType("Time"), "time", DBType{Name: "time", TimePrecision: intp(6)}},
	{"timetz", schema.FamilyDateTime, schema.NewNativeType("Timetz", 2), "timetz", DBType{Name: "timetz", TimePrecision: intp(2)}},
	{"timetzdefault", schema.FamilyDateTime, schema.NewNativeType("Timetz"), "timetz", DBType{Name: "timetz", TimePrecision: intp(6)}},
	{"bool", schema.FamilyBoolean, schema.NewNativeType("Boolean"), "bool", DBType{Name: "bool"}},
	{"bit", schema.FamilyString, schema.NewNativeType("Bit", 1), "bit", DBType{Name: "bit", Length: intp(1)}},
	{"varbit", schema.FamilyString, schema.NewNativeType("VarBit", 1), "varbit", DBType{Name: "varbit", Length: intp(1)}},
	{"uuid", schema.FamilyString, schema.NewNativeType("Uuid"), "uuid", DBType{Name: "uuid"}},
	{"xml", schema.FamilyString, schema.NewNativeType("Xml"), "xml", DBType{Name: "xml"}},
	{"json", schema.FamilyJSON, schema.NewNativeType("Json"), "json", DBType{Name: "json"}},
	{"jsonb", schema.FamilyJSON, schema.NewNativeType("JsonB"), "jsonb", DBType{Name: "jsonb"}},
	{"money", schema.FamilyDecimal, schema.NewNativeType("Money"), "money", DBType{Name: "money"}},
	{"inet", schema.FamilyString, schema.NewNativeType("Inet"), "inet", DBType{Name: "inet"}},
	{"oid", schema.FamilyInt, schema.NewNativeType("Oid"), "oid", DBType{Name: "oid"}},
}

func TestPostgres_NativeTypeRoundTrip(t *testing.T) {
	reg := Postgres()

	for _, tt := range postgresRoundTrip {
		t.Run(tt.field, func(t *testing.T) {
			resolved, err := reg.Resolve(tt.family, tt.native)
			require.NoError(t, err)
			assert.Equal(t, tt.native, resolved)
			assert.Equal(t, tt.dbName, reg.DatabaseName(resolved))

			family, introspected, ok := reg.FromDatabase(tt.catalog)
			require.True(t, ok)
			assert.Equal(t, tt.family, family)
			assert.True(t, reg.AreEquivalent(tt.family, tt.native, introspected),
				"declared %s, introspected %s", tt.native, introspected)
		})
	}
}

func TestResolve_DefaultsPerFamily(t *testing.T) {
	tests := []struct {
		reg    *Registry
		family schema.Family
		want   string
	}{
		{Postgres(), schema.FamilyDateTime, "Timestamp(3)"},
		{Postgres(), schema.FamilyString, "Text"},
		{Postgres(), schema.FamilyDecimal, "Decimal(65,30)"},
		{CockroachDB(), schema.FamilyString, "String"},
		{MySQL(), schema.FamilyString, "VarChar(191)"},
		{SQLite(), schema.FamilyJSON, "Jsonb"},
		{SQLServer(), schema.FamilyBytes, "VarBinary(Max)"},
	}

	for _, tt := range tests {
		t.Run(tt.reg.Connector()+"/"+tt.family.String(), func(t *testing.T) {
			nt, err := tt.reg.Resolve(tt.family, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, nt.String())
		})
	}
}

func TestResolve_EnumAndUnsupportedHaveNoNativeType(t *testing.T) {
	nt, err := Postgres().Resolve(schema.FamilyEnum, nil)
	require.NoError(t, err)
	assert.Nil(t, nt)
}

func TestResolve_MissingFamilyDefault(t *testing.T) {
	_, err := SQLServer().Resolve(schema.FamilyJSON, nil)
	assert.ErrorIs(t, err, ErrUnsupportedNativeType)
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		reg    *Registry
		family schema.Family
		nt     *schema.NativeType
	}{
		{"unknown type", Postgres(), schema.FamilyString, schema.NewNativeType("Geography")},
		{"wrong family", Postgres(), schema.FamilyInt, schema.NewNativeType("Uuid")},
		{"too many args", Postgres(), schema.FamilyString, schema.NewNativeType("Text", 3)},
		{"missing required arg", MySQL(), schema.FamilyString, schema.NewNativeType("VarChar")},
		{"out of range", Postgres(), schema.FamilyDateTime, schema.NewNativeType("Timestamp", 9)},
		{"max not allowed", MySQL(), schema.FamilyString, schema.NewNativeType("VarChar", schema.MaxLength)},
		{"sqlite has no varchar", SQLite(), schema.FamilyString, schema.NewNativeType("VarChar", 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.reg.Validate(tt.family, tt.nt)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnsupportedNativeType)

			var nerr *UnsupportedNativeTypeError
			require.True(t, errors.As(err, &nerr))
			assert.Equal(t, tt.reg.Connector(), nerr.Connector)

			attributed := nerr.ForColumn("A", "col")
			assert.Contains(t, attributed.Error(), `"A"."col"`)
		})
	}
}

func TestAreEquivalent(t *testing.T) {
	pg := Postgres()

	assert.True(t, pg.AreEquivalent(schema.FamilyDateTime, nil, schema.NewNativeType("Timestamp", 3)))
	assert.True(t, pg.AreEquivalent(schema.FamilyDateTime, schema.NewNativeType("Timestamp"), schema.NewNativeType("Timestamp", 6)))
	assert.True(t, pg.AreEquivalent(schema.FamilyString, schema.NewNativeType("char"), schema.NewNativeType("Char", 1)))
	assert.True(t, pg.AreEquivalent(schema.FamilyString, nil, schema.NewNativeType("Text")))

	assert.False(t, pg.AreEquivalent(schema.FamilyDateTime, nil, schema.NewNativeType("Timestamp", 6)))
	assert.False(t, pg.AreEquivalent(schema.FamilyString, schema.NewNativeType("VarChar"), schema.NewNativeType("VarChar", 10)))
	assert.False(t, pg.AreEquivalent(schema.FamilyDecimal, nil, schema.NewNativeType("Decimal")))
}

func TestWidens(t *testing.T) {
	pg := Postgres()

	tests := []struct {
		family   schema.Family
		from, to *schema.NativeType
		want     bool
	}{
		{schema.FamilyString, schema.NewNativeType("VarChar", 10), schema.NewNativeType("VarChar", 20), true},
		{schema.FamilyString, schema.NewNativeType("VarChar", 20), schema.NewNativeType("VarChar", 10), false},
		{schema.FamilyString, schema.NewNativeType("VarChar", 20), schema.NewNativeType("Text"), true},
		{schema.FamilyString, schema.NewNativeType("Text"), schema.NewNativeType("VarChar", 20), false},
		{schema.FamilyString, schema.NewNativeType("VarChar", 20), schema.NewNativeType("VarChar"), true},
		{schema.FamilyInt, schema.NewNativeType("SmallInt"), nil, true},
		{schema.FamilyInt, nil, schema.NewNativeType("SmallInt"), false},
		{schema.FamilyDecimal, schema.NewNativeType("Decimal", 4, 2), schema.NewNativeType("Decimal", 6, 2), true},
		{schema.FamilyDecimal, schema.NewNativeType("Decimal", 6, 4), schema.NewNativeType("Decimal", 6, 2), false},
		{schema.FamilyString, schema.NewNativeType("Uuid"), schema.NewNativeType("Text"), false},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, pg.Widens(tt.family, tt.from, tt.to))
		})
	}
}

func TestFromDatabase_Unknown(t *testing.T) {
	family, nt, ok := Postgres().FromDatabase(DBType{Name: "geometry"})
	assert.False(t, ok)
	assert.Nil(t, nt)
	assert.Equal(t, schema.FamilyUnsupported, family)
}

func TestSQL(t *testing.T) {
	assert.Equal(t, "DOUBLE PRECISION", Postgres().SQL(schema.NewNativeType("DoublePrecision")))
	assert.Equal(t, "VARCHAR(200)", Postgres().SQL(schema.NewNativeType("VarChar", 200)))
	assert.Equal(t, "NVARCHAR(MAX)", SQLServer().SQL(schema.NewNativeType("NVarChar", schema.MaxLength)))
}
