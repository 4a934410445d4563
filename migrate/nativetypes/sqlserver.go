package nativetypes

import (
	"sync"

	"github.com/satishbabariya/schema-engine/migrate/schema"
)

// SQLServer returns the Microsoft SQL Server registry.
var SQLServer = sync.OnceValue(func() *Registry {
	charLen := []Range{{Min: 1, Max: 8000, AllowMax: true}}
	ncharLen := []Range{{Min: 1, Max: 4000, AllowMax: true}}
	fracPrec := []Range{{Min: 0, Max: 7}}
	return NewRegistry("sqlserver", map[schema.Family]schema.NativeType{
		schema.FamilyInt:      {Name: "Int"},
		schema.FamilyBigInt:   {Name: "BigInt"},
		schema.FamilyFloat:    {Name: "Float", Args: []int{53}},
		schema.FamilyDecimal:  {Name: "Decimal", Args: []int{32, 16}},
		schema.FamilyBoolean:  {Name: "Bit"},
		schema.FamilyString:   {Name: "NVarChar", Args: []int{1000}},
		schema.FamilyDateTime: {Name: "DateTime2"},
		schema.FamilyBytes:    {Name: "VarBinary", Args: []int{schema.MaxLength}},
	},
		Constructor{Name: "TinyInt", Families: fam(schema.FamilyInt), DBNames: []string{"tinyint"}, SQLName: "TINYINT", Group: "int", Rank: 1},
		Constructor{Name: "SmallInt", Families: fam(schema.FamilyInt), DBNames: []string{"smallint"}, SQLName: "SMALLINT", Group: "int", Rank: 2},
		Constructor{Name: "Int", Families: fam(schema.FamilyInt), DBNames: []string{"int"}, SQLName: "INT", Group: "int", Rank: 3},
		Constructor{Name: "BigInt", Families: fam(schema.FamilyBigInt), DBNames: []string{"bigint"}, SQLName: "BIGINT", Group: "int", Rank: 4},
		Constructor{Name: "Decimal", Families: fam(schema.FamilyDecimal), Params: precScale, Defaults: []int{18, 0},
			Ranges: []Range{{Min: 1, Max: 38}, {Min: 0, Max: 38}}, DBNames: []string{"decimal", "numeric"}, SQLName: "DECIMAL"},
		Constructor{Name: "Money", Families: fam(schema.FamilyDecimal), DBNames: []string{"money"}, SQLName: "MONEY"},
		Constructor{Name: "SmallMoney", Families: fam(schema.FamilyDecimal), DBNames: []string{"smallmoney"}, SQLName: "SMALLMONEY"},
		Constructor{Name: "Bit", Families: fam(schema.FamilyBoolean, schema.FamilyInt), DBNames: []string{"bit"}, SQLName: "BIT"},
		Constructor{Name: "Float", Families: fam(schema.FamilyFloat), Params: []Param{ParamPrecision}, Defaults: []int{53},
			Ranges: []Range{{Min: 1, Max: 53}}, DBNames: []string{"float"}, SQLName: "FLOAT", Group: "float", Rank: 2},
		Constructor{Name: "Real", Families: fam(schema.FamilyFloat), DBNames: []string{"real"}, SQLName: "REAL", Group: "float", Rank: 1},
		Constructor{Name: "Date", Families: fam(schema.FamilyDateTime), DBNames: []string{"date"}, SQLName: "DATE"},
		Constructor{Name: "Time", Families: fam(schema.FamilyDateTime), Params: timePrec, Ranges: fracPrec, Defaults: []int{7},
			DBNames: []string{"time"}, SQLName: "TIME"},
		Constructor{Name: "DateTime", Families: fam(schema.FamilyDateTime), DBNames: []string{"datetime"}, SQLName: "DATETIME"},
		Constructor{Name: "DateTime2", Families: fam(schema.FamilyDateTime), Params: timePrec, Ranges: fracPrec, Defaults: []int{7},
			DBNames: []string{"datetime2"}, SQLName: "DATETIME2"},
		Constructor{Name: "DateTimeOffset", Families: fam(schema.FamilyDateTime), Params: timePrec, Ranges: fracPrec, Defaults: []int{7},
			DBNames: []string{"datetimeoffset"}, SQLName: "DATETIMEOFFSET"},
		Constructor{Name: "SmallDateTime", Families: fam(schema.FamilyDateTime), DBNames: []string{"smalldatetime"}, SQLName: "SMALLDATETIME"},
		Constructor{Name: "Char", Families: stringOnly, Params: length, Ranges: charLen, Defaults: []int{1},
			DBNames: []string{"char"}, SQLName: "CHAR", Group: "text", Rank: 1},
		Constructor{Name: "NChar", Families: stringOnly, Params: length, Ranges: ncharLen, Defaults: []int{1},
			DBNames: []string{"nchar"}, SQLName: "NCHAR", Group: "ntext", Rank: 1},
		Constructor{Name: "VarChar", Families: stringOnly, Params: length, Ranges: charLen, Defaults: []int{1},
			DBNames: []string{"varchar"}, SQLName: "VARCHAR", Group: "text", Rank: 2},
		Constructor{Name: "NVarChar", Families: stringOnly, Params: length, Ranges: ncharLen, Defaults: []int{1},
			DBNames: []string{"nvarchar"}, SQLName: "NVARCHAR", Group: "ntext", Rank: 2},
		Constructor{Name: "Text", Families: stringOnly, DBNames: []string{"text"}, SQLName: "TEXT"},
		Constructor{Name: "NText", Families: stringOnly, DBNames: []string{"ntext"}, SQLName: "NTEXT"},
		Constructor{Name: "Xml", Families: stringOnly, DBNames: []string{"xml"}, SQLName: "XML"},
		Constructor{Name: "UniqueIdentifier", Families: stringOnly, DBNames: []string{"uniqueidentifier"}, SQLName: "UNIQUEIDENTIFIER"},
		Constructor{Name: "Binary", Families: fam(schema.FamilyBytes), Params: length, Ranges: charLen, Defaults: []int{1},
			DBNames: []string{"binary"}, SQLName: "BINARY", Group: "blob", Rank: 1},
		Constructor{Name: "VarBinary", Families: fam(schema.FamilyBytes), Params: length, Ranges: charLen, Defaults: []int{1},
			DBNames: []string{"varbinary"}, SQLName: "VARBINARY", Group: "blob", Rank: 2},
		Constructor{Name: "Image", Families: fam(schema.FamilyBytes), DBNames: []string{"image"}, SQLName: "IMAGE"},
	)
})
