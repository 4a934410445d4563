package nativetypes

import (
	"sync"

	"github.com/satishbabariya/schema-engine/migrate/schema"
)

// MySQL returns the MySQL registry. Unsigned integer types are looked up as "<type> unsigned".
var MySQL = sync.OnceValue(func() *Registry {
	intFam := fam(schema.FamilyInt)
	myTime := []Range{{Min: 0, Max: 6}}
	return NewRegistry("mysql", map[schema.Family]schema.NativeType{
		schema.FamilyInt:      {Name: "Int"},
		schema.FamilyBigInt:   {Name: "BigInt"},
		schema.FamilyFloat:    {Name: "Double"},
		schema.FamilyDecimal:  {Name: "Decimal", Args: []int{65, 30}},
		schema.FamilyBoolean:  {Name: "TinyInt"},
		schema.FamilyString:   {Name: "VarChar", Args: []int{191}},
		schema.FamilyDateTime: {Name: "DateTime", Args: []int{3}},
		schema.FamilyBytes:    {Name: "LongBlob"},
		schema.FamilyJSON:     {Name: "Json"},
	},
		Constructor{Name: "TinyInt", Families: fam(schema.FamilyInt, schema.FamilyBoolean), DBNames: []string{"tinyint"}, SQLName: "TINYINT", Group: "int", Rank: 1},
		Constructor{Name: "UnsignedTinyInt", Families: intFam, DBNames: []string{"tinyint unsigned"}, SQLName: "TINYINT UNSIGNED", Group: "uint", Rank: 1},
		Constructor{Name: "SmallInt", Families: intFam, DBNames: []string{"smallint"}, SQLName: "SMALLINT", Group: "int", Rank: 2},
		Constructor{Name: "UnsignedSmallInt", Families: intFam, DBNames: []string{"smallint unsigned"}, SQLName: "SMALLINT UNSIGNED", Group: "uint", Rank: 2},
		Constructor{Name: "MediumInt", Families: intFam, DBNames: []string{"mediumint"}, SQLName: "MEDIUMINT", Group: "int", Rank: 3},
		Constructor{Name: "UnsignedMediumInt", Families: intFam, DBNames: []string{"mediumint unsigned"}, SQLName: "MEDIUMINT UNSIGNED", Group: "uint", Rank: 3},
		Constructor{Name: "Int", Families: intFam, DBNames: []string{"int"}, SQLName: "INT", Group: "int", Rank: 4},
		Constructor{Name: "UnsignedInt", Families: intFam, DBNames: []string{"int unsigned"}, SQLName: "INT UNSIGNED", Group: "uint", Rank: 4},
		Constructor{Name: "BigInt", Families: fam(schema.FamilyBigInt), DBNames: []string{"bigint"}, SQLName: "BIGINT", Group: "int", Rank: 5},
		Constructor{Name: "UnsignedBigInt", Families: fam(schema.FamilyBigInt), DBNames: []string{"bigint unsigned"}, SQLName: "BIGINT UNSIGNED", Group: "uint", Rank: 5},
		Constructor{Name: "Decimal", Families: fam(schema.FamilyDecimal), Params: precScale, Defaults: []int{10, 0},
			Ranges: []Range{{Min: 1, Max: 65}, {Min: 0, Max: 30}}, DBNames: []string{"decimal"}, SQLName: "DECIMAL"},
		Constructor{Name: "Float", Families: fam(schema.FamilyFloat), DBNames: []string{"float"}, SQLName: "FLOAT", Group: "float", Rank: 1},
		Constructor{Name: "Double", Families: fam(schema.FamilyFloat), DBNames: []string{"double"}, SQLName: "DOUBLE", Group: "float", Rank: 2},
		Constructor{Name: "Bit", Families: fam(schema.FamilyBoolean, schema.FamilyBytes), Params: length, Defaults: []int{1},
			Ranges: []Range{{Min: 1, Max: 64}}, DBNames: []string{"bit"}, SQLName: "BIT"},
		Constructor{Name: "Char", Families: stringOnly, Params: length, Defaults: []int{1},
			Ranges: []Range{{Min: 0, Max: 255}}, DBNames: []string{"char"}, SQLName: "CHAR", Group: "text", Rank: 1},
		Constructor{Name: "VarChar", Families: stringOnly, Params: length, Required: 1,
			Ranges: []Range{{Min: 1, Max: 65535}}, DBNames: []string{"varchar"}, SQLName: "VARCHAR", Group: "text", Rank: 2},
		Constructor{Name: "TinyText", Families: stringOnly, DBNames: []string{"tinytext"}, SQLName: "TINYTEXT", Group: "text", Rank: 3},
		Constructor{Name: "Text", Families: stringOnly, DBNames: []string{"text"}, SQLName: "TEXT", Group: "text", Rank: 4},
		Constructor{Name: "MediumText", Families: stringOnly, DBNames: []string{"mediumtext"}, SQLName: "MEDIUMTEXT", Group: "text", Rank: 5},
		Constructor{Name: "LongText", Families: stringOnly, DBNames: []string{"longtext"}, SQLName: "LONGTEXT", Group: "text", Rank: 6},
		Constructor{Name: "Binary", Families: fam(schema.FamilyBytes), Params: length, Defaults: []int{1},
			Ranges: []Range{{Min: 0, Max: 255}}, DBNames: []string{"binary"}, SQLName: "BINARY", Group: "blob", Rank: 1},
		Constructor{Name: "VarBinary", Families: fam(schema.FamilyBytes), Params: length, Required: 1,
			Ranges: []Range{{Min: 1, Max: 65535}}, DBNames: []string{"varbinary"}, SQLName: "VARBINARY", Group: "blob", Rank: 2},
		Constructor{Name: "TinyBlob", Families: fam(schema.FamilyBytes), DBNames: []string{"tinyblob"}, SQLName: "TINYBLOB", Group: "blob", Rank: 3},
		Constructor{Name: "Blob", Families: fam(schema.FamilyBytes), DBNames: []string{"blob"}, SQLName: "BLOB", Group: "blob", Rank: 4},
		Constructor{Name: "MediumBlob", Families: fam(schema.FamilyBytes), DBNames: []string{"mediumblob"}, SQLName: "MEDIUMBLOB", Group: "blob", Rank: 5},
		Constructor{Name: "LongBlob", Families: fam(schema.FamilyBytes), DBNames: []string{"longblob"}, SQLName: "LONGBLOB", Group: "blob", Rank: 6},
		Constructor{Name: "Date", Families: fam(schema.FamilyDateTime), DBNames: []string{"date"}, SQLName: "DATE"},
		Constructor{Name: "Time", Families: fam(schema.FamilyDateTime), Params: timePrec, Ranges: myTime, Defaults: []int{0},
			DBNames: []string{"time"}, SQLName: "TIME"},
		Constructor{Name: "DateTime", Families: fam(schema.FamilyDateTime), Params: timePrec, Ranges: myTime, Defaults: []int{0},
			DBNames: []string{"datetime"}, SQLName: "DATETIME"},
		Constructor{Name: "Timestamp", Families: fam(schema.FamilyDateTime), Params: timePrec, Ranges: myTime, Defaults: []int{0},
			DBNames: []string{"timestamp"}, SQLName: "TIMESTAMP"},
		Constructor{Name: "Year", Families: fam(schema.FamilyInt), DBNames: []string{"year"}, SQLName: "YEAR"},
		Constructor{Name: "Json", Families: fam(schema.FamilyJSON), DBNames: []string{"json"}, SQLName: "JSON"},
	)
})
