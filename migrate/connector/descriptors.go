package connector

import (
	"sync"

	"github.com/satishbabariya/schema-engine/migrate/nativetypes"
	"github.com/satishbabariya/schema-engine/migrate/schema"
)

// HistoryTable is the engine's own bookkeeping table. Every connector ignores it when diffing.
const HistoryTable = "_schema_engine_migrations"

// NewDescriptor builds a descriptor supporting exactly the given step kinds.
func NewDescriptor(d Descriptor, steps ...StepKind) *Descriptor {
	d.steps = kinds(steps...)
	return &d
}

var (
	now          = schema.DefaultValue{Kind: schema.DefaultExpression, Value: "now()"}
	dbgen        = func(fn string) schema.DefaultValue { return schema.DefaultValue{Kind: schema.DefaultDBGenerated, Value: fn} }
	postgisTable = []string{"spatial_ref_sys", "geometry_columns", "geography_columns", "raster_columns", "raster_overviews"}
)

// Postgres is the PostgreSQL descriptor.
var Postgres = sync.OnceValue(func() *Descriptor {
	return &Descriptor{
		Name:                    "postgres",
		Driver:                  "postgres",
		Registry:                nativetypes.Postgres(),
		steps:                   except(),
		Enums:                   EnumsNative,
		ScalarLists:             true,
		TransactionalDDL:        true,
		ExpressionDefaultsOnAdd: true,
		Denylist:                append([]string{HistoryTable, "_prisma_migrations"}, postgisTable...),
		GeneratedDefaults: map[string]schema.DefaultValue{
			"uuid_generate_v1()":      dbgen("uuid_generate_v1()"),
			"uuid_generate_v4()":      dbgen("uuid_generate_v4()"),
			"gen_random_uuid()":       dbgen("gen_random_uuid()"),
			"now()":                   now,
			"current_timestamp()":     now,
			"localtimestamp()":        now,
			"transaction_timestamp()": now,
		},
	}
})

// CockroachDB is the CockroachDB descriptor. It speaks the postgres protocol through pgx but runs
// schema changes outside transactions.
var CockroachDB = sync.OnceValue(func() *Descriptor {
	return &Descriptor{
		Name:                    "cockroachdb",
		Driver:                  "pgx",
		Registry:                nativetypes.CockroachDB(),
		steps:                   except(),
		Enums:                   EnumsNative,
		ScalarLists:             true,
		TransactionalDDL:        false,
		ExpressionDefaultsOnAdd: true,
		Denylist:                append([]string{HistoryTable, "_prisma_migrations"}, postgisTable[:3]...),
		GeneratedDefaults: map[string]schema.DefaultValue{
			"gen_random_uuid()":   dbgen("gen_random_uuid()"),
			"unique_rowid()":      dbgen("unique_rowid()"),
			"now()":               now,
			"current_timestamp()": now,
		},
	}
})

// MySQL is the MySQL descriptor. Enums are declared inline on columns and DDL auto-commits.
var MySQL = sync.OnceValue(func() *Descriptor {
	return &Descriptor{
		Name:                    "mysql",
		Driver:                  "mysql",
		Registry:                nativetypes.MySQL(),
		steps:                   except(CreateEnum, DropEnum, AlterEnum),
		Enums:                   EnumsInline,
		ScalarLists:             false,
		TransactionalDDL:        false,
		CaseInsensitiveNames:    true,
		ExpressionDefaultsOnAdd: true,
		Denylist:                []string{HistoryTable, "_prisma_migrations"},
		GeneratedDefaults: map[string]schema.DefaultValue{
			"uuid()":              dbgen("uuid()"),
			"now()":               now,
			"current_timestamp()": now,
			"localtimestamp()":    now,
		},
	}
})

// SQLite is the SQLite descriptor. Anything beyond adding columns and indexes is done by redefining
// the table.
var SQLite = sync.OnceValue(func() *Descriptor {
	return &Descriptor{
		Name:                    "sqlite",
		Driver:                  "sqlite3",
		Registry:                nativetypes.SQLite(),
		steps:                   kinds(CreateTable, DropTable, RedefineTable, AddColumn, CreateIndex, DropIndex),
		Enums:                   EnumsUnsupported,
		ScalarLists:             false,
		TransactionalDDL:        true,
		ExpressionDefaultsOnAdd: false,
		Denylist: []string{
			HistoryTable, "_prisma_migrations", "sqlite_sequence", "sqlite_stat1",
			"spatial_ref_sys", "geometry_columns", "spatialite_history", "views_geometry_columns",
			"virts_geometry_columns",
		},
		GeneratedDefaults: map[string]schema.DefaultValue{
			"current_timestamp()": now,
			"now()":               now,
		},
	}
})

// SQLServer is the Microsoft SQL Server descriptor.
var SQLServer = sync.OnceValue(func() *Descriptor {
	return &Descriptor{
		Name:                    "sqlserver",
		Driver:                  "sqlserver",
		Registry:                nativetypes.SQLServer(),
		steps:                   except(CreateEnum, DropEnum, AlterEnum),
		Enums:                   EnumsUnsupported,
		ScalarLists:             false,
		TransactionalDDL:        true,
		CaseInsensitiveNames:    true,
		ExpressionDefaultsOnAdd: true,
		Denylist:                []string{HistoryTable, "_prisma_migrations", "sysdiagrams"},
		GeneratedDefaults: map[string]schema.DefaultValue{
			"newid()":             dbgen("newid()"),
			"newsequentialid()":   dbgen("newsequentialid()"),
			"getdate()":           now,
			"sysdatetime()":       now,
			"current_timestamp()": now,
			"now()":               now,
		},
	}
})
