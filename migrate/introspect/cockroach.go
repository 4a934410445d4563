package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
)

// CockroachDBIntrospector implements introspection for CockroachDB.
// CockroachDB exposes the PostgreSQL catalog, so the PostgreSQL queries are reused.
type CockroachDBIntrospector struct {
	*PostgresIntrospector
}

// NewCockroachDBIntrospector creates a new CockroachDB introspector
func NewCockroachDBIntrospector(db *sql.DB) *CockroachDBIntrospector {
	return &CockroachDBIntrospector{PostgresIntrospector: &PostgresIntrospector{db: db, schema: "public"}}
}

// read reads the catalog and hides the implicit rowid column of tables without a primary key
func (i *CockroachDBIntrospector) read(ctx context.Context) (*DatabaseSchema, error) {
	raw, err := i.PostgresIntrospector.read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect CockroachDB: %w", err)
	}

	for ti := range raw.Tables {
		t := &raw.Tables[ti]
		if slices.Contains(t.PrimaryKey, "rowid") {
			t.PrimaryKey = nil
		}
		t.Columns = slices.DeleteFunc(t.Columns, func(c Column) bool {
			return c.Name == "rowid" && c.Default != nil && *c.Default == "unique_rowid()"
		})
	}
	return raw, nil
}
