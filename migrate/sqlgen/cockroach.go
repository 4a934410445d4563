package sqlgen

import (
	"fmt"

	"github.com/satishbabariya/schema-engine/migrate/connector"
	"github.com/satishbabariya/schema-engine/migrate/diff"
	"github.com/satishbabariya/schema-engine/migrate/planner"
	"github.com/satishbabariya/schema-engine/migrate/schema"
)

// CockroachDBRenderer renders CockroachDB DDL.
// CockroachDB is PostgreSQL-compatible, so we reuse the PostgreSQL renderer
// with CockroachDB-specific adjustments.
type CockroachDBRenderer struct {
	*PostgresRenderer // Embed PostgreSQL renderer
}

// NewCockroachDBRenderer creates a new CockroachDB renderer
func NewCockroachDBRenderer(d *connector.Descriptor) *CockroachDBRenderer {
	pg := NewPostgresRenderer(d)
	// Identity columns avoid SERIAL, which CockroachDB maps to unique_rowid() regardless of width.
	pg.identity = func(typ string) string { return typ + " GENERATED BY DEFAULT AS IDENTITY" }
	// Indexes are addressed through their table, and unique ones back a constraint.
	pg.dropIndex = func(table string, idx *schema.Index) string {
		if idx.Unique {
			return fmt.Sprintf("DROP INDEX %s@%s CASCADE", pg.q(table), pg.q(idx.Name))
		}
		return fmt.Sprintf("DROP INDEX %s@%s", pg.q(table), pg.q(idx.Name))
	}
	return &CockroachDBRenderer{PostgresRenderer: pg}
}

// Render returns the statements for one step
func (r *CockroachDBRenderer) Render(s *planner.Step) ([]string, error) {
	stmts, err := r.PostgresRenderer.Render(s)
	if err != nil {
		return nil, err
	}
	if changesType(s) {
		stmts = append([]string{"SET enable_experimental_alter_column_type_general = true"}, stmts...)
	}
	return stmts, nil
}

func changesType(s *planner.Step) bool {
	switch s.Kind {
	case connector.AlterColumn:
		return s.Changes.Has(diff.TypeChanged)
	case connector.RedefineTable:
		for _, cd := range s.TableDiff.ColumnChanges {
			if cd.Changes.Has(diff.TypeChanged) {
				return true
			}
		}
	}
	return false
}
