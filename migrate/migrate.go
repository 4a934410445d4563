// Package migrate ties introspection, diffing, planning and execution together. An Engine moves one
// database to a declared schema.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/satishbabariya/schema-engine/internal/debug"
	"github.com/satishbabariya/schema-engine/migrate/connector"
	"github.com/satishbabariya/schema-engine/migrate/diff"
	"github.com/satishbabariya/schema-engine/migrate/drift"
	"github.com/satishbabariya/schema-engine/migrate/executor"
	"github.com/satishbabariya/schema-engine/migrate/history"
	"github.com/satishbabariya/schema-engine/migrate/introspect"
	"github.com/satishbabariya/schema-engine/migrate/planner"
	"github.com/satishbabariya/schema-engine/migrate/schema"
	"github.com/satishbabariya/schema-engine/migrate/sqlgen"
)

// Engine is the main migration engine
type Engine struct {
	db       *sql.DB
	conn     *connector.Descriptor
	renderer sqlgen.Renderer

	timeout        time.Duration
	historyEnabled bool
	metrics        *executor.Metrics
	owned          bool
}

// Option configures an Engine
type Option func(*Engine)

// WithIntrospectionTimeout bounds each introspection. Zero disables the bound.
func WithIntrospectionTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithIgnoredTables hides more tables from diffing, on top of the connector's denylist.
func WithIgnoredTables(tables ...string) Option {
	return func(e *Engine) { e.conn = e.conn.WithDenylist(tables...) }
}

// WithHistory turns recording of pushes in the history table on or off. It is on by default.
func WithHistory(enabled bool) Option {
	return func(e *Engine) { e.historyEnabled = enabled }
}

// WithMetrics records executor metrics in m.
func WithMetrics(m *executor.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine creates a new migration engine over an open database
func NewEngine(db *sql.DB, conn *connector.Descriptor, opts ...Option) (*Engine, error) {
	renderer, err := sqlgen.ForConnector(conn)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		db:             db,
		conn:           conn,
		renderer:       renderer,
		timeout:        30 * time.Second,
		historyEnabled: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Open connects to url with the connector's driver and returns an engine that owns the connection.
func Open(ctx context.Context, conn *connector.Descriptor, url string, opts ...Option) (*Engine, error) {
	dsn, err := DSN(conn, url)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(conn.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if conn.Name == "sqlite" {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	e, err := NewEngine(db, conn, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	e.owned = true
	return e, nil
}

// Close closes the database when the engine opened it.
func (e *Engine) Close() error {
	if !e.owned {
		return nil
	}
	return e.db.Close()
}

// Connector returns the engine's connector, including ignored tables.
func (e *Engine) Connector() *connector.Descriptor { return e.conn }

// DB returns the underlying database.
func (e *Engine) DB() *sql.DB { return e.db }

// Renderer returns the engine's SQL renderer.
func (e *Engine) Renderer() sqlgen.Renderer { return e.renderer }

// Introspect reads the live schema. Denylisted and ignored tables are left out.
func (e *Engine) Introspect(ctx context.Context) (*schema.SchemaModel, error) {
	in, err := introspect.NewIntrospector(e.db, e.conn, introspect.WithTimeout(e.timeout))
	if err != nil {
		return nil, err
	}
	return in.Introspect(ctx)
}

// Diff plans the steps that move the database to desired.
func (e *Engine) Diff(ctx context.Context, desired *schema.SchemaModel) (*planner.Plan, error) {
	current, err := e.Introspect(ctx)
	if err != nil {
		return nil, err
	}
	stats, err := e.tableStats(ctx, current)
	if err != nil {
		return nil, err
	}
	return Plan(current, desired, e.conn, planner.WithTableStats(stats))
}

// Plan computes a plan between two models without touching a database. An invalid desired model
// (dangling references, undefined enums, native types the connector rejects) or an invalid current
// model aborts planning.
func Plan(current, desired *schema.SchemaModel, conn *connector.Descriptor, opts ...planner.Option) (*planner.Plan, error) {
	if desired != nil {
		if err := conn.Validate(desired); err != nil {
			return nil, fmt.Errorf("desired schema: %w", err)
		}
	}
	current, desired = drift.Normalize(current, conn), drift.Normalize(desired, conn)
	if current != nil {
		if err := current.ValidateWith(conn.ValidateOptions()); err != nil {
			return nil, fmt.Errorf("current schema: %w", err)
		}
	}
	plan, err := planner.NewPlanner(conn, opts...).Plan(diff.Diff(current, desired, conn), current, desired)
	if err != nil {
		return nil, err
	}
	debug.Info("migrate: planned", "connector", conn.Name, "steps", len(plan.Steps),
		"destructiveness", plan.Destructiveness().Level.String())
	return plan, nil
}

// PushResult describes a push
type PushResult struct {
	Plan       *planner.Plan
	Applied    []*planner.Step
	Statements []string
	Duration   time.Duration
	// Record is the history entry, nil when history is off or nothing was applied.
	Record *history.MigrationRecord
}

// Push moves the database to desired. It plans, applies the plan subject to ack, records the push
// in the history table and checks that a fresh plan is empty.
func (e *Engine) Push(ctx context.Context, desired *schema.SchemaModel, ack executor.Acknowledgment) (*PushResult, error) {
	plan, err := e.Diff(ctx, desired)
	if err != nil {
		return nil, err
	}
	result := &PushResult{Plan: plan}
	if planner.IsNoop(plan) {
		debug.Info("migrate: database already in sync", "connector", e.conn.Name)
		return result, nil
	}

	var execOpts []executor.Option
	if e.metrics != nil {
		execOpts = append(execOpts, executor.WithMetrics(e.metrics))
	}
	applied, err := executor.New(e.db, e.conn, e.renderer, execOpts...).Apply(ctx, plan, ack)
	if applied != nil {
		result.Applied = applied.Applied
		result.Statements = applied.Statements
		result.Duration = applied.Duration
	}
	if err != nil {
		return result, err
	}

	if e.historyEnabled {
		record, err := e.record(ctx, result, desired)
		if err != nil {
			return result, err
		}
		result.Record = record
	}

	residual, err := e.Diff(ctx, desired)
	if err != nil {
		return result, fmt.Errorf("failed to verify push: %w", err)
	}
	if !planner.IsNoop(residual) {
		return result, &NotConvergedError{Residual: residual}
	}
	return result, nil
}

func (e *Engine) record(ctx context.Context, result *PushResult, desired *schema.SchemaModel) (*history.MigrationRecord, error) {
	m := history.NewManager(e.db, e.conn)
	if err := m.InitTable(ctx); err != nil {
		return nil, err
	}
	record := &history.MigrationRecord{
		Name:          "push_" + time.Now().UTC().Format("20060102150405"),
		Checksum:      history.CalculateChecksum(result.Statements),
		ExecutionTime: result.Duration.Milliseconds(),
		Steps:         len(result.Applied),
	}
	if err := m.RecordWithSchema(ctx, record, desired); err != nil {
		return nil, err
	}
	return record, nil
}

// History returns the recorded pushes, oldest first. A database without a history table has none.
func (e *Engine) History(ctx context.Context) ([]history.MigrationRecord, error) {
	m := history.NewManager(e.db, e.conn)
	if err := m.InitTable(ctx); err != nil {
		return nil, err
	}
	return m.GetAll(ctx)
}

// tableStats counts the rows of every live table.
func (e *Engine) tableStats(ctx context.Context, current *schema.SchemaModel) (planner.TableStats, error) {
	stats := make(planner.TableStats, len(current.Tables))
	for _, t := range current.Tables {
		var n int64
		query := "SELECT COUNT(*) FROM " + quoteIdent(e.conn.Name, t.Name)
		if err := e.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count rows of %s: %w", t.Name, err)
		}
		stats[t.Name] = n
	}
	return stats, nil
}

func quoteIdent(dialect, name string) string {
	switch dialect {
	case "mysql":
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	case "sqlserver":
		return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
	default:
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
}

// PlanAll plans desired against several databases at once. Plans are returned in engine order.
func PlanAll(ctx context.Context, desired *schema.SchemaModel, engines ...*Engine) ([]*planner.Plan, error) {
	plans := make([]*planner.Plan, len(engines))
	g, ctx := errgroup.WithContext(ctx)
	for i, e := range engines {
		g.Go(func() error {
			plan, err := e.Diff(ctx, desired.Clone())
			if err != nil {
				return fmt.Errorf("%s: %w", e.conn.Name, err)
			}
			plans[i] = plan
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return plans, nil
}
