// Package executor applies migration plans to databases.
package executor

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/satishbabariya/schema-engine/internal/debug"
	"github.com/satishbabariya/schema-engine/migrate/connector"
	"github.com/satishbabariya/schema-engine/migrate/planner"
	"github.com/satishbabariya/schema-engine/migrate/sqlgen"
)

// Executor executes migration plans
type Executor struct {
	db       *sql.DB
	conn     *connector.Descriptor
	renderer sqlgen.Renderer
	metrics  *Metrics
}

// Option configures an Executor
type Option func(*Executor)

// WithMetrics records step counts and durations in m.
func WithMetrics(m *Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

// New creates a new migration executor
func New(db *sql.DB, conn *connector.Descriptor, renderer sqlgen.Renderer, opts ...Option) *Executor {
	e := &Executor{db: db, conn: conn, renderer: renderer}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = NewMetrics(nil)
	}
	return e
}

// Result describes an applied plan
type Result struct {
	Applied []*planner.Step
	// Statements is the SQL that was executed, in order.
	Statements []string
	Duration   time.Duration
}

// Apply applies a plan. Unexecutable steps always block it, and Warning steps block it unless ack
// accepts them. Every statement is rendered before anything runs.
func (e *Executor) Apply(ctx context.Context, plan *planner.Plan, ack Acknowledgment) (*Result, error) {
	result := &Result{}
	if planner.IsNoop(plan) {
		return result, nil
	}

	if err := plan.CheckExecutable(); err != nil {
		return nil, err
	}
	if warnings := plan.Warnings(); len(warnings) > 0 && !ack.Accepts(planner.Warning) {
		return nil, &DestructiveChangeRejectedError{Warnings: warnings}
	}

	rendered, err := sqlgen.RenderPlan(e.renderer, plan)
	if err != nil {
		return nil, err
	}
	sqlFor := make(map[*planner.Step][]string, len(plan.Steps))
	for i, s := range plan.Steps {
		sqlFor[s] = rendered[i]
	}

	start := time.Now()
	for _, phase := range planner.Phases() {
		steps := plan.InPhase(phase)
		if len(steps) == 0 {
			continue
		}
		debug.Debug("executor: applying phase", "connector", e.conn.Name, "phase", phase.String(), "steps", len(steps))

		if e.conn.TransactionalDDL {
			err = e.applyInTransaction(ctx, steps, sqlFor, result)
		} else {
			err = e.applyDirect(ctx, steps, sqlFor, result)
		}
		if err != nil {
			e.metrics.Applies.WithLabelValues(e.conn.Name, "interrupted").Inc()
			return result, err
		}
	}
	result.Duration = time.Since(start)
	e.metrics.Applies.WithLabelValues(e.conn.Name, "applied").Inc()
	debug.Info("executor: plan applied", "connector", e.conn.Name, "steps", len(result.Applied), "took", result.Duration)
	return result, nil
}

// applyInTransaction runs a phase in one transaction. On failure nothing of the phase is applied.
func (e *Executor) applyInTransaction(ctx context.Context, steps []*planner.Step, sqlFor map[*planner.Step][]string, result *Result) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return &ApplyInterruptedError{Applied: result.Applied, Failed: steps[0], Err: fmt.Errorf("failed to begin transaction: %w", err)}
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var stmts []string
	for _, s := range steps {
		if err := e.runStep(ctx, tx, s, sqlFor[s]); err != nil {
			_ = tx.Rollback()
			return &ApplyInterruptedError{Applied: result.Applied, Failed: s, Err: err}
		}
		stmts = append(stmts, sqlFor[s]...)
	}

	if err := tx.Commit(); err != nil {
		return &ApplyInterruptedError{Applied: result.Applied, Failed: steps[len(steps)-1], Err: fmt.Errorf("failed to commit migration: %w", err)}
	}
	result.Applied = append(result.Applied, steps...)
	result.Statements = append(result.Statements, stmts...)
	return nil
}

// applyDirect runs steps one by one on connectors whose DDL auto-commits.
func (e *Executor) applyDirect(ctx context.Context, steps []*planner.Step, sqlFor map[*planner.Step][]string, result *Result) error {
	for _, s := range steps {
		if err := e.runStep(ctx, e.db, s, sqlFor[s]); err != nil {
			return &ApplyInterruptedError{Applied: result.Applied, Failed: s, Err: err}
		}
		result.Applied = append(result.Applied, s)
		result.Statements = append(result.Statements, sqlFor[s]...)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (e *Executor) runStep(ctx context.Context, db execer, s *planner.Step, stmts []string) error {
	kind := s.Kind.String()
	start := time.Now()
	defer func() {
		e.metrics.StepDuration.WithLabelValues(e.conn.Name, kind).Observe(time.Since(start).Seconds())
	}()

	for i, stmt := range stmts {
		debug.Debug("executor: exec", "step", s.Description(), "sql", stmt)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			e.metrics.Steps.WithLabelValues(e.conn.Name, kind, "failed").Inc()
			return fmt.Errorf("failed to execute statement %d: %w", i+1, err)
		}
	}
	e.metrics.Steps.WithLabelValues(e.conn.Name, kind, "applied").Inc()
	return nil
}
