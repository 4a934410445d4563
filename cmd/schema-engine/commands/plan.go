package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/schema-engine/internal/ui"
	"github.com/satishbabariya/schema-engine/internal/watch"
	"github.com/satishbabariya/schema-engine/migrate/planner"
	"github.com/satishbabariya/schema-engine/migrate/sqlgen"
)

var outputFormats = []string{"text", "yaml", "markdown", "sql"}

// NewPlanCommand creates the plan command.
func NewPlanCommand() *cobra.Command {
	var output string
	var watchMode bool

	cmd := &cobra.Command{
		Use:   "plan [schema]",
		Short: "Show the steps that move the database to the schema",
		Long: `Introspect the database, diff it against the schema and print the ordered plan
without applying it. Each step is classified as safe, warning or unexecutable.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !validOutput(output) {
				return fmt.Errorf("unknown output %q, expected one of %s", output, strings.Join(outputFormats, ", "))
			}
			path := schemaPath(args)
			run := func() error { return runPlan(cmd.Context(), path, output) }
			if watchMode {
				return watchSchema(cmd.Context(), path, run)
			}
			return run()
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: "+strings.Join(outputFormats, "|"))
	cmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "re-plan whenever the schema file changes")
	return cmd
}

func validOutput(output string) bool {
	for _, f := range outputFormats {
		if f == output {
			return true
		}
	}
	return false
}

func runPlan(ctx context.Context, path, output string) error {
	p, err := loadProject(path)
	if err != nil {
		return err
	}
	engine, err := p.openEngine(ctx)
	if err != nil {
		return err
	}
	defer engine.Close()

	plan, err := engine.Diff(ctx, p.desired)
	if err != nil {
		return err
	}

	switch output {
	case "yaml":
		data, err := plan.YAML()
		if err != nil {
			return err
		}
		fmt.Print(string(data))
	case "markdown":
		return ui.PrintPlanMarkdown(plan)
	case "sql":
		stmts, err := renderStatements(engine.Renderer(), plan)
		if err != nil {
			return err
		}
		for _, stmt := range stmts {
			fmt.Println(stmt + ";")
		}
	default:
		ui.PrintHeader("Migration plan", p.path)
		ui.PrintPlan(plan)
	}
	return nil
}

func renderStatements(r sqlgen.Renderer, plan *planner.Plan) ([]string, error) {
	rendered, err := sqlgen.RenderPlan(r, plan)
	if err != nil {
		return nil, err
	}
	var stmts []string
	for _, s := range rendered {
		stmts = append(stmts, s...)
	}
	return stmts, nil
}

// watchSchema runs fn now and on every change of path until interrupted. Errors of fn are printed
// and do not stop watching.
func watchSchema(ctx context.Context, path string, fn func() error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	report := func() error {
		if err := fn(); err != nil {
			ui.PrintError("%v", err)
		}
		return nil
	}
	w, err := watch.NewWatcher(path, report)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	ui.PrintInfo("Watching %s for changes. Press Ctrl+C to stop.", path)

	<-ctx.Done()
	return w.Stop()
}
