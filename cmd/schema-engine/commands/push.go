package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/satishbabariya/schema-engine/internal/ui"
	"github.com/satishbabariya/schema-engine/migrate"
	"github.com/satishbabariya/schema-engine/migrate/executor"
	"github.com/satishbabariya/schema-engine/migrate/planner"
)

// NewPushCommand creates the push command.
func NewPushCommand() *cobra.Command {
	var yes bool
	var watchMode bool

	cmd := &cobra.Command{
		Use:   "push [schema]",
		Short: "Push the schema to the database",
		Long: `Move the database to the schema. The plan is shown first. Steps that may lose
data are only applied after confirmation or with --accept-data-loss. Unexecutable
steps are never applied.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := schemaPath(args)
			run := func() error { return runPush(cmd.Context(), path, yes) }
			if watchMode {
				return watchSchema(cmd.Context(), path, run)
			}
			return run()
		},
	}

	cmd.Flags().Bool("accept-data-loss", false, "apply steps that may lose data without asking")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not prompt; steps that may lose data still need --accept-data-loss")
	cmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "push whenever the schema file changes")
	_ = viper.BindPFlag("accept_data_loss", cmd.Flags().Lookup("accept-data-loss"))
	return cmd
}

func runPush(ctx context.Context, path string, yes bool) error {
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
	if planner.IsNoop(plan) {
		ui.PrintSuccess("The database is already in sync with %s", p.path)
		return nil
	}
	ui.PrintPlan(plan)
	if err := plan.CheckExecutable(); err != nil {
		return err
	}

	ack, proceed, err := acknowledge(plan, yes)
	if err != nil || !proceed {
		return err
	}

	result, err := engine.Push(ctx, p.desired, ack)
	var notConverged *migrate.NotConvergedError
	if errors.As(err, &notConverged) {
		ui.PrintWarning("The database still differs from the schema after the push:")
		ui.PrintPlan(notConverged.Residual)
	}
	if err != nil {
		return err
	}

	ui.PrintSuccess("Applied %d steps in %s", len(result.Applied), result.Duration)
	if result.Record != nil {
		ui.PrintInfo("Recorded %s (%s)", result.Record.Name, result.Record.ID)
	}
	return nil
}

// acknowledge decides which destructiveness levels the push accepts. It reports false when the user
// declines.
func acknowledge(plan *planner.Plan, yes bool) (executor.Acknowledgment, bool, error) {
	warnings := plan.Warnings()
	if len(warnings) == 0 {
		return nil, true, nil
	}
	for _, s := range warnings {
		ui.PrintWarning("%s", s.Destructiveness.Reason)
	}

	switch {
	case cfg.AcceptDataLoss:
		return executor.Acknowledge(planner.Warning), true, nil
	case yes:
		return nil, false, fmt.Errorf("%w: rerun with --accept-data-loss", executor.ErrDestructiveChangeRejected)
	}

	confirmed := false
	prompt := &survey.Confirm{
		Message: fmt.Sprintf("%d steps may lose data. Apply them?", len(warnings)),
		Default: false,
	}
	if err := survey.AskOne(prompt, &confirmed); err != nil {
		return nil, false, fmt.Errorf("failed to confirm: %w", err)
	}
	if !confirmed {
		ui.PrintInfo("Aborted. No changes applied.")
		return nil, false, nil
	}
	return executor.Acknowledge(planner.Warning), true, nil
}
