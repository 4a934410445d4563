package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/schema-engine/internal/ui"
	"github.com/satishbabariya/schema-engine/migrate/history"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "history [schema]",
		Short: "List the pushes recorded in the database",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			conn, url, err := connection(schemaPath(args))
			if err != nil {
				return err
			}
			engine, err := openEngine(ctx, conn, url)
			if err != nil {
				return err
			}
			defer engine.Close()

			records, err := engine.History(ctx)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				ui.PrintInfo("No pushes recorded yet")
				return nil
			}
			ui.PrintTable(historyHeaders, historyRows(records))
			return nil
		},
	}
}

var historyHeaders = []string{"Name", "Applied at", "Steps", "Took", "Checksum", "Engine"}

func historyRows(records []history.MigrationRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		checksum := r.Checksum
		if len(checksum) > 12 {
			checksum = checksum[:12]
		}
		rows = append(rows, []string{
			r.Name,
			r.AppliedAt.Local().Format(time.DateTime),
			fmt.Sprint(r.Steps),
			(time.Duration(r.ExecutionTime) * time.Millisecond).String(),
			checksum,
			r.EngineVersion,
		})
	}
	return rows
}
