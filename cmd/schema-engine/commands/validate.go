package commands

import (
	"github.com/spf13/cobra"

	"github.com/satishbabariya/schema-engine/internal/ui"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [schema]",
		Short: "Validate a schema file",
		Long:  "Parse the schema, check its native types and validate the resulting model without connecting to a database.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(schemaPath(args))
			if err != nil {
				return err
			}
			ui.PrintSuccess("%s is valid for %s: %d tables, %d enums", p.path, p.conn.Name, len(p.desired.Tables), len(p.desired.Enums))
			return nil
		},
	}
}
