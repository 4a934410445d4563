package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/schema-engine/internal/ui"
	"github.com/satishbabariya/schema-engine/migrate/schema"
)

// NewIntrospectCommand creates the introspect command.
func NewIntrospectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "introspect [schema]",
		Short: "Print the tables of the live database",
		Long: `Read the live database and print its tables and enums. The connection comes from
--provider and --url, or from the datasource of the schema file.`,
		Args: cobra.MaximumNArgs(1),
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

			live, err := engine.Introspect(ctx)
			if err != nil {
				return err
			}
			printModel(live)
			return nil
		},
	}
}

func printModel(m *schema.SchemaModel) {
	if len(m.Tables) == 0 && len(m.Enums) == 0 {
		ui.PrintInfo("The database is empty")
		return
	}
	for _, t := range m.Tables {
		ui.PrintSection(t.Name)
		rows := make([][]string, 0, len(t.Columns))
		for _, c := range t.Columns {
			def := ""
			if c.Default != nil {
				def = c.Default.String()
			}
			pk := ""
			if c.PrimaryKey {
				pk = "PK"
			}
			rows = append(rows, []string{c.Name, c.Type.String(), def, pk})
		}
		ui.PrintTable([]string{"Column", "Type", "Default", "Key"}, rows)

		var extras []string
		for _, idx := range t.Indexes {
			kind := "index"
			if idx.Unique {
				kind = "unique"
			}
			extras = append(extras, fmt.Sprintf("%s %s (%s)", kind, idx.Name, strings.Join(idx.Columns, ", ")))
		}
		for _, fk := range t.ForeignKeys {
			extras = append(extras, fmt.Sprintf("foreign key %s (%s) -> %s (%s)", fk.Name,
				strings.Join(fk.Columns, ", "), fk.ReferencedTable, strings.Join(fk.ReferencedColumns, ", ")))
		}
		if len(extras) > 0 {
			ui.PrintList(extras)
		}
	}
	for _, e := range m.Enums {
		ui.PrintSection("enum " + e.Name)
		ui.PrintList(e.Values)
	}
}
