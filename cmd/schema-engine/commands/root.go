// Package commands implements the schema-engine CLI.
package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/satishbabariya/schema-engine/internal/config"
	"github.com/satishbabariya/schema-engine/internal/debug"
	"github.com/satishbabariya/schema-engine/internal/version"
)

var (
	configFile string
	cfg        *config.Config
)

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "schema-engine",
		Short: "Declarative schema migrations",
		Long: `schema-engine moves a database to the schema declared in a .prisma file.

It introspects the live database, diffs it against the declaration and applies
an ordered plan. Steps that may lose data need explicit acknowledgment.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(viper.GetViper(), configFile)
			if err != nil {
				return err
			}
			cfg = loaded
			debug.Init(cfg.Debug)
			debug.Debug("config loaded", "schema", cfg.SchemaPath, "provider", cfg.Provider, "file", viper.ConfigFileUsed())
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default is .schema-engine.yaml)")
	flags.Bool("debug", false, "enable debug logging")
	flags.String("schema", "", "path to the schema file")
	flags.String("url", "", "database URL, overriding the datasource")
	flags.String("provider", "", "connector, overriding the datasource provider")
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))
	_ = viper.BindPFlag("schema_path", flags.Lookup("schema"))
	_ = viper.BindPFlag("database_url", flags.Lookup("url"))
	_ = viper.BindPFlag("provider", flags.Lookup("provider"))

	rootCmd.AddCommand(
		NewPlanCommand(),
		NewPushCommand(),
		NewIntrospectCommand(),
		NewValidateCommand(),
		NewHistoryCommand(),
		NewVersionCommand(),
	)
	return rootCmd
}

// Execute is the main entry point for the CLI
func Execute() error {
	return NewRootCommand().Execute()
}
