// Package commands implements the dbprobe CLI.
package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/dbprobe/database"
	"github.com/satishbabariya/dbprobe/internal/debug"
	"github.com/satishbabariya/dbprobe/settings"
)

// DefaultDatabase is the logical database used when --database is not given.
const DefaultDatabase = "Default"

// app holds the state shared by all commands of one invocation.
type app struct {
	configFile string
	database   string
	debug      bool

	store *settings.Viper
}

// handle opens the selected logical database.
func (a *app) handle() (*database.Handle, error) {
	return database.FromSettings(a.database, a.store)
}

// NewRootCommand builds the dbprobe command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "dbprobe",
		Short: "Query, poll and provision test databases",
		Long: `dbprobe runs ad-hoc queries against the databases a test suite uses.

Connection strings come from .dbprobe.yaml, .env files or DBPROBE_*
environment variables, grouped by logical database name:

    Orders:
      ConnectionString: postgres://localhost/orders
    Database:
      Timeout: 30000
      PollInterval: 1000`,
		Version:       versionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug.Init(a.debug)

			store, err := settings.Load(settings.LoadOptions{ConfigFile: a.configFile})
			if err != nil {
				return err
			}
			a.store = store
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configFile, "config", "c", "", "Config file (default is .dbprobe.yaml in ., $HOME or $HOME/.config/dbprobe)")
	flags.StringVarP(&a.database, "database", "d", DefaultDatabase, "Logical database name")
	flags.BoolVar(&a.debug, "debug", false, "Write debug logs to stderr")

	rootCmd.AddCommand(
		newPingCommand(a),
		newEnsureCommand(a),
		newScalarCommand(a),
		newQueryCommand(a),
		newWaitCommand(a),
		newExecCommand(a),
		newTableCommand(a),
		newSettingsCommand(a),
		newVersionCommand(),
	)

	return rootCmd
}

// Execute is the main entry point for the CLI
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}
