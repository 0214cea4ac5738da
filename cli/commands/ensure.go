package commands

import (
	"github.com/spf13/cobra"

	"github.com/satishbabariya/dbprobe/cli/internal/ui"
	"github.com/satishbabariya/dbprobe/provision"
)

func newEnsureCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ensure",
		Short: "Create the database if it does not exist",
		Long: `Create the database named by DatabaseName using DatabaseConnectionString.

The database part of the connection string is dropped to reach the server,
so the command works before the database exists. For SQLite the file is
created instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := provision.ConfigFromSettings(a.store, a.database)
			if err != nil {
				return err
			}

			spinner, _ := ui.PrintSpinner("Ensuring " + cfg.DatabaseName + " exists...")
			created, err := provision.EnsureExists(cmd.Context(), cfg)
			if spinner != nil {
				_ = spinner.Stop()
			}
			if err != nil {
				return err
			}

			if created {
				ui.PrintSuccess(cmd.OutOrStdout(), "Created database %s", cfg.DatabaseName)
			} else {
				ui.PrintInfo(cmd.OutOrStdout(), "Database %s already exists", cfg.DatabaseName)
			}
			return nil
		},
	}
}
