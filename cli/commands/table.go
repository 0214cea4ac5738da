package commands

import (
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/dbprobe/cli/internal/ui"
)

// errAborted is returned when the user declines a destructive action.
var errAborted = errors.New("aborted")

// confirm asks a yes/no question on the terminal. It is a variable so tests
// can answer without one.
var confirm = func(message string) (bool, error) {
	ok := false
	err := survey.AskOne(&survey.Confirm{Message: message, Default: false}, &ok)
	return ok, err
}

func newTableCommand(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "table",
		Short: "Clear or drop a table",
	}
	cmd.PersistentFlags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")

	ask := func(message string) error {
		if yes {
			return nil
		}
		ok, err := confirm(message)
		if err != nil {
			return err
		}
		if !ok {
			return errAborted
		}
		return nil
	}

	clearCmd := &cobra.Command{
		Use:   "clear <table>",
		Short: "Delete every row of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.handle()
			if err != nil {
				return err
			}
			if err := ask(fmt.Sprintf("Delete all rows from %s in %s?", args[0], h.Name())); err != nil {
				return err
			}

			n, err := h.ClearTable(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			ui.PrintSuccess(cmd.OutOrStdout(), "Deleted %d row(s) from %s", n, args[0])
			return nil
		},
	}

	dropCmd := &cobra.Command{
		Use:   "drop <table>",
		Short: "Drop a table if it exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.handle()
			if err != nil {
				return err
			}
			if err := ask(fmt.Sprintf("Drop table %s in %s?", args[0], h.Name())); err != nil {
				return err
			}

			if err := h.DropTable(cmd.Context(), args[0]); err != nil {
				return err
			}
			ui.PrintSuccess(cmd.OutOrStdout(), "Dropped table %s", args[0])
			return nil
		},
	}

	cmd.AddCommand(clearCmd, dropCmd)
	return cmd
}
