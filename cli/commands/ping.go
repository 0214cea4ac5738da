package commands

import (
	"github.com/spf13/cobra"

	"github.com/satishbabariya/dbprobe/cli/internal/ui"
)

func newPingCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the database accepts connections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.handle()
			if err != nil {
				return err
			}

			if err := h.CanConnect(cmd.Context()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			ui.PrintSuccess(out, "Connected to %s", h.Name())
			ui.PrintKeyValue(out, "Provider", string(h.Provider()))

			v, err := h.ServerVersion(cmd.Context())
			if err != nil {
				ui.PrintWarning(out, "Could not read server version: %v", err)
				return nil
			}
			ui.PrintKeyValue(out, "Version", v.String())
			return nil
		},
	}
}
