package commands

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/dbprobe/cli/internal/ui"
	"github.com/satishbabariya/dbprobe/database"
	"github.com/satishbabariya/dbprobe/internal/debug"
	"github.com/satishbabariya/dbprobe/settings"
)

func newSettingsCommand(a *app) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show the resolved settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc := settingsMarkdown(a.store)
			if raw {
				_, err := fmt.Fprint(cmd.OutOrStdout(), doc)
				return err
			}
			return ui.PrintMarkdown(cmd.OutOrStdout(), doc)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print markdown without rendering it")
	return cmd
}

// settingsMarkdown renders every category of store as a markdown table,
// followed by the effective polling policy.
func settingsMarkdown(store *settings.Viper) string {
	var b strings.Builder

	b.WriteString("# Settings\n\n")
	if f := store.ConfigFileUsed(); f != "" {
		fmt.Fprintf(&b, "Config file: `%s`\n\n", f)
	} else {
		b.WriteString("Config file: _none_\n\n")
	}

	all := store.AllSettings()
	for _, category := range slices.Sorted(maps.Keys(all)) {
		fmt.Fprintf(&b, "## %s\n\n", category)

		entries, ok := all[category].(map[string]any)
		if !ok {
			fmt.Fprintf(&b, "`%v`\n\n", all[category])
			continue
		}

		b.WriteString("| Key | Value |\n| --- | --- |\n")
		for _, key := range slices.Sorted(maps.Keys(entries)) {
			fmt.Fprintf(&b, "| %s | `%v` |\n", key, entries[key])
		}
		b.WriteString("\n")
	}

	policy := database.ResolvePolicy(store, debug.Logger())
	b.WriteString("## Polling\n\n")
	fmt.Fprintf(&b, "- Timeout: %s\n- Interval: %s\n", policy.Timeout, policy.Interval)

	return b.String()
}
