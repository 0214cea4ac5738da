package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/dbprobe/cli/internal/ui"
	"github.com/satishbabariya/dbprobe/cli/internal/watch"
	"github.com/satishbabariya/dbprobe/database"
)

// ErrNoMatch is returned by wait when no row showed up in time.
var ErrNoMatch = errors.New("no row matched before the timeout")

func newScalarCommand(a *app) *cobra.Command {
	var in queryInput

	cmd := &cobra.Command{
		Use:   "scalar <sql>",
		Short: "Print the first column of the first row",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := in.sql(args)
			if err != nil {
				return err
			}
			params, err := in.bind()
			if err != nil {
				return err
			}
			h, err := a.handle()
			if err != nil {
				return err
			}

			v, err := h.Scalar(cmd.Context(), query, params...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.FormatValue(v))
			return nil
		},
	}
	in.addFlags(cmd)
	return cmd
}

func newQueryCommand(a *app) *cobra.Command {
	var (
		in      queryInput
		watchIt bool
	)

	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Print the rows a query returns",
		Long: `Print the rows a query returns as a table.

With --file and --watch the query is run again every time the file is saved,
until interrupted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if watchIt && in.file == "" {
				return errors.New("--watch requires --file")
			}
			params, err := in.bind()
			if err != nil {
				return err
			}
			h, err := a.handle()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			run := func() error {
				query, err := in.sql(args)
				if err != nil {
					return err
				}
				return printRows(cmd.Context(), out, h, query, params)
			}

			if !watchIt {
				return run()
			}

			w, err := watch.NewWatcher(in.file, 0, func() error {
				if err := run(); err != nil {
					ui.PrintError(cmd.ErrOrStderr(), "%v", err)
				}
				return nil
			})
			if err != nil {
				return err
			}
			defer w.Stop()

			ui.PrintInfo(cmd.ErrOrStderr(), "Watching %s, press Ctrl+C to stop", in.file)
			if err := w.Start(); err != nil {
				return err
			}
			<-cmd.Context().Done()
			return nil
		},
	}
	in.addFlags(cmd)
	cmd.Flags().BoolVarP(&watchIt, "watch", "w", false, "Re-run the query when --file changes")
	return cmd
}

func printRows(ctx context.Context, out io.Writer, h *database.Handle, query string, params []database.Param) error {
	rs, err := h.Rows(ctx, query, params...)
	if err != nil {
		return err
	}

	rows := make([][]string, len(rs.Rows))
	for i, r := range rs.Rows {
		rows[i] = ui.FormatRow(r.Values())
	}
	if len(rs.Columns) > 0 {
		if err := ui.PrintTable(out, rs.Columns, rows); err != nil {
			return err
		}
	}
	ui.PrintInfo(out, "%d row(s)", len(rows))
	return nil
}

func newWaitCommand(a *app) *cobra.Command {
	var (
		in       queryInput
		timeout  time.Duration
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "wait <sql>",
		Short: "Poll until a query returns exactly one row",
		Long: `Run the query repeatedly until it returns a row, then print it.

More than one row is an error. When the timeout passes without a row the
command exits with a non-zero status. Timeout and interval default to the
Database Timeout and PollInterval settings.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := in.sql(args)
			if err != nil {
				return err
			}
			params, err := in.bind()
			if err != nil {
				return err
			}
			h, err := a.handle()
			if err != nil {
				return err
			}

			policy := h.Policy()
			if timeout > 0 {
				policy.Timeout = timeout
			}
			if interval > 0 {
				policy.Interval = interval
			}

			row, found, err := database.SingleRow(cmd.Context(), h, policy.Timeout, policy.Interval, query, params...)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("%w (%s)", ErrNoMatch, policy.Timeout)
			}

			return ui.PrintTable(cmd.OutOrStdout(), row.Columns(), [][]string{ui.FormatRow(row.Values())})
		},
	}
	in.addFlags(cmd)
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 0, "How long to keep polling")
	cmd.Flags().DurationVarP(&interval, "interval", "i", 0, "Wait between attempts")
	return cmd
}

func newExecCommand(a *app) *cobra.Command {
	var in queryInput

	cmd := &cobra.Command{
		Use:   "exec <sql>",
		Short: "Run a statement and print the affected row count",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := in.sql(args)
			if err != nil {
				return err
			}
			params, err := in.bind()
			if err != nil {
				return err
			}
			h, err := a.handle()
			if err != nil {
				return err
			}

			n, err := h.NonQuery(cmd.Context(), query, params...)
			if err != nil {
				return err
			}
			ui.PrintSuccess(cmd.OutOrStdout(), "%d row(s) affected", n)
			return nil
		},
	}
	in.addFlags(cmd)
	return cmd
}
