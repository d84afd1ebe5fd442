package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nixlim/keyprint/internal/history"
)

func newHistoryCommand(opts *rootOptions) *cobra.Command {
	var (
		format string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent submissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, formatTable, formatJSON, formatYAML); err != nil {
				return err
			}

			cfg, err := loadConfig(opts.configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			closeLog, err := setupCLILogging(cfg.Log, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeLog()

			if limit <= 0 {
				limit = cfg.History.RecentLimit
			}
			if limit > cfg.History.RecentLimit {
				cfg.History.RecentLimit = limit
			}

			store, isPersistent, err := history.NewStore(cfg.History)
			if err != nil {
				return fmt.Errorf("history: %w", err)
			}
			defer store.Close()

			attempts := store.Recent(limit)
			if attempts == nil {
				attempts = []history.Attempt{}
			}

			if format != formatTable {
				return writeStructured(cmd.OutOrStdout(), format, attempts)
			}

			if !isPersistent {
				fmt.Fprintln(cmd.ErrOrStderr(), "keyprint: history is not persisted; set [history] db_path")
			}
			if len(attempts) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "No submissions recorded.")
				return err
			}

			rows := make([][]string, 0, len(attempts))
			for _, a := range attempts {
				rows = append(rows, []string{
					strconv.FormatInt(a.ID, 10),
					a.SubmittedAt.Local().Format("2006-01-02 15:04:05"),
					a.UserID,
					strconv.Itoa(a.EventCount),
					a.Outcome,
					a.Message,
				})
			}
			return renderTable(cmd.OutOrStdout(),
				[]string{"id", "submitted", "user", "events", "outcome", "message"}, rows)
		},
	}

	cmd.Flags().StringVar(&format, "format", formatTable, "output format: table|json|yaml")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of submissions to list (default [history] recent_limit)")
	return cmd
}
