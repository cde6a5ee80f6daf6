package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"parallax/internal/logs"
)

const logFollowInterval = time.Second

func newLogsCommand(cctx *commandContext) *cobra.Command {
	var (
		lineCount int
		follow    bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the worker daemon log on this host",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.LogPath()
			stdout := cmd.OutOrStdout()

			lines, offset, err := logs.ReadLast(path, lineCount)
			if err != nil {
				return err
			}
			for _, line := range lines {
				fmt.Fprintln(stdout, line)
			}
			if !follow {
				if len(lines) == 0 {
					fmt.Fprintf(stdout, "No log entries at %s\n", path)
				}
				return nil
			}

			return logs.Follow(cmd.Context(), path, offset, logFollowInterval, func(batch []string) {
				for _, line := range batch {
					fmt.Fprintln(stdout, line)
				}
			})
		},
	}

	cmd.Flags().IntVarP(&lineCount, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep streaming new lines until interrupted")
	return cmd
}
