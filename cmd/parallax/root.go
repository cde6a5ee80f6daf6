package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var envFileFlag string

	cctx := newCommandContext(&envFileFlag)

	rootCmd := &cobra.Command{
		Use:           "parallax",
		Short:         "Inspect and manage the video-to-3D conversion queue",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&envFileFlag, "env-file", "", "Dotenv file merged into the environment before configuration loads")

	rootCmd.AddCommand(newStatusCommand(cctx))
	rootCmd.AddCommand(newJobsCommand(cctx))
	rootCmd.AddCommand(newWorkersCommand(cctx))
	rootCmd.AddCommand(newLogsCommand(cctx))

	return rootCmd
}
