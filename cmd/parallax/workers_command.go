package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"parallax/internal/queue"
)

func newWorkersCommand(cctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "workers",
		Short: "List registered workers and their last heartbeat",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withStore(cmd.Context(), func(store *queue.Store) error {
				workers, err := store.ListWorkers(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, toWorkerJSONList(workers))
				}
				if len(workers) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No workers registered")
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(workerTableHeaders, buildWorkerRows(workers)))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	return cmd
}
