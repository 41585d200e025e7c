package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDiscoverCommand(ctx *commandContext) *cobra.Command {
	var week string

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Refresh the paper list for a week without running the pipeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolvePeriod(week)
			if err != nil {
				return err
			}

			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			driver, err := ctx.buildDriver(store)
			if err != nil {
				return err
			}

			added, seen, err := driver.Ingest(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Discovered %d papers for %s (%d new)\n", seen, id, added)
			return nil
		},
	}

	cmd.Flags().StringVarP(&week, "week", "w", "", "Week to discover (YYYY-NN, defaults to the current week)")
	return cmd
}
