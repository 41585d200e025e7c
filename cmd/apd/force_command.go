package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"apd/internal/ledger"
)

func newForceCommand(ctx *commandContext) *cobra.Command {
	var week string
	var target string

	cmd := &cobra.Command{
		Use:   "force <paper-key>",
		Short: "Reset a paper to an earlier stage for re-processing",
		Long: `Reset a paper's stage unconditionally, clearing its error and retry state.

The target stage must be explicit: resetting to "new" re-downloads and
re-submits, resetting to "artifact_ready" re-submits the stored PDF, and
resetting to "submitted" only re-polls the existing generation job.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolvePeriod(week)
			if err != nil {
				return err
			}
			targetStage, ok := ledger.ParseStage(target)
			if !ok {
				return fmt.Errorf("unknown target stage %q", target)
			}
			if targetStage == ledger.StageFailed {
				return fmt.Errorf("cannot force a paper into the failed stage")
			}

			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			item, err := store.ForceReset(cmd.Context(), id.String(), args[0], targetStage)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reset %s to %s\n", item.Key, item.Stage)
			return nil
		},
	}

	cmd.Flags().StringVarP(&week, "week", "w", "", "Week the paper belongs to (defaults to the current week)")
	cmd.Flags().StringVarP(&target, "to", "t", "", "Target stage (new, artifact_ready, submitted, complete)")
	cmd.MarkFlagRequired("to")
	return cmd
}
