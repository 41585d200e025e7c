package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"apd/internal/ledger"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var week string
	var stageFilter string
	var key string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show pipeline state for a week",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolvePeriod(week)
			if err != nil {
				return err
			}

			filter := ledger.Filter{Key: key}
			if stageFilter != "" {
				for _, raw := range strings.Split(stageFilter, ",") {
					parsed, ok := ledger.ParseStage(raw)
					if !ok {
						return fmt.Errorf("unknown stage %q (known: new, artifact_ready, submitted, complete, failed)", raw)
					}
					filter.Stages = append(filter.Stages, parsed)
				}
			}

			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			items, err := store.List(cmd.Context(), id.String(), filter)
			if err != nil {
				return err
			}
			stats, err := store.Stats(cmd.Context(), id.String())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintf(out, "No papers tracked for %s\n", id)
				return nil
			}

			fmt.Fprintln(out, renderStatusTable(items))
			fmt.Fprintf(out, "%d papers: %s\n", stats.Total, summarizeStats(stats))
			return nil
		},
	}

	cmd.Flags().StringVarP(&week, "week", "w", "", "Week to inspect (YYYY-NN, defaults to the current week)")
	cmd.Flags().StringVarP(&stageFilter, "stage", "s", "", "Comma-separated stage filter (e.g. failed or submitted,complete)")
	cmd.Flags().StringVarP(&key, "paper", "p", "", "Restrict to a single paper key")
	return cmd
}

func renderStatusTable(items []*ledger.Item) string {
	headers := []string{"Paper", "Stage", "Retries", "Title", "Error"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft}

	rows := make([][]string, 0, len(items))
	for _, item := range items {
		stageCell := string(item.Stage)
		if item.Stage == ledger.StageFailed {
			stageCell = fmt.Sprintf("failed (from %s)", item.RetryStage())
		}
		rows = append(rows, []string{
			item.Key,
			stageCell,
			strconv.Itoa(item.Retries),
			truncate(item.Title, 48),
			truncate(item.ErrorMessage, 40),
		})
	}
	return renderTable(headers, rows, aligns)
}

func summarizeStats(stats ledger.StatsSummary) string {
	parts := make([]string, 0, len(ledger.AllStages()))
	for _, stage := range ledger.AllStages() {
		if count := stats.ByStage[stage]; count > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", count, stage))
		}
	}
	return strings.Join(parts, ", ")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
