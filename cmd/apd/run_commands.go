package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"apd/internal/pipeline"
)

// phaseFlags are shared by every phase command.
type phaseFlags struct {
	week  string
	key   string
	limit int
	force bool
}

func (f *phaseFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.week, "week", "w", "", "Week to process (YYYY-NN, defaults to the current week)")
	cmd.Flags().StringVarP(&f.key, "paper", "p", "", "Restrict to a single paper key")
	cmd.Flags().IntVarP(&f.limit, "max", "m", 0, "Maximum number of papers to attempt (0 = all)")
	cmd.Flags().BoolVar(&f.force, "force", false, "Also attempt papers that are out of automatic retries")
}

func newPhaseCommand(ctx *commandContext, phase, short string) *cobra.Command {
	var flags phaseFlags

	cmd := &cobra.Command{
		Use:   phase,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPhases(cmd, ctx, &flags, phase, false)
		},
	}
	flags.register(cmd)
	return cmd
}

func newAcquireCommand(ctx *commandContext) *cobra.Command {
	return newPhaseCommand(ctx, "acquire", "Download PDFs for newly discovered papers")
}

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	return newPhaseCommand(ctx, "submit", "Submit downloaded papers for video generation")
}

func newFetchCommand(ctx *commandContext) *cobra.Command {
	return newPhaseCommand(ctx, "fetch", "Collect finished videos for submitted papers")
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var flags phaseFlags
	var skipDiscovery bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the whole pipeline for a week: discover, acquire, submit, fetch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPhases(cmd, ctx, &flags, "", !skipDiscovery)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&skipDiscovery, "skip-discovery", false, "Do not refresh the paper list before running")
	return cmd
}

// runPhases executes one phase, or the full chain when phase is empty. The
// run lock guarantees a single active run per machine.
func runPhases(cmd *cobra.Command, ctx *commandContext, flags *phaseFlags, phase string, discover bool) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	id, err := resolvePeriod(flags.week)
	if err != nil {
		return err
	}

	lock, err := pipeline.AcquireRunLock(cfg)
	if err != nil {
		return err
	}
	defer lock.Release()

	store, err := ctx.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	driver, err := ctx.buildDriver(store)
	if err != nil {
		return err
	}

	if discover {
		added, seen, err := driver.Ingest(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("discovery failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Discovered %d papers for %s (%d new)\n", seen, id, added)
	}

	opts := pipeline.PhaseOptions{Key: flags.key, Limit: flags.limit, Force: flags.force}
	var summary pipeline.RunSummary
	if phase == "" {
		summary, err = driver.RunAll(cmd.Context(), id.String(), opts)
	} else {
		summary, err = driver.RunPhase(cmd.Context(), id.String(), phase, opts)
	}
	if err != nil {
		return err
	}

	printSummary(cmd, summary)
	return nil
}

func printSummary(cmd *cobra.Command, summary pipeline.RunSummary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: attempted %d, succeeded %d, retried %d, not ready %d, skipped %d\n",
		summary.Phase, summary.Attempted, summary.Succeeded, summary.Retried, summary.NotReady, summary.Skipped)
	if len(summary.FailedPermanent) > 0 {
		fmt.Fprintf(out, "Out of retries: %v\n", summary.FailedPermanent)
	}
}
