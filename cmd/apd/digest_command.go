package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"apd/internal/digest"
	"apd/internal/publish"
)

func newDigestCommand(ctx *commandContext) *cobra.Command {
	var week string
	var includeFailed bool

	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Write the weekly digest in Markdown and JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			id, err := resolvePeriod(week)
			if err != nil {
				return err
			}

			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			compiler := digest.NewCompiler(store)
			report, err := compiler.Compile(cmd.Context(), id.String(), includeFailed)
			if err != nil {
				return err
			}
			mdPath, jsonPath, err := compiler.Write(report, cfg.Paths.DigestDir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Digest for %s: %d completed, %d failed, %d pending\n",
				id, len(report.Completed), len(report.Failed), report.Pending)
			fmt.Fprintf(out, "Wrote %s and %s\n", mdPath, jsonPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&week, "week", "w", "", "Week to compile (YYYY-NN, defaults to the current week)")
	cmd.Flags().BoolVar(&includeFailed, "include-failed", true, "Append failed papers to the digest")
	return cmd
}

func newPublishCommand(ctx *commandContext) *cobra.Command {
	var week string
	var force bool

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Upload the weekly digest and videos to the hosting dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Publish.Enabled {
				return fmt.Errorf("publishing is disabled; set [publish] enabled = true in the config")
			}
			id, err := resolvePeriod(week)
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			compiler := digest.NewCompiler(store)
			report, err := compiler.Compile(cmd.Context(), id.String(), true)
			if err != nil {
				return err
			}
			mdPath, jsonPath, err := compiler.Write(report, cfg.Paths.DigestDir)
			if err != nil {
				return err
			}

			publisher := publish.New(cfg, publish.NewHubUploader(cfg), logger)
			if err := publisher.Publish(cmd.Context(), report, mdPath, jsonPath, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Published %s to %s\n", id, cfg.Publish.Dataset)
			return nil
		},
	}

	cmd.Flags().StringVarP(&week, "week", "w", "", "Week to publish (YYYY-NN, defaults to the current week)")
	cmd.Flags().BoolVar(&force, "force", false, "Republish even if the week was already uploaded")
	return cmd
}
