package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var batchConcurrency int

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Re-score every stored assessment and record snapshots",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if batchConcurrency > 0 {
			cfg.Batch.MaxConcurrency = batchConcurrency
		}
		if err := cfg.Validate("batch"); err != nil {
			return err
		}

		env, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		sum, err := env.Service.Rescore(ctx, cfg.Batch.MaxConcurrency)
		if err != nil {
			return eris.Wrap(err, "batch rescore")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "total=%d scored=%d pending=%d failed=%d\n", sum.Total, sum.Scored, sum.Pending, sum.Failed)
		if sum.Failed > 0 {
			return eris.Errorf("batch: %d assessments failed", sum.Failed)
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "max assessments scored at once (default from config)")
	rootCmd.AddCommand(batchCmd)
}
