package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/leadscope/audit-cli/internal/pipeline"
)

var (
	batchCSV         string
	batchLimit       int
	batchConcurrency int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Audit a CSV of prospect websites",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		reqs, err := pipeline.ParseRequestsCSV(batchCSV)
		if err != nil {
			return eris.Wrap(err, "batch")
		}
		if batchLimit > 0 && batchLimit < len(reqs) {
			reqs = reqs[:batchLimit]
		}

		env, err := initEnv(ctx, "batch")
		if err != nil {
			return err
		}
		defer env.Close()

		concurrency := batchConcurrency
		if concurrency == 0 {
			concurrency = cfg.Batch.MaxConcurrent
		}

		zap.L().Info("processing batch",
			zap.Int("requests", len(reqs)),
			zap.Int("concurrency", concurrency),
		)

		outcomes := env.Analyzer.RunBatch(ctx, reqs, concurrency)

		var succeeded, failed int
		for _, out := range outcomes {
			if out.Err != nil {
				failed++
				continue
			}
			succeeded++
		}

		zap.L().Info("batch complete",
			zap.Int("succeeded", succeeded),
			zap.Int("failed", failed),
		)

		if failed > 0 {
			return eris.Errorf("batch: %d of %d audits failed", failed, len(outcomes))
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchCSV, "csv", "", "path to prospect CSV (required)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max rows to process (0 = all)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "max concurrent audits (default from config)")
	_ = batchCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(batchCmd)
}
