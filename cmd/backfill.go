package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/carewise-labs/guidance-cli/internal/backfill"
	"github.com/carewise-labs/guidance-cli/internal/store"
)

var (
	backfillPhase       int
	backfillDevice      string
	backfillPriority    int
	backfillStyle       string
	backfillMinRequests int
	backfillLimit       int
	backfillConcurrency int
	backfillBatchSize   int
)

// phaseFilter expands a rollout phase into a base filter. Phase 1 covers the
// highest-priority languages in the default style, phase 2 widens to the top
// three language tiers, phase 3 is everything. Explicit flags override it.
func phaseFilter(phase int) (store.BackfillFilter, error) {
	switch phase {
	case 0:
		return store.BackfillFilter{}, nil
	case 1:
		return store.BackfillFilter{MaxLanguagePriority: 1, StyleKey: "plain"}, nil
	case 2:
		return store.BackfillFilter{MaxLanguagePriority: 3}, nil
	case 3:
		return store.BackfillFilter{}, nil
	default:
		return store.BackfillFilter{}, eris.Errorf("unknown backfill phase %d (want 1-3)", phase)
	}
}

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Batch-generate missing guidance content",
	Long:  "Enumerates keys lacking acceptable content, most-requested first, and generates them through the provider cascade under quota and rate limits.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("backfill"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		rt, err := initRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		opts := backfillOptions()
		if backfillConcurrency > 0 {
			opts.Concurrency = backfillConcurrency
		}
		if backfillBatchSize > 0 {
			opts.BatchSize = backfillBatchSize
		}

		filter, err := phaseFilter(backfillPhase)
		if err != nil {
			return err
		}
		if backfillDevice != "" {
			filter.DeviceKey = backfillDevice
		}
		if backfillPriority > 0 {
			filter.MaxLanguagePriority = backfillPriority
		}
		if backfillStyle != "" {
			filter.StyleKey = backfillStyle
		}
		filter.MinRequestCount = backfillMinRequests
		filter.Limit = backfillLimit

		summary, err := backfill.New(rt.Store, rt.Chain, rt.Quota).Run(ctx, filter, opts)
		if err != nil {
			return err
		}

		zap.L().Info("backfill complete",
			zap.Int64("targets", summary.Targets),
			zap.Int64("generated", summary.Generated),
			zap.Int64("failed", summary.Failed),
			zap.Int64("skipped", summary.Skipped),
		)
		cmd.Printf("targets=%d generated=%d failed=%d skipped=%d\n",
			summary.Targets, summary.Generated, summary.Failed, summary.Skipped)
		return nil
	},
}

func init() {
	backfillCmd.Flags().IntVar(&backfillPhase, "phase", 0, "rollout phase preset 1-3 (0 = none)")
	backfillCmd.Flags().StringVar(&backfillDevice, "device", "", "limit to one device key")
	backfillCmd.Flags().IntVar(&backfillPriority, "priority", 0, "include only languages with priority <= N (0 = all)")
	backfillCmd.Flags().StringVar(&backfillStyle, "style", "", "limit to one style key")
	backfillCmd.Flags().IntVar(&backfillMinRequests, "min-requests", 0, "include only keys with at least N recorded misses")
	backfillCmd.Flags().IntVar(&backfillLimit, "limit", 0, "max keys to process (0 = store default)")
	backfillCmd.Flags().IntVar(&backfillConcurrency, "concurrency", 0, "in-flight generations (default from config)")
	backfillCmd.Flags().IntVar(&backfillBatchSize, "batch-size", 0, "keys per pacing batch (default from config)")
	rootCmd.AddCommand(backfillCmd)
}
