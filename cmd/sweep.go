package main

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/carewise-labs/guidance-cli/internal/quality"
)

var (
	sweepMinAgeDays int
	sweepFloor      float64
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete stale low-quality AI content and requeue the keys",
	Long:  "Removes AI-generated rows older than the cutoff whose score never reached the floor, then requeues each key so the backfiller regenerates it.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("sweep"); err != nil {
			return err
		}

		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		minAge := sweepMinAgeDays
		if minAge == 0 {
			minAge = cfg.Sweep.MinAgeDays
		}
		cutoff := time.Now().UTC().AddDate(0, 0, -minAge)

		keys, err := st.SweepLowQuality(ctx, cutoff, sweepFloor)
		if err != nil {
			return err
		}

		requeued := 0
		for _, key := range keys {
			if err := st.Requeue(ctx, key); err != nil {
				zap.L().Warn("requeue failed", zap.String("key", key.String()), zap.Error(err))
				continue
			}
			requeued++
		}

		zap.L().Info("sweep complete",
			zap.Int("deleted", len(keys)),
			zap.Int("requeued", requeued),
			zap.Time("cutoff", cutoff),
		)
		cmd.Printf("deleted=%d requeued=%d cutoff=%s\n", len(keys), requeued, cutoff.Format(time.RFC3339))
		return nil
	},
}

func init() {
	sweepCmd.Flags().IntVar(&sweepMinAgeDays, "min-age-days", 0, "minimum row age in days (default from config)")
	sweepCmd.Flags().Float64Var(&sweepFloor, "floor", quality.DefaultThreshold, "delete rows scoring below this")
	rootCmd.AddCommand(sweepCmd)
}
