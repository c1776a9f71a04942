package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/carewise-labs/guidance-cli/internal/monitoring"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print coverage, backlog, and today's generation spend",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("status"); err != nil {
			return err
		}

		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		snap, err := monitoring.NewCollector(st, cfg.Quota.DefaultDailyCap).Collect(ctx)
		if err != nil {
			return err
		}

		if statusJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		}

		cmd.Printf("Content: %d rows, %d acceptable (%.1f%%)\n",
			snap.ContentTotal, snap.ContentAcceptable, snap.AcceptableRate*100)
		cmd.Printf("Backlog: %d pending, %d processing, %d completed, %d failed\n",
			snap.BacklogPending, snap.BacklogProcessing, snap.BacklogCompleted, snap.BacklogFailed)
		cmd.Printf("Today:   %d generated, %d failed, $%.2f spent\n",
			snap.GenerationsToday, snap.FailuresToday, snap.CostTodayUSD)
		for _, lang := range snap.Languages {
			cmd.Printf("  %-8s %3d ok  %3d failed  $%.4f\n",
				lang.LanguageCode, lang.Successes, lang.Failures, lang.CostUSD)
		}
		if len(snap.LanguagesAtCap) > 0 {
			cmd.Printf("At quota: %v\n", snap.LanguagesAtCap)
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "emit the snapshot as JSON")
	rootCmd.AddCommand(statusCmd)
}
