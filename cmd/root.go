package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/carewise-labs/guidance-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "guidance-cli",
	Short: "Multilingual medical device guidance cache and generation pipeline",
	Long:  "Serves cached step-by-step device guidance, generates missing content through a provider cascade with quality gating, and backfills coverage in batches.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
