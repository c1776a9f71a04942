package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/carewise-labs/guidance-cli/internal/model"
)

var (
	resolveLang  string
	resolveStyle string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <device-key> <step-number>",
	Short: "Resolve one guidance key from the command line",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("resolve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		step, err := strconv.Atoi(args[1])
		if err != nil {
			return eris.Errorf("step number must be an integer, got %q", args[1])
		}

		rt, err := initRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		key := model.Key{
			DeviceKey:    args[0],
			StepNumber:   step,
			LanguageCode: resolveLang,
			StyleKey:     resolveStyle,
		}

		resolution, err := rt.Orch.Resolve(ctx, key)
		if err != nil {
			return err
		}

		out := struct {
			Key       model.Key      `json:"key"`
			Content   *model.Content `json:"content"`
			CacheHit  bool           `json:"cache_hit"`
			Generated bool           `json:"generated"`
			Fallback  string         `json:"fallback,omitempty"`
		}{
			Key:       model.NormalizeKey(key),
			Content:   resolution.Content,
			CacheHit:  resolution.CacheHit,
			Generated: resolution.Generated,
			Fallback:  string(resolution.Fallback),
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveLang, "lang", "en", "language code")
	resolveCmd.Flags().StringVar(&resolveStyle, "style", "plain", "tone style key")
	rootCmd.AddCommand(resolveCmd)
}
