package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/carewise-labs/guidance-cli/internal/seed"
	"github.com/carewise-labs/guidance-cli/internal/store"
)

var migrateSeedPath string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("migrate"); err != nil {
			return err
		}

		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return err
		}
		zap.L().Info("schema migrated", zap.String("driver", cfg.Store.Driver))

		if migrateSeedPath == "" {
			return nil
		}
		return applySeed(ctx, st, migrateSeedPath)
	},
}

// applySeed imports catalog rows and authored content from a seed file.
// Re-running the same file is a no-op beyond refreshing existing rows.
func applySeed(ctx context.Context, st store.Store, path string) error {
	f, err := seed.Load(path)
	if err != nil {
		return err
	}

	if err := st.SeedCatalog(ctx, f.Devices, f.Languages, f.Styles); err != nil {
		return err
	}
	zap.L().Info("catalog seeded",
		zap.Int("devices", len(f.Devices)),
		zap.Int("languages", len(f.Languages)),
		zap.Int("styles", len(f.Styles)),
	)

	contents := f.Contents()
	if len(contents) == 0 {
		return nil
	}

	// Postgres gets the COPY-based bulk path; SQLite upserts row by row.
	if pg, ok := st.(*store.PostgresStore); ok {
		n, err := seed.ImportContentBulk(ctx, pg.Pool(), contents)
		if err != nil {
			return err
		}
		zap.L().Info("content imported", zap.Int64("rows", n))
		return nil
	}

	for _, c := range contents {
		if err := st.UpsertContent(ctx, c); err != nil {
			return err
		}
	}
	zap.L().Info("content imported", zap.Int("rows", len(contents)))
	return nil
}

func init() {
	migrateCmd.Flags().StringVar(&migrateSeedPath, "seed", "", "path to a YAML seed file to import after migrating")
	rootCmd.AddCommand(migrateCmd)
}
