package cmd

import (
	"context"
	"fmt"

	"github.com/jmehdipour/ratebook/internal/logger"
	"github.com/jmehdipour/ratebook/internal/model"
	"github.com/jmehdipour/ratebook/internal/repository"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var seedDataDir string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load rates.json and tariff.json into the database",
	Long: `seed copies the flat-file rate book (rates.json and tariff.json in --data-dir)
into the SQL store. Existing records with the same key are overwritten, so running
it twice leaves the same result.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSQL(cfg); err != nil {
			return err
		}
		dir := seedDataDir
		if dir == "" {
			dir = cfg.Storage.DataDir
		}

		src, err := repository.NewFileStore(dir).Snapshot()
		if err != nil {
			return fmt.Errorf("read %s: %w", dir, err)
		}

		sqlDB, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer sqlDB.Close()

		ctx := cmd.Context()
		rates, tariffs, err := seedStore(ctx, src, repository.NewSQLStore(sqlDB))
		if err != nil {
			return err
		}

		logger.Log.Info("seed completed", zap.String("data_dir", dir), zap.Int("rates", rates), zap.Int("tariffs", tariffs))
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d rates and %d tariffs from %s\n", rates, tariffs, dir)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedDataDir, "data-dir", "", "directory holding rates.json and tariff.json (default storage.data_dir)")
}

// seedStore copies every record in src into dst in one transaction.
func seedStore(ctx context.Context, src, dst repository.Store) (rates, tariffs int, err error) {
	customers, err := src.Customers(ctx)
	if err != nil {
		return 0, 0, err
	}
	ts, err := src.Tariffs(ctx)
	if err != nil {
		return 0, 0, err
	}

	err = dst.WithinTx(ctx, func(tx repository.Store) error {
		rates, tariffs = 0, 0
		for _, c := range customers {
			scope := model.CustomerScope(c.Name)
			if _, _, err := tx.EnsureCustomer(ctx, c.Name); err != nil {
				return fmt.Errorf("customer %q: %w", c.Name, err)
			}
			for _, r := range c.Rates {
				if err := tx.Upsert(ctx, scope, r.Record); err != nil {
					logger.Log.Warn("rate skipped", zap.Stringer("scope", scope), zap.Stringer("key", r.Key()), zap.Error(err))
					continue
				}
				rates++
			}
		}
		for _, t := range ts {
			if err := tx.Upsert(ctx, model.GlobalScope, t.Record); err != nil {
				logger.Log.Warn("tariff skipped", zap.Stringer("key", t.Key()), zap.Error(err))
				continue
			}
			tariffs++
		}
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("seed: %w", err)
	}
	return rates, tariffs, nil
}
