package cmd

import (
	"context"

	"github.com/jmehdipour/ratebook/internal/config"
	"github.com/spf13/cobra"
)

// withApp opens the rate book for the duration of fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(cmd.Context(), a)
}

// importFlags override the import policies from config for one run.
type importFlags struct {
	numeric, unknown, tx string
}

func (f *importFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.numeric, "numeric-policy", "", "unparsable amounts: zero|skip|fail (default from config)")
	cmd.Flags().StringVar(&f.unknown, "unknown-values", "", "values outside the constants: accept|extend|reject (default from config)")
	cmd.Flags().StringVar(&f.tx, "transaction", "", "commit per batch or per record: batch|record (default from config)")
}

func (f importFlags) apply(c *config.ImportConfig) {
	if f.numeric != "" {
		c.NumericPolicy = f.numeric
	}
	if f.unknown != "" {
		c.UnknownValues = f.unknown
	}
	if f.tx != "" {
		c.Transaction = f.tx
	}
}
