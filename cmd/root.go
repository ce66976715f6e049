package cmd

import (
	"fmt"
	"os"

	"github.com/jmehdipour/ratebook/internal/config"
	"github.com/jmehdipour/ratebook/internal/logger"
	"github.com/jmehdipour/ratebook/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var (
	cfgPath         string
	logLevel        string
	metricsTextfile string

	cfg      config.Config
	registry *prometheus.Registry

	rootCmd = &cobra.Command{
		Use:   "ratebook",
		Short: "Freight rate book: customer rates, tariffs and xlsx quotes",
		Long: `ratebook keeps per-customer freight rates and a global tariff table.
Run without a subcommand for the interactive menu.`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  setup,
		PersistentPostRunE: teardown,
		RunE:               runMenu,
	}
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		logger.Sync()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&metricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file on exit")

	rootCmd.AddCommand(newRatesCmd())
	rootCmd.AddCommand(newTariffsCmd())
	rootCmd.AddCommand(newCustomersCmd())
	rootCmd.AddCommand(newConstantsCmd())
	rootCmd.AddCommand(newQuoteCmd())
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(serveCmd)
}

// setup loads config and initializes the logger and metrics registry for every command.
func setup(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		c.Log.Level = logLevel
	}
	if metricsTextfile != "" {
		c.Metrics.Textfile = metricsTextfile
	}
	if err := logger.Init(c.Log.Level, c.Log.Encoding); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	cfg = c
	registry = metrics.NewRegistry()
	return nil
}

func teardown(*cobra.Command, []string) error {
	defer logger.Sync()
	if err := metrics.WriteTextfile(cfg.Metrics.Textfile, registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
