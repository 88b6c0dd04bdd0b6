package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/plotify/plant-crawler/internal/logging"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plant-crawler",
		Short: "Collects North American garden plant records from public sources.",
		Long: `plant-crawler scrapes botanical records from the Wikipedia garden-plant
list and the San Marcos Growers plant index, merges them into one
canonical deduplicated set, and can reconcile the result against an
expected-name list, backfilling anything missing.`,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is built-in defaults plus PLANTS_* environment variables)")

	cmd.AddCommand(newScrapeCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		logging.L.Fatal("Command execution failed", zap.Error(err))
	}
}
