// Package cmd defines and implements the CLI commands for the
// plant-crawler executable.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/plotify/plant-crawler/internal/clock/system"
	"github.com/plotify/plant-crawler/internal/config"
	"github.com/plotify/plant-crawler/internal/extract"
	"github.com/plotify/plant-crawler/internal/fetch"
	uuidgen "github.com/plotify/plant-crawler/internal/id/uuid"
	"github.com/plotify/plant-crawler/internal/logging"
	"github.com/plotify/plant-crawler/internal/pipeline"
	"github.com/plotify/plant-crawler/internal/plant"
	"github.com/plotify/plant-crawler/internal/reconcile"
	"github.com/plotify/plant-crawler/internal/sink"
	"github.com/plotify/plant-crawler/internal/wait"
)

// Source selector values for the --sources flag.
const (
	sourcesWikipedia = "wikipedia"
	sourcesSMG       = "smg"
	sourcesBoth      = "both"
)

// newScrapeCmd creates and configures the 'scrape' subcommand, which
// runs the full extraction pipeline and writes the result files.
func newScrapeCmd() *cobra.Command {
	var (
		sources       string
		limit         int
		reconcilePass bool
		output        string
	)

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrapes plant records and writes the canonical record set",
		Long: `Scrapes plant records from the configured sources, deduplicates
them by scientific name, and writes the record set, the plant-names
list and any failure reports to the output directory. With --reconcile,
the merged set is checked against the plant-names list and missing
entries are backfilled with placeholder records.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScrape(cmd.Context(), sources, limit, reconcilePass, output)
		},
	}

	cmd.Flags().StringVar(&sources, "sources", sourcesBoth, `data sources to scrape: "wikipedia", "smg" or "both"`)
	cmd.Flags().IntVar(&limit, "limit", 0, "limit the number of SMG detail pages to process (0 = no limit)")
	cmd.Flags().BoolVar(&reconcilePass, "reconcile", false, "reconcile results against the expected-name list")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output filename prefix (overrides config)")

	return cmd
}

func runScrape(ctx context.Context, sources string, limit int, reconcilePass bool, output string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if output != "" {
		cfg.Output.Prefix = output
	}

	if err := logging.Init(cfg.Logging.Development); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logging.L.Sync() //nolint:errcheck // best-effort flush

	runner, fileSink, err := buildRunner(cfg)
	if err != nil {
		return err
	}

	var records []plant.Record
	switch sources {
	case sourcesWikipedia:
		records = runner.ExtractWikipedia(ctx)
	case sourcesSMG:
		records = runner.ExtractSMG(ctx, limit)
	case sourcesBoth:
		records = runner.ExtractAll(ctx, limit)
	default:
		return fmt.Errorf("unknown sources %q (want wikipedia, smg or both)", sources)
	}

	logging.L.Info("total plants found", zap.Int("count", len(records)))
	if len(records) == 0 {
		logging.L.Warn("no plants found; the page structure might have changed")
		return nil
	}

	if _, err := fileSink.SaveNamesList(records); err != nil {
		return fmt.Errorf("save names list: %w", err)
	}
	if _, err := fileSink.SaveRecords(records); err != nil {
		return fmt.Errorf("save records: %w", err)
	}

	if reconcilePass {
		logging.L.Info("running plant reconciliation")
		records = runner.Reconcile(ctx, records)
		if _, err := fileSink.SaveReconciled(records); err != nil {
			return fmt.Errorf("save reconciled records: %w", err)
		}
	}

	return nil
}

func buildRunner(cfg config.Config) (*pipeline.Runner, *sink.FileSystem, error) {
	clk := system.New()
	ids := uuidgen.NewGenerator()
	pauser := wait.Timer{}

	fileSink, err := sink.NewFileSystem(cfg.Output.Dir, cfg.Output.Prefix, logging.L)
	if err != nil {
		return nil, nil, fmt.Errorf("init sink: %w", err)
	}

	tracker := fetch.NewTracker()
	client := fetch.NewClient(fetch.Config{
		UserAgent:   cfg.HTTP.UserAgent,
		Timeout:     cfg.Timeout(),
		MaxRetries:  cfg.HTTP.MaxRetries,
		BackoffBase: cfg.BackoffBase(),
	}, tracker, clk, pauser, logging.L)

	wikipedia := extract.NewWikipedia(cfg.Sources.WikipediaURL, cfg.Scrape.MinListItems, client, ids, logging.L)
	smg := extract.NewSMGrowers(cfg.Sources.SMGIndexURL, cfg.DetailDelay(), client, ids, pauser, logging.L)
	engine := reconcile.New(ids, clk, pauser, cfg.ReconcileDelay(), fileSink, logging.L)

	return pipeline.New(wikipedia, smg, tracker, engine, fileSink, clk, logging.L), fileSink, nil
}
