// Package pipeline composes fetching, extraction, merging and
// reconciliation into the batch entry points exposed to the CLI. The
// whole run is sequential: the list source completes before the detail
// source starts, and the failed-link retry pass runs after both.
package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/plotify/plant-crawler/internal/extract"
	"github.com/plotify/plant-crawler/internal/fetch"
	"github.com/plotify/plant-crawler/internal/merge"
	"github.com/plotify/plant-crawler/internal/plant"
	"github.com/plotify/plant-crawler/internal/reconcile"
	"github.com/plotify/plant-crawler/internal/sink"
)

// Runner wires the pipeline stages together.
type Runner struct {
	wikipedia *extract.Wikipedia
	smg       *extract.SMGrowers
	tracker   *fetch.Tracker
	engine    *reconcile.Engine
	sink      *sink.FileSystem
	clock     plant.Clock
	logger    *zap.Logger
}

// New constructs a Runner.
func New(
	wikipedia *extract.Wikipedia,
	smg *extract.SMGrowers,
	tracker *fetch.Tracker,
	engine *reconcile.Engine,
	fileSink *sink.FileSystem,
	clock plant.Clock,
	logger *zap.Logger,
) *Runner {
	return &Runner{
		wikipedia: wikipedia,
		smg:       smg,
		tracker:   tracker,
		engine:    engine,
		sink:      fileSink,
		clock:     clock,
		logger:    logger,
	}
}

// ExtractWikipedia runs the list-based source alone.
func (r *Runner) ExtractWikipedia(ctx context.Context) []plant.Record {
	return r.wikipedia.Extract(ctx)
}

// ExtractSMG runs the detail-page source alone, followed by a retry
// pass over any fetches that failed permanently during it.
func (r *Runner) ExtractSMG(ctx context.Context, limit int) []plant.Record {
	records := r.smg.Extract(ctx, limit)
	records = append(records, r.RetryFailed(ctx)...)
	r.saveFailedReport()
	return records
}

// ExtractAll runs both sources, retries failed links, merges the
// combined output into a unique set and persists the failed-fetch
// report when anything remains unrecovered.
func (r *Runner) ExtractAll(ctx context.Context, limit int) []plant.Record {
	r.logger.Info("starting comprehensive plant data extraction")

	wikipedia := r.wikipedia.Extract(ctx)
	smg := r.smg.Extract(ctx, limit)
	smg = append(smg, r.RetryFailed(ctx)...)

	all := make([]plant.Record, 0, len(wikipedia)+len(smg))
	all = append(all, wikipedia...)
	all = append(all, smg...)
	r.logger.Info("total plants before deduplication", zap.Int("count", len(all)))

	unique := merge.Deduplicate(all)
	r.logger.Info("unique plants after deduplication", zap.Int("count", len(unique)))

	r.saveFailedReport()
	return unique
}

// RetryFailed walks a copy of the tracked failures, re-scrapes each as
// a detail page and removes entries that now succeed. Entries that fail
// again stay recorded.
func (r *Runner) RetryFailed(ctx context.Context) []plant.Record {
	failures := r.tracker.Failures()
	if len(failures) == 0 {
		r.logger.Info("no failed links to retry")
		return nil
	}

	r.logger.Info("retrying failed links", zap.Int("count", len(failures)))
	var recovered []plant.Record
	for _, failure := range failures {
		name := nameFromDetailURL(failure.URL)
		r.logger.Info("retrying", zap.String("url", failure.URL))
		rec, ok := r.smg.Detail(ctx, failure.URL, name)
		if !ok {
			r.logger.Warn("still failed after retry", zap.String("url", failure.URL))
			continue
		}
		recovered = append(recovered, rec)
		r.tracker.Remove(failure.URL)
		r.logger.Info("successfully retried", zap.String("url", failure.URL))
	}
	return recovered
}

// Reconcile loads the expected-names list and extends records with a
// placeholder for every name still missing. An absent names file skips
// the pass entirely; the rest of the pipeline is unaffected.
func (r *Runner) Reconcile(ctx context.Context, records []plant.Record) []plant.Record {
	path := r.sink.NamesPath()
	names, err := r.sink.LoadNames(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.logger.Warn("plant names file not found, skipping reconciliation", zap.String("path", path))
		} else {
			r.logger.Error("load plant names list", zap.String("path", path), zap.Error(err))
		}
		return records
	}
	return r.engine.Reconcile(ctx, records, names)
}

func (r *Runner) saveFailedReport() {
	failures := r.tracker.Failures()
	if len(failures) == 0 {
		return
	}
	r.logger.Warn("final failed links", zap.Int("count", len(failures)))
	report := plant.FailedReport{
		TotalFailed: len(failures),
		Timestamp:   r.clock.Now().Format(time.RFC3339),
		FailedLinks: failures,
	}
	if err := r.sink.SaveFailedReport(report); err != nil {
		r.logger.Error("save failed links report", zap.Error(err))
	}
}

// nameFromDetailURL recovers a plant name from a detail URL's plant_id
// query suffix; retried URLs carry no anchor text anymore.
func nameFromDetailURL(raw string) string {
	if _, after, ok := strings.Cut(raw, "plant_id="); ok && after != "" {
		return after
	}
	return plant.Unknown
}
