// Package reconcile compares a merged record set against an expected
// plant-name list and backfills gaps with placeholder records.
package reconcile

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/plotify/plant-crawler/internal/metrics"
	"github.com/plotify/plant-crawler/internal/plant"
)

// SourceRetry is the provenance label on reconciliation placeholders.
const SourceRetry = "Reconciliation Retry"

// logSampleSize caps how many missing names are logged individually.
const logSampleSize = 10

// ReportWriter persists the missing-names report.
type ReportWriter interface {
	SaveMissingReport(report plant.MissingReport) error
}

// Engine drives the reconciliation pass.
type Engine struct {
	ids    plant.IDGenerator
	clock  plant.Clock
	pause  plant.Pauser
	delay  time.Duration
	report ReportWriter
	logger *zap.Logger
}

// New builds an Engine. delay is the pacing pause between recovery
// attempts for missing names.
func New(ids plant.IDGenerator, clock plant.Clock, pause plant.Pauser, delay time.Duration, report ReportWriter, logger *zap.Logger) *Engine {
	return &Engine{
		ids:    ids,
		clock:  clock,
		pause:  pause,
		delay:  delay,
		report: report,
		logger: logger,
	}
}

// Reconcile returns records extended with one placeholder per expected
// name missing from the known-name set. Every record contributes its
// scientific name and, when different, its common name; the comparison
// is case-insensitive. The missing-names report is persisted as a side
// effect before recovery begins.
func (e *Engine) Reconcile(ctx context.Context, records []plant.Record, expected []string) []plant.Record {
	e.logger.Info("starting plant reconciliation", zap.Int("expected", len(expected)))

	known := knownNames(records)
	var missing []string
	for _, name := range expected {
		if _, ok := known[strings.ToLower(name)]; !ok {
			missing = append(missing, name)
		}
	}

	if len(missing) == 0 {
		e.logger.Info("all expected plants found, no reconciliation needed")
		return records
	}

	e.logger.Warn("missing plants detected", zap.Int("count", len(missing)))
	for _, name := range missing[:min(logSampleSize, len(missing))] {
		e.logger.Warn("missing plant", zap.String("name", name))
	}
	if len(missing) > logSampleSize {
		e.logger.Warn("more plants missing", zap.Int("count", len(missing)-logSampleSize))
	}

	e.saveReport(missing)

	placeholders := e.recoverMissing(ctx, missing)
	e.logger.Info("reconciliation complete", zap.Int("recovered", len(placeholders)))
	return append(records, placeholders...)
}

func (e *Engine) saveReport(missing []string) {
	if e.report == nil {
		return
	}
	rep := plant.MissingReport{
		TotalMissing:  len(missing),
		Timestamp:     e.clock.Now().Format(time.RFC3339),
		MissingPlants: missing,
	}
	if err := e.report.SaveMissingReport(rep); err != nil {
		e.logger.Error("save missing plants report", zap.Error(err))
	}
}

// recoverMissing synthesizes one placeholder per missing name. This
// path degrades to an empty-shell record rather than omitting a name:
// the name becomes both the scientific and common name, every
// descriptive field stays Unknown.
func (e *Engine) recoverMissing(ctx context.Context, missing []string) []plant.Record {
	records := make([]plant.Record, 0, len(missing))
	for i, name := range missing {
		if i%10 == 0 {
			e.logger.Info("retrying missing plant",
				zap.Int("current", i+1),
				zap.Int("total", len(missing)),
				zap.String("name", name),
			)
		}

		id, err := e.ids.NewID()
		if err != nil {
			e.logger.Error("generate plant id", zap.String("name", name), zap.Error(err))
			continue
		}
		records = append(records, plant.NewRecord(id, name, name, SourceRetry))
		metrics.ObservePlaceholderCreated()

		e.pause.Pause(ctx, e.delay)
	}
	return records
}

func knownNames(records []plant.Record) map[string]struct{} {
	known := make(map[string]struct{}, len(records)*2)
	for _, rec := range records {
		scientific := strings.TrimSpace(rec.ScientificName)
		common := strings.TrimSpace(rec.CommonName)
		if scientific != "" {
			known[strings.ToLower(scientific)] = struct{}{}
		}
		if common != "" && common != scientific {
			known[strings.ToLower(common)] = struct{}{}
		}
	}
	return known
}
