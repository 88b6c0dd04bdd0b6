// Package sink persists pipeline outputs to the local filesystem and
// loads the expected-names list back for reconciliation.
package sink

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/plotify/plant-crawler/internal/plant"
)

// Report file names are fixed; only the record/name outputs carry the
// configured prefix.
const (
	failedReportFile  = "failed_links_report.json"
	missingReportFile = "missing_plants_report.json"
)

// FileSystem writes JSON and plain-text outputs under one directory.
type FileSystem struct {
	root   string
	prefix string
	logger *zap.Logger
}

// NewFileSystem returns a sink rooted at dir, creating it if needed.
func NewFileSystem(root, prefix string, logger *zap.Logger) (*FileSystem, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", root, err)
	}
	return &FileSystem{
		root:   root,
		prefix: prefix,
		logger: logger,
	}, nil
}

// SaveRecords writes the canonical record set as an indented JSON array
// and returns the path written.
func (s *FileSystem) SaveRecords(records []plant.Record) (string, error) {
	path := filepath.Join(s.root, s.prefix+".json")
	if err := s.writeJSON(path, records); err != nil {
		return "", err
	}
	s.logger.Info("saved plant records", zap.Int("count", len(records)), zap.String("path", path))
	return path, nil
}

// SaveReconciled writes the post-reconciliation record set.
func (s *FileSystem) SaveReconciled(records []plant.Record) (string, error) {
	path := filepath.Join(s.root, s.prefix+"_reconciled.json")
	if err := s.writeJSON(path, records); err != nil {
		return "", err
	}
	s.logger.Info("saved reconciled plant records", zap.Int("count", len(records)), zap.String("path", path))
	return path, nil
}

// SaveNamesList writes every distinct scientific and common name, one
// per line, sorted. The resulting file is the reconciliation input.
func (s *FileSystem) SaveNamesList(records []plant.Record) ([]string, error) {
	seen := make(map[string]struct{}, len(records)*2)
	var names []string
	add := func(name string) {
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	for _, rec := range records {
		add(rec.ScientificName)
		if rec.CommonName != rec.ScientificName {
			add(rec.CommonName)
		}
	}
	sort.Strings(names)

	path := s.NamesPath()
	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		return nil, fmt.Errorf("write names list %s: %w", path, err)
	}
	s.logger.Info("saved plant names list", zap.Int("count", len(names)), zap.String("path", path))
	return names, nil
}

// NamesPath returns where the expected-names list lives.
func (s *FileSystem) NamesPath() string {
	return filepath.Join(s.root, s.prefix+"_names.txt")
}

// SaveFailedReport persists the failed-fetch summary.
func (s *FileSystem) SaveFailedReport(report plant.FailedReport) error {
	path := filepath.Join(s.root, failedReportFile)
	if err := s.writeJSON(path, report); err != nil {
		return err
	}
	s.logger.Info("saved failed links report", zap.Int("failed", report.TotalFailed), zap.String("path", path))
	return nil
}

// SaveMissingReport persists the missing-names summary.
func (s *FileSystem) SaveMissingReport(report plant.MissingReport) error {
	path := filepath.Join(s.root, missingReportFile)
	if err := s.writeJSON(path, report); err != nil {
		return err
	}
	s.logger.Info("saved missing plants report", zap.Int("missing", report.TotalMissing), zap.String("path", path))
	return nil
}

// LoadNames reads an expected-names list: one name per line, trimmed,
// blank lines dropped. A missing file surfaces as an error wrapping
// fs.ErrNotExist so callers can soft-skip reconciliation.
func (s *FileSystem) LoadNames(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read names list %s: %w", path, err)
	}
	var names []string
	for _, line := range strings.Split(string(data), "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

func (s *FileSystem) writeJSON(path string, v any) error {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
