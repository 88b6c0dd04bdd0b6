// Package extract turns fetched documents into canonical plant records.
// It holds one extractor per source: the Wikipedia list page and the
// San Marcos Growers detail pages.
package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/plotify/plant-crawler/internal/metrics"
	"github.com/plotify/plant-crawler/internal/plant"
)

// Source labels stamped on extracted records.
const (
	SourceWikipedia = "Wikipedia"
	SourceSMG       = "San Marcos Growers"
)

// itemPattern matches "Name" optionally followed by "(Common name)".
var itemPattern = regexp.MustCompile(`^([^(]+?)(?:\(([^)]+)\))?$`)

// formattingMarkers are stray emphasis characters stripped from names.
var formattingMarkers = regexp.MustCompile(`[_*]`)

// placeholderTokens are list items that are navigation artifacts, not
// plants: the "Top" marker, a mis-encoded "0–9" section header as it
// appears in the wild, and the single-letter alphabet index. Checked in
// declared order, first match wins.
var placeholderTokens = []string{
	"Top", "0â€“9",
	"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L", "M",
	"N", "O", "P", "Q", "R", "S", "T", "U", "V", "W", "X", "Y", "Z",
}

// Wikipedia extracts plant records from the garden-plant list page.
type Wikipedia struct {
	url          string
	minListItems int
	fetcher      plant.Fetcher
	ids          plant.IDGenerator
	logger       *zap.Logger
}

// NewWikipedia builds the list-based extractor. Lists with fewer than
// minListItems items are treated as navigation and skipped.
func NewWikipedia(url string, minListItems int, fetcher plant.Fetcher, ids plant.IDGenerator, logger *zap.Logger) *Wikipedia {
	if minListItems <= 0 {
		minListItems = 50
	}
	return &Wikipedia{
		url:          url,
		minListItems: minListItems,
		fetcher:      fetcher,
		ids:          ids,
		logger:       logger,
	}
}

// Extract fetches the list page and returns every parsable plant entry.
// A failed fetch yields an empty result; the failure is already on the
// tracker.
func (w *Wikipedia) Extract(ctx context.Context) []plant.Record {
	w.logger.Info("scraping Wikipedia plant database", zap.String("url", w.url))
	doc, err := w.fetcher.Document(ctx, w.url)
	if err != nil {
		w.logger.Error("failed to fetch Wikipedia list page", zap.Error(err))
		return nil
	}

	content := doc.Find("div#mw-content-text")
	if content.Length() == 0 {
		w.logger.Warn("could not find main content area")
		return nil
	}

	var records []plant.Record
	content.Find("ul, ol").Each(func(i int, list *goquery.Selection) {
		items := list.Find("li")
		if items.Length() < w.minListItems {
			return
		}
		before := len(records)
		items.Each(func(_ int, item *goquery.Selection) {
			if rec, ok := w.parseItem(strings.TrimSpace(item.Text())); ok {
				records = append(records, rec)
			}
		})
		w.logger.Debug("processed list",
			zap.Int("list", i+1),
			zap.Int("items", items.Length()),
			zap.Int("plants", len(records)-before),
		)
	})

	w.logger.Info("Wikipedia extraction complete", zap.Int("plants", len(records)))
	metrics.ObserveRecordsExtracted(SourceWikipedia, len(records))
	return records
}

// parseItem parses one list item's text. It returns false for empty
// text, placeholder tokens and text that does not match the
// name/parenthetical shape; those are expected outcomes, not errors.
func (w *Wikipedia) parseItem(text string) (plant.Record, bool) {
	if text == "" || isPlaceholderToken(text) {
		return plant.Record{}, false
	}

	m := itemPattern.FindStringSubmatch(text)
	if m == nil {
		return plant.Record{}, false
	}

	scientific := formattingMarkers.ReplaceAllString(strings.TrimSpace(m[1]), "")
	common := strings.TrimSpace(m[2])

	id, err := w.ids.NewID()
	if err != nil {
		w.logger.Error("generate plant id", zap.Error(err))
		return plant.Record{}, false
	}
	return plant.NewRecord(id, scientific, common, SourceWikipedia), true
}

func isPlaceholderToken(text string) bool {
	for _, token := range placeholderTokens {
		if text == token {
			return true
		}
	}
	return false
}
