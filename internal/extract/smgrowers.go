package extract

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/plotify/plant-crawler/internal/metrics"
	"github.com/plotify/plant-crawler/internal/plant"
)

// culturalSection marks the metadata table on a detail page.
const culturalSection = "Habit and Cultural Information"

// detailLinkFragment identifies per-plant links on the index page.
const detailLinkFragment = "plantdisplay.asp?plant_id="

// fieldRules maps lowercased table-row keys to record fields by
// substring. Evaluated top to bottom, first match wins; the order is
// part of the contract for keys that could match more than one rule.
var fieldRules = []struct {
	match func(key string) bool
	apply func(r *plant.Record, value string)
}{
	{matchAny("category"), func(r *plant.Record, v string) { r.PlantType = v }},
	{matchAny("family"), func(r *plant.Record, v string) { r.Family = v }},
	{matchAny("evergreen"), func(r *plant.Record, v string) { r.Evergreen = v }},
	{matchAny("flower color"), func(r *plant.Record, v string) { r.FlowerColor = v }},
	{matchAny("bloomtime", "bloom time"), func(r *plant.Record, v string) { r.BloomingSeason = v }},
	{matchAny("height"), func(r *plant.Record, v string) { r.Height = v }},
	{matchAny("width"), func(r *plant.Record, v string) { r.Width = v }},
	{matchAny("exposure"), func(r *plant.Record, v string) { r.SunExposure = v }},
	{matchAny("irrigation", "water"), func(r *plant.Record, v string) { r.WaterRequirements = v }},
	{matchAny("winter hardiness", "hardiness"), func(r *plant.Record, v string) { r.USDAHardinessZone = v }},
	{matchAny("synonyms"), func(r *plant.Record, v string) { r.Synonyms = v }},
}

func matchAny(substrings ...string) func(string) bool {
	return func(key string) bool {
		for _, s := range substrings {
			if strings.Contains(key, s) {
				return true
			}
		}
		return false
	}
}

// SMGrowers extracts plant records from the San Marcos Growers index
// and its per-plant detail pages.
type SMGrowers struct {
	indexURL string
	delay    time.Duration
	fetcher  plant.Fetcher
	ids      plant.IDGenerator
	pause    plant.Pauser
	logger   *zap.Logger
}

// NewSMGrowers builds the detail-page extractor. delay is the courtesy
// pause between consecutive detail fetches.
func NewSMGrowers(indexURL string, delay time.Duration, fetcher plant.Fetcher, ids plant.IDGenerator, pause plant.Pauser, logger *zap.Logger) *SMGrowers {
	return &SMGrowers{
		indexURL: indexURL,
		delay:    delay,
		fetcher:  fetcher,
		ids:      ids,
		pause:    pause,
		logger:   logger,
	}
}

type detailLink struct {
	URL  string
	Name string
}

// Extract fetches the index page and scrapes each linked detail page.
// limit > 0 caps how many detail pages are processed.
func (s *SMGrowers) Extract(ctx context.Context, limit int) []plant.Record {
	s.logger.Info("scraping San Marcos Growers plant database", zap.String("url", s.indexURL))
	doc, err := s.fetcher.Document(ctx, s.indexURL)
	if err != nil {
		s.logger.Error("failed to fetch SMG index page", zap.Error(err))
		return nil
	}

	links := s.collectDetailLinks(doc)
	s.logger.Info("found plant links", zap.Int("count", len(links)))
	if limit > 0 && len(links) > limit {
		links = links[:limit]
		s.logger.Info("limited plant links", zap.Int("limit", limit))
	}

	var records []plant.Record
	for i, link := range links {
		if i%10 == 0 {
			s.logger.Info("processing plant", zap.Int("current", i+1), zap.Int("total", len(links)))
		}
		if rec, ok := s.Detail(ctx, link.URL, link.Name); ok {
			records = append(records, rec)
		}
		s.pause.Pause(ctx, s.delay)
		if ctx.Err() != nil {
			break
		}
	}

	s.logger.Info("SMG extraction complete", zap.Int("plants", len(records)))
	metrics.ObserveRecordsExtracted(SourceSMG, len(records))
	return records
}

// Detail scrapes a single detail page. A failed fetch yields no record;
// the URL is already on the failure tracker for a later retry pass.
func (s *SMGrowers) Detail(ctx context.Context, pageURL, name string) (plant.Record, bool) {
	doc, err := s.fetcher.Document(ctx, pageURL)
	if err != nil {
		return plant.Record{}, false
	}

	id, err := s.ids.NewID()
	if err != nil {
		s.logger.Error("generate plant id", zap.Error(err))
		return plant.Record{}, false
	}

	rec := plant.NewRecord(id, name, name, SourceSMG)
	rec.SMGLink = pageURL
	applyCulturalTable(doc, &rec)
	if common := commonNameFromTitle(doc); common != "" {
		rec.CommonName = common
	}
	return rec, true
}

func (s *SMGrowers) collectDetailLinks(doc *goquery.Document) []detailLink {
	base, err := url.Parse(s.indexURL)
	if err != nil {
		s.logger.Error("parse index url", zap.String("url", s.indexURL), zap.Error(err))
		return nil
	}

	var links []detailLink
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !strings.Contains(href, detailLinkFragment) {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			s.logger.Warn("skipping malformed plant link", zap.String("href", href), zap.Error(err))
			return
		}
		links = append(links, detailLink{
			URL:  base.ResolveReference(ref).String(),
			Name: strings.TrimSpace(a.Text()),
		})
	})
	return links
}

// applyCulturalTable finds the first table containing the cultural
// section marker and maps its "key: value" rows onto the record. A
// missing table leaves every descriptive field Unknown.
func applyCulturalTable(doc *goquery.Document, rec *plant.Record) {
	var table *goquery.Selection
	doc.Find("table").EachWithBreak(func(_ int, t *goquery.Selection) bool {
		if strings.Contains(t.Text(), culturalSection) {
			table = t
			return false
		}
		return true
	})
	if table == nil {
		return
	}

	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		td := row.Find("td").First()
		if td.Length() == 0 {
			return
		}
		text := strings.TrimSpace(td.Text())
		key, value, ok := strings.Cut(text, ":")
		if !ok {
			return
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		for _, rule := range fieldRules {
			if rule.match(key) {
				rule.apply(rec, value)
				return
			}
		}
	})
}

// commonNameFromTitle derives the common name from the page title: the
// segment after the first " - " when present, else the first quoted
// segment, else empty (caller keeps the scientific name).
func commonNameFromTitle(doc *goquery.Document) string {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		return ""
	}
	if parts := strings.Split(title, " - "); len(parts) > 1 {
		return strings.TrimSpace(parts[1])
	}
	if strings.Contains(title, `"`) {
		return strings.TrimSpace(strings.Split(title, `"`)[1])
	}
	return ""
}
