package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/plotify/plant-crawler/internal/plant"
)

// fakeFetcher serves canned HTML documents keyed by URL.
type fakeFetcher struct {
	pages map[string]string
	calls []string
}

func (f *fakeFetcher) Document(_ context.Context, url string) (*goquery.Document, error) {
	f.calls = append(f.calls, url)
	html, ok := f.pages[url]
	if !ok {
		return nil, errors.New("fetch failed")
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// fakeIDs hands out sequential IDs.
type fakeIDs struct {
	next int
}

func (f *fakeIDs) NewID() (string, error) {
	f.next++
	return fmt.Sprintf("id-%d", f.next), nil
}

// fakePauser counts pauses instead of sleeping.
type fakePauser struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (p *fakePauser) Pause(_ context.Context, delay time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delays = append(p.delays, delay)
}

func TestParseItem(t *testing.T) {
	t.Parallel()

	w := NewWikipedia("https://example.org/list", 50, &fakeFetcher{}, &fakeIDs{}, zap.NewNop())

	tests := []struct {
		name           string
		text           string
		wantOK         bool
		wantScientific string
		wantCommon     string
	}{
		{"name with parenthetical", "Abeliophyllum(white forsythia)", true, "Abeliophyllum", "white forsythia"},
		{"name only", "Abelia", true, "Abelia", "Abelia"},
		{"formatting markers stripped", "*Abelmoschus*(okra)", true, "Abelmoschus", "okra"},
		{"empty text", "", false, "", ""},
		{"top marker", "Top", false, "", ""},
		{"alphabet index letter", "A", false, "", ""},
		{"mangled numeric header", "0â€“9", false, "", ""},
		{"unmatched shape", "(just a parenthetical)", false, "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec, ok := w.parseItem(tc.text)
			require.Equal(t, tc.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tc.wantScientific, rec.ScientificName)
			assert.Equal(t, tc.wantCommon, rec.CommonName)
			assert.Equal(t, SourceWikipedia, rec.Source)
			assert.Equal(t, plant.Unknown, rec.Family)
		})
	}
}

func TestParseItemLowercaseLetterIsNotAPlaceholder(t *testing.T) {
	t.Parallel()

	w := NewWikipedia("https://example.org/list", 50, &fakeFetcher{}, &fakeIDs{}, zap.NewNop())

	rec, ok := w.parseItem("a")
	require.True(t, ok)
	assert.Equal(t, "a", rec.ScientificName)
}

func buildListPage(items []string) string {
	var b strings.Builder
	b.WriteString(`<html><body><div id="mw-content-text"><ul>`)
	for _, item := range items {
		b.WriteString("<li>")
		b.WriteString(item)
		b.WriteString("</li>")
	}
	b.WriteString(`</ul><ul><li>A</li><li>B</li><li>Top</li></ul></div></body></html>`)
	return b.String()
}

func listItems(count int) []string {
	items := make([]string, 0, count)
	for i := 0; i < count; i++ {
		items = append(items, fmt.Sprintf("Plantus number%02d", i))
	}
	return items
}

func TestWikipediaExtract(t *testing.T) {
	t.Parallel()

	const url = "https://example.org/list"
	items := append(listItems(49), "Abelia(glossy abelia)")
	fetcher := &fakeFetcher{pages: map[string]string{url: buildListPage(items)}}

	w := NewWikipedia(url, 50, fetcher, &fakeIDs{}, zap.NewNop())
	records := w.Extract(context.Background())

	require.Len(t, records, 50)
	last := records[len(records)-1]
	assert.Equal(t, "Abelia", last.ScientificName)
	assert.Equal(t, "glossy abelia", last.CommonName)
	assert.Equal(t, SourceWikipedia, last.Source)
}

func TestWikipediaExtractSkipsShortLists(t *testing.T) {
	t.Parallel()

	const url = "https://example.org/list"
	// 49 items is below the navigation-list threshold.
	fetcher := &fakeFetcher{pages: map[string]string{url: buildListPage(listItems(49))}}

	w := NewWikipedia(url, 50, fetcher, &fakeIDs{}, zap.NewNop())
	assert.Empty(t, w.Extract(context.Background()))
}

func TestWikipediaExtractFetchFailure(t *testing.T) {
	t.Parallel()

	w := NewWikipedia("https://example.org/list", 50, &fakeFetcher{}, &fakeIDs{}, zap.NewNop())
	assert.Empty(t, w.Extract(context.Background()))
}

func TestWikipediaExtractMissingContentArea(t *testing.T) {
	t.Parallel()

	const url = "https://example.org/list"
	fetcher := &fakeFetcher{pages: map[string]string{url: `<html><body><p>moved</p></body></html>`}}

	w := NewWikipedia(url, 50, fetcher, &fakeIDs{}, zap.NewNop())
	assert.Empty(t, w.Extract(context.Background()))
}
