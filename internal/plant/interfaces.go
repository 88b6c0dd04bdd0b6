package plant

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Fetcher retrieves a URL and parses the response body into a document.
type Fetcher interface {
	Document(ctx context.Context, url string) (*goquery.Document, error)
}

// Clock abstracts time.Now for report timestamps.
type Clock interface {
	Now() time.Time
}

// IDGenerator mints record identifiers.
type IDGenerator interface {
	NewID() (string, error)
}

// Pauser blocks for a delay, returning early when the context finishes.
type Pauser interface {
	Pause(ctx context.Context, delay time.Duration)
}
