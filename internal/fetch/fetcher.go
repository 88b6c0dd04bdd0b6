// Package fetch retrieves and parses documents with bounded retry,
// recording terminal failures for later retry passes.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/plotify/plant-crawler/internal/metrics"
	"github.com/plotify/plant-crawler/internal/plant"
)

// ErrExhausted is returned once a URL has used up its retry budget.
// The failure has already been recorded on the Tracker by then.
var ErrExhausted = errors.New("retry budget exhausted")

// Config controls fetch behavior.
type Config struct {
	UserAgent   string
	Timeout     time.Duration
	MaxRetries  int
	BackoffBase time.Duration
}

// Client implements plant.Fetcher using the Colly collector. All
// outbound calls in the pipeline originate here.
type Client struct {
	cfg           Config
	baseCollector *colly.Collector
	tracker       *Tracker
	clock         plant.Clock
	pause         plant.Pauser
	logger        *zap.Logger
}

// NewClient builds a Client. Zero config values fall back to the
// pipeline defaults (5 attempts, 1s backoff unit, 30s timeout).
func NewClient(cfg Config, tracker *Tracker, clock plant.Clock, pause plant.Pauser, logger *zap.Logger) *Client {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	// Retries revisit the same URL through clones of this collector.
	c.AllowURLRevisit = true
	c.WithTransport(newHTTPTransport())
	return &Client{
		cfg:           cfg,
		baseCollector: c,
		tracker:       tracker,
		clock:         clock,
		pause:         pause,
		logger:        logger,
	}
}

// Document fetches url and parses it, making up to MaxRetries attempts
// with exponential backoff (BackoffBase << attempt after each failed
// attempt that still has budget left). Once the budget is exhausted the
// failure is appended to the Tracker and an error wrapping ErrExhausted
// is returned; callers must treat it as "no document" and continue.
func (c *Client) Document(ctx context.Context, url string) (*goquery.Document, error) {
	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		body, err := c.visit(ctx, url)
		if err == nil {
			doc, perr := goquery.NewDocumentFromReader(bytes.NewReader(body))
			if perr == nil {
				metrics.ObserveFetchAttempt(metrics.OutcomeSuccess)
				return doc, nil
			}
			err = fmt.Errorf("parse document: %w", perr)
		}
		lastErr = err
		metrics.ObserveFetchAttempt(metrics.OutcomeError)

		if attempt == c.cfg.MaxRetries-1 {
			break
		}
		c.logger.Warn("fetch attempt failed, retrying",
			zap.String("url", url),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		c.pause.Pause(ctx, c.cfg.BackoffBase<<attempt)
		if ctx.Err() != nil {
			// Cancellation is not a terminal fetch failure; leave the
			// tracker untouched so a later pass can try again.
			return nil, fmt.Errorf("fetch %s: %w", url, ctx.Err())
		}
	}

	c.logger.Error("fetch failed permanently",
		zap.String("url", url),
		zap.Int("attempts", c.cfg.MaxRetries),
		zap.Error(lastErr),
	)
	c.tracker.Record(plant.FailedFetch{
		URL:       url,
		Error:     lastErr.Error(),
		Timestamp: c.clock.Now().Format(time.RFC3339),
		Attempts:  c.cfg.MaxRetries,
	})
	metrics.ObserveFetchExhausted()
	return nil, fmt.Errorf("fetch %s after %d attempts: %w", url, c.cfg.MaxRetries, ErrExhausted)
}

func (c *Client) visit(ctx context.Context, url string) ([]byte, error) {
	collector := c.baseCollector.Clone()
	if c.cfg.UserAgent != "" {
		collector.UserAgent = c.cfg.UserAgent
	}
	collector.SetRequestTimeout(c.cfg.Timeout)

	var (
		body     []byte
		fetchErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("visit canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("visit %s: %w", url, err)
		}
		if fetchErr != nil {
			return nil, fmt.Errorf("response %s: %w", url, fetchErr)
		}
		return body, nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
