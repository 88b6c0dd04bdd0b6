package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/plotify/plant-crawler/internal/plant"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

// recordingPause captures backoff delays instead of sleeping.
type recordingPause struct {
	mu     sync.Mutex
	delays []time.Duration
	cancel context.CancelFunc
}

func (p *recordingPause) Pause(_ context.Context, delay time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delays = append(p.delays, delay)
	if p.cancel != nil {
		p.cancel()
	}
}

func newTestClient(t *testing.T, pause plant.Pauser) (*Client, *Tracker) {
	t.Helper()
	tracker := NewTracker()
	client := NewClient(Config{
		MaxRetries:  5,
		BackoffBase: time.Second,
		Timeout:     5 * time.Second,
	}, tracker, &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}, pause, zap.NewNop())
	return client, tracker
}

func TestDocumentSuccess(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Abelia</title></head><body></body></html>`))
	}))
	defer srv.Close()

	client, tracker := newTestClient(t, &recordingPause{})

	doc, err := client.Document(context.Background(), srv.URL)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "Abelia", doc.Find("title").Text())
	assert.Zero(t, tracker.Len())
}

func TestDocumentRetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		attempts++
		failing := attempts <= 2
		mu.Unlock()
		if failing {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`<html><body><p>ok</p></body></html>`))
	}))
	defer srv.Close()

	pause := &recordingPause{}
	client, tracker := newTestClient(t, pause)

	doc, err := client.Document(context.Background(), srv.URL)
	require.NoError(t, err)
	require.NotNil(t, doc)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, pause.delays)
	assert.Zero(t, tracker.Len())
}

func TestDocumentExhaustsRetryBudget(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		attempts++
		mu.Unlock()
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	pause := &recordingPause{}
	client, tracker := newTestClient(t, pause)

	doc, err := client.Document(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrExhausted)
	assert.Nil(t, doc)

	mu.Lock()
	total := attempts
	mu.Unlock()

	// Exactly 5 attempts, with strictly doubling waits between them.
	assert.Equal(t, 5, total)
	assert.Equal(t, []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
	}, pause.delays)

	require.Equal(t, 1, tracker.Len())
	failure := tracker.Failures()[0]
	assert.Equal(t, srv.URL, failure.URL)
	assert.Equal(t, 5, failure.Attempts)
	assert.Equal(t, "2024-03-01T12:00:00Z", failure.Timestamp)
	assert.NotEmpty(t, failure.Error)
}

func TestDocumentCancellationDoesNotRecordFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	pause := &recordingPause{cancel: cancel}
	client, tracker := newTestClient(t, pause)

	doc, err := client.Document(ctx, srv.URL)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, doc)
	assert.Zero(t, tracker.Len())
}
