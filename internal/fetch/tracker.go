package fetch

import "github.com/plotify/plant-crawler/internal/plant"

// Tracker records fetches that exhausted their retry budget. The
// pipeline runs on a single goroutine, so no locking is needed;
// entries only leave the list when a later retry pass succeeds.
type Tracker struct {
	failures []plant.FailedFetch
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Record appends a terminal failure.
func (t *Tracker) Record(f plant.FailedFetch) {
	t.failures = append(t.failures, f)
}

// Failures returns a copy of the recorded failures, safe to iterate
// while entries are removed.
func (t *Tracker) Failures() []plant.FailedFetch {
	out := make([]plant.FailedFetch, len(t.failures))
	copy(out, t.failures)
	return out
}

// Remove drops every entry for url.
func (t *Tracker) Remove(url string) {
	kept := t.failures[:0]
	for _, f := range t.failures {
		if f.URL != url {
			kept = append(kept, f)
		}
	}
	t.failures = kept
}

// Len reports the number of outstanding failures.
func (t *Tracker) Len() int {
	return len(t.failures)
}
