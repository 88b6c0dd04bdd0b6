// Package wait provides context-aware pause helpers.
package wait

import (
	"context"
	"time"
)

// Timer implements plant.Pauser with a real timer.
type Timer struct{}

// Pause blocks for delay or until the context finishes.
func (Timer) Pause(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
