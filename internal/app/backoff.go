package app

import (
	"context"
	"math/rand"
	"time"

	"github.com/jonboulle/clockwork"
)

// Default backoff configuration values.
const (
	DefaultBackoffInitial = 500 * time.Millisecond
	DefaultBackoffMax     = 10 * time.Second
)

// backoff implements exponential backoff with jitter.
type backoff struct {
	initial time.Duration
	max     time.Duration
	current time.Duration
	clock   clockwork.Clock
}

// newBackoff creates a new backoff with the given initial and max durations.
func newBackoff(clock clockwork.Clock, initial, max time.Duration) *backoff {
	return &backoff{
		initial: initial,
		max:     max,
		current: initial,
		clock:   clock,
	}
}

// Sleep sleeps for the current backoff duration and increases it.
// Returns the context error if ctx is done first.
func (b *backoff) Sleep(ctx context.Context) error {
	// Add jitter: ±20%
	jitter := float64(b.current) * 0.2 * (rand.Float64()*2 - 1)
	d := time.Duration(float64(b.current) + jitter)

	b.current *= 2
	if b.current > b.max {
		b.current = b.max
	}

	return sleep(ctx, b.clock, d)
}

// Reset resets the backoff to the initial duration.
func (b *backoff) Reset() {
	b.current = b.initial
}

// Current returns the current backoff duration.
func (b *backoff) Current() time.Duration {
	return b.current
}

// sleep blocks for d on clock, or until ctx is done.
func sleep(ctx context.Context, clock clockwork.Clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := clock.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.Chan():
		return nil
	}
}
