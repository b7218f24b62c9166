package pacing

import (
	"math/rand"
	"time"
)

// Option configures a Pacer at construction.
type Option func(*Pacer)

// WithDelay sets the minimum spacing between consecutive slots.
func WithDelay(d time.Duration) Option {
	return func(p *Pacer) {
		p.delay = d
	}
}

// WithJitter sets the exclusive upper bound of the random extra spacing.
// Zero disables jitter entirely.
func WithJitter(d time.Duration) Option {
	return func(p *Pacer) {
		p.jitter = d
	}
}

// WithNow replaces the wall clock, letting tests drive time by hand.
func WithNow(now func() time.Time) Option {
	return func(p *Pacer) {
		if now != nil {
			p.now = now
		}
	}
}

// WithJitterSource seeds the jitter draw, making jittered runs
// reproducible. The source is only ever read under the Pacer's lock.
func WithJitterSource(src rand.Source) Option {
	return func(p *Pacer) {
		p.rng = rand.New(src)
	}
}
