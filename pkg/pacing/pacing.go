// Package pacing serializes bursts of calls onto a shared timeline.
//
// A Pacer keeps a single cursor, the next free point in time. Every
// caller atomically claims the cursor position as its start, pushes the
// cursor forward by the configured delay plus a random jitter, and then
// sleeps outside the lock until its start arrives. Concurrent callers
// therefore proceed one by one, at least a delay apart, regardless of
// how many fire at once. There is no queue of waiters; ordering falls
// out of the timestamp arithmetic alone.
package pacing

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/pkg/errors"
)

const (
	// DefaultDelay is the minimum spacing between consecutive slots.
	DefaultDelay = 500 * time.Millisecond

	// DefaultJitter is the upper bound of the random extra spacing.
	// A zero jitter makes slot times fully deterministic.
	DefaultJitter = time.Second
)

// Pacer hands out start times along a single shared timeline.
// The zero cursor means nothing has been reserved yet.
type Pacer struct {
	mu     sync.Mutex
	next   time.Time
	delay  time.Duration
	jitter time.Duration
	now    func() time.Time
	rng    *rand.Rand
}

// New builds a Pacer. Negative delay or jitter is rejected outright so
// a bad configuration surfaces at wiring time, not mid-run.
func New(opts ...Option) (*Pacer, error) {
	p := &Pacer{
		delay:  DefaultDelay,
		jitter: DefaultJitter,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.delay < 0 {
		return nil, errors.Wrapf(ErrInvalidInterval, "delay %s", p.delay)
	}
	if p.jitter < 0 {
		return nil, errors.Wrapf(ErrInvalidInterval, "jitter %s", p.jitter)
	}
	if p.rng == nil {
		p.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return p, nil
}

// Reserve claims the next free slot and returns how long the caller must
// wait before taking it. The claim happens in one critical section: read
// the clock, take the later of now and the cursor as the start, advance
// the cursor by delay plus a jitter draw. Sleeping is the caller's job,
// after the lock is released, so reservations themselves never block
// behind a sleeper.
//
// A caller arriving after the cursor has passed starts immediately and
// carries no debt from earlier idle time.
func (p *Pacer) Reserve() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	start := p.next
	if start.Before(now) {
		start = now
	}

	step := p.delay
	if p.jitter > 0 {
		step += time.Duration(p.rng.Int63n(int64(p.jitter)))
	}
	p.next = start.Add(step)

	if wait := start.Sub(now); wait > 0 {
		return wait
	}
	return 0
}

// Wait reserves a slot and blocks until it opens. The returned duration
// is the wait that was assigned, whether or not it completed. A slot is
// not refunded when ctx is cancelled mid-wait; the gap it left simply
// goes unused.
func (p *Pacer) Wait(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	wait := p.Reserve()
	if wait <= 0 {
		return 0, nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-timer.C:
		return wait, nil
	case <-ctx.Done():
		return wait, ctx.Err()
	}
}

// Reset drops the cursor back to zero, forgetting any backlog. A caller
// that reserved a slot before the reset still holds its start time, so
// it may run close to a slot granted just after; acceptable for the
// intended uses, test isolation and operator intervention.
func (p *Pacer) Reset() {
	p.mu.Lock()
	p.next = time.Time{}
	p.mu.Unlock()
}

// NextAt reports the cursor position. Advisory only: another reservation
// may move it before the caller acts on the value.
func (p *Pacer) NextAt() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.next
}

// Delay reports the configured minimum spacing.
func (p *Pacer) Delay() time.Duration { return p.delay }

// Jitter reports the configured jitter upper bound.
func (p *Pacer) Jitter() time.Duration { return p.jitter }
