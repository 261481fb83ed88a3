// Package wheeltest provides a manual clock and fixed RNG for driving the
// spin engine in tests.
package wheeltest

import (
	"sync"
	"time"

	"github.com/hpungsan/spinit/internal/wheel"
)

// Clock fires timers only when Advance moves past their deadline.
type Clock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*timer
}

type timer struct {
	clock   *Clock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

// NewClock returns a clock stopped at a fixed instant.
func NewClock() *Clock {
	return &Clock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

// Now implements wheel.Clock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc implements wheel.Clock.
func (c *Clock) AfterFunc(d time.Duration, f func()) wheel.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &timer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *timer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	wasActive := !t.stopped && !t.fired
	t.stopped = true
	return wasActive
}

// Advance moves time forward and runs due timers synchronously.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*timer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

// FixedRNG always returns the same index (modulo n).
type FixedRNG int

// Intn implements wheel.RNG.
func (r FixedRNG) Intn(n int) int { return int(r) % n }

// SequenceRNG returns values from a pre-set sequence, each modulo n.
type SequenceRNG struct {
	mu     sync.Mutex
	Values []int
	idx    int
}

// Intn implements wheel.RNG.
func (r *SequenceRNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := r.Values[r.idx%len(r.Values)] % n
	r.idx++
	return v
}
