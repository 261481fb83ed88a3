// Package audio plays the spin sound. The server side never produces sound
// itself: Catalog tracks playback of bundled resources on a timer so
// completion callbacks fire when the real sound would end.
package audio

import (
	"sync"
	"time"

	"github.com/hpungsan/spinit/internal/errors"
	"github.com/hpungsan/spinit/internal/wheel"
)

// SpinSound is the sound played while the wheel turns.
const SpinSound = "spinning_jar_cap.mp3"

// Resources lists the bundled sounds and their lengths.
var Resources = map[string]time.Duration{
	SpinSound: 10580 * time.Millisecond,
}

// Player loads and plays sounds. onComplete receives false when playback
// was stopped before the end.
type Player interface {
	Load(name string) (*Sound, error)
	Play(s *Sound, onComplete func(ok bool)) error
	Stop(s *Sound) error
	Release(s *Sound) error
}

// Sound is a loaded resource.
type Sound struct {
	name     string
	duration time.Duration

	mu       sync.Mutex
	playing  bool
	released bool
	timer    wheel.Timer
	done     func(bool)
	gen      uint64
}

// Name returns the resource name.
func (s *Sound) Name() string { return s.name }

// Duration returns the resource length.
func (s *Sound) Duration() time.Duration { return s.duration }

// Playing reports whether playback is in progress.
func (s *Sound) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Catalog is a Player over Resources.
type Catalog struct {
	clock     wheel.Clock
	resources map[string]time.Duration
}

// NewCatalog returns a Catalog. A nil clock uses wheel.RealClock.
func NewCatalog(clock wheel.Clock) *Catalog {
	if clock == nil {
		clock = wheel.RealClock{}
	}
	return &Catalog{clock: clock, resources: Resources}
}

// WithDuration returns a copy of c in which the resource name lasts d.
// Unknown names and non-positive durations leave the copy unchanged.
func (c *Catalog) WithDuration(name string, d time.Duration) *Catalog {
	res := make(map[string]time.Duration, len(c.resources))
	for k, v := range c.resources {
		res[k] = v
	}
	if _, ok := res[name]; ok && d > 0 {
		res[name] = d
	}
	return &Catalog{clock: c.clock, resources: res}
}

// Load implements Player.
func (c *Catalog) Load(name string) (*Sound, error) {
	d, ok := c.resources[name]
	if !ok {
		return nil, errors.NewNotFound("sound", name)
	}
	return &Sound{name: name, duration: d}, nil
}

// Play implements Player. Playing a sound that is already playing restarts it.
func (c *Catalog) Play(s *Sound, onComplete func(ok bool)) error {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return errors.NewInvalidRequest("sound released: " + s.name)
	}
	prev := s.stopLocked()
	s.gen++
	gen := s.gen
	s.playing = true
	s.done = onComplete
	s.timer = c.clock.AfterFunc(s.duration, func() { s.complete(gen) })
	s.mu.Unlock()

	if prev != nil {
		prev(false)
	}
	return nil
}

// Stop implements Player. Stopping an idle sound is a no-op.
func (c *Catalog) Stop(s *Sound) error {
	s.mu.Lock()
	prev := s.stopLocked()
	s.mu.Unlock()
	if prev != nil {
		prev(false)
	}
	return nil
}

// Release implements Player. The sound cannot be played afterwards.
func (c *Catalog) Release(s *Sound) error {
	s.mu.Lock()
	prev := s.stopLocked()
	s.released = true
	s.mu.Unlock()
	if prev != nil {
		prev(false)
	}
	return nil
}

// stopLocked cancels playback and returns the pending callback, if any.
func (s *Sound) stopLocked() func(bool) {
	if !s.playing {
		return nil
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.playing = false
	s.gen++
	cb := s.done
	s.done = nil
	return cb
}

func (s *Sound) complete(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || !s.playing {
		s.mu.Unlock()
		return
	}
	s.playing = false
	s.timer = nil
	cb := s.done
	s.done = nil
	s.mu.Unlock()

	if cb != nil {
		cb(true)
	}
}
