// Package session scopes the resources of one open spinner detail screen:
// the spin engine and the loaded spin sound. Back navigation and Close run
// the same cleanup.
package session

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/hpungsan/spinit/internal/audio"
	"github.com/hpungsan/spinit/internal/errors"
	"github.com/hpungsan/spinit/internal/ops"
	"github.com/hpungsan/spinit/internal/spinner"
	"github.com/hpungsan/spinit/internal/wheel"
)

// Deps are the collaborators a session is built from. Zero values fall back
// to production implementations.
type Deps struct {
	Player    audio.Player
	RNG       wheel.RNG
	Clock     wheel.Clock
	Params    wheel.Params
	SoundName string
	Logger    *slog.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Clock == nil {
		d.Clock = wheel.RealClock{}
	}
	if d.RNG == nil {
		d.RNG = wheel.CryptoRNG{}
	}
	if d.Params == (wheel.Params{}) {
		d.Params = wheel.DefaultParams()
	}
	if d.SoundName == "" {
		d.SoundName = audio.SpinSound
	}
	// The spin sound runs exactly as long as the animation.
	if d.Player == nil {
		d.Player = audio.NewCatalog(d.Clock).WithDuration(d.SoundName, d.Params.Duration)
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return d
}

// Session is one open detail screen.
type Session struct {
	spinnerID string
	coll      *ops.Collection
	engine    *wheel.Engine
	player    audio.Player
	log       *slog.Logger

	mu       sync.Mutex
	sound    *audio.Sound
	closed   bool
	onReveal []func(wheel.Result)
}

// Open starts a session for spinnerID. A sound that fails to load is logged
// and the session spins silently.
func Open(coll *ops.Collection, spinnerID string, deps Deps) (*Session, error) {
	if _, err := coll.GetSpinner(spinnerID); err != nil {
		return nil, err
	}
	deps = deps.withDefaults()

	s := &Session{
		spinnerID: spinnerID,
		coll:      coll,
		engine:    wheel.NewEngine(deps.RNG, deps.Params, deps.Clock),
		player:    deps.Player,
		log:       deps.Logger.With("spinner", spinnerID),
	}
	sound, err := deps.Player.Load(deps.SoundName)
	if err != nil {
		s.log.Warn("Error loading sound", "sound", deps.SoundName, "error", err)
	} else {
		s.sound = sound
	}
	return s, nil
}

// SpinnerID returns the spinner this session shows.
func (s *Session) SpinnerID() string { return s.spinnerID }

// OnReveal registers fn to run whenever a spin lands.
func (s *Session) OnReveal(fn func(wheel.Result)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onReveal = append(s.onReveal, fn)
}

// Spin clears any shown result, restarts the spin sound and starts the
// wheel. The options are read at the moment of the spin.
func (s *Session) Spin() (wheel.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return wheel.Result{}, errors.NewInvalidRequest("spinner screen is closed")
	}
	if s.engine.State() == wheel.Spinning {
		return wheel.Result{}, errors.NewSpinInProgress()
	}
	options, err := s.coll.ListOptions(s.spinnerID)
	if err != nil {
		return wheel.Result{}, err
	}
	if len(options) == 0 {
		return wheel.Result{}, errors.NewEmptyCollection()
	}

	s.engine.Dismiss()
	s.playSound()

	res, err := s.engine.Start(options, s.reveal)
	if err != nil {
		s.stopSound()
		return wheel.Result{}, err
	}
	s.log.Debug("spin started", "index", res.SelectedIndex, "rotation", res.TotalRotation)
	return res, nil
}

func (s *Session) reveal(res wheel.Result) {
	s.mu.Lock()
	fns := slices.Clone(s.onReveal)
	s.mu.Unlock()

	s.log.Info("spin revealed", "option", res.Selected.Name)
	for _, fn := range fns {
		fn(res)
	}
}

func (s *Session) playSound() {
	if s.sound == nil {
		return
	}
	if err := s.player.Stop(s.sound); err != nil {
		s.log.Warn("Error stopping sound", "error", err)
	}
	if err := s.player.Play(s.sound, nil); err != nil {
		s.log.Warn("Error playing sound", "error", err)
	}
}

func (s *Session) stopSound() {
	if s.sound == nil {
		return
	}
	if err := s.player.Stop(s.sound); err != nil {
		s.log.Warn("Error stopping sound", "error", err)
	}
}

// Snapshot reports the wheel's state.
func (s *Session) Snapshot() wheel.Snapshot {
	return s.engine.Snapshot()
}

// Options returns the spinner's current options.
func (s *Session) Options() ([]spinner.Option, error) {
	return s.coll.ListOptions(s.spinnerID)
}

// Dismiss hides a revealed result.
func (s *Session) Dismiss() {
	s.engine.Dismiss()
}

// Back handles the back gesture: the screen is left and its resources
// released. It always reports the gesture as handled.
func (s *Session) Back() bool {
	s.Close()
	return true
}

// BackHandler returns the function to register with the platform's back
// gesture.
func (s *Session) BackHandler() func() bool {
	return s.Back
}

// Close cancels any running animation, stops and releases the sound.
// Calling it more than once is safe.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true

	s.engine.Cancel()
	if s.sound != nil {
		if err := s.player.Stop(s.sound); err != nil {
			s.log.Warn("Error stopping sound", "error", err)
		}
		if err := s.player.Release(s.sound); err != nil {
			s.log.Warn("Error releasing sound", "error", err)
		}
		s.sound = nil
	}
}

// Closed reports whether Close has run.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
