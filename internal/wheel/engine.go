package wheel

import (
	"sync"
	"time"

	"github.com/hpungsan/spinit/internal/errors"
	"github.com/hpungsan/spinit/internal/spinner"
)

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Clock schedules the engine's single completion timer.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// RealClock uses the time package.
type RealClock struct{}

// Now implements Clock.
func (RealClock) Now() time.Time { return time.Now() }

// AfterFunc implements Clock.
func (RealClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// State is the phase of a single spin.
type State int

const (
	Idle State = iota
	Spinning
	Revealing
)

func (s State) String() string {
	switch s {
	case Spinning:
		return "spinning"
	case Revealing:
		return "revealing"
	default:
		return "idle"
	}
}

// MarshalText renders the state name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Snapshot is the engine's externally visible state at one instant.
type Snapshot struct {
	State    State           `json:"state"`
	Angle    float64         `json:"angle"`
	Progress float64         `json:"progress"`
	Result   *Result         `json:"result,omitempty"`
	Selected *spinner.Option `json:"selected,omitempty"`
}

// Engine runs the Idle → Spinning → Revealing → Idle cycle. Only one
// rotation can be in flight; the selection is made when the spin starts.
type Engine struct {
	rng    RNG
	params Params
	clock  Clock

	mu       sync.Mutex
	state    State
	current  *Result
	started  time.Time
	timer    Timer
	gen      uint64
	onReveal func(Result)
}

// NewEngine creates an idle engine. A nil clock uses RealClock.
func NewEngine(rng RNG, params Params, clock Clock) *Engine {
	if rng == nil {
		rng = CryptoRNG{}
	}
	if clock == nil {
		clock = RealClock{}
	}
	return &Engine{rng: rng, params: params, clock: clock}
}

// Params returns the engine's spin constants.
func (e *Engine) Params() Params {
	return e.params
}

// Start selects an option and begins the rotation. onReveal runs once the
// animation duration has elapsed, outside the engine's lock. A spin already
// in flight is rejected; a result still on display is cleared.
func (e *Engine) Start(options []spinner.Option, onReveal func(Result)) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == Spinning {
		return Result{}, errors.NewSpinInProgress()
	}

	res, err := Spin(options, e.rng, e.params)
	if err != nil {
		return Result{}, err
	}

	e.gen++
	gen := e.gen
	e.state = Spinning
	e.current = &res
	e.started = e.clock.Now()
	e.onReveal = onReveal
	e.timer = e.clock.AfterFunc(res.Duration(), func() { e.finish(gen) })

	return res, nil
}

func (e *Engine) finish(gen uint64) {
	e.mu.Lock()
	if gen != e.gen || e.state != Spinning {
		e.mu.Unlock()
		return
	}
	e.state = Revealing
	e.timer = nil
	res := *e.current
	cb := e.onReveal
	e.mu.Unlock()

	if cb != nil {
		cb(res)
	}
}

// Dismiss clears a revealed result and returns to Idle.
func (e *Engine) Dismiss() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Revealing {
		e.reset()
	}
}

// Cancel stops any running animation and returns to Idle. A pending
// onReveal is never called after Cancel returns.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reset()
}

func (e *Engine) reset() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.gen++
	e.state = Idle
	e.current = nil
	e.onReveal = nil
}

// State returns the current phase.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Snapshot reports the phase and the decorative angle at the clock's now.
// Selected is only set once the result is revealed.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{State: e.state}
	if e.current == nil {
		return snap
	}

	res := *e.current
	switch e.state {
	case Spinning:
		elapsed := e.clock.Now().Sub(e.started)
		snap.Progress = Progress(elapsed, res.Duration())
		snap.Angle = AngleAt(res, elapsed)
	case Revealing:
		snap.Progress = 1
		snap.Angle = res.TotalRotation
		selected := res.Selected
		snap.Selected = &selected
		snap.Result = &res
	}
	return snap
}
