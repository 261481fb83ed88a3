package wheel

import (
	"crypto/rand"
	"math/big"
	"time"

	"github.com/hpungsan/spinit/internal/config"
	"github.com/hpungsan/spinit/internal/errors"
	"github.com/hpungsan/spinit/internal/spinner"
)

// RNG abstracts random number generation for deterministic testing.
type RNG interface {
	// Intn returns a non-negative random int in [0, n).
	Intn(n int) int
}

// CryptoRNG draws from crypto/rand. rand.Int rejects out-of-range samples,
// so every index in [0, n) is equally likely.
type CryptoRNG struct{}

// Intn implements RNG.
func (CryptoRNG) Intn(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("wheel: crypto/rand unavailable: " + err.Error())
	}
	return int(v.Int64())
}

// Params are the presentation constants of a spin.
type Params struct {
	// FullTurns is how many whole revolutions precede the target angle.
	FullTurns int
	// PointerOffsetDeg corrects for the pointer's resting orientation
	// relative to angle 0.
	PointerOffsetDeg float64
	// Duration is the animation length; it matches the spin sound.
	Duration time.Duration
}

// DefaultParams returns FullTurns 16, PointerOffsetDeg 90, Duration 10.58s.
func DefaultParams() Params {
	return Params{
		FullTurns:        16,
		PointerOffsetDeg: 90,
		Duration:         10580 * time.Millisecond,
	}
}

// ParamsFromConfig builds Params from cfg, falling back to defaults.
func ParamsFromConfig(cfg *config.Config) Params {
	p := DefaultParams()
	if cfg == nil {
		return p
	}
	if cfg.FullTurns > 0 {
		p.FullTurns = cfg.FullTurns
	}
	p.PointerOffsetDeg = cfg.PointerOffset()
	if cfg.SpinDurationMs > 0 {
		p.Duration = time.Duration(cfg.SpinDurationMs) * time.Millisecond
	}
	return p
}

// Result is the outcome of a spin, fixed before any animation runs.
type Result struct {
	Selected       spinner.Option `json:"selected"`
	SelectedIndex  int            `json:"selected_index"`
	OptionCount    int            `json:"option_count"`
	AnglePerOption float64        `json:"angle_per_option"`
	TargetAngle    float64        `json:"target_angle"`
	TotalRotation  float64        `json:"total_rotation"`
	DurationMs     int64          `json:"duration_ms"`
}

// Duration returns the animation length.
func (r Result) Duration() time.Duration {
	return time.Duration(r.DurationMs) * time.Millisecond
}

// Spin picks one option uniformly at random and computes the rotation that
// lands the pointer on it.
func Spin(options []spinner.Option, rng RNG, p Params) (Result, error) {
	n := len(options)
	if n == 0 {
		return Result{}, errors.NewEmptyCollection()
	}
	idx := rng.Intn(n)
	return ResultFor(options, idx, p), nil
}

// ResultFor computes the spin result for a known index.
func ResultFor(options []spinner.Option, idx int, p Params) Result {
	n := len(options)
	step := AnglePerOption(n)
	target := float64(idx)*step + p.PointerOffsetDeg
	return Result{
		Selected:       options[idx],
		SelectedIndex:  idx,
		OptionCount:    n,
		AnglePerOption: step,
		TargetAngle:    target,
		TotalRotation:  float64(p.FullTurns)*360 + target,
		DurationMs:     p.Duration.Milliseconds(),
	}
}
