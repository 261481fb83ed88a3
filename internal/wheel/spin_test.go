package wheel

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/spinit/internal/config"
	"github.com/hpungsan/spinit/internal/errors"
	"github.com/hpungsan/spinit/internal/spinner"
)

type constRNG int

func (r constRNG) Intn(n int) int { return int(r) % n }

func opts(names ...string) []spinner.Option {
	out := make([]spinner.Option, len(names))
	for i, n := range names {
		out[i] = spinner.Option{ID: spinner.NewID(), Name: n}
	}
	return out
}

func TestSpin_LunchScenario(t *testing.T) {
	lunch := opts("Pizza", "Sushi", "Tacos")

	res, err := Spin(lunch, constRNG(1), DefaultParams())
	require.NoError(t, err)

	assert.Equal(t, "Sushi", res.Selected.Name)
	assert.Equal(t, 1, res.SelectedIndex)
	assert.Equal(t, 3, res.OptionCount)
	assert.Equal(t, 120.0, res.AnglePerOption)
	assert.Equal(t, 210.0, res.TargetAngle)
	assert.Equal(t, 5970.0, res.TotalRotation)
	assert.Equal(t, int64(10580), res.DurationMs)
	assert.Equal(t, 10580*time.Millisecond, res.Duration())
}

func TestSpin_TargetFormula(t *testing.T) {
	p := DefaultParams()
	for n := 1; n <= 15; n++ {
		list := make([]spinner.Option, n)
		for i := range list {
			list[i] = spinner.Option{ID: spinner.NewID(), Name: "x"}
		}
		for i := 0; i < n; i++ {
			res := ResultFor(list, i, p)
			want := float64(i)*360/float64(n) + 90
			if math.Abs(res.TargetAngle-want) > 1e-9 {
				t.Errorf("n=%d i=%d: TargetAngle = %v, want %v", n, i, res.TargetAngle, want)
			}
			if math.Abs(res.TotalRotation-(16*360+want)) > 1e-9 {
				t.Errorf("n=%d i=%d: TotalRotation = %v, want %v", n, i, res.TotalRotation, 16*360+want)
			}
		}
	}
}

func TestSpin_SingleOption(t *testing.T) {
	res, err := Spin(opts("Only"), CryptoRNG{}, DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, "Only", res.Selected.Name)
	assert.Equal(t, 90.0, res.TargetAngle)
}

func TestSpin_EmptyCollection(t *testing.T) {
	_, err := Spin(nil, CryptoRNG{}, DefaultParams())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrEmptyCollection))
}

func TestCryptoRNG_InRange(t *testing.T) {
	rng := CryptoRNG{}
	for n := 1; n <= 20; n++ {
		for i := 0; i < 50; i++ {
			v := rng.Intn(n)
			if v < 0 || v >= n {
				t.Fatalf("Intn(%d) = %d out of range", n, v)
			}
		}
	}
}

// chiSquare6 is the p=0.01 critical value for 5 degrees of freedom.
const chiSquare6 = 15.086

// splitMix64 is a seeded RNG so the chi-square run is reproducible.
type splitMix64 uint64

func (s *splitMix64) Intn(n int) int {
	*s += 0x9e3779b97f4a7c15
	z := uint64(*s)
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	z ^= z >> 31
	return int(z % uint64(n))
}

func spinChiSquare(t *testing.T, rng RNG, n, draws int) float64 {
	t.Helper()
	list := make([]spinner.Option, n)
	for i := range list {
		list[i] = spinner.Option{ID: spinner.NewID(), Name: "o"}
	}
	counts := make([]int, n)
	for i := 0; i < draws; i++ {
		res, err := Spin(list, rng, DefaultParams())
		require.NoError(t, err)
		counts[res.SelectedIndex]++
	}
	expected := float64(draws) / float64(n)
	var stat float64
	for _, c := range counts {
		d := float64(c) - expected
		stat += d * d / expected
	}
	return stat
}

func TestSpin_UniformChiSquareSeeded(t *testing.T) {
	rng := splitMix64(42)
	stat := spinChiSquare(t, &rng, 6, 10000)
	assert.Less(t, stat, chiSquare6)
}

func TestSpin_UniformChiSquareCrypto(t *testing.T) {
	stat := spinChiSquare(t, CryptoRNG{}, 6, 10000)
	assert.Less(t, stat, chiSquare6, "chi-square over 10000 draws rejects uniformity at p=0.01")
}

func TestParamsFromConfig(t *testing.T) {
	p := ParamsFromConfig(nil)
	assert.Equal(t, DefaultParams(), p)

	cfg := config.DefaultConfig()
	cfg.FullTurns = 4
	cfg.SpinDurationMs = 2000
	zero := 0.0
	cfg.PointerOffsetDeg = &zero

	p = ParamsFromConfig(cfg)
	assert.Equal(t, 4, p.FullTurns)
	assert.Equal(t, 0.0, p.PointerOffsetDeg)
	assert.Equal(t, 2*time.Second, p.Duration)

	res := ResultFor(opts("a", "b", "c", "d"), 2, p)
	assert.Equal(t, 180.0, res.TargetAngle)
	assert.Equal(t, 4*360+180.0, res.TotalRotation)
}
