package session

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/spinit/internal/audio"
	"github.com/hpungsan/spinit/internal/errors"
	"github.com/hpungsan/spinit/internal/ops"
	"github.com/hpungsan/spinit/internal/store"
	"github.com/hpungsan/spinit/internal/wheel"
	"github.com/hpungsan/spinit/internal/wheel/wheeltest"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	coll   *ops.Collection
	clock  *wheeltest.Clock
	player *recordingPlayer
	deps   Deps
}

func newFixture(t *testing.T, rng wheel.RNG) *fixture {
	t.Helper()
	coll := ops.New(nil, store.NewAdapter(store.NewMemory(), quietLogger()), quietLogger())
	t.Cleanup(func() { coll.Close(context.Background()) })

	clock := wheeltest.NewClock()
	player := &recordingPlayer{Catalog: audio.NewCatalog(clock)}
	return &fixture{
		coll:   coll,
		clock:  clock,
		player: player,
		deps: Deps{
			Player: player,
			RNG:    rng,
			Clock:  clock,
			Logger: quietLogger(),
		},
	}
}

func (f *fixture) lunch(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	s, err := f.coll.CreateSpinner(ctx, "Lunch", "🍕")
	require.NoError(t, err)
	for _, name := range []string{"Pizza", "Sushi", "Tacos"} {
		_, err := f.coll.AddOption(ctx, s.ID, name)
		require.NoError(t, err)
	}
	return s.ID
}

// recordingPlayer records the calls made on top of a Catalog.
type recordingPlayer struct {
	*audio.Catalog
	mu    sync.Mutex
	calls []string
}

func (p *recordingPlayer) record(call string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
}

func (p *recordingPlayer) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func (p *recordingPlayer) Load(name string) (*audio.Sound, error) {
	p.record("load")
	return p.Catalog.Load(name)
}

func (p *recordingPlayer) Play(s *audio.Sound, done func(bool)) error {
	p.record("play")
	return p.Catalog.Play(s, done)
}

func (p *recordingPlayer) Stop(s *audio.Sound) error {
	p.record("stop")
	return p.Catalog.Stop(s)
}

func (p *recordingPlayer) Release(s *audio.Sound) error {
	p.record("release")
	return p.Catalog.Release(s)
}

func TestSession_SpinRevealsLunchScenario(t *testing.T) {
	f := newFixture(t, wheeltest.FixedRNG(1))
	id := f.lunch(t)

	s, err := Open(f.coll, id, f.deps)
	require.NoError(t, err)
	defer s.Close()

	var revealed []string
	s.OnReveal(func(r wheel.Result) { revealed = append(revealed, r.Selected.Name) })

	res, err := s.Spin()
	require.NoError(t, err)
	assert.Equal(t, 210.0, res.TargetAngle)
	assert.Equal(t, 5970.0, res.TotalRotation)
	assert.Equal(t, []string{"load", "stop", "play"}, f.player.Calls())

	f.clock.Advance(10580 * time.Millisecond)
	assert.Equal(t, []string{"Sushi"}, revealed)
	snap := s.Snapshot()
	assert.Equal(t, wheel.Revealing, snap.State)
	require.NotNil(t, snap.Selected)
	assert.Equal(t, "Sushi", snap.Selected.Name)
}

func TestSession_SpinWhileSpinningRejected(t *testing.T) {
	f := newFixture(t, wheeltest.FixedRNG(0))
	s, err := Open(f.coll, f.lunch(t), f.deps)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Spin()
	require.NoError(t, err)
	_, err = s.Spin()
	require.True(t, errors.Is(err, errors.ErrSpinInProgress))
	assert.Equal(t, []string{"load", "stop", "play"}, f.player.Calls(), "rejected spin leaves the sound alone")
}

func TestSession_RespinAfterReveal(t *testing.T) {
	f := newFixture(t, &wheeltest.SequenceRNG{Values: []int{0, 2}})
	s, err := Open(f.coll, f.lunch(t), f.deps)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Spin()
	require.NoError(t, err)
	f.clock.Advance(11 * time.Second)

	res, err := s.Spin()
	require.NoError(t, err)
	assert.Equal(t, "Tacos", res.Selected.Name)
	assert.Nil(t, s.Snapshot().Selected)
}

func TestSession_EmptySpinner(t *testing.T) {
	f := newFixture(t, nil)
	sp, err := f.coll.CreateSpinner(context.Background(), "Empty", "🫙")
	require.NoError(t, err)

	s, err := Open(f.coll, sp.ID, f.deps)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Spin()
	require.True(t, errors.Is(err, errors.ErrEmptyCollection))
	assert.Equal(t, wheel.Idle, s.Snapshot().State)
	assert.Equal(t, []string{"load"}, f.player.Calls(), "no sound for an empty wheel")
}

func TestSession_OpenUnknownSpinner(t *testing.T) {
	f := newFixture(t, nil)
	_, err := Open(f.coll, "01MISSING", f.deps)
	require.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestSession_BackDuringSpinCleansUp(t *testing.T) {
	f := newFixture(t, wheeltest.FixedRNG(0))
	s, err := Open(f.coll, f.lunch(t), f.deps)
	require.NoError(t, err)

	var revealed int
	s.OnReveal(func(wheel.Result) { revealed++ })

	_, err = s.Spin()
	require.NoError(t, err)
	f.clock.Advance(2 * time.Second)

	handled := s.BackHandler()()
	assert.True(t, handled)
	assert.True(t, s.Closed())
	assert.Equal(t, wheel.Idle, s.Snapshot().State)
	assert.Equal(t, []string{"load", "stop", "play", "stop", "release"}, f.player.Calls())

	f.clock.Advance(time.Minute)
	assert.Zero(t, revealed, "no reveal after leaving the screen")

	_, err = s.Spin()
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))

	// A second back and Close are no-ops.
	assert.True(t, s.Back())
	s.Close()
	assert.Len(t, f.player.Calls(), 5)
}

// brokenPlayer fails every call.
type brokenPlayer struct{}

func (brokenPlayer) Load(string) (*audio.Sound, error) {
	return nil, errors.NewInternal(io.ErrUnexpectedEOF)
}
func (brokenPlayer) Play(*audio.Sound, func(bool)) error { return io.ErrUnexpectedEOF }
func (brokenPlayer) Stop(*audio.Sound) error             { return io.ErrUnexpectedEOF }
func (brokenPlayer) Release(*audio.Sound) error          { return io.ErrUnexpectedEOF }

func TestSession_AudioFailureNeverBlocksSpin(t *testing.T) {
	f := newFixture(t, wheeltest.FixedRNG(2))
	f.deps.Player = brokenPlayer{}

	s, err := Open(f.coll, f.lunch(t), f.deps)
	require.NoError(t, err)
	defer s.Close()

	res, err := s.Spin()
	require.NoError(t, err)
	assert.Equal(t, "Tacos", res.Selected.Name)

	f.clock.Advance(11 * time.Second)
	assert.Equal(t, wheel.Revealing, s.Snapshot().State)
}

func TestSession_SoundLengthFollowsSpinDuration(t *testing.T) {
	f := newFixture(t, wheeltest.FixedRNG(1))
	deps := Deps{
		RNG:    wheeltest.FixedRNG(1),
		Clock:  f.clock,
		Params: wheel.Params{FullTurns: 16, PointerOffsetDeg: 90, Duration: 3 * time.Second},
		Logger: quietLogger(),
	}
	s, err := Open(f.coll, f.lunch(t), deps)
	require.NoError(t, err)
	defer s.Close()
	require.NotNil(t, s.sound)
	assert.Equal(t, 3*time.Second, s.sound.Duration())

	_, err = s.Spin()
	require.NoError(t, err)
	f.clock.Advance(2900 * time.Millisecond)
	assert.True(t, s.sound.Playing())
	assert.Equal(t, wheel.Spinning, s.Snapshot().State)

	f.clock.Advance(100 * time.Millisecond)
	assert.False(t, s.sound.Playing())
	assert.Equal(t, wheel.Revealing, s.Snapshot().State)
}
