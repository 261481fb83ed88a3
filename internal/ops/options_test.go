package ops

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/spinit/internal/config"
	"github.com/hpungsan/spinit/internal/errors"
	"github.com/hpungsan/spinit/internal/spinner"
)

func TestAddOption_AppendsInOrderAndSyncsCount(t *testing.T) {
	ctx := context.Background()
	c, _ := newMemoryCollection(t, nil)
	s, err := c.CreateSpinner(ctx, "Lunch", "🍕")
	require.NoError(t, err)

	for _, name := range []string{"Pizza", " Sushi ", "Tacos"} {
		_, err := c.AddOption(ctx, s.ID, name)
		require.NoError(t, err)
	}

	opts, err := c.ListOptions(s.ID)
	require.NoError(t, err)
	require.Len(t, opts, 3)
	require.Equal(t, "Pizza", opts[0].Name)
	require.Equal(t, "Sushi", opts[1].Name)
	require.Equal(t, "Tacos", opts[2].Name)

	got, err := c.GetSpinner(s.ID)
	require.NoError(t, err)
	require.Equal(t, 3, got.OptionsCount)
}

func TestAddOption_SixteenthRejected(t *testing.T) {
	ctx := context.Background()
	c, _ := newMemoryCollection(t, nil)
	s, err := c.CreateSpinner(ctx, "Big", "🎡")
	require.NoError(t, err)

	for i := 1; i <= 15; i++ {
		_, err := c.AddOption(ctx, s.ID, fmt.Sprintf("Option %d", i))
		require.NoError(t, err)
	}

	_, err = c.AddOption(ctx, s.ID, "Option 16")
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.ErrCapacityExceeded))
	require.Equal(t, "You can add a maximum of 15 options per spinner.", errors.As(err).Message)

	opts, err := c.ListOptions(s.ID)
	require.NoError(t, err)
	require.Len(t, opts, 15)
	got, _ := c.GetSpinner(s.ID)
	require.Equal(t, 15, got.OptionsCount)
}

func TestAddOption_Validation(t *testing.T) {
	ctx := context.Background()
	c, _ := newMemoryCollection(t, nil)
	s, err := c.CreateSpinner(ctx, "Lunch", "🍕")
	require.NoError(t, err)

	_, err = c.AddOption(ctx, s.ID, "   ")
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
	require.Equal(t, "Please enter an option name", errors.As(err).Message)

	_, err = c.AddOption(ctx, "01MISSING", "Pizza")
	require.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestUpdateOption(t *testing.T) {
	ctx := context.Background()
	c, _ := newMemoryCollection(t, nil)
	s, err := c.CreateSpinner(ctx, "Lunch", "🍕")
	require.NoError(t, err)
	o, err := c.AddOption(ctx, s.ID, "Piza")
	require.NoError(t, err)

	updated, err := c.UpdateOption(ctx, s.ID, o.ID, "Pizza")
	require.NoError(t, err)
	require.Equal(t, o.ID, updated.ID)
	require.Equal(t, "Pizza", updated.Name)

	_, err = c.UpdateOption(ctx, s.ID, o.ID, "")
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))

	_, err = c.UpdateOption(ctx, s.ID, "01NOPE", "x")
	require.True(t, errors.Is(err, errors.ErrNotFound))
	require.Equal(t, "option", errors.As(err).Details["kind"])
}

func TestDeleteOption(t *testing.T) {
	ctx := context.Background()
	c, _ := newMemoryCollection(t, nil)
	s, err := c.CreateSpinner(ctx, "Lunch", "🍕")
	require.NoError(t, err)
	a, _ := c.AddOption(ctx, s.ID, "a")
	b, _ := c.AddOption(ctx, s.ID, "b")
	cc, _ := c.AddOption(ctx, s.ID, "c")

	require.NoError(t, c.DeleteOption(ctx, s.ID, b.ID))

	opts, err := c.ListOptions(s.ID)
	require.NoError(t, err)
	require.Equal(t, []string{a.ID, cc.ID}, []string{opts[0].ID, opts[1].ID})
	got, _ := c.GetSpinner(s.ID)
	require.Equal(t, 2, got.OptionsCount)

	err = c.DeleteOption(ctx, s.ID, b.ID)
	require.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestOptionsOfOneSpinnerDoNotLeak(t *testing.T) {
	ctx := context.Background()
	c, _ := newMemoryCollection(t, nil)
	s1, _ := c.CreateSpinner(ctx, "One", "🥇")
	s2, _ := c.CreateSpinner(ctx, "Two", "🎲")
	o, err := c.AddOption(ctx, s1.ID, "x")
	require.NoError(t, err)

	err = c.DeleteOption(ctx, s2.ID, o.ID)
	require.True(t, errors.Is(err, errors.ErrNotFound))

	opts, _ := c.ListOptions(s2.ID)
	require.Empty(t, opts)
}

func TestAddOption_ConfiguredLimit(t *testing.T) {
	ctx := context.Background()
	c, _ := newMemoryCollection(t, nil)
	c.cfg.MaxOptions = 2
	s, _ := c.CreateSpinner(ctx, "Pair", "🎲")
	_, err := c.AddOption(ctx, s.ID, "a")
	require.NoError(t, err)
	_, err = c.AddOption(ctx, s.ID, "b")
	require.NoError(t, err)
	_, err = c.AddOption(ctx, s.ID, "c")
	require.True(t, errors.Is(err, errors.ErrCapacityExceeded))
}

func TestAddOption_ConfiguredLimitCannotExceedFifteen(t *testing.T) {
	ctx := context.Background()
	cfg := config.DefaultConfig()
	cfg.MaxOptions = 20
	c, _ := newMemoryCollection(t, cfg)
	require.Equal(t, spinner.MaxOptions, c.MaxOptions())

	s, err := c.CreateSpinner(ctx, "Big", "🎡")
	require.NoError(t, err)
	for i := 1; i <= 15; i++ {
		_, err := c.AddOption(ctx, s.ID, fmt.Sprintf("Option %d", i))
		require.NoError(t, err)
	}

	_, err = c.AddOption(ctx, s.ID, "Option 16")
	require.True(t, errors.Is(err, errors.ErrCapacityExceeded))
	opts, _ := c.ListOptions(s.ID)
	require.Len(t, opts, 15)
}
