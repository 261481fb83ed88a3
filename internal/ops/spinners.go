package ops

import (
	"context"

	"github.com/hpungsan/spinit/internal/errors"
	"github.com/hpungsan/spinit/internal/spinner"
)

// CreateSpinner adds a spinner with no options.
func (c *Collection) CreateSpinner(ctx context.Context, title, icon string) (spinner.Spinner, error) {
	res, err := c.Dispatch(ctx, Command{Kind: KindCreateSpinner, Title: title, Icon: icon})
	if err != nil {
		return spinner.Spinner{}, err
	}
	return *res.Spinner, nil
}

// UpdateSpinner changes title and icon. ID, color and option count are kept.
func (c *Collection) UpdateSpinner(ctx context.Context, id, title, icon string) (spinner.Spinner, error) {
	res, err := c.Dispatch(ctx, Command{Kind: KindUpdateSpinner, SpinnerID: id, Title: title, Icon: icon})
	if err != nil {
		return spinner.Spinner{}, err
	}
	return *res.Spinner, nil
}

// DeleteSpinner removes a spinner and its options.
func (c *Collection) DeleteSpinner(ctx context.Context, id string) error {
	_, err := c.Dispatch(ctx, Command{Kind: KindDeleteSpinner, SpinnerID: id})
	return err
}

// Reset removes every spinner and option from memory and storage.
func (c *Collection) Reset(ctx context.Context) error {
	_, err := c.Dispatch(ctx, Command{Kind: KindReset})
	return err
}

// ListSpinners returns all spinners in creation order.
func (c *Collection) ListSpinners() []spinner.Spinner {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]spinner.Spinner, len(c.state.Spinners))
	copy(out, c.state.Spinners)
	return out
}

// GetSpinner returns one spinner by ID.
func (c *Collection) GetSpinner(id string) (spinner.Spinner, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return spinner.Spinner{}, errors.NewNotFound("spinner", id)
	}
	return c.state.Spinners[i], nil
}

func (c *Collection) createSpinner(title, icon string) (Result, error) {
	title, icon, err := spinner.ValidateSpinner(title, icon)
	if err != nil {
		return Result{}, err
	}

	s := spinner.Spinner{
		ID:    spinner.NewID(),
		Title: title,
		Icon:  icon,
		Color: c.cfg.DefaultColor,
	}
	if s.Color == "" {
		s.Color = spinner.DefaultColor
	}
	c.state.Spinners = append(c.state.Spinners, s)
	return Result{Spinner: &s}, nil
}

func (c *Collection) updateSpinner(id, title, icon string) (Result, error) {
	i := c.indexOf(id)
	if i < 0 {
		return Result{}, errors.NewNotFound("spinner", id)
	}
	title, icon, err := spinner.ValidateSpinner(title, icon)
	if err != nil {
		return Result{}, err
	}

	c.state.Spinners[i].Title = title
	c.state.Spinners[i].Icon = icon
	s := c.state.Spinners[i]
	return Result{Spinner: &s}, nil
}

func (c *Collection) deleteSpinner(id string) (Result, error) {
	i := c.indexOf(id)
	if i < 0 {
		return Result{}, errors.NewNotFound("spinner", id)
	}
	c.state.Spinners = append(c.state.Spinners[:i:i], c.state.Spinners[i+1:]...)
	delete(c.state.Options, id)
	return Result{Deleted: true}, nil
}
