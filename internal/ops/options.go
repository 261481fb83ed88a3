package ops

import (
	"context"

	"github.com/hpungsan/spinit/internal/errors"
	"github.com/hpungsan/spinit/internal/spinner"
)

// AddOption appends an option to a spinner's wheel.
func (c *Collection) AddOption(ctx context.Context, spinnerID, name string) (spinner.Option, error) {
	res, err := c.Dispatch(ctx, Command{Kind: KindAddOption, SpinnerID: spinnerID, Name: name})
	if err != nil {
		return spinner.Option{}, err
	}
	return *res.Option, nil
}

// UpdateOption renames an option in place.
func (c *Collection) UpdateOption(ctx context.Context, spinnerID, optionID, name string) (spinner.Option, error) {
	res, err := c.Dispatch(ctx, Command{Kind: KindUpdateOption, SpinnerID: spinnerID, OptionID: optionID, Name: name})
	if err != nil {
		return spinner.Option{}, err
	}
	return *res.Option, nil
}

// DeleteOption removes an option from a spinner.
func (c *Collection) DeleteOption(ctx context.Context, spinnerID, optionID string) error {
	_, err := c.Dispatch(ctx, Command{Kind: KindDeleteOption, SpinnerID: spinnerID, OptionID: optionID})
	return err
}

// ListOptions returns a spinner's options in wheel order.
func (c *Collection) ListOptions(spinnerID string) ([]spinner.Option, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.indexOf(spinnerID) < 0 {
		return nil, errors.NewNotFound("spinner", spinnerID)
	}
	list := c.state.Options[spinnerID]
	out := make([]spinner.Option, len(list))
	copy(out, list)
	return out, nil
}

// MaxOptions is the option limit per spinner. A configured limit can only
// lower spinner.MaxOptions, never raise it.
func (c *Collection) MaxOptions() int {
	if c.cfg.MaxOptions > 0 {
		return min(c.cfg.MaxOptions, spinner.MaxOptions)
	}
	return spinner.MaxOptions
}

func (c *Collection) addOption(spinnerID, name string) (Result, error) {
	i := c.indexOf(spinnerID)
	if i < 0 {
		return Result{}, errors.NewNotFound("spinner", spinnerID)
	}
	if len(c.state.Options[spinnerID]) >= c.MaxOptions() {
		return Result{}, errors.NewCapacityExceeded(c.MaxOptions())
	}
	name, err := spinner.ValidateOptionName(name)
	if err != nil {
		return Result{}, err
	}

	o := spinner.Option{ID: spinner.NewID(), Name: name}
	c.state.Options[spinnerID] = append(c.state.Options[spinnerID], o)
	c.syncCount(i)
	s := c.state.Spinners[i]
	return Result{Option: &o, Spinner: &s}, nil
}

func (c *Collection) updateOption(spinnerID, optionID, name string) (Result, error) {
	i := c.indexOf(spinnerID)
	if i < 0 {
		return Result{}, errors.NewNotFound("spinner", spinnerID)
	}
	j := optionIndex(c.state.Options[spinnerID], optionID)
	if j < 0 {
		return Result{}, errors.NewNotFound("option", optionID)
	}
	name, err := spinner.ValidateOptionName(name)
	if err != nil {
		return Result{}, err
	}

	c.state.Options[spinnerID][j].Name = name
	o := c.state.Options[spinnerID][j]
	return Result{Option: &o}, nil
}

func (c *Collection) deleteOption(spinnerID, optionID string) (Result, error) {
	i := c.indexOf(spinnerID)
	if i < 0 {
		return Result{}, errors.NewNotFound("spinner", spinnerID)
	}
	list := c.state.Options[spinnerID]
	j := optionIndex(list, optionID)
	if j < 0 {
		return Result{}, errors.NewNotFound("option", optionID)
	}

	c.state.Options[spinnerID] = append(list[:j:j], list[j+1:]...)
	c.syncCount(i)
	return Result{Deleted: true}, nil
}

func optionIndex(list []spinner.Option, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}
