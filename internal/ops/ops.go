// Package ops holds the spinner and option collections and every mutation
// the surfaces (web, CLI, MCP) perform on them.
package ops

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hpungsan/spinit/internal/config"
	"github.com/hpungsan/spinit/internal/errors"
	"github.com/hpungsan/spinit/internal/spinner"
	"github.com/hpungsan/spinit/internal/store"
)

// Kind names a mutation of the collections.
type Kind int

const (
	KindCreateSpinner Kind = iota + 1
	KindUpdateSpinner
	KindDeleteSpinner
	KindAddOption
	KindUpdateOption
	KindDeleteOption
	KindReset
)

func (k Kind) String() string {
	switch k {
	case KindCreateSpinner:
		return "create-spinner"
	case KindUpdateSpinner:
		return "update-spinner"
	case KindDeleteSpinner:
		return "delete-spinner"
	case KindAddOption:
		return "add-option"
	case KindUpdateOption:
		return "update-option"
	case KindDeleteOption:
		return "delete-option"
	case KindReset:
		return "reset"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Command is one mutation request. Only the fields its Kind needs are read.
type Command struct {
	Kind      Kind
	SpinnerID string
	OptionID  string
	Title     string
	Icon      string
	Name      string
}

// Result is what a Command produced.
type Result struct {
	Spinner *spinner.Spinner `json:"spinner,omitempty"`
	Option  *spinner.Option  `json:"option,omitempty"`
	Deleted bool             `json:"deleted,omitempty"`
}

// State is the in-memory copy of both collections. Spinners are kept in
// creation order; each option list is in insertion (wheel) order.
type State struct {
	Spinners []spinner.Spinner
	Options  store.OptionsMap
}

// Collection owns State. Dispatch applies one command at a time; after each
// successful mutation a snapshot is handed to the Syncer, so memory never
// waits on storage.
type Collection struct {
	cfg     *config.Config
	adapter *store.Adapter
	syncer  *store.Syncer
	log     *slog.Logger

	mu    sync.Mutex
	state State
}

// New creates an empty Collection backed by adapter. Call Load to hydrate it.
func New(cfg *config.Config, adapter *store.Adapter, logger *slog.Logger) *Collection {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Collection{
		cfg:     cfg,
		adapter: adapter,
		syncer:  store.NewSyncer(adapter, logger),
		log:     logger,
		state:   State{Options: store.OptionsMap{}},
	}
}

// Config returns the configuration the collection validates against.
func (c *Collection) Config() *config.Config {
	return c.cfg
}

// Load replaces memory with what the store holds. Missing or unreadable
// data yields empty collections. Cached option counts are recomputed from
// the options mapping and entries for unknown spinners are dropped.
func (c *Collection) Load(ctx context.Context) {
	spinners := c.adapter.LoadSpinners(ctx)
	options := c.adapter.LoadOptions(ctx)

	limit := c.MaxOptions()
	known := make(map[string]bool, len(spinners))
	for i := range spinners {
		known[spinners[i].ID] = true
		if list := options[spinners[i].ID]; len(list) > limit {
			c.log.Warn("dropping options over the limit", "spinner", spinners[i].ID, "stored", len(list), "limit", limit)
			options[spinners[i].ID] = list[:limit]
		}
		if n := len(options[spinners[i].ID]); spinners[i].OptionsCount != n {
			c.log.Debug("reconciled option count", "spinner", spinners[i].ID, "stored", spinners[i].OptionsCount, "actual", n)
			spinners[i].OptionsCount = n
		}
	}
	for id := range options {
		if !known[id] {
			c.log.Debug("dropping options of unknown spinner", "spinner", id)
			delete(options, id)
		}
	}

	c.mu.Lock()
	c.state = State{Spinners: spinners, Options: options}
	c.mu.Unlock()
}

// Dispatch applies cmd. Commands are serialized.
func (c *Collection) Dispatch(ctx context.Context, cmd Command) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		res Result
		err error
	)
	switch cmd.Kind {
	case KindCreateSpinner:
		res, err = c.createSpinner(cmd.Title, cmd.Icon)
	case KindUpdateSpinner:
		res, err = c.updateSpinner(cmd.SpinnerID, cmd.Title, cmd.Icon)
	case KindDeleteSpinner:
		res, err = c.deleteSpinner(cmd.SpinnerID)
	case KindAddOption:
		res, err = c.addOption(cmd.SpinnerID, cmd.Name)
	case KindUpdateOption:
		res, err = c.updateOption(cmd.SpinnerID, cmd.OptionID, cmd.Name)
	case KindDeleteOption:
		res, err = c.deleteOption(cmd.SpinnerID, cmd.OptionID)
	case KindReset:
		return Result{Deleted: true}, c.reset(ctx)
	default:
		return Result{}, errors.NewInvalidRequest(fmt.Sprintf("unknown command %s", cmd.Kind))
	}
	if err != nil {
		return Result{}, err
	}

	c.syncer.Push(c.snapshotLocked())
	return res, nil
}

// reset empties memory and removes both storage keys. Pending background
// writes are flushed first so they cannot resurrect the old data.
func (c *Collection) reset(ctx context.Context) error {
	c.state = State{Options: store.OptionsMap{}}
	if err := c.syncer.Flush(ctx); err != nil {
		c.log.Warn("flush before reset failed", "error", err)
	}
	return c.adapter.ClearAll(ctx)
}

// Flush waits for every mutation dispatched so far to reach the store and
// returns the most recent write error.
func (c *Collection) Flush(ctx context.Context) error {
	return c.syncer.Flush(ctx)
}

// Close flushes and stops background saving.
func (c *Collection) Close(ctx context.Context) error {
	return c.syncer.Close(ctx)
}

// Snapshot returns a deep copy of the current state.
func (c *Collection) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.snapshotLocked()
	return State{Spinners: s.Spinners, Options: s.Options}
}

func (c *Collection) snapshotLocked() store.Snapshot {
	spinners := make([]spinner.Spinner, len(c.state.Spinners))
	copy(spinners, c.state.Spinners)
	options := make(store.OptionsMap, len(c.state.Options))
	for id, list := range c.state.Options {
		options[id] = append([]spinner.Option(nil), list...)
	}
	return store.Snapshot{Spinners: spinners, Options: options}
}

// indexOf returns the position of spinner id, or -1.
func (c *Collection) indexOf(id string) int {
	for i := range c.state.Spinners {
		if c.state.Spinners[i].ID == id {
			return i
		}
	}
	return -1
}

// syncCount refreshes the cached option count of spinner i.
func (c *Collection) syncCount(i int) {
	s := &c.state.Spinners[i]
	s.OptionsCount = len(c.state.Options[s.ID])
}
