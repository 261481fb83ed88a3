package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"

	"github.com/hpungsan/spinit/internal/errors"
	"github.com/hpungsan/spinit/internal/spinner"
)

// Storage keys for the two persisted collections.
const (
	KeySpinners       = "@spinit_spinners"
	KeySpinnerOptions = "@spinit_spinner_options"
)

// KV is the key-value contract the collections are persisted through.
// Values are UTF-8 JSON. Set replaces the whole value.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	RemoveMany(ctx context.Context, keys []string) error
}

// OptionsMap maps spinner ID to its ordered options.
type OptionsMap map[string][]spinner.Option

// Adapter reads and writes the spinner and option collections.
type Adapter struct {
	kv  KV
	log *slog.Logger
}

// NewAdapter creates an Adapter. A nil logger uses slog.Default().
func NewAdapter(kv KV, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{kv: kv, log: logger}
}

// SaveSpinners stores the full spinner list.
func (a *Adapter) SaveSpinners(ctx context.Context, spinners []spinner.Spinner) error {
	if spinners == nil {
		spinners = []spinner.Spinner{}
	}
	data, err := json.Marshal(spinners)
	if err != nil {
		return errors.NewInternal(err)
	}
	if err := a.kv.Set(ctx, KeySpinners, data); err != nil {
		a.log.Error("Error saving spinners", "error", err)
		return err
	}
	return nil
}

// LoadSpinners returns the stored spinner list. Read failures and
// undecodable data are logged and degrade to an empty list.
func (a *Adapter) LoadSpinners(ctx context.Context) []spinner.Spinner {
	var spinners []spinner.Spinner
	if !a.load(ctx, KeySpinners, &spinners) || spinners == nil {
		return []spinner.Spinner{}
	}
	return spinners
}

// SaveOptions stores the full spinner-options mapping.
func (a *Adapter) SaveOptions(ctx context.Context, options OptionsMap) error {
	if options == nil {
		options = OptionsMap{}
	}
	data, err := json.Marshal(options)
	if err != nil {
		return errors.NewInternal(err)
	}
	if err := a.kv.Set(ctx, KeySpinnerOptions, data); err != nil {
		a.log.Error("Error saving spinner options", "error", err)
		return err
	}
	return nil
}

// LoadOptions returns the stored options mapping, degrading to empty on failure.
func (a *Adapter) LoadOptions(ctx context.Context) OptionsMap {
	var options OptionsMap
	if !a.load(ctx, KeySpinnerOptions, &options) || options == nil {
		return OptionsMap{}
	}
	return options
}

// ClearAll removes both collections.
func (a *Adapter) ClearAll(ctx context.Context) error {
	if err := a.kv.RemoveMany(ctx, []string{KeySpinners, KeySpinnerOptions}); err != nil {
		a.log.Error("Error clearing data", "error", err)
		return err
	}
	return nil
}

func (a *Adapter) load(ctx context.Context, key string, dst any) bool {
	data, found, err := a.kv.Get(ctx, key)
	if err != nil {
		a.log.Error("Error reading collection", "key", key, "error", err)
		return false
	}
	if !found {
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		a.log.Error("Error decoding collection", "key", key, "error", err)
		return false
	}
	return true
}

// Memory is an in-process KV.
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// Get implements KV.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Set implements KV.
func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

// RemoveMany implements KV.
func (m *Memory) RemoveMany(_ context.Context, keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

// Keys lists stored keys in lexical order.
func (m *Memory) Keys(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
