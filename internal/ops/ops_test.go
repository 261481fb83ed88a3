package ops

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/spinit/internal/config"
	"github.com/hpungsan/spinit/internal/db"
	"github.com/hpungsan/spinit/internal/errors"
	"github.com/hpungsan/spinit/internal/spinner"
	"github.com/hpungsan/spinit/internal/store"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestCollection returns a Collection backed by SQLite in a temp dir.
func newTestCollection(t *testing.T) (*Collection, *store.Adapter, *sql.DB) {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	adapter := store.NewAdapter(db.NewKV(database, db.DriverSQLite), quietLogger())
	c := New(config.DefaultConfig(), adapter, quietLogger())
	t.Cleanup(func() { c.Close(context.Background()) })
	return c, adapter, database
}

func newMemoryCollection(t *testing.T, cfg *config.Config) (*Collection, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	c := New(cfg, store.NewAdapter(mem, quietLogger()), quietLogger())
	t.Cleanup(func() { c.Close(context.Background()) })
	return c, mem
}

func TestDispatch_UnknownKind(t *testing.T) {
	c, _ := newMemoryCollection(t, nil)
	_, err := c.Dispatch(context.Background(), Command{Kind: Kind(99)})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestKind_String(t *testing.T) {
	if KindAddOption.String() != "add-option" {
		t.Errorf("KindAddOption = %q", KindAddOption.String())
	}
	if Kind(42).String() != "kind(42)" {
		t.Errorf("Kind(42) = %q", Kind(42).String())
	}
}

func TestLoad_RoundTripPreservesOrder(t *testing.T) {
	ctx := context.Background()
	c, adapter, _ := newTestCollection(t)

	lunch, err := c.CreateSpinner(ctx, "Lunch", "🍕")
	require.NoError(t, err)
	movie, err := c.CreateSpinner(ctx, "Movie night", "🎬")
	require.NoError(t, err)
	for _, name := range []string{"Pizza", "Sushi", "Tacos"} {
		_, err := c.AddOption(ctx, lunch.ID, name)
		require.NoError(t, err)
	}
	_, err = c.AddOption(ctx, movie.ID, "Alien")
	require.NoError(t, err)
	require.NoError(t, c.Flush(ctx))

	before := c.Snapshot()

	reloaded := New(config.DefaultConfig(), adapter, quietLogger())
	defer reloaded.Close(ctx)
	reloaded.Load(ctx)
	after := reloaded.Snapshot()

	require.Equal(t, before.Spinners, after.Spinners)
	require.Equal(t, before.Options, after.Options)
	require.Equal(t, []string{"Lunch", "Movie night"}, []string{after.Spinners[0].Title, after.Spinners[1].Title})
	require.Equal(t, 3, after.Spinners[0].OptionsCount)
}

func TestLoad_FirstRunIsEmpty(t *testing.T) {
	c, _, _ := newTestCollection(t)
	c.Load(context.Background())
	require.Empty(t, c.ListSpinners())
}

func TestLoad_ReconcilesCountsAndOrphans(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	require.NoError(t, mem.Set(ctx, store.KeySpinners,
		[]byte(`[{"id":"01S","title":"T","icon":"🎯","optionsCount":7,"color":"#B8DCD9"}]`)))
	require.NoError(t, mem.Set(ctx, store.KeySpinnerOptions,
		[]byte(`{"01S":[{"id":"01A","name":"a"}],"01GONE":[{"id":"01B","name":"b"}]}`)))

	c := New(nil, store.NewAdapter(mem, quietLogger()), quietLogger())
	defer c.Close(ctx)
	c.Load(ctx)

	s, err := c.GetSpinner("01S")
	require.NoError(t, err)
	require.Equal(t, 1, s.OptionsCount)
	_, ok := c.Snapshot().Options["01GONE"]
	require.False(t, ok)
}

func TestLoad_TrimsOptionsOverTheLimit(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	require.NoError(t, mem.Set(ctx, store.KeySpinners,
		[]byte(`[{"id":"01S","title":"T","icon":"🎯","optionsCount":17,"color":"#B8DCD9"}]`)))
	list := make([]spinner.Option, 17)
	for i := range list {
		list[i] = spinner.Option{ID: fmt.Sprintf("01O%02d", i), Name: fmt.Sprintf("o%d", i)}
	}
	raw, err := json.Marshal(map[string][]spinner.Option{"01S": list})
	require.NoError(t, err)
	require.NoError(t, mem.Set(ctx, store.KeySpinnerOptions, raw))

	cfg := config.DefaultConfig()
	cfg.MaxOptions = 20
	c := New(cfg, store.NewAdapter(mem, quietLogger()), quietLogger())
	defer c.Close(ctx)
	c.Load(ctx)

	opts, err := c.ListOptions("01S")
	require.NoError(t, err)
	require.Len(t, opts, spinner.MaxOptions)
	require.Equal(t, "o0", opts[0].Name)
	s, _ := c.GetSpinner("01S")
	require.Equal(t, spinner.MaxOptions, s.OptionsCount)
}

func TestDispatch_ConcurrentAddsAreSerialized(t *testing.T) {
	ctx := context.Background()
	cfg := config.DefaultConfig()
	cfg.MaxOptions = 15
	c, _ := newMemoryCollection(t, cfg)

	s, err := c.CreateSpinner(ctx, "Race", "🏁")
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	rejected := 0
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.AddOption(ctx, s.ID, "x"); err != nil {
				mu.Lock()
				rejected++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	opts, err := c.ListOptions(s.ID)
	require.NoError(t, err)
	require.Len(t, opts, 15)
	require.Equal(t, 15, rejected)

	got, err := c.GetSpinner(s.ID)
	require.NoError(t, err)
	require.Equal(t, 15, got.OptionsCount)
}

func TestReset_RemovesEverything(t *testing.T) {
	ctx := context.Background()
	c, mem := newMemoryCollection(t, nil)

	s, err := c.CreateSpinner(ctx, "Lunch", "🍕")
	require.NoError(t, err)
	_, err = c.AddOption(ctx, s.ID, "Pizza")
	require.NoError(t, err)
	require.NoError(t, c.Flush(ctx))

	require.NoError(t, c.Reset(ctx))
	require.Empty(t, c.ListSpinners())

	keys, err := mem.Keys(ctx)
	require.NoError(t, err)
	require.Empty(t, keys)
}

// failingKV accepts reads and fails every write.
type failingKV struct{ *store.Memory }

func (failingKV) Set(context.Context, string, []byte) error {
	return errors.NewPersistence("set", io.ErrUnexpectedEOF)
}

func TestPersistenceFailure_MemoryStaysAuthoritative(t *testing.T) {
	ctx := context.Background()
	c := New(nil, store.NewAdapter(failingKV{store.NewMemory()}, quietLogger()), quietLogger())
	defer c.Close(ctx)

	s, err := c.CreateSpinner(ctx, "Lunch", "🍕")
	require.NoError(t, err, "mutation succeeds even though the save fails")

	err = c.Flush(ctx)
	require.True(t, errors.Is(err, errors.ErrPersistence))

	got, err := c.GetSpinner(s.ID)
	require.NoError(t, err)
	require.Equal(t, "Lunch", got.Title)
}

func spinnerRecord(id, title string) spinner.Spinner {
	return spinner.Spinner{ID: id, Title: title, Icon: "🎯", Color: spinner.DefaultColor}
}
