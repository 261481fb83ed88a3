package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hpungsan/spinit/internal/spinner"
)

// Snapshot is a point-in-time copy of both collections.
type Snapshot struct {
	Spinners []spinner.Spinner
	Options  OptionsMap
}

// writeTimeout bounds a single background save.
const writeTimeout = 10 * time.Second

// Syncer saves snapshots in the background. Push never blocks on storage;
// snapshots pushed while a write is running are coalesced so only the newest
// one is written next. Write failures are logged and never retried.
type Syncer struct {
	adapter *Adapter
	log     *slog.Logger

	mu       sync.Mutex
	pending  *Snapshot
	pushed   uint64
	written  uint64
	lastErr  error
	failures int
	changed  chan struct{}

	wake    chan struct{}
	stop    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// NewSyncer starts the background writer.
func NewSyncer(adapter *Adapter, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Syncer{
		adapter: adapter,
		log:     logger,
		changed: make(chan struct{}),
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.run()
	return s
}

// Push queues snap for saving. The caller must not mutate snap afterwards.
func (s *Syncer) Push(snap Snapshot) {
	s.mu.Lock()
	s.pending = &snap
	s.pushed++
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Flush waits until every snapshot pushed before the call has been written
// (or superseded by a newer write). It returns the error of the most recent
// write, or ctx's error if it expires first.
func (s *Syncer) Flush(ctx context.Context) error {
	s.mu.Lock()
	target := s.pushed
	s.mu.Unlock()

	for {
		s.mu.Lock()
		if s.written >= target {
			err := s.lastErr
			s.mu.Unlock()
			return err
		}
		ch := s.changed
		s.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopped:
			return nil
		}
	}
}

// LastError returns the error of the most recent write, nil if it succeeded.
func (s *Syncer) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Failures returns how many background writes have failed.
func (s *Syncer) Failures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures
}

// Close flushes pending writes and stops the background writer.
func (s *Syncer) Close(ctx context.Context) error {
	err := s.Flush(ctx)
	s.once.Do(func() { close(s.stop) })
	<-s.stopped
	return err
}

func (s *Syncer) run() {
	defer close(s.stopped)
	for {
		select {
		case <-s.wake:
			s.writePending()
		case <-s.stop:
			s.writePending()
			return
		}
	}
}

func (s *Syncer) writePending() {
	s.mu.Lock()
	snap := s.pending
	seq := s.pushed
	s.pending = nil
	s.mu.Unlock()

	if snap == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	err := s.adapter.SaveSpinners(ctx, snap.Spinners)
	if optErr := s.adapter.SaveOptions(ctx, snap.Options); err == nil {
		err = optErr
	}

	s.mu.Lock()
	s.written = seq
	s.lastErr = err
	if err != nil {
		s.failures++
	}
	close(s.changed)
	s.changed = make(chan struct{})
	s.mu.Unlock()

	if err != nil {
		s.log.Warn("background save failed; in-memory state remains authoritative", "error", err)
	}
}
