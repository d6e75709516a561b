package notifsync

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"resilinked/backend/config"
)

const (
	defaultPollInterval = 2 * time.Minute
	defaultPageLimit    = 10
)

// FetchOptions controls one Fetch. Silent only suppresses the Loading status.
type FetchOptions struct {
	Silent       bool
	AutoMarkSeen bool
	Filters      Filters
}

// Status what a UI needs to render around the cache
type Status struct {
	Loading bool
	Err     error
}

// Syncer owns the current Cache and reconciles it against a Store.
// Fetches replace the cache wholesale; the last one started wins, and
// mutations confirmed while it was in flight are replayed on top of its page.
// Mutations reach the cache only after the Store confirms them.
//
// OnChange listeners run one at a time, in cache order, and must not call
// the Syncer's mutating methods synchronously.
type Syncer struct {
	store          Store
	interval       time.Duration
	pageLimit      int
	requestTimeout time.Duration
	logger         *zap.Logger

	mu        sync.Mutex
	cache     Cache
	version   uint64 // bumped by every cache change
	fetchGen  uint64 // bumped by every fetch start and by Stop
	mutSeq    uint64 // bumped by every applied mutation
	inflight  int
	replay    []replayOp // mutations applied while a fetch was in flight
	loading   int
	lastErr   error
	filters   Filters
	listeners []func(Cache)

	deliverMu sync.Mutex
	delivered uint64

	cancel context.CancelFunc
	done   chan struct{}
}

// replayOp a confirmed mutation kept for fetches that started before it.
// id is empty for the bulk operations.
type replayOp struct {
	seq uint64
	id  string
	fn  func(Cache) Cache
}

// NewSyncer creates a Syncer; zero config values fall back to a two-minute
// poll and ten items per page
func NewSyncer(store Store, cfg *config.SyncConfig, logger *zap.Logger) *Syncer {
	s := &Syncer{
		store:     store,
		interval:  defaultPollInterval,
		pageLimit: defaultPageLimit,
		logger:    logger,
	}
	if cfg != nil {
		if cfg.PollInterval > 0 {
			s.interval = cfg.PollInterval
		}
		if cfg.PageLimit > 0 {
			s.pageLimit = cfg.PageLimit
		}
		s.requestTimeout = cfg.RequestTimeout
	}
	return s
}

// OnChange registers fn to receive every new Cache value
func (s *Syncer) OnChange(fn func(Cache)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Snapshot returns the current cache
func (s *Syncer) Snapshot() Cache {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache
}

// Status returns the loading flag and the last Store error, if any
func (s *Syncer) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{Loading: s.loading > 0, Err: s.lastErr}
}

// ────────────────────── Fetch ──────────────────────

// Fetch lists the first page and replaces the cache with it. A fetch
// overtaken by a later fetch, or by Stop, returns nil and changes nothing.
func (s *Syncer) Fetch(ctx context.Context, opts FetchOptions) error {
	s.mu.Lock()
	s.fetchGen++
	gen := s.fetchGen
	startSeq := s.mutSeq
	s.inflight++
	s.filters = opts.Filters
	if !opts.Silent {
		s.loading++
	}
	s.mu.Unlock()

	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}

	snap, err := s.store.List(ctx, ListQuery{
		Filters:      opts.Filters,
		Page:         1,
		Limit:        s.pageLimit,
		AutoMarkSeen: opts.AutoMarkSeen,
	})

	s.mu.Lock()
	if !opts.Silent {
		s.loading--
	}
	s.inflight--
	pending := s.replay
	if s.inflight == 0 {
		s.replay = nil
	}
	if gen != s.fetchGen {
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		syncErr := &SyncError{Op: "fetch", Err: err}
		s.lastErr = syncErr
		s.mu.Unlock()
		return syncErr
	}

	next := ReplaceFrom(*snap, time.Now())
	for _, op := range pending {
		if op.seq <= startSeq {
			continue
		}
		// single-item ops only replay onto items the page carries
		if op.id != "" && next.index(op.id) < 0 {
			continue
		}
		next = op.fn(next)
	}
	s.cache = next
	s.lastErr = nil
	s.version++
	version := s.version
	s.mu.Unlock()

	s.deliver(version, next)
	return nil
}

// ────────────────────── mutations ──────────────────────

// MarkRead marks id read on the server, then locally
func (s *Syncer) MarkRead(ctx context.Context, id string) error {
	if err := s.store.MarkRead(ctx, id); err != nil {
		return s.fail("markRead", err)
	}
	s.apply(id, func(c Cache) Cache { return c.ApplyRead(id) })
	return nil
}

// MarkSeen marks id seen on the server, then locally
func (s *Syncer) MarkSeen(ctx context.Context, id string) error {
	if err := s.store.MarkSeen(ctx, id); err != nil {
		return s.fail("markSeen", err)
	}
	s.apply(id, func(c Cache) Cache { return c.ApplySeen(id) })
	return nil
}

// MarkAllRead marks everything read on the server, then locally
func (s *Syncer) MarkAllRead(ctx context.Context) (int64, error) {
	n, err := s.store.MarkAllRead(ctx)
	if err != nil {
		return 0, s.fail("markAllRead", err)
	}
	s.apply("", Cache.ApplyAllRead)
	return n, nil
}

// MarkAllSeen marks everything seen on the server, then locally
func (s *Syncer) MarkAllSeen(ctx context.Context) (int64, error) {
	n, err := s.store.MarkAllSeen(ctx)
	if err != nil {
		return 0, s.fail("markAllSeen", err)
	}
	s.apply("", Cache.ApplyAllSeen)
	return n, nil
}

// Delete deletes id on the server, then drops it locally
func (s *Syncer) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return s.fail("delete", err)
	}
	s.apply(id, func(c Cache) Cache { return c.ApplyDelete(id) })
	return nil
}

// apply swaps in fn(current) and records it for any fetch still in flight
func (s *Syncer) apply(id string, fn func(Cache) Cache) {
	s.mu.Lock()
	s.mutSeq++
	if s.inflight > 0 {
		s.replay = append(s.replay, replayOp{seq: s.mutSeq, id: id, fn: fn})
	}
	s.cache = fn(s.cache)
	s.lastErr = nil
	s.version++
	version, next := s.version, s.cache
	s.mu.Unlock()

	s.deliver(version, next)
}

func (s *Syncer) fail(op string, err error) error {
	syncErr := &SyncError{Op: op, Err: err}
	s.mu.Lock()
	s.lastErr = syncErr
	s.mu.Unlock()
	return syncErr
}

// deliver hands c to the listeners unless a newer cache already went out
func (s *Syncer) deliver(version uint64, c Cache) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	if version <= s.delivered {
		return
	}
	s.delivered = version

	s.mu.Lock()
	listeners := make([]func(Cache), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(c)
	}
}

// ────────────────────── background polling ──────────────────────

// Start begins silent background fetches that never mark items seen.
// Calling Start on a running Syncer is a no-op.
func (s *Syncer) Start(ctx context.Context) {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	go s.poll(ctx, done)
}

// Stop cancels polling and waits for the loop to exit. Any fetch still in
// flight is discarded. Stop is safe to call more than once.
func (s *Syncer) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	if cancel != nil {
		s.fetchGen++
	}
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Syncer) poll(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			filters := s.filters
			s.mu.Unlock()

			err := s.Fetch(ctx, FetchOptions{Silent: true, AutoMarkSeen: false, Filters: filters})
			if err != nil && ctx.Err() == nil {
				s.logger.Warn("background notification refresh failed", zap.Error(err))
			}
		}
	}
}
