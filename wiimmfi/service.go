package wiimmfi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Snapshot sources, recorded on every install.
const (
	SourceLive     = "live"
	SourceFallback = "fallback"
	SourceEmpty    = "empty"
)

// DocumentFetcher renders a page and returns its HTML. Implementations own
// the browser session; the first call may initialise it.
type DocumentFetcher interface {
	FetchDocument(ctx context.Context, url string) (string, error)
}

// Option customises a Service.
type Option func(*Service)

// WithCycleObserver registers a callback invoked after every snapshot
// install (live, fallback or empty). Stale-preserving cycles do not fire it.
func WithCycleObserver(fn func(*Snapshot)) Option {
	return func(s *Service) { s.observe = fn }
}

// Service owns the process-wide fetch state: the single-flight flag and the
// current snapshot. Both are mutated only at cycle entry and cycle exit.
type Service struct {
	fetcher  DocumentFetcher
	fallback FallbackLoader
	config   Config
	logger   *slog.Logger
	observe  func(*Snapshot)

	mu       sync.Mutex
	fetching bool
	snapshot *Snapshot
}

// New creates a Service. The snapshot starts absent; the first Fetch call
// triggers a cycle.
func New(fetcher DocumentFetcher, fallback FallbackLoader, cfg Config, logger *slog.Logger, opts ...Option) *Service {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	if fallback == nil {
		fallback = DirLoader{}
	}
	s := &Service{
		fetcher:  fetcher,
		fallback: fallback,
		config:   cfg,
		logger:   logger,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Current returns the installed snapshot, or nil before the first cycle
// completes.
func (s *Service) Current() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// Fetch answers one snapshot request:
//   - with a cached snapshot it returns immediately, kicking off a background
//     refresh if no cycle is running;
//   - on a cold start it runs the cycle itself and returns the result;
//   - on a cold start with a cycle already in flight it returns ErrWarmingUp.
//
// Concurrent callers never trigger a second navigation and never block on
// each other.
func (s *Service) Fetch(ctx context.Context) (*Snapshot, error) {
	snap := s.Current()

	if !s.tryBegin() {
		if snap == nil {
			return nil, ErrWarmingUp
		}
		return snap, nil
	}

	if snap != nil {
		// Caller is served from cache; refresh outlives the request.
		go s.runCycle(context.WithoutCancel(ctx))
		return snap, nil
	}

	return s.runCycle(ctx), nil
}

// tryBegin atomically claims the right to run the next fetch cycle.
func (s *Service) tryBegin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetching {
		return false
	}
	s.fetching = true
	return true
}

func (s *Service) endCycle() {
	s.mu.Lock()
	s.fetching = false
	s.mu.Unlock()
}

// runCycle performs one navigate-and-parse pass. It always produces a
// snapshot to serve: fresh on success, fallback on a soft failure, and the
// untouched previous snapshot when a retrieval error hits a warm cache.
func (s *Service) runCycle(ctx context.Context) *Snapshot {
	defer s.endCycle()

	navCtx, cancel := context.WithTimeout(ctx, s.config.NavTimeout)
	defer cancel()

	doc, err := s.fetcher.FetchDocument(navCtx, s.config.TargetURL)
	if err != nil {
		s.logger.Warn("wiimmfi: fetch failed", "error", err)
		if snap := s.Current(); snap != nil {
			return snap // stale data beats an error
		}
		return s.fallbackSnapshot()
	}

	if !strings.Contains(doc, s.config.TableMarker) {
		s.logger.Warn("wiimmfi: stats table missing, using fallback")
		return s.fallbackSnapshot()
	}

	rooms, err := ParseDocument(doc)
	if err != nil {
		s.logger.Warn("wiimmfi: parse failed", "error", err)
		if snap := s.Current(); snap != nil {
			return snap
		}
		return s.fallbackSnapshot()
	}

	s.logger.Info("wiimmfi: fetched rooms", "count", len(rooms))
	return s.install(rooms, SourceLive)
}

// fallbackSnapshot parses the local fallback document, or installs an empty
// room list when none exists. Absence is a degraded result, not an error.
func (s *Service) fallbackSnapshot() *Snapshot {
	doc, err := s.fallback.LoadDocument(s.config.FallbackName)
	if err != nil {
		if !errors.Is(err, ErrNoFallback) {
			s.logger.Warn("wiimmfi: fallback load failed", "error", err)
		}
		return s.install(nil, SourceEmpty)
	}

	rooms, err := ParseDocument(doc)
	if err != nil {
		s.logger.Warn("wiimmfi: fallback parse failed", "error", err)
		return s.install(nil, SourceEmpty)
	}

	s.logger.Info("wiimmfi: using local fallback document", "rooms", len(rooms))
	return s.install(rooms, SourceFallback)
}

// install replaces the current snapshot. Serialization happens once here so
// readers never observe a partially built result.
func (s *Service) install(rooms []Room, source string) *Snapshot {
	if rooms == nil {
		rooms = []Room{}
	}
	data, err := json.MarshalIndent(rooms, "", "  ")
	if err != nil {
		// Rooms hold plain strings; this cannot happen with well-formed data.
		s.logger.Error("wiimmfi: marshal snapshot", "error", err)
		data = []byte("[]")
	}

	snap := &Snapshot{
		Rooms:     rooms,
		FetchedAt: time.Now(),
		Source:    source,
		JSON:      data,
	}

	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()

	if s.observe != nil {
		s.observe(snap)
	}
	return snap
}
