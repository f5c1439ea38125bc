package service

import (
	"context"
	"sync"
	"time"

	"whalewatch/internal/app/port"
	"whalewatch/internal/derive"
	"whalewatch/internal/domain/entity"
	"whalewatch/internal/pkg/metrics"

	"golang.org/x/sync/errgroup"
)

// RefreshScheduler drives the recurring refresh cycle: health probe
// first, then the bulk wallet collection and any selected-wallet detail
// fetches concurrently. At most one cycle is in flight at a time; a tick
// arriving while a cycle runs is skipped outright, never queued.
type RefreshScheduler struct {
	api         port.WhaleAPI
	store       *Store
	logger      port.Logger
	interval    time.Duration
	tradesLimit int

	mu         sync.Mutex
	refreshing bool
	followUp   bool
	paused     bool
	started    bool
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewRefreshScheduler creates a scheduler over the given API and store.
func NewRefreshScheduler(api port.WhaleAPI, store *Store, interval time.Duration, tradesLimit int, logger port.Logger) *RefreshScheduler {
	if tradesLimit <= 0 {
		tradesLimit = 50
	}
	return &RefreshScheduler{
		api:         api,
		store:       store,
		logger:      logger,
		interval:    interval,
		tradesLimit: tradesLimit,
	}
}

// Start begins the recurring cycle: one immediate refresh, then one per
// interval until Stop is called. Calling Start twice is a no-op.
func (s *RefreshScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.run(runCtx)
}

func (s *RefreshScheduler) run(ctx context.Context) {
	defer close(s.done)

	s.logger.Info("Refresh scheduler started", "interval", s.interval.String())
	s.RefreshNow(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Refresh scheduler stopped")
			return
		case <-ticker.C:
			if s.isPaused() {
				continue
			}
			s.tick(ctx)
		}
	}
}

// Stop cancels the recurring tick. An in-flight cycle is allowed to run
// its network calls to completion but its result is discarded; no state
// mutation happens after Stop returns and the cycle winds down.
func (s *RefreshScheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Pause suspends the recurring tick without discarding accumulated
// canonical state.
func (s *RefreshScheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
}

// Resume restarts the recurring tick after a Pause.
func (s *RefreshScheduler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
}

// Paused reports whether the recurring tick is suspended.
func (s *RefreshScheduler) Paused() bool { return s.isPaused() }

func (s *RefreshScheduler) isPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// tick runs a scheduled cycle unless one is already in flight, in which
// case the tick is skipped outright, never queued.
func (s *RefreshScheduler) tick(ctx context.Context) {
	s.mu.Lock()
	if s.refreshing {
		s.mu.Unlock()
		metrics.RefreshTicksSkipped.Inc()
		s.logger.Debug("Refresh already in flight, tick skipped")
		return
	}
	s.refreshing = true
	s.mu.Unlock()

	s.runCycles(ctx)
}

// RefreshNow runs one refresh cycle synchronously. When a cycle is
// already in flight the request is coalesced into a single follow-up
// cycle that runs as soon as the current one completes, so the caller's
// changes are always observed by a refresh.
func (s *RefreshScheduler) RefreshNow(ctx context.Context) {
	s.mu.Lock()
	if s.refreshing {
		s.followUp = true
		s.mu.Unlock()
		s.logger.Debug("Refresh already in flight, follow-up cycle queued")
		return
	}
	s.refreshing = true
	s.mu.Unlock()

	s.runCycles(ctx)
}

// runCycles owns the refreshing flag: it runs one cycle, then any
// follow-up coalesced while that cycle was in flight, and only then
// releases the flag.
func (s *RefreshScheduler) runCycles(ctx context.Context) {
	for {
		s.runCycle(ctx)

		s.mu.Lock()
		if s.followUp && ctx.Err() == nil {
			s.followUp = false
			s.mu.Unlock()
			continue
		}
		s.followUp = false
		s.refreshing = false
		s.mu.Unlock()
		return
	}
}

// Refreshing reports whether a cycle is currently in flight.
func (s *RefreshScheduler) Refreshing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshing
}

func (s *RefreshScheduler) runCycle(ctx context.Context) {
	started := time.Now()

	// The probe always completes (or fails) before the bulk fetch is
	// issued. A failed probe marks the whole layer offline and aborts
	// the cycle.
	if err := s.api.Health(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.store.SetOffline(true)
		metrics.OfflineGauge.Set(1)
		metrics.RefreshCyclesTotal.WithLabelValues("offline").Inc()
		s.logger.Warn("Health probe failed, skipping refresh cycle", "error", err)
		return
	}
	s.store.SetOffline(false)
	metrics.OfflineGauge.Set(0)

	selected := s.store.Selection()

	var (
		raws       []entity.RawWallet
		walletsErr error

		rawPositions []entity.RawPosition
		positionsErr error

		rawTrades []entity.RawTrade
		tradesErr error
	)

	// Each sub-fetch owns its failure slice, so one goroutine never
	// reports an error into the group.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		raws, walletsErr = s.api.ListWhales(gctx)
		return nil
	})
	if selected != "" {
		g.Go(func() error {
			rawPositions, positionsErr = s.api.GetPositions(gctx, selected)
			return nil
		})
		g.Go(func() error {
			rawTrades, tradesErr = s.api.GetTrades(gctx, selected, s.tradesLimit)
			return nil
		})
	}
	_ = g.Wait()

	// Teardown while calls were in flight: discard everything.
	if ctx.Err() != nil {
		return
	}

	if walletsErr != nil {
		s.store.SetWalletsError(entity.ErrorDetail(walletsErr))
		metrics.RefreshCyclesTotal.WithLabelValues("error").Inc()
		s.logger.Error("Bulk wallet fetch failed", "error", walletsErr)
	} else {
		records := derive.Normalize(raws)
		stats := derive.Aggregate(records)
		s.store.ApplyRefresh(records, stats)
		metrics.RefreshCyclesTotal.WithLabelValues("ok").Inc()
		metrics.TrackedWallets.Set(float64(len(records)))
		s.logger.Debug("Refresh cycle complete",
			"wallets", len(records),
			"positions", stats.TotalPositions,
			"elapsed", time.Since(started).String())
	}

	// ApplyRefresh may have dropped the selection when its address left
	// the collection; the fetched detail belongs to nobody then.
	if selected != "" && s.store.Selection() == selected {
		if positionsErr != nil {
			s.store.SetPositionsError(entity.ErrorDetail(positionsErr))
			s.logger.Warn("Selected-wallet positions fetch failed", "address", selected, "error", positionsErr)
		} else {
			s.store.SetPositions(derive.NormalizePositions(rawPositions))
		}
		if tradesErr != nil {
			s.store.SetTradesError(entity.ErrorDetail(tradesErr))
			s.logger.Warn("Selected-wallet trades fetch failed", "address", selected, "error", tradesErr)
		} else {
			s.store.SetTrades(derive.NormalizeTrades(rawTrades))
		}
	}
}
