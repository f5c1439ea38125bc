// Package service holds the sync-layer services: the canonical state
// store, the refresh scheduler, the mutation coordinator, and the
// alerting-status probe.
package service

import (
	"sync"
	"time"

	"whalewatch/internal/domain/entity"
)

// Store is the single owned home of the canonical wallet collection and
// the derived state around it. The scheduler and the mutation
// coordinator are the only writers; the REST surface reads concurrently,
// hence the RWMutex.
type Store struct {
	mu sync.RWMutex

	records []entity.WalletRecord
	stats   entity.PortfolioStats
	index   map[string]int

	selected  string
	positions []entity.Position
	trades    []entity.Trade

	offline     bool
	lastRefresh time.Time

	walletsErr   string
	positionsErr string
	tradesErr    string

	alerting entity.AlertingStatus
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{index: make(map[string]int)}
}

// ApplyRefresh replaces the canonical collection with the result of a
// completed refresh. The previous collection is discarded in full; no
// incremental patching is performed.
func (s *Store) ApplyRefresh(records []entity.WalletRecord, stats entity.PortfolioStats) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = records
	s.stats = stats
	s.index = make(map[string]int, len(records))
	for i, rec := range records {
		s.index[rec.Address] = i
	}
	s.lastRefresh = time.Now()
	s.walletsErr = ""

	// The selection survives a refresh only if the address still exists;
	// object identity is not stable across cycles.
	if s.selected != "" {
		if _, ok := s.index[s.selected]; !ok {
			s.selected = ""
			s.positions = nil
			s.trades = nil
		}
	}
}

// SetWalletsError marks the bulk-collection slice as errored without
// touching the previously derived state.
func (s *Store) SetWalletsError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.walletsErr = msg
}

// SetOffline flips the coarse upstream availability status.
func (s *Store) SetOffline(offline bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offline = offline
}

// Offline reports whether the last health probe failed.
func (s *Store) Offline() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.offline
}

// Select changes the selected wallet address and clears the detail
// slices belonging to the previous selection.
func (s *Store) Select(address string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == address {
		return
	}
	s.selected = address
	s.positions = nil
	s.trades = nil
	s.positionsErr = ""
	s.tradesErr = ""
}

// Selection returns the selected wallet address, empty when none.
func (s *Store) Selection() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// SelectedRecord re-resolves the selected wallet by address against the
// most recent canonical collection.
func (s *Store) SelectedRecord() (entity.WalletRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == "" {
		return entity.WalletRecord{}, false
	}
	i, ok := s.index[s.selected]
	if !ok {
		return entity.WalletRecord{}, false
	}
	return s.records[i], true
}

// RecordByAddress looks a wallet up in the canonical collection.
func (s *Store) RecordByAddress(address string) (entity.WalletRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[address]
	if !ok {
		return entity.WalletRecord{}, false
	}
	return s.records[i], true
}

// Records returns a copy of the canonical collection.
func (s *Store) Records() []entity.WalletRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.WalletRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Stats returns the derived portfolio aggregates.
func (s *Store) Stats() entity.PortfolioStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// SetPositions stores the detail positions for the selected wallet.
func (s *Store) SetPositions(positions []entity.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions = positions
	s.positionsErr = ""
}

// SetPositionsError clears the positions slice and records its scoped
// error; the bulk collection is untouched.
func (s *Store) SetPositionsError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions = nil
	s.positionsErr = msg
}

// Positions returns the detail positions for the selected wallet.
func (s *Store) Positions() ([]entity.Position, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.Position, len(s.positions))
	copy(out, s.positions)
	return out, s.positionsErr
}

// SetTrades stores the recent fills for the selected wallet.
func (s *Store) SetTrades(trades []entity.Trade) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trades = trades
	s.tradesErr = ""
}

// SetTradesError clears the trades slice and records its scoped error.
func (s *Store) SetTradesError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trades = nil
	s.tradesErr = msg
}

// Trades returns the recent fills for the selected wallet.
func (s *Store) Trades() ([]entity.Trade, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.Trade, len(s.trades))
	copy(out, s.trades)
	return out, s.tradesErr
}

// SetAlertingStatus stores the most recent alerting probe result.
func (s *Store) SetAlertingStatus(status entity.AlertingStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerting = status
}

// AlertingStatus returns the most recent alerting probe result.
func (s *Store) AlertingStatus() entity.AlertingStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.alerting
}

// Status is a point-in-time snapshot of the sync layer's health for the
// dashboard status endpoint.
type Status struct {
	Offline      bool                  `json:"offline"`
	LastRefresh  time.Time             `json:"lastRefresh"`
	WalletCount  int                   `json:"walletCount"`
	Selected     string                `json:"selected,omitempty"`
	WalletsErr   string                `json:"walletsError,omitempty"`
	PositionsErr string                `json:"positionsError,omitempty"`
	TradesErr    string                `json:"tradesError,omitempty"`
	Alerting     entity.AlertingStatus `json:"alerting"`
}

// Snapshot returns the current status view.
func (s *Store) Snapshot() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		Offline:      s.offline,
		LastRefresh:  s.lastRefresh,
		WalletCount:  len(s.records),
		Selected:     s.selected,
		WalletsErr:   s.walletsErr,
		PositionsErr: s.positionsErr,
		TradesErr:    s.tradesErr,
		Alerting:     s.alerting,
	}
}
