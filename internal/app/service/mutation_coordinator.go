package service

import (
	"context"
	"regexp"
	"sync"

	"whalewatch/internal/app/port"
	"whalewatch/internal/domain/entity"
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// MutationCoordinator sequences the add-wallet and remove-wallet calls
// against the upstream API and guarantees an immediate out-of-cycle
// refresh after every successful mutation. Removal is a two-step intent:
// RequestRemoval records the address, ConfirmRemoval issues the delete.
type MutationCoordinator struct {
	api       port.WhaleAPI
	refresher port.Refresher
	logger    port.Logger

	mu             sync.Mutex
	pendingRemoval string
}

// NewMutationCoordinator creates a coordinator over the given API.
func NewMutationCoordinator(api port.WhaleAPI, refresher port.Refresher, logger port.Logger) *MutationCoordinator {
	return &MutationCoordinator{
		api:       api,
		refresher: refresher,
		logger:    logger,
	}
}

// AddWallet validates the address client-side, registers it upstream,
// and triggers an immediate refresh. Malformed input fails fast with a
// ValidationError before any network call is issued; an upstream failure
// is surfaced verbatim and leaves existing state untouched.
func (m *MutationCoordinator) AddWallet(ctx context.Context, address, nickname string) error {
	if !addressPattern.MatchString(address) {
		return &entity.ValidationError{Field: "address", Reason: "must be a 0x-prefixed 40-hex-digit address"}
	}

	if err := m.api.AddWhale(ctx, address, nickname); err != nil {
		m.logger.Error("Add wallet failed", "address", address, "error", err)
		return err
	}

	m.logger.Info("Wallet added", "address", address, "nickname", nickname)
	m.refresher.RefreshNow(ctx)
	return nil
}

// RequestRemoval records the intent to remove a wallet. The delete call
// is not issued until ConfirmRemoval.
func (m *MutationCoordinator) RequestRemoval(address string) error {
	if !addressPattern.MatchString(address) {
		return &entity.ValidationError{Field: "address", Reason: "must be a 0x-prefixed 40-hex-digit address"}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pendingRemoval = address
	return nil
}

// PendingRemoval returns the address awaiting confirmation, empty when
// none.
func (m *MutationCoordinator) PendingRemoval() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pendingRemoval
}

// CancelRemoval drops any pending removal intent.
func (m *MutationCoordinator) CancelRemoval() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pendingRemoval = ""
}

// ConfirmRemoval issues the delete for the pending address and triggers
// an immediate refresh on success. On failure the wallet stays in the
// canonical collection and the error is surfaced without side effects.
func (m *MutationCoordinator) ConfirmRemoval(ctx context.Context) error {
	m.mu.Lock()
	address := m.pendingRemoval
	m.mu.Unlock()

	if address == "" {
		return &entity.ValidationError{Field: "address", Reason: "no removal pending confirmation"}
	}

	if err := m.api.RemoveWhale(ctx, address); err != nil {
		m.logger.Error("Remove wallet failed", "address", address, "error", err)
		return err
	}

	m.mu.Lock()
	m.pendingRemoval = ""
	m.mu.Unlock()

	m.logger.Info("Wallet removed", "address", address)
	m.refresher.RefreshNow(ctx)
	return nil
}
