package port

import (
	"context"

	"whalewatch/internal/domain/entity"
)

// WhaleAPI defines the upstream whale-tracker operations the sync layer
// consumes. Implementations classify failures into the entity error
// taxonomy and own the timeout and retry policy.
type WhaleAPI interface {
	// Health probes the upstream with the lightweight timeout budget.
	Health(ctx context.Context) error

	// ListWhales fetches the bulk wallet collection.
	ListWhales(ctx context.Context) ([]entity.RawWallet, error)

	// GetWhale fetches a single raw wallet record.
	GetWhale(ctx context.Context, address string) (entity.RawWallet, error)

	// GetPositions fetches the raw open positions for one wallet.
	GetPositions(ctx context.Context, address string) ([]entity.RawPosition, error)

	// GetTrades fetches up to limit recent fills for one wallet.
	GetTrades(ctx context.Context, address string, limit int) ([]entity.RawTrade, error)

	// AddWhale registers a new tracked wallet upstream.
	AddWhale(ctx context.Context, address, nickname string) error

	// RemoveWhale deletes a tracked wallet upstream.
	RemoveWhale(ctx context.Context, address string) error

	// AlertingStatus fetches the Telegram alerting probe.
	AlertingStatus(ctx context.Context) (entity.AlertingStatus, error)
}

// Refresher triggers an immediate out-of-cycle refresh, used by the
// mutation coordinator after a successful add or remove.
type Refresher interface {
	RefreshNow(ctx context.Context)
}
