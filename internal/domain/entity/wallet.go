package entity

// WalletRecord is the canonical representation of one tracked account.
// It is rebuilt in full on every successful refresh; the address is the
// sole identity key and a later record with a matching address replaces
// an earlier one.
type WalletRecord struct {
	Address       string     `json:"address"`
	Nickname      string     `json:"nickname"`
	AccountValue  float64    `json:"accountValue"`
	UnrealizedPnl float64    `json:"unrealizedPnl"`
	MarginUsed    float64    `json:"marginUsed"`
	Positions     []Position `json:"positions"`
	Orders        []Order    `json:"orders"`
}

// Position is one open exposure within a wallet.
type Position struct {
	Coin             string  `json:"coin"`
	SignedSize       float64 `json:"signedSize"`
	PositionValue    float64 `json:"positionValue"`
	UnrealizedPnl    float64 `json:"unrealizedPnl"`
	EntryPrice       float64 `json:"entryPrice"`
	LiquidationPrice float64 `json:"liquidationPrice"`
	Leverage         float64 `json:"leverage"`
	IsLong           bool    `json:"isLong"`

	// LiquidationDistancePct is defined only when both entry and
	// liquidation prices are nonzero.
	LiquidationDistancePct    float64 `json:"liquidationDistancePct"`
	HasLiquidationDistancePct bool    `json:"hasLiquidationDistancePct"`
}

// Order is one pending, not-yet-executed instruction submitted by a wallet.
type Order struct {
	Coin       string  `json:"coin"`
	OrderType  string  `json:"orderType"`
	Side       string  `json:"side"`
	LimitPrice float64 `json:"limitPrice"`
	Size       float64 `json:"size"`
	Status     string  `json:"status"`
	IsBuy      bool    `json:"isBuy"`
}

// Trade is one executed fill for a wallet.
type Trade struct {
	Coin      string  `json:"coin"`
	Side      string  `json:"side"`
	Price     float64 `json:"price"`
	Size      float64 `json:"size"`
	ClosedPnl float64 `json:"closedPnl"`
	Time      int64   `json:"time"`
	IsBuy     bool    `json:"isBuy"`
}

// PortfolioStats holds portfolio-wide aggregates computed over all
// canonical wallet records. It is derived on every refresh, never persisted.
type PortfolioStats struct {
	TotalValue     float64 `json:"totalValue"`
	TotalPnl       float64 `json:"totalPnl"`
	TotalPositions int     `json:"totalPositions"`
	TotalLongs     int     `json:"totalLongs"`
	TotalShorts    int     `json:"totalShorts"`
	LongPct        float64 `json:"longPct"`
	ShortPct       float64 `json:"shortPct"`
}

// AlertingStatus mirrors the upstream Telegram alerting probe. Any probe
// failure is reported as the zero value, i.e. inactive.
type AlertingStatus struct {
	Enabled                bool `json:"enabled"`
	BotTokenConfigured     bool `json:"bot_token_configured"`
	ChatIDConfigured       bool `json:"chat_id_configured"`
	ActivePositionsTracked int  `json:"active_positions_tracked"`
}
