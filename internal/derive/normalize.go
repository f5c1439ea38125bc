// Package derive turns raw upstream payloads into the canonical wallet
// model and computes portfolio-wide aggregates and views. Everything in
// this package is a pure function over already-resolved data; default
// value policy for missing or malformed fields lives here and nowhere
// else.
package derive

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"whalewatch/internal/domain/entity"
)

// Known alias lists per canonical field, accumulated across upstream
// schema revisions. Resolution is ordered, first match wins. A dot in an
// alias descends into a nested object.
var (
	accountValueAliases  = []string{"accountValue", "account_value", "marginSummary.accountValue", "equity", "totalValue", "balance"}
	unrealizedPnlAliases = []string{"unrealizedPnl", "unrealized_pnl", "uPnl", "upnl", "pnl"}
	marginUsedAliases    = []string{"marginUsed", "margin_used", "marginSummary.totalMarginUsed", "totalMarginUsed"}
	nicknameAliases      = []string{"nickname", "name", "label", "display_name"}
	addressAliases       = []string{"address", "wallet_address", "user"}
	positionsAliases     = []string{"positions", "assetPositions", "asset_positions"}
	ordersAliases        = []string{"orders", "openOrders", "open_orders"}

	coinAliases          = []string{"coin", "symbol", "asset"}
	signedSizeAliases    = []string{"szi", "signedSize", "signed_size", "size", "sz"}
	positionValueAliases = []string{"positionValue", "position_value", "notional"}
	entryPriceAliases    = []string{"entryPx", "entryPrice", "entry_price", "avgEntryPrice"}
	liqPriceAliases      = []string{"liquidationPx", "liquidationPrice", "liquidation_price", "liqPx"}
	leverageAliases      = []string{"leverage.value", "leverage", "leverage_value"}
	sideAliases          = []string{"side", "direction"}

	orderTypeAliases  = []string{"orderType", "order_type", "type"}
	limitPriceAliases = []string{"limitPx", "limitPrice", "limit_price", "px"}
	orderSizeAliases  = []string{"sz", "size", "origSz"}
	statusAliases     = []string{"status", "state"}

	tradePriceAliases = []string{"px", "price"}
	tradeSizeAliases  = []string{"sz", "size"}
	closedPnlAliases  = []string{"closedPnl", "closed_pnl", "realizedPnl"}
	tradeTimeAliases  = []string{"time", "timestamp", "ts"}
)

// Normalize maps raw wallet payloads to canonical records. Records are
// keyed by lowercased address; a later record with a matching address
// replaces the earlier one in place. Entries without a resolvable
// address are dropped.
func Normalize(raws []entity.RawWallet) []entity.WalletRecord {
	records := make([]entity.WalletRecord, 0, len(raws))
	index := make(map[string]int, len(raws))

	for _, raw := range raws {
		rec, ok := NormalizeWallet(raw)
		if !ok {
			continue
		}
		if i, seen := index[rec.Address]; seen {
			records[i] = rec
			continue
		}
		index[rec.Address] = len(records)
		records = append(records, rec)
	}
	return records
}

// NormalizeWallet resolves a single raw wallet payload. The second
// return value is false when no address field could be resolved.
func NormalizeWallet(raw entity.RawWallet) (entity.WalletRecord, bool) {
	address, ok := firstString(raw, addressAliases)
	if !ok || address == "" {
		return entity.WalletRecord{}, false
	}
	address = strings.ToLower(address)

	rec := entity.WalletRecord{
		Address:   address,
		Positions: normalizePositionList(firstList(raw, positionsAliases)),
		Orders:    normalizeOrderList(firstList(raw, ordersAliases)),
	}

	if nickname, ok := firstString(raw, nicknameAliases); ok && nickname != "" {
		rec.Nickname = nickname
	} else {
		rec.Nickname = ShortAddress(address)
	}

	rec.AccountValue, _ = firstNumber(raw, accountValueAliases)

	if pnl, ok := firstNumber(raw, unrealizedPnlAliases); ok {
		rec.UnrealizedPnl = pnl
	} else {
		for _, p := range rec.Positions {
			rec.UnrealizedPnl += p.UnrealizedPnl
		}
	}

	if margin, ok := firstNumber(raw, marginUsedAliases); ok {
		rec.MarginUsed = margin
	} else {
		for _, p := range rec.Positions {
			leverage := p.Leverage
			if leverage <= 0 {
				leverage = 1
			}
			rec.MarginUsed += p.PositionValue / leverage
		}
	}

	return rec, true
}

// NormalizePositions resolves the raw position payloads returned by the
// per-wallet detail endpoint.
func NormalizePositions(raws []entity.RawPosition) []entity.Position {
	positions := make([]entity.Position, 0, len(raws))
	for _, raw := range raws {
		positions = append(positions, normalizePosition(map[string]any(raw)))
	}
	return positions
}

// NormalizeTrades resolves the raw trade fills returned by the per-wallet
// trades endpoint.
func NormalizeTrades(raws []entity.RawTrade) []entity.Trade {
	trades := make([]entity.Trade, 0, len(raws))
	for _, raw := range raws {
		m := map[string]any(raw)
		side, _ := firstString(m, sideAliases)
		t := entity.Trade{
			Side:  side,
			IsBuy: sideIsBuy(side),
		}
		t.Coin, _ = firstString(m, coinAliases)
		t.Price, _ = firstNumber(m, tradePriceAliases)
		t.Size, _ = firstNumber(m, tradeSizeAliases)
		t.ClosedPnl, _ = firstNumber(m, closedPnlAliases)
		if ts, ok := firstNumber(m, tradeTimeAliases); ok {
			t.Time = int64(ts)
		}
		trades = append(trades, t)
	}
	return trades
}

// ShortAddress derives the display fallback for wallets without a
// nickname, e.g. 0x1234…abcd.
func ShortAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:6] + "…" + address[len(address)-4:]
}

func normalizePositionList(items []any) []entity.Position {
	if len(items) == 0 {
		return []entity.Position{}
	}
	positions := make([]entity.Position, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		// Hyperliquid wraps each entry as {"type": ..., "position": {...}}.
		if inner, ok := m["position"].(map[string]any); ok {
			m = inner
		}
		positions = append(positions, normalizePosition(m))
	}
	return positions
}

func normalizePosition(m map[string]any) entity.Position {
	p := entity.Position{}
	p.Coin, _ = firstString(m, coinAliases)
	p.SignedSize, _ = firstNumber(m, signedSizeAliases)
	p.PositionValue, _ = firstNumber(m, positionValueAliases)
	p.UnrealizedPnl, _ = firstNumber(m, unrealizedPnlAliases)
	p.EntryPrice, _ = firstNumber(m, entryPriceAliases)
	p.LiquidationPrice, _ = firstNumber(m, liqPriceAliases)
	p.Leverage, _ = firstNumber(m, leverageAliases)

	side, _ := firstString(m, sideAliases)
	p.IsLong = p.SignedSize > 0 || sideIsLong(side)

	if p.EntryPrice != 0 && p.LiquidationPrice != 0 {
		p.LiquidationDistancePct = math.Abs(p.LiquidationPrice-p.EntryPrice) / p.EntryPrice * 100
		p.HasLiquidationDistancePct = true
	}
	return p
}

func normalizeOrderList(items []any) []entity.Order {
	if len(items) == 0 {
		return []entity.Order{}
	}
	orders := make([]entity.Order, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		o := entity.Order{}
		o.Coin, _ = firstString(m, coinAliases)
		o.OrderType, _ = firstString(m, orderTypeAliases)
		o.Side, _ = firstString(m, sideAliases)
		o.LimitPrice, _ = firstNumber(m, limitPriceAliases)
		o.Size, _ = firstNumber(m, orderSizeAliases)
		o.Status, _ = firstString(m, statusAliases)
		o.IsBuy = sideIsBuy(o.Side)
		orders = append(orders, o)
	}
	return orders
}

func sideIsLong(side string) bool {
	s := strings.ToLower(side)
	return strings.Contains(s, "long") || s == "b" || strings.Contains(s, "buy")
}

func sideIsBuy(side string) bool {
	s := strings.ToLower(side)
	return strings.Contains(s, "buy") || strings.Contains(s, "long") || s == "b"
}

// firstNumber resolves the first alias present in the payload that
// coerces to a number. Coercion failures count as absent so a later
// alias can still match; the caller's default of 0 applies when nothing
// matches.
func firstNumber(m map[string]any, aliases []string) (float64, bool) {
	for _, alias := range aliases {
		v, ok := lookup(m, alias)
		if !ok || v == nil {
			continue
		}
		if f, ok := toFloat(v); ok {
			return f, true
		}
	}
	return 0, false
}

func firstString(m map[string]any, aliases []string) (string, bool) {
	for _, alias := range aliases {
		v, ok := lookup(m, alias)
		if !ok || v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			return s, true
		}
	}
	return "", false
}

func firstList(m map[string]any, aliases []string) []any {
	for _, alias := range aliases {
		v, ok := lookup(m, alias)
		if !ok || v == nil {
			continue
		}
		if list, ok := v.([]any); ok {
			return list
		}
	}
	return nil
}

func lookup(m map[string]any, alias string) (any, bool) {
	if !strings.Contains(alias, ".") {
		v, ok := m[alias]
		return v, ok
	}
	parts := strings.Split(alias, ".")
	current := any(m)
	for _, part := range parts {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
