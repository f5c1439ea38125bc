package derive

import (
	"sort"

	"whalewatch/internal/domain/entity"
)

// SortField selects the wallet attribute a view is ordered by.
type SortField string

const (
	SortByNickname      SortField = "nickname"
	SortByAccountValue  SortField = "accountValue"
	SortByUnrealizedPnl SortField = "unrealizedPnl"
	SortByMarginUsed    SortField = "marginUsed"
	SortByPositionCount SortField = "positionCount"
)

// ParseSortField maps a query value to a SortField, defaulting to
// accountValue for unknown input.
func ParseSortField(s string) SortField {
	switch SortField(s) {
	case SortByNickname, SortByAccountValue, SortByUnrealizedPnl, SortByMarginUsed, SortByPositionCount:
		return SortField(s)
	default:
		return SortByAccountValue
	}
}

// SortRecords returns a stably sorted copy of records; the input slice is
// never reordered. Ties keep their prior relative order, so re-sorting by
// the same field and direction is idempotent.
func SortRecords(records []entity.WalletRecord, field SortField, descending bool) []entity.WalletRecord {
	sorted := make([]entity.WalletRecord, len(records))
	copy(sorted, records)

	less := lessFunc(sorted, field)
	if descending {
		inner := less
		less = func(i, j int) bool { return inner(j, i) }
	}
	sort.SliceStable(sorted, less)
	return sorted
}

func lessFunc(records []entity.WalletRecord, field SortField) func(i, j int) bool {
	switch field {
	case SortByNickname:
		return func(i, j int) bool { return records[i].Nickname < records[j].Nickname }
	case SortByUnrealizedPnl:
		return func(i, j int) bool { return records[i].UnrealizedPnl < records[j].UnrealizedPnl }
	case SortByMarginUsed:
		return func(i, j int) bool { return records[i].MarginUsed < records[j].MarginUsed }
	case SortByPositionCount:
		return func(i, j int) bool { return len(records[i].Positions) < len(records[j].Positions) }
	default:
		return func(i, j int) bool { return records[i].AccountValue < records[j].AccountValue }
	}
}

// PositionFilter restricts a position view.
type PositionFilter string

const (
	PositionsAll   PositionFilter = "all"
	PositionsLong  PositionFilter = "long"
	PositionsShort PositionFilter = "short"
)

// OrderFilter restricts an order view.
type OrderFilter string

const (
	OrdersAll  OrderFilter = "all"
	OrdersBuy  OrderFilter = "buy"
	OrdersSell OrderFilter = "sell"
)

// FilterPositions returns the positions matching the filter. The result
// is always a fresh slice; the canonical collection is never mutated.
func FilterPositions(positions []entity.Position, filter PositionFilter) []entity.Position {
	out := make([]entity.Position, 0, len(positions))
	for _, p := range positions {
		switch filter {
		case PositionsLong:
			if !p.IsLong {
				continue
			}
		case PositionsShort:
			if p.IsLong {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

// FilterOrders returns the orders matching the filter without mutating
// the input.
func FilterOrders(orders []entity.Order, filter OrderFilter) []entity.Order {
	out := make([]entity.Order, 0, len(orders))
	for _, o := range orders {
		switch filter {
		case OrdersBuy:
			if !o.IsBuy {
				continue
			}
		case OrdersSell:
			if o.IsBuy {
				continue
			}
		}
		out = append(out, o)
	}
	return out
}
