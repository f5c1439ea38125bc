package derive

import "whalewatch/internal/domain/entity"

// Aggregate computes portfolio-wide statistics over the canonical wallet
// records. Percentages are 0 when no positions are open so that NaN
// never leaves the engine.
func Aggregate(records []entity.WalletRecord) entity.PortfolioStats {
	stats := entity.PortfolioStats{}

	for _, rec := range records {
		stats.TotalValue += rec.AccountValue
		stats.TotalPnl += rec.UnrealizedPnl
		stats.TotalPositions += len(rec.Positions)
	}

	for _, rec := range records {
		for _, p := range rec.Positions {
			if p.IsLong {
				stats.TotalLongs++
			} else {
				stats.TotalShorts++
			}
		}
	}

	if stats.TotalPositions > 0 {
		stats.LongPct = float64(stats.TotalLongs) / float64(stats.TotalPositions) * 100
		stats.ShortPct = float64(stats.TotalShorts) / float64(stats.TotalPositions) * 100
	}
	return stats
}
