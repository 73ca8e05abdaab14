package valuation

import "main/internal/position"

// PortfolioTotals aggregates valuations across open positions.
// Pending counts positions that could not be valuated yet; they still
// count toward Positions and contribute zero to NetPnl.
type PortfolioTotals struct {
	Collateral float64
	NetPnl     float64
	Positions  int
	Pending    int
}

// Aggregate folds the engine over a position list. The fold is pure:
// totals are recomputed from scratch on every call, and a position whose
// price is missing or whose data is invalid contributes zero rather than
// poisoning the totals.
func Aggregate(positions []position.Position, engine *Engine, lookup PriceLookup) PortfolioTotals {
	totals := PortfolioTotals{Positions: len(positions)}

	for _, pos := range positions {
		totals.Collateral += pos.Collateral
		result, err := engine.Valuate(pos, lookup, nil)
		if err != nil || result == nil {
			totals.Pending++
			continue
		}
		totals.NetPnl += result.Net()
	}
	return totals
}
