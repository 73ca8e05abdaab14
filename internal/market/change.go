package market

// Change24h returns the percent change between the current price and the
// 24h-ago close. ok=false means either side is unavailable; callers
// render a pending state instead of NaN.
func Change24h(current, previousClose float64) (float64, bool) {
	if current <= 0 || previousClose <= 0 {
		return 0, false
	}
	return (current - previousClose) / previousClose * 100, true
}

// CloseSnapshot is one per-pair historical close as returned by the
// backend snapshot endpoint.
type CloseSnapshot struct {
	PairIndex int     `json:"pairIndex"`
	Close     float64 `json:"c"`
}

// CloseMap indexes close snapshots by pair, skipping non-positive values.
func CloseMap(snapshots []CloseSnapshot) map[int]float64 {
	closes := make(map[int]float64, len(snapshots))
	for _, snapshot := range snapshots {
		if snapshot.Close <= 0 {
			continue
		}
		closes[snapshot.PairIndex] = snapshot.Close
	}
	return closes
}
