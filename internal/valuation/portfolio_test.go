package valuation

import (
	"math"
	"testing"

	"main/internal/position"

	"github.com/stretchr/testify/assert"
)

func TestAggregatePendingContributesZero(t *testing.T) {
	engine := NewEngine(0)

	priced := longPosition() // pair 1
	pending := longPosition()
	pending.PairIndex = 2
	pending.Collateral = 40

	lookup := func(pairIndex int) (float64, bool) {
		if pairIndex == 1 {
			return 2200, true // gross +100, no fees
		}
		return 0, false
	}

	totals := Aggregate([]position.Position{priced, pending}, engine, lookup)

	assert.Equal(t, 2, totals.Positions)
	assert.Equal(t, 1, totals.Pending)
	assert.InDelta(t, 140.0, totals.Collateral, 1e-9)
	assert.InDelta(t, 100.0, totals.NetPnl, 1e-9)
	assert.False(t, math.IsNaN(totals.NetPnl))
}

func TestAggregateInvalidPositionSkipped(t *testing.T) {
	engine := NewEngine(0)

	valid := longPosition()
	broken := longPosition()
	broken.Leverage = 0

	totals := Aggregate([]position.Position{valid, broken}, engine, staticPrice(2100))

	assert.Equal(t, 2, totals.Positions)
	assert.Equal(t, 1, totals.Pending)
	assert.InDelta(t, 50.0, totals.NetPnl, 1e-9)
	assert.False(t, math.IsNaN(totals.NetPnl))
}

func TestAggregateEmpty(t *testing.T) {
	totals := Aggregate(nil, NewEngine(0), noPrice())
	assert.Zero(t, totals.Positions)
	assert.Zero(t, totals.Collateral)
	assert.Zero(t, totals.NetPnl)
}
