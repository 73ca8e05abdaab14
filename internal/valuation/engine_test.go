package valuation

import (
	"testing"

	"main/internal/position"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticPrice(price float64) PriceLookup {
	return func(int) (float64, bool) { return price, true }
}

func noPrice() PriceLookup {
	return func(int) (float64, bool) { return 0, false }
}

func longPosition() position.Position {
	return position.Position{
		PairIndex:  1,
		Direction:  position.Long,
		Collateral: 100,
		Leverage:   10,
		EntryPrice: 2000,
	}
}

func TestValuateSimple(t *testing.T) {
	engine := NewEngine(0.001)

	result, err := engine.Valuate(longPosition(), staticPrice(2100), nil)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, KindSimple, result.Kind)
	assert.InDelta(t, 50.0, result.GrossPnl, 1e-9)
	require.NotNil(t, result.GrossPnlPercent)
	assert.InDelta(t, 50.0, *result.GrossPnlPercent, 1e-9)
	assert.InDelta(t, 1.0, result.Fee, 1e-9)
	assert.InDelta(t, 49.0, result.Pnl, 1e-9)
	require.NotNil(t, result.PnlPercent)
	assert.InDelta(t, 49.0, *result.PnlPercent, 1e-9)
	assert.InDelta(t, 49.0, result.Net(), 1e-9)
}

func TestValuateFeeAdjusted(t *testing.T) {
	engine := NewEngine(0)
	pos := longPosition()
	pos.Fees = &position.FeeSchedule{
		ClosingFeeRate: 0.001,
		RolloverFee:    0,
	}

	result, err := engine.Valuate(pos, staticPrice(2100), nil)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, KindFeeAdjusted, result.Kind)
	assert.InDelta(t, 50.0, result.GrossPnl, 1e-9)
	assert.InDelta(t, 1.0, result.ClosingFee, 1e-9)
	assert.Zero(t, result.RolloverFee)
	assert.InDelta(t, 49.0, result.NetPnl, 1e-9)
	require.NotNil(t, result.NetPnlPercent)
	assert.InDelta(t, 49.0, *result.NetPnlPercent, 1e-9)

	// net pnl never exceeds gross when fees are non-negative and no rebate
	assert.LessOrEqual(t, result.NetPnl, result.GrossPnl)
}

func TestValuateFeeAbsoluteAndRebate(t *testing.T) {
	engine := NewEngine(0)
	abs := 2.5
	pos := longPosition()
	pos.Fees = &position.FeeSchedule{
		ClosingFeeRate:       0.001,
		ClosingFeeAbs:        &abs,
		RolloverFee:          1.5,
		LossProtectionRebate: 0.5,
	}

	result, err := engine.Valuate(pos, staticPrice(2100), nil)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.InDelta(t, 2.5, result.ClosingFee, 1e-9)
	// net = gross - closing - rollover + rebate
	assert.InDelta(t, 50-2.5-1.5+0.5, result.NetPnl, 1e-9)
}

func TestValuateDirections(t *testing.T) {
	engine := NewEngine(0)

	long := longPosition()
	short := longPosition()
	short.Direction = position.Short

	up, err := engine.Valuate(long, staticPrice(2100), nil)
	require.NoError(t, err)
	assert.Greater(t, up.GrossPnl, 0.0)

	down, err := engine.Valuate(short, staticPrice(2100), nil)
	require.NoError(t, err)
	assert.Less(t, down.GrossPnl, 0.0)

	flatLong, err := engine.Valuate(long, staticPrice(2000), nil)
	require.NoError(t, err)
	assert.Zero(t, flatLong.GrossPnl)

	flatShort, err := engine.Valuate(short, staticPrice(2000), nil)
	require.NoError(t, err)
	assert.Zero(t, flatShort.GrossPnl)
}

func TestValuateExitPriceOverride(t *testing.T) {
	engine := NewEngine(0)
	exit := 2200.0

	result, err := engine.Valuate(longPosition(), staticPrice(2100), &exit)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.InDelta(t, 100.0, result.GrossPnl, 1e-9)
}

func TestValuatePendingPrice(t *testing.T) {
	engine := NewEngine(0)

	result, err := engine.Valuate(longPosition(), noPrice(), nil)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestValuateInvalidInputs(t *testing.T) {
	engine := NewEngine(0)

	zeroLeverage := longPosition()
	zeroLeverage.Leverage = 0
	_, err := engine.Valuate(zeroLeverage, staticPrice(2100), nil)
	assert.ErrorIs(t, err, ErrZeroLeverage)

	zeroEntry := longPosition()
	zeroEntry.EntryPrice = 0
	_, err = engine.Valuate(zeroEntry, staticPrice(2100), nil)
	assert.ErrorIs(t, err, ErrZeroEntryPrice)
}

func TestValuateZeroCollateralPercents(t *testing.T) {
	engine := NewEngine(0.001)
	pos := longPosition()
	pos.Collateral = 0

	result, err := engine.Valuate(pos, staticPrice(2100), nil)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Nil(t, result.GrossPnlPercent)
	assert.Nil(t, result.PnlPercent)
	assert.Nil(t, result.NetPercent())
}

func TestLiquidationPrice(t *testing.T) {
	long := longPosition()
	liq, err := LiquidationPrice(long)
	require.NoError(t, err)
	assert.InDelta(t, 1800.0, liq, 1e-9)

	short := longPosition()
	short.Direction = position.Short
	liq, err = LiquidationPrice(short)
	require.NoError(t, err)
	assert.InDelta(t, 2200.0, liq, 1e-9)

	authoritative := 1850.0
	long.LiquidationPrice = &authoritative
	liq, err = LiquidationPrice(long)
	require.NoError(t, err)
	assert.Equal(t, 1850.0, liq)

	invalid := position.Position{EntryPrice: 2000}
	_, err = LiquidationPrice(invalid)
	assert.ErrorIs(t, err, ErrZeroLeverage)
}
