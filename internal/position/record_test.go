package position

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRawScaling(t *testing.T) {
	pos, err := FromRaw(RawRecord{
		PairIndex:  1,
		Index:      0,
		Buy:        true,
		Collateral: "250000000",       // 250 USDC, 1e6 scale
		Leverage:   "100000000000",    // 10x, 1e10 scale
		OpenPrice:  "20000000000000",  // 2000, 1e10 scale
		TP:         "23000000000000",  // 2300
		SL:         "0",
	})
	require.NoError(t, err)

	assert.Equal(t, Long, pos.Direction)
	assert.InDelta(t, 250.0, pos.Collateral, 1e-9)
	assert.InDelta(t, 10.0, pos.Leverage, 1e-9)
	assert.InDelta(t, 2000.0, pos.EntryPrice, 1e-9)
	assert.InDelta(t, 2300.0, pos.TakeProfit, 1e-9)
	assert.Zero(t, pos.StopLoss)
	assert.Nil(t, pos.LiquidationPrice)
	assert.InDelta(t, 2500.0, pos.Size(), 1e-9)
}

func TestFromRawAuthoritativeLiquidation(t *testing.T) {
	pos, err := FromRaw(RawRecord{
		PairIndex:        2,
		Buy:              false,
		Collateral:       "100000000",
		Leverage:         "50000000000",
		OpenPrice:        "20000000000000",
		LiquidationPrice: "23500000000000",
	})
	require.NoError(t, err)

	assert.Equal(t, Short, pos.Direction)
	require.NotNil(t, pos.LiquidationPrice)
	assert.InDelta(t, 2350.0, *pos.LiquidationPrice, 1e-9)
}

func TestFromRawRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		rec  RawRecord
	}{
		{"garbage collateral", RawRecord{Collateral: "abc", Leverage: "100000000000", OpenPrice: "20000000000000"}},
		{"zero collateral", RawRecord{Collateral: "0", Leverage: "100000000000", OpenPrice: "20000000000000"}},
		{"zero leverage", RawRecord{Collateral: "250000000", Leverage: "0", OpenPrice: "20000000000000"}},
		{"zero entry price", RawRecord{Collateral: "250000000", Leverage: "100000000000", OpenPrice: "0"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromRaw(tc.rec)
			assert.Error(t, err)
		})
	}
}

func TestValidateLeverageBounds(t *testing.T) {
	pos := Position{Collateral: 100, Leverage: 80, EntryPrice: 2000}

	assert.NoError(t, pos.ValidateLeverage(1, 100))
	assert.ErrorIs(t, pos.ValidateLeverage(1, 75), ErrLeverageOutOfBounds)
	assert.ErrorIs(t, pos.ValidateLeverage(90, 100), ErrLeverageOutOfBounds)
}
