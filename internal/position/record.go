package position

import (
	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
)

// Fixed-point scales used by the external position/order list feed.
// Price-like fields (open price, tp/sl, leverage, liquidation price) are
// scaled by 1e10; USDC-denominated fields by 1e6. Mixing the two scales
// is the most common integration bug, so conversion happens in exactly
// one place.
const (
	priceScale = 10
	usdcScale  = 6
)

// RawRecord is one open trade as delivered by the external list feed.
// Scaled numeric fields arrive as decimal strings to survive transport.
type RawRecord struct {
	PairIndex        int    `json:"pairIndex"`
	Index            int    `json:"index"`
	Buy              bool   `json:"buy"`
	Collateral       string `json:"collateral"`
	Leverage         string `json:"leverage"`
	OpenPrice        string `json:"openPrice"`
	TP               string `json:"tp"`
	SL               string `json:"sl"`
	LiquidationPrice string `json:"liquidationPrice"`
}

// FromRaw converts a raw record into a unit-valued Position and validates
// the base invariants. Empty optional fields mean "unset".
func FromRaw(rec RawRecord) (Position, error) {
	collateral, err := unscale(rec.Collateral, usdcScale)
	if err != nil {
		return Position{}, errors.Wrap(err, "parse collateral")
	}
	leverage, err := unscale(rec.Leverage, priceScale)
	if err != nil {
		return Position{}, errors.Wrap(err, "parse leverage")
	}
	entryPrice, err := unscale(rec.OpenPrice, priceScale)
	if err != nil {
		return Position{}, errors.Wrap(err, "parse open price")
	}
	takeProfit, err := unscaleOptional(rec.TP, priceScale)
	if err != nil {
		return Position{}, errors.Wrap(err, "parse tp")
	}
	stopLoss, err := unscaleOptional(rec.SL, priceScale)
	if err != nil {
		return Position{}, errors.Wrap(err, "parse sl")
	}

	direction := Short
	if rec.Buy {
		direction = Long
	}

	pos := Position{
		PairIndex:  rec.PairIndex,
		TradeIndex: rec.Index,
		Direction:  direction,
		Collateral: collateral,
		Leverage:   leverage,
		EntryPrice: entryPrice,
		TakeProfit: clampUnset(takeProfit),
		StopLoss:   clampUnset(stopLoss),
	}

	if rec.LiquidationPrice != "" {
		liq, err := unscale(rec.LiquidationPrice, priceScale)
		if err != nil {
			return Position{}, errors.Wrap(err, "parse liquidation price")
		}
		pos.LiquidationPrice = &liq
	}

	if err := pos.Validate(); err != nil {
		return Position{}, err
	}
	return pos, nil
}

func unscale(raw string, scale int32) (float64, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, err
	}
	return d.Shift(-scale).InexactFloat64(), nil
}

func unscaleOptional(raw string, scale int32) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	return unscale(raw, scale)
}

// clampUnset maps non-positive trigger levels to zero, meaning "unset".
func clampUnset(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return v
}
