package valuation

import (
	"main/internal/position"

	"github.com/yanun0323/errors"
)

var (
	ErrZeroLeverage   = errors.New("valuation: leverage must be > 0")
	ErrZeroEntryPrice = errors.New("valuation: entry price must be > 0")
)

// Kind tags the valuation result variant.
type Kind uint8

const (
	// KindSimple applies a single flat fee on position size.
	KindSimple Kind = iota
	// KindFeeAdjusted breaks fees down per the instrument's schedule.
	KindFeeAdjusted
)

// Result is the discriminated valuation outcome. Only the fields of the
// tagged variant are meaningful: Fee/Pnl/PnlPercent for KindSimple,
// ClosingFee/RolloverFee/NetPnl/NetPnlPercent for KindFeeAdjusted.
// Percent fields are nil when collateral is zero, never NaN.
type Result struct {
	Kind Kind

	GrossPnl        float64
	GrossPnlPercent *float64

	Fee        float64
	Pnl        float64
	PnlPercent *float64

	ClosingFee    float64
	RolloverFee   float64
	NetPnl        float64
	NetPnlPercent *float64
}

// Net returns the after-fee PnL of whichever variant is tagged.
func (r Result) Net() float64 {
	switch r.Kind {
	case KindFeeAdjusted:
		return r.NetPnl
	default:
		return r.Pnl
	}
}

// NetPercent returns the after-fee PnL percentage, nil when undefined.
func (r Result) NetPercent() *float64 {
	switch r.Kind {
	case KindFeeAdjusted:
		return r.NetPnlPercent
	default:
		return r.PnlPercent
	}
}

// PriceLookup resolves the current unit price for a pair index.
// ok=false means no price has arrived yet.
type PriceLookup func(pairIndex int) (float64, bool)

// Engine computes position valuations. FlatFeeRate applies to position
// size for instruments without a fee schedule.
type Engine struct {
	flatFeeRate float64
}

// NewEngine builds an engine with the given flat closing fee rate.
func NewEngine(flatFeeRate float64) *Engine {
	return &Engine{flatFeeRate: flatFeeRate}
}

// Valuate computes the PnL breakdown of one position at the current
// price. exitPrice, when non-nil, overrides the lookup. A nil result with
// a nil error means the price is not yet available: the position is
// pending, not worthless.
func (e *Engine) Valuate(pos position.Position, lookup PriceLookup, exitPrice *float64) (*Result, error) {
	if pos.Leverage == 0 {
		return nil, ErrZeroLeverage
	}
	if pos.EntryPrice == 0 {
		return nil, ErrZeroEntryPrice
	}

	var currentPrice float64
	if exitPrice != nil {
		currentPrice = *exitPrice
	} else {
		price, ok := lookup(pos.PairIndex)
		if !ok {
			return nil, nil
		}
		currentPrice = price
	}

	size := pos.Size()
	priceDelta := (currentPrice - pos.EntryPrice) / pos.EntryPrice
	if pos.Direction == position.Short {
		priceDelta = -priceDelta
	}
	grossPnl := size * priceDelta

	result := &Result{
		GrossPnl:        grossPnl,
		GrossPnlPercent: percentOf(grossPnl, pos.Collateral),
	}

	if pos.Fees == nil {
		result.Kind = KindSimple
		result.Fee = e.flatFeeRate * size
		result.Pnl = grossPnl - result.Fee
		result.PnlPercent = percentOf(result.Pnl, pos.Collateral)
		return result, nil
	}

	fees := pos.Fees
	result.Kind = KindFeeAdjusted
	result.ClosingFee = fees.ClosingFeeRate * size
	if fees.ClosingFeeAbs != nil {
		result.ClosingFee = *fees.ClosingFeeAbs
	}
	result.RolloverFee = fees.RolloverFee
	result.NetPnl = grossPnl - result.ClosingFee - result.RolloverFee + fees.LossProtectionRebate
	result.NetPnlPercent = percentOf(result.NetPnl, pos.Collateral)
	return result, nil
}

// LiquidationPrice passes an authoritative level through unchanged and
// otherwise approximates it ignoring fees.
func LiquidationPrice(pos position.Position) (float64, error) {
	if pos.Leverage == 0 {
		return 0, ErrZeroLeverage
	}
	if pos.EntryPrice == 0 {
		return 0, ErrZeroEntryPrice
	}
	if pos.LiquidationPrice != nil {
		return *pos.LiquidationPrice, nil
	}
	if pos.Direction == position.Short {
		return pos.EntryPrice * (1 + 1/pos.Leverage), nil
	}
	return pos.EntryPrice * (1 - 1/pos.Leverage), nil
}

func percentOf(value, collateral float64) *float64 {
	if collateral == 0 {
		return nil
	}
	percent := value / collateral * 100
	return &percent
}
