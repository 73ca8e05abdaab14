package position

import "github.com/yanun0323/errors"

var (
	ErrNonPositiveCollateral = errors.New("position: collateral must be > 0")
	ErrNonPositiveEntryPrice = errors.New("position: entry price must be > 0")
	ErrNonPositiveLeverage   = errors.New("position: leverage must be > 0")
	ErrLeverageOutOfBounds   = errors.New("position: leverage outside pair bounds")
)

// Direction of a leveraged position.
type Direction uint8

const (
	Long Direction = iota
	Short
)

func (d Direction) String() string {
	if d == Short {
		return "short"
	}
	return "long"
}

// FeeSchedule carries the fee terms of a non-zero-fee instrument.
// ClosingFeeAbs, when set, overrides the rate-based closing fee.
type FeeSchedule struct {
	ClosingFeeRate       float64
	ClosingFeeAbs        *float64
	RolloverFee          float64
	ReferralFeeRate      float64
	LossProtectionRebate float64
}

// Position is an immutable snapshot of one open leveraged trade, already
// converted to unit values (USDC collateral, unscaled prices).
// LiquidationPrice is authoritative when present; TakeProfit and StopLoss
// are zero when unset.
type Position struct {
	PairIndex  int
	TradeIndex int
	Direction  Direction

	Collateral float64
	Leverage   float64
	EntryPrice float64
	TakeProfit float64
	StopLoss   float64

	LiquidationPrice *float64
	Fees             *FeeSchedule
}

// Size returns the notional exposure.
func (p Position) Size() float64 {
	return p.Collateral * p.Leverage
}

// Validate rejects positions that would make valuation divide by zero.
func (p Position) Validate() error {
	if p.Collateral <= 0 {
		return ErrNonPositiveCollateral
	}
	if p.Leverage <= 0 {
		return ErrNonPositiveLeverage
	}
	if p.EntryPrice <= 0 {
		return ErrNonPositiveEntryPrice
	}
	return nil
}

// ValidateLeverage additionally checks the pair-specific leverage bounds.
func (p Position) ValidateLeverage(minLeverage, maxLeverage float64) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if minLeverage > 0 && p.Leverage < minLeverage {
		return ErrLeverageOutOfBounds
	}
	if maxLeverage > 0 && p.Leverage > maxLeverage {
		return ErrLeverageOutOfBounds
	}
	return nil
}
