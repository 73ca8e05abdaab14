package oracle

import (
	"math"
	"strconv"
)

// RawPrice mirrors the oracle's compact price encoding. The mantissa is
// transported as a string to avoid integer precision loss on the wire;
// some venues send it as a bare number instead, so both are accepted.
type RawPrice struct {
	Price any    `json:"price"`
	Expo  *int32 `json:"expo"`
}

// DecodePrice converts a (mantissa, exponent) pair into a unit price.
// Returns ok=false for an absent price, a non-numeric mantissa, a missing
// exponent, or a result that is not positive and finite. It never panics.
//
// Converting the mantissa through float64 before scaling loses exactness
// for very large mantissas. That is acceptable here: these prices drive
// display and PnL, not settlement.
func DecodePrice(raw RawPrice) (float64, bool) {
	if raw.Expo == nil {
		return 0, false
	}

	var mantissa float64
	switch v := raw.Price.(type) {
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		mantissa = parsed
	case float64:
		mantissa = v
	case int64:
		mantissa = float64(v)
	default:
		return 0, false
	}

	unit := mantissa * math.Pow10(int(*raw.Expo))
	if unit <= 0 || math.IsInf(unit, 0) || math.IsNaN(unit) {
		return 0, false
	}
	return unit, true
}
