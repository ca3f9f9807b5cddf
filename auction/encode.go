package auction

import (
	"errors"
	"fmt"
	"math"
)

// DefaultScale converts whole units to the smallest on-chain unit
// (fixed-point, 9 decimal places).
const DefaultScale uint64 = 1_000_000_000

// ErrInvalidAmount indicates a negative, non-finite or out-of-range amount.
var ErrInvalidAmount = errors.New("auction: invalid amount")

// EncodeAmount converts a monetary amount in whole units into its fixed-width
// integer representation: floor(amount * scale). Negative and non-finite
// amounts are rejected, as are amounts whose scaled value does not fit the
// integer range exactly representable by a float64.
func EncodeAmount(amount float64, scale uint64) (uint64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, fmt.Errorf("%w: amount must be finite", ErrInvalidAmount)
	}
	if amount < 0 {
		return 0, fmt.Errorf("%w: amount must not be negative", ErrInvalidAmount)
	}
	if scale == 0 {
		return 0, fmt.Errorf("%w: scale must be positive", ErrInvalidAmount)
	}

	scaled := amount * float64(scale)
	if scaled >= math.MaxUint64 {
		return 0, fmt.Errorf("%w: amount overflows fixed-point range", ErrInvalidAmount)
	}
	return uint64(math.Floor(scaled)), nil
}

// DecodeAmount converts a fixed-width integer amount back to whole units.
func DecodeAmount(raw uint64, scale uint64) float64 {
	if scale == 0 {
		return 0
	}
	return float64(raw) / float64(scale)
}
