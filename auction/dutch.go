package auction

import (
	"time"
)

// PriceSchedule describes a Dutch auction's publicly decreasing ask price.
// All prices are in raw fixed-point units.
type PriceSchedule struct {
	// StartingPrice is the ask at auction start.
	StartingPrice uint64 `json:"starting_price"`

	// DecreaseRate is the price decrease per second.
	DecreaseRate uint64 `json:"decrease_rate"`

	// Floor is the minimum price; the ask never drops below it.
	Floor uint64 `json:"floor"`
}

// PriceAt returns the ask price after the given elapsed time, clamped to the
// floor. Underflow clamps rather than wrapping.
func (s PriceSchedule) PriceAt(elapsed time.Duration) uint64 {
	if elapsed < 0 {
		elapsed = 0
	}
	seconds := uint64(elapsed / time.Second)

	if s.DecreaseRate != 0 && seconds > s.StartingPrice/s.DecreaseRate {
		return s.Floor
	}
	price := s.StartingPrice - s.DecreaseRate*seconds
	if price < s.Floor {
		return s.Floor
	}
	return price
}

// Accepts reports whether a bid at the given elapsed time meets the current
// ask. In a Dutch auction the first acceptance wins.
func (s PriceSchedule) Accepts(rawBid uint64, elapsed time.Duration) bool {
	return rawBid >= s.PriceAt(elapsed)
}
