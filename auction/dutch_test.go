package auction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPriceScheduleDecreases(t *testing.T) {
	s := PriceSchedule{
		StartingPrice: 10_000_000_000,
		DecreaseRate:  1_000_000_000,
		Floor:         2_000_000_000,
	}

	assert.Equal(t, uint64(10_000_000_000), s.PriceAt(0))
	assert.Equal(t, uint64(9_000_000_000), s.PriceAt(time.Second))
	assert.Equal(t, uint64(5_000_000_000), s.PriceAt(5*time.Second))

	// Clamps to the floor instead of underflowing.
	assert.Equal(t, uint64(2_000_000_000), s.PriceAt(9*time.Second))
	assert.Equal(t, uint64(2_000_000_000), s.PriceAt(time.Hour))
}

func TestPriceScheduleNegativeElapsed(t *testing.T) {
	s := PriceSchedule{StartingPrice: 100, DecreaseRate: 1, Floor: 10}
	assert.Equal(t, uint64(100), s.PriceAt(-time.Minute))
}

func TestPriceScheduleZeroRate(t *testing.T) {
	s := PriceSchedule{StartingPrice: 100, DecreaseRate: 0, Floor: 10}
	assert.Equal(t, uint64(100), s.PriceAt(time.Hour))
}

func TestAccepts(t *testing.T) {
	s := PriceSchedule{
		StartingPrice: 10_000_000_000,
		DecreaseRate:  1_000_000_000,
		Floor:         2_000_000_000,
	}

	assert.False(t, s.Accepts(5_000_000_000, 0))
	assert.True(t, s.Accepts(5_000_000_000, 5*time.Second))
	assert.True(t, s.Accepts(2_000_000_000, time.Hour))
	assert.False(t, s.Accepts(1_999_999_999, time.Hour))
}
