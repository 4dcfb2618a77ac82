package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStickerPriceMatchesRule(t *testing.T) {
	for q := 1; q <= 500; q++ {
		unit := int64(59)
		if q >= 10 {
			unit = 49
		}
		got, err := StickerPrice(q)
		require.NoError(t, err)
		assert.Equal(t, unit*int64(q), got, "quantity %d", q)
	}
}

func TestStickerPriceBoundary(t *testing.T) {
	nine, err := StickerPrice(9)
	require.NoError(t, err)
	ten, err := StickerPrice(10)
	require.NoError(t, err)

	assert.Equal(t, int64(531), nine)
	assert.Equal(t, int64(490), ten)
	assert.NotEqual(t, StickerUnitPriceFor(9), StickerUnitPriceFor(10))
}

func TestStickerPriceRejectsNonPositive(t *testing.T) {
	for _, q := range []int{0, -1, -100} {
		_, err := StickerPrice(q)
		assert.ErrorIs(t, err, ErrValidation)
	}
}

func TestCommissionAmount(t *testing.T) {
	tests := []struct {
		amount int64
		rate   float64
		want   int64
	}{
		{588, 5, 29},   // 29.4
		{120, 5, 6},    // 6.0
		{590, 5, 30},   // 29.5 rounds up
		{110, 5, 6},    // 5.5 rounds up
		{130, 5, 7},    // 6.5 rounds up, not to even
		{59, 5, 3},     // 2.95
		{49, 10, 5},    // 4.9
		{1000, 0, 0},   // zero rate
		{0, 5, 0},      // zero amount
		{490, 7.5, 37}, // 36.75
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CommissionAmount(tt.amount, tt.rate), "amount=%d rate=%v", tt.amount, tt.rate)
	}
}
