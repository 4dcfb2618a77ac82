package service

import (
	"fmt"
	"math"
)

// Prices in rupees
const (
	StickerUnitPrice     = 59
	StickerBulkUnitPrice = 49
	StickerBulkThreshold = 10
	TagCreationFee       = 120
)

// StickerUnitPriceFor returns the per-sticker price for a quantity
func StickerUnitPriceFor(quantity int) int64 {
	if quantity >= StickerBulkThreshold {
		return StickerBulkUnitPrice
	}
	return StickerUnitPrice
}

// StickerPrice returns the total for a sticker order. Quantity must be positive.
func StickerPrice(quantity int) (int64, error) {
	if quantity < 1 {
		return 0, fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
	}
	return int64(quantity) * StickerUnitPriceFor(quantity), nil
}

// CommissionAmount returns round(amount * rate / 100), halves rounded away from zero
func CommissionAmount(amount int64, rate float64) int64 {
	return int64(math.Round(float64(amount) * rate / 100))
}
