package domain

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

const (
	// PriceDecimals is the number of implied decimal places in the
	// registry's fixed-point price encoding.
	PriceDecimals = 6

	// NativeDecimals is the chain's native value precision. Order payments
	// are denominated in the native unit, not the 6-dp price encoding.
	NativeDecimals = 18
)

// ToFixedPoint converts a decimal price to the registry's 6-dp fixed-point
// integer. Values with more than 6 decimal digits cannot round-trip and are
// rejected so the price read back always equals the price submitted.
func ToFixedPoint(price decimal.Decimal) (*big.Int, error) {
	if price.Exponent() < -PriceDecimals {
		return nil, fmt.Errorf("%w: more than %d decimal places", ErrInvalidPrice, PriceDecimals)
	}
	return price.Shift(PriceDecimals).BigInt(), nil
}

// FromFixedPoint converts a 6-dp fixed-point integer read from the registry
// back to its decimal display value.
func FromFixedPoint(v *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(v, -PriceDecimals)
}

// ToNativeValue converts a decimal price to the chain's native 18-dp value
// representation used for payable transactions.
func ToNativeValue(price decimal.Decimal) *big.Int {
	return price.Shift(NativeDecimals).BigInt()
}
