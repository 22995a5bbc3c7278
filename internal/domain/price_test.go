package domain

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToFixedPointRoundTrip(t *testing.T) {
	cases := []string{"1", "0.000001", "12.5", "0.123456", "999999.999999"}

	for _, c := range cases {
		price := decimal.RequireFromString(c)

		fixed, err := ToFixedPoint(price)
		require.NoError(t, err, c)

		back := FromFixedPoint(fixed)
		assert.True(t, price.Equal(back), "round trip of %s gave %s", c, back)
	}
}

func TestToFixedPointRejectsExcessPrecision(t *testing.T) {
	_, err := ToFixedPoint(decimal.RequireFromString("0.0000001"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = ToFixedPoint(decimal.RequireFromString("1.1234567"))
	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestToFixedPointScaling(t *testing.T) {
	fixed, err := ToFixedPoint(decimal.RequireFromString("2.5"))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(2_500_000), fixed)
}

func TestToNativeValue(t *testing.T) {
	v := ToNativeValue(decimal.RequireFromString("1.5"))

	expected, ok := new(big.Int).SetString("1500000000000000000", 10)
	require.True(t, ok)
	assert.Equal(t, 0, v.Cmp(expected))
}

func TestFromFixedPoint(t *testing.T) {
	price := FromFixedPoint(big.NewInt(1_250_000))
	assert.True(t, price.Equal(decimal.RequireFromString("1.25")))
}
