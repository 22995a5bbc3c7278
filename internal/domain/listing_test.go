package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestListingHasBuyerCaseInsensitive(t *testing.T) {
	l := Listing{
		Buyers: []string{"0xAbCd000000000000000000000000000000000001"},
	}

	assert.True(t, l.HasBuyer("0xabcd000000000000000000000000000000000001"))
	assert.True(t, l.HasBuyer("0xABCD000000000000000000000000000000000001"))
	assert.False(t, l.HasBuyer("0xabcd000000000000000000000000000000000002"))
}

func TestListingIsSeller(t *testing.T) {
	l := Listing{Seller: "0xseller"}

	assert.True(t, l.IsSeller("0xSELLER"))
	assert.False(t, l.IsSeller("0xother"))
	assert.False(t, l.IsSeller(""))
}

func TestListingEndsIn(t *testing.T) {
	now := time.Unix(1_000_000, 0)

	l := Listing{EndTime: 1_000_060}
	assert.Equal(t, time.Minute, l.EndsIn(now))

	past := Listing{EndTime: 999_000}
	assert.Equal(t, time.Duration(0), past.EndsIn(now))
}

func TestListingStateString(t *testing.T) {
	assert.Equal(t, "Open", ListingOpen.String())
	assert.Equal(t, "Ended", ListingEnded.String())
}
