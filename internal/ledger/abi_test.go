package ledger

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryABIParses(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(registryABI))
	require.NoError(t, err)

	for _, method := range []string{"counter", "getListingInfo", "getListingContractAddress", "createListing"} {
		_, ok := parsed.Methods[method]
		assert.True(t, ok, "missing method %s", method)
	}

	info := parsed.Methods["getListingInfo"]
	require.Len(t, info.Outputs, 6)
	assert.Equal(t, "endTime", info.Outputs[0].Name)
	assert.Equal(t, "seller", info.Outputs[5].Name)
}

func TestEscrowABIParses(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(escrowABI))
	require.NoError(t, err)

	placeOrder, ok := parsed.Methods["placeOrder"]
	require.True(t, ok)
	assert.Equal(t, "payable", placeOrder.StateMutability)

	_, ok = parsed.Methods["getAllOrders"]
	assert.True(t, ok)
	_, ok = parsed.Methods["withdrawFunds"]
	assert.True(t, ok)
}
