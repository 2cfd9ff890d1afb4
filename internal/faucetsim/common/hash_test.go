package common

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexToAddress(t *testing.T) {
	a := HexToAddress("0x000000000000000000000000000000000000dEaD")
	assert.Equal(t, byte(0xde), a[18])
	assert.Equal(t, byte(0xad), a[19])
	assert.Equal(t, "0x000000000000000000000000000000000000dead", a.Hex())

	// long input is cropped from the left
	b := BytesToAddress(append(make([]byte, 12), a.Bytes()...))
	assert.Equal(t, a, b)
}

func TestAddressWord(t *testing.T) {
	a := HexToAddress("0x1234567890123456789012345678901234567890")
	assert.Equal(t, a, BigToAddress(a.Big()))
	assert.Equal(t, a.Bytes(), a.Hash().Bytes()[12:])
}

func TestIsHexAddress(t *testing.T) {
	assert.True(t, IsHexAddress("0x1234567890123456789012345678901234567890"))
	assert.True(t, IsHexAddress("1234567890123456789012345678901234567890"))
	assert.False(t, IsHexAddress("0x12345"))
	assert.False(t, IsHexAddress("0xzz34567890123456789012345678901234567890"))
}

func TestAddressJSON(t *testing.T) {
	a := HexToAddress("0x1234567890123456789012345678901234567890")
	data, err := json.Marshal(a)
	require.NoError(t, err)

	var out Address
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, a, out)

	assert.Error(t, json.Unmarshal([]byte(`"0x1234"`), &out))
}

func TestHashJSON(t *testing.T) {
	h := BigToHash(big.NewInt(0xbeef))
	data, err := json.Marshal(h)
	require.NoError(t, err)

	var out Hash
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, h, out)
	assert.Equal(t, int64(0xbeef), out.Big().Int64())
}

func TestKeccak256(t *testing.T) {
	// keccak256("") is a well known constant
	assert.Equal(t,
		"0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470",
		Keccak256Hash().Hex())
	// transfer(address,uint256) selector
	assert.Equal(t, "a9059cbb", Bytes2Hex(Keccak256([]byte("transfer(address,uint256)"))[:4]))
}

func TestBlakeHashDiffersFromKeccak(t *testing.T) {
	in := []byte("faucet")
	assert.NotEqual(t, Keccak256Hash(in), BlakeHash(in))
	assert.Equal(t, BlakeHash([]byte("fau"), []byte("cet")), BlakeHash(in))
}

func TestLeftPadBytes(t *testing.T) {
	assert.Equal(t, []byte{0, 0, 1}, LeftPadBytes([]byte{1}, 3))
	assert.Equal(t, []byte{1, 2}, LeftPadBytes([]byte{1, 2}, 1))
}
