package abi

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faucetsim/internal/faucetsim/common"
	"github.com/faucetsim/internal/faucetsim/types"
)

const testABI = `[
	{"type":"function","name":"transfer","stateMutability":"nonpayable",
	 "inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],
	 "outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"owner","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"address"}]},
	{"type":"event","name":"Sent","anonymous":false,
	 "inputs":[{"name":"to","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}]},
	{"type":"error","name":"TooMuch",
	 "inputs":[{"name":"requested","type":"uint256"},{"name":"max","type":"uint256"}]}
]`

var testAddr = common.HexToAddress("0x00000000000000000000000000000000000000ff")

func TestSelector(t *testing.T) {
	assert.Equal(t, "a9059cbb", common.Bytes2Hex(Selector("transfer(address,uint256)")))

	parsed := MustParse(testABI)
	data, err := parsed.Pack("transfer", testAddr, big.NewInt(5))
	require.NoError(t, err)
	assert.Equal(t, Selector("transfer(address,uint256)"), data[:4])
	assert.Len(t, data, 4+64)
	assert.Equal(t, byte(0xff), data[4+31])
	assert.Equal(t, byte(5), data[4+63])
	assert.Equal(t, "transfer", parsed.MethodName(data))
	assert.Equal(t, "", parsed.MethodName([]byte{1, 2}))
}

func TestPack_UnknownMethod(t *testing.T) {
	_, err := MustParse(testABI).Pack("missing")
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestUnpack_Address(t *testing.T) {
	parsed := MustParse(testABI)
	out, err := parsed.Unpack("owner", testAddr.Hash().Bytes())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, testAddr, out[0])
}

func TestParseLog(t *testing.T) {
	parsed := MustParse(testABI)
	topic, err := parsed.EventTopic("Sent")
	require.NoError(t, err)
	assert.Equal(t, EventID("Sent(address,uint256)"), topic)

	log := &types.Log{
		Topics: []common.Hash{topic, testAddr.Hash()},
		Data:   common.LeftPadBytes(big.NewInt(77).Bytes(), 32),
	}
	fields, err := parsed.ParseLog("Sent", log)
	require.NoError(t, err)
	assert.Equal(t, testAddr, fields["to"])
	assert.Equal(t, int64(77), fields["amount"].(*big.Int).Int64())

	log.Topics[0] = common.Hash{}
	_, err = parsed.ParseLog("Sent", log)
	assert.ErrorIs(t, err, ErrEventMismatch)

	_, err = parsed.ParseLog("Missing", log)
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestErrors_RoundTrip(t *testing.T) {
	parsed := MustParse(testABI)
	data, err := parsed.PackError("TooMuch", big.NewInt(10), big.NewInt(3))
	require.NoError(t, err)
	assert.Equal(t, Selector("TooMuch(uint256,uint256)"), data[:4])
	assert.Len(t, data, 68)

	decoded, err := parsed.DecodeError(data)
	require.NoError(t, err)
	assert.Equal(t, "TooMuch", decoded.Name)
	require.Len(t, decoded.Args, 2)
	assert.Equal(t, int64(10), decoded.Args[0].(*big.Int).Int64())
	assert.Equal(t, "TooMuch(10, 3)", decoded.String())

	_, err = parsed.DecodeError([]byte{1, 2, 3, 4})
	assert.ErrorIs(t, err, ErrUnknownError)
	_, err = parsed.DecodeError(nil)
	assert.ErrorIs(t, err, ErrShortData)
}
