package ledger

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faucetsim/internal/faucetsim/common"
	"github.com/faucetsim/internal/faucetsim/types"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

func TestStateDB_Defaults(t *testing.T) {
	s := NewStateDB()
	assert.False(t, s.Exist(alice))
	assert.Zero(t, s.GetBalance(alice).Sign())
	assert.Zero(t, s.GetNonce(alice))
	assert.Nil(t, s.GetCode(alice))
	assert.Zero(t, s.GetState(alice, common.Hash{}).Sign())
}

func TestStateDB_Transfer(t *testing.T) {
	s := NewStateDB()
	s.AddBalance(alice, big.NewInt(100))

	assert.True(t, s.Transfer(alice, bob, big.NewInt(40)))
	assert.Equal(t, big.NewInt(60), s.GetBalance(alice))
	assert.Equal(t, big.NewInt(40), s.GetBalance(bob))

	assert.False(t, s.Transfer(alice, bob, big.NewInt(61)))
	assert.Equal(t, big.NewInt(60), s.GetBalance(alice))

	carol := common.HexToAddress("0xca4011")
	assert.True(t, s.Transfer(alice, carol, new(big.Int)))
	assert.True(t, s.Exist(carol))
}

func TestStateDB_BalanceIsCopied(t *testing.T) {
	s := NewStateDB()
	s.AddBalance(alice, big.NewInt(10))
	b := s.GetBalance(alice)
	b.SetInt64(999)
	assert.Equal(t, big.NewInt(10), s.GetBalance(alice))
}

func TestStateDB_RevertToSnapshot(t *testing.T) {
	s := NewStateDB()
	s.AddBalance(alice, big.NewInt(100))
	s.SetState(alice, common.Hash{1}, big.NewInt(1))
	s.Commit()

	snap := s.Snapshot()
	s.SubBalance(alice, big.NewInt(30))
	s.SetNonce(alice, 7)
	s.SetCode(bob, []byte{0x00})
	s.SetState(alice, common.Hash{1}, big.NewInt(2))
	s.SetState(alice, common.Hash{2}, big.NewInt(3))
	s.AddLog(&types.Log{Address: alice})

	s.RevertToSnapshot(snap)

	assert.Equal(t, big.NewInt(100), s.GetBalance(alice))
	assert.Zero(t, s.GetNonce(alice))
	assert.False(t, s.Exist(bob))
	assert.Equal(t, big.NewInt(1), s.GetState(alice, common.Hash{1}))
	assert.Zero(t, s.GetState(alice, common.Hash{2}).Sign())
	assert.Empty(t, s.TakeLogs())
}

func TestStateDB_NestedSnapshots(t *testing.T) {
	s := NewStateDB()
	s.AddBalance(alice, big.NewInt(10))

	outer := s.Snapshot()
	s.AddBalance(alice, big.NewInt(1))
	inner := s.Snapshot()
	s.AddBalance(alice, big.NewInt(100))
	s.AddLog(&types.Log{Address: bob})

	s.RevertToSnapshot(inner)
	assert.Equal(t, big.NewInt(11), s.GetBalance(alice))

	s.AddLog(&types.Log{Address: alice})
	logs := s.TakeLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, alice, logs[0].Address)

	s.RevertToSnapshot(outer)
	assert.Equal(t, big.NewInt(10), s.GetBalance(alice))
}

func TestStateDB_CodeIsCopied(t *testing.T) {
	s := NewStateDB()
	code := []byte{1, 2, 3}
	s.SetCode(alice, code)
	code[0] = 9
	assert.Equal(t, []byte{1, 2, 3}, s.GetCode(alice))
}
