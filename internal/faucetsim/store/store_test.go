package store

import (
	"math/big"
	"path/filepath"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faucetsim/internal/faucetsim/common"
	"github.com/faucetsim/internal/faucetsim/config"
	"github.com/faucetsim/internal/faucetsim/types"
)

func signedTx(t *testing.T) *types.Transaction {
	t.Helper()
	key, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	to := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	tx, err := types.SignTx(types.NewTransaction(1, to, big.NewInt(10), 21000, big.NewInt(1), []byte{0xca, 0xfe}), types.NewSigner(big.NewInt(1)), key)
	require.NoError(t, err)
	return tx
}

func testStore(t *testing.T, s Store) {
	tx := signedTx(t)
	require.NoError(t, s.PutTransaction(tx))
	got, err := s.Transaction(tx.Hash())
	require.NoError(t, err)
	assert.Equal(t, tx.Hash(), got.Hash())
	assert.Equal(t, tx.Data(), got.Data())

	to := *tx.To()
	receipt := &types.Receipt{
		TxHash:            tx.Hash(),
		BlockNumber:       7,
		From:              common.HexToAddress("0x01"),
		To:                &to,
		Status:            types.ReceiptStatusFailed,
		GasUsed:           21500,
		EffectiveGasPrice: big.NewInt(1),
		RevertData:        []byte{0xde, 0xad},
		Logs: []*types.Log{{
			Address: to,
			Topics:  []common.Hash{common.HexToHash("0x01")},
			Data:    []byte{1, 2, 3},
		}},
	}
	require.NoError(t, s.PutReceipt(receipt))
	gotReceipt, err := s.Receipt(tx.Hash())
	require.NoError(t, err)
	assert.Equal(t, receipt, gotReceipt)

	header := &types.Header{Number: 7, Time: 1000, GasUsed: 21500}
	require.NoError(t, s.PutHeader(header))
	gotHeader, err := s.HeaderByNumber(7)
	require.NoError(t, err)
	assert.Equal(t, header.Hash(), gotHeader.Hash())

	_, err = s.Receipt(common.Hash{})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.HeaderByNumber(8)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Close(), ErrClosed)
	_, err = s.Transaction(tx.Hash())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemory())
}

func TestPebbleStore_InMemory(t *testing.T) {
	s, err := NewPebble("", 0)
	require.NoError(t, err)
	testStore(t, s)
}

func TestPebbleStore_Reopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "chain")
	s, err := NewPebble(dir, 1)
	require.NoError(t, err)

	header := &types.Header{Number: 1, Time: 42}
	require.NoError(t, s.PutHeader(header))
	require.NoError(t, s.Close())

	s, err = NewPebble(dir, 1)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.HeaderByNumber(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), got.Time)
}

func TestOpen(t *testing.T) {
	s, err := Open(config.StoreConfig{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)
	require.NoError(t, s.Close())

	s, err = Open(config.StoreConfig{Backend: "pebble", Path: filepath.Join(t.TempDir(), "db")})
	require.NoError(t, err)
	assert.IsType(t, &PebbleStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(config.StoreConfig{Backend: "bolt"})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}
