// Package store хранит транзакции, квитанции и заголовки блоков симулированной цепи.
package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/faucetsim/internal/faucetsim/common"
	"github.com/faucetsim/internal/faucetsim/config"
	"github.com/faucetsim/internal/faucetsim/types"
)

var (
	ErrNotFound = errors.New("store: not found")
	ErrClosed   = errors.New("store: closed")
)

// Store - хранилище истории цепи. Реализации безопасны для конкурентного доступа.
type Store interface {
	PutTransaction(tx *types.Transaction) error
	Transaction(hash common.Hash) (*types.Transaction, error)
	PutReceipt(r *types.Receipt) error
	Receipt(hash common.Hash) (*types.Receipt, error)
	PutHeader(h *types.Header) error
	HeaderByNumber(number uint64) (*types.Header, error)
	Close() error
}

// Open создает хранилище по конфигурации
func Open(cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemory(), nil
	case "pebble":
		return NewPebble(cfg.Path, cfg.CacheMB)
	default:
		return nil, fmt.Errorf("%w: unknown store backend %q", config.ErrInvalidConfig, cfg.Backend)
	}
}

const (
	prefixTx      byte = 't'
	prefixReceipt byte = 'r'
	prefixHeader  byte = 'h'
)

func hashKey(prefix byte, h common.Hash) []byte {
	return append([]byte{prefix}, h.Bytes()...)
}

func numberKey(prefix byte, n uint64) []byte {
	return binary.BigEndian.AppendUint64([]byte{prefix}, n)
}

func encodeReceipt(r *types.Receipt) ([]byte, error) {
	return json.Marshal(r)
}

func decodeReceipt(b []byte) (*types.Receipt, error) {
	r := new(types.Receipt)
	if err := json.Unmarshal(b, r); err != nil {
		return nil, err
	}
	return r, nil
}

func encodeHeader(h *types.Header) ([]byte, error) {
	return json.Marshal(h)
}

func decodeHeader(b []byte) (*types.Header, error) {
	h := new(types.Header)
	if err := json.Unmarshal(b, h); err != nil {
		return nil, err
	}
	return h, nil
}

func decodeTx(b []byte) (*types.Transaction, error) {
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	return tx, nil
}
