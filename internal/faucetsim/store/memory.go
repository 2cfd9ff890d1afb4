package store

import (
	"sync"

	"github.com/faucetsim/internal/faucetsim/common"
	"github.com/faucetsim/internal/faucetsim/types"
)

// MemoryStore держит закодированные записи в map. Записи кодируются так же,
// как в pebble, чтобы вызывающий не мог изменить сохраненные данные.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

func NewMemory() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) put(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.data[string(key)] = value
	return nil
}

func (m *MemoryStore) get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	v, ok := m.data[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

func (m *MemoryStore) PutTransaction(tx *types.Transaction) error {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return err
	}
	return m.put(hashKey(prefixTx, tx.Hash()), raw)
}

func (m *MemoryStore) Transaction(hash common.Hash) (*types.Transaction, error) {
	raw, err := m.get(hashKey(prefixTx, hash))
	if err != nil {
		return nil, err
	}
	return decodeTx(raw)
}

func (m *MemoryStore) PutReceipt(r *types.Receipt) error {
	raw, err := encodeReceipt(r)
	if err != nil {
		return err
	}
	return m.put(hashKey(prefixReceipt, r.TxHash), raw)
}

func (m *MemoryStore) Receipt(hash common.Hash) (*types.Receipt, error) {
	raw, err := m.get(hashKey(prefixReceipt, hash))
	if err != nil {
		return nil, err
	}
	return decodeReceipt(raw)
}

func (m *MemoryStore) PutHeader(h *types.Header) error {
	raw, err := encodeHeader(h)
	if err != nil {
		return err
	}
	return m.put(numberKey(prefixHeader, h.Number), raw)
}

func (m *MemoryStore) HeaderByNumber(number uint64) (*types.Header, error) {
	raw, err := m.get(numberKey(prefixHeader, number))
	if err != nil {
		return nil, err
	}
	return decodeHeader(raw)
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.closed = true
	m.data = nil
	return nil
}
