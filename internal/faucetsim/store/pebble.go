package store

import (
	"errors"
	"sync/atomic"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"go.uber.org/multierr"

	"github.com/faucetsim/internal/faucetsim/common"
	"github.com/faucetsim/internal/faucetsim/types"
)

const DefaultCacheMB = 16

// PebbleStore - хранилище на pebble. Пустой путь открывает базу в памяти.
type PebbleStore struct {
	db     *pebble.DB
	closed atomic.Bool
}

// NewPebble открывает (или создает) базу по пути path
func NewPebble(path string, cacheMB int) (*PebbleStore, error) {
	if cacheMB <= 0 {
		cacheMB = DefaultCacheMB
	}
	cache := pebble.NewCache(int64(cacheMB) * 1024 * 1024)
	defer cache.Unref()

	opts := &pebble.Options{Cache: cache}
	dir := path
	if path == "" {
		opts.FS = vfs.NewMem()
		dir = "faucetsim"
	}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, err
	}
	return &PebbleStore{db: db}, nil
}

func (p *PebbleStore) put(key, value []byte) error {
	if p.closed.Load() {
		return ErrClosed
	}
	return p.db.Set(key, value, pebble.Sync)
}

func (p *PebbleStore) get(key []byte) ([]byte, error) {
	if p.closed.Load() {
		return nil, ErrClosed
	}
	value, closer, err := p.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return common.CopyBytes(value), nil
}

func (p *PebbleStore) PutTransaction(tx *types.Transaction) error {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return err
	}
	return p.put(hashKey(prefixTx, tx.Hash()), raw)
}

func (p *PebbleStore) Transaction(hash common.Hash) (*types.Transaction, error) {
	raw, err := p.get(hashKey(prefixTx, hash))
	if err != nil {
		return nil, err
	}
	return decodeTx(raw)
}

func (p *PebbleStore) PutReceipt(r *types.Receipt) error {
	raw, err := encodeReceipt(r)
	if err != nil {
		return err
	}
	return p.put(hashKey(prefixReceipt, r.TxHash), raw)
}

func (p *PebbleStore) Receipt(hash common.Hash) (*types.Receipt, error) {
	raw, err := p.get(hashKey(prefixReceipt, hash))
	if err != nil {
		return nil, err
	}
	return decodeReceipt(raw)
}

func (p *PebbleStore) PutHeader(h *types.Header) error {
	raw, err := encodeHeader(h)
	if err != nil {
		return err
	}
	return p.put(numberKey(prefixHeader, h.Number), raw)
}

func (p *PebbleStore) HeaderByNumber(number uint64) (*types.Header, error) {
	raw, err := p.get(numberKey(prefixHeader, number))
	if err != nil {
		return nil, err
	}
	return decodeHeader(raw)
}

// Close сбрасывает memtable на диск и закрывает базу
func (p *PebbleStore) Close() error {
	if p.closed.Swap(true) {
		return ErrClosed
	}
	return multierr.Combine(p.db.Flush(), p.db.Close())
}
