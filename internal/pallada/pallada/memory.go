package pallada

import (
	"errors"
	"math/big"
)

var (
	ErrMemoryOutOfBounds = errors.New("memory out of bounds")
)

const (
	// MaxMemorySize - максимальный размер памяти в байтах (64 KB)
	MaxMemorySize = 64 * 1024
)

// Memory представляет линейную память виртуальной машины.
// Непрочитанные и незаписанные байты равны нулю.
type Memory struct {
	store []byte
}

func NewMemory() *Memory {
	return &Memory{
		store: make([]byte, 0, 1024),
	}
}

// checkRange проверяет, что [offset, offset+size) помещается в лимит памяти
func checkRange(offset, size uint64) error {
	if size == 0 {
		return nil
	}
	end := offset + size
	if end < offset || end > MaxMemorySize {
		return ErrMemoryOutOfBounds
	}
	return nil
}

// Resize расширяет память до size байт (округляя до слова)
func (m *Memory) Resize(size uint64) error {
	if size > MaxMemorySize {
		return ErrMemoryOutOfBounds
	}
	words := (size + WordSize - 1) / WordSize
	size = words * WordSize
	if size > uint64(len(m.store)) {
		m.store = append(m.store, make([]byte, size-uint64(len(m.store)))...)
	}
	return nil
}

// Set записывает value в память по адресу offset.
// Если value короче size, остаток заполняется нулями.
func (m *Memory) Set(offset uint64, size uint64, value []byte) error {
	if size == 0 {
		return nil
	}
	if err := checkRange(offset, size); err != nil {
		return err
	}
	if err := m.Resize(offset + size); err != nil {
		return err
	}
	dst := m.store[offset : offset+size]
	n := copy(dst, value)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
	return nil
}

// Get возвращает копию байтов памяти; за пределами записанной области - нули
func (m *Memory) Get(offset uint64, size uint64) ([]byte, error) {
	if size == 0 {
		return []byte{}, nil
	}
	if err := checkRange(offset, size); err != nil {
		return nil, err
	}
	result := make([]byte, size)
	if offset < uint64(len(m.store)) {
		copy(result, m.store[offset:])
	}
	return result, nil
}

// Set32 записывает слово (256 бит) по адресу offset
func (m *Memory) Set32(offset uint64, value *big.Int) error {
	word := make([]byte, WordSize)
	value.FillBytes(word)
	return m.Set(offset, WordSize, word)
}

// Get32 читает слово (256 бит) по адресу offset
func (m *Memory) Get32(offset uint64) (*big.Int, error) {
	data, err := m.Get(offset, WordSize)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(data), nil
}

// Len возвращает текущий размер памяти в байтах
func (m *Memory) Len() int {
	return len(m.store)
}
