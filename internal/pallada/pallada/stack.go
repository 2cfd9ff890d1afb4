package pallada

import (
	"errors"
	"math/big"
)

// Ошибки стека
var (
	ErrStackUnderflow = errors.New("stack underflow")
	ErrStackOverflow  = errors.New("stack overflow")
)

const (
	// MaxStackDepth - максимальная глубина стека
	MaxStackDepth = 1024
	// WordSize - размер слова в байтах (256 бит)
	WordSize = 32
)

// Stack представляет стек виртуальной машины.
// Значения на стеке всегда неотрицательны и меньше 2^256.
type Stack struct {
	data []*big.Int
}

func NewStack() *Stack {
	return &Stack{
		data: make([]*big.Int, 0, 32),
	}
}

// Push кладет значение на вершину стека
func (s *Stack) Push(value *big.Int) error {
	if len(s.data) >= MaxStackDepth {
		return ErrStackOverflow
	}
	s.data = append(s.data, value)
	return nil
}

// Pop снимает значение с вершины стека
func (s *Stack) Pop() (*big.Int, error) {
	if len(s.data) == 0 {
		return nil, ErrStackUnderflow
	}
	idx := len(s.data) - 1
	value := s.data[idx]
	s.data[idx] = nil
	s.data = s.data[:idx]
	return value, nil
}

// PopN снимает n значений; результат[0] - бывшая вершина
func (s *Stack) PopN(n int) ([]*big.Int, error) {
	if len(s.data) < n {
		return nil, ErrStackUnderflow
	}
	out := make([]*big.Int, n)
	for i := 0; i < n; i++ {
		out[i], _ = s.Pop()
	}
	return out, nil
}

// Peek возвращает вершину стека без извлечения
func (s *Stack) Peek() (*big.Int, error) {
	if len(s.data) == 0 {
		return nil, ErrStackUnderflow
	}
	return s.data[len(s.data)-1], nil
}

func (s *Stack) Len() int {
	return len(s.data)
}

// Dup дублирует n-й элемент с вершины (n=1 - сама вершина)
func (s *Stack) Dup(n int) error {
	if n < 1 || len(s.data) < n {
		return ErrStackUnderflow
	}
	value := new(big.Int).Set(s.data[len(s.data)-n])
	return s.Push(value)
}

// Swap меняет вершину с (n+1)-м элементом (n=1 - со вторым)
func (s *Stack) Swap(n int) error {
	if n < 1 || len(s.data) < n+1 {
		return ErrStackUnderflow
	}
	top := len(s.data) - 1
	target := top - n
	s.data[top], s.data[target] = s.data[target], s.data[top]
	return nil
}
