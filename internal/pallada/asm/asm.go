// Package asm собирает байткод pallada из инструкций и меток.
//
// Переходы записываются через PushLabel, цель - через Label. Адреса меток
// разрешаются при вызове Bytes, поэтому метку можно использовать до объявления.
package asm

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/faucetsim/internal/pallada/pallada"
)

var (
	ErrUnknownLabel   = errors.New("unknown label")
	ErrDuplicateLabel = errors.New("duplicate label")
	ErrValueTooLarge  = errors.New("push value exceeds 256 bits")
	ErrCodeTooLarge   = errors.New("label offset exceeds PUSH2 range")
)

// labelRef - место в коде, куда нужно записать адрес метки (2 байта)
type labelRef struct {
	pos   int
	label string
}

// Assembler накапливает инструкции. Первая ошибка запоминается,
// последующие вызовы ее не затирают.
type Assembler struct {
	code   []byte
	labels map[string]int
	refs   []labelRef
	err    error
}

func New() *Assembler {
	return &Assembler{labels: make(map[string]int)}
}

// Op добавляет инструкции без данных
func (a *Assembler) Op(ops ...pallada.OpCode) *Assembler {
	for _, op := range ops {
		if pallada.IsPush(op) {
			a.fail(fmt.Errorf("%s requires data, use Push", op))
			return a
		}
		a.code = append(a.code, byte(op))
	}
	return a
}

// Push добавляет наименьший PUSH, вмещающий value
func (a *Assembler) Push(value *big.Int) *Assembler {
	if value.Sign() < 0 || value.BitLen() > 256 {
		a.fail(fmt.Errorf("%w: %s", ErrValueTooLarge, value))
		return a
	}
	op, size := pallada.PushOpForSize(len(value.Bytes()))
	data := make([]byte, size)
	value.FillBytes(data)
	a.code = append(a.code, byte(op))
	a.code = append(a.code, data...)
	return a
}

func (a *Assembler) PushUint(v uint64) *Assembler {
	return a.Push(new(big.Int).SetUint64(v))
}

// PushBytes добавляет PUSH с данными фиксированной ширины (4 байта селектора и т.п.)
func (a *Assembler) PushBytes(data []byte) *Assembler {
	op, size := pallada.PushOpForSize(len(data))
	if len(data) > size || len(data) > pallada.WordSize {
		a.fail(fmt.Errorf("%w: %d bytes", ErrValueTooLarge, len(data)))
		return a
	}
	word := make([]byte, size)
	copy(word[size-len(data):], data)
	a.code = append(a.code, byte(op))
	a.code = append(a.code, word...)
	return a
}

// PushLabel добавляет PUSH2 с адресом метки
func (a *Assembler) PushLabel(name string) *Assembler {
	a.code = append(a.code, byte(pallada.PUSH2))
	a.refs = append(a.refs, labelRef{pos: len(a.code), label: name})
	a.code = append(a.code, 0, 0)
	return a
}

// Label объявляет цель перехода и ставит JUMPDEST
func (a *Assembler) Label(name string) *Assembler {
	a.Mark(name)
	a.code = append(a.code, byte(pallada.JUMPDEST))
	return a
}

// Mark запоминает текущую позицию без JUMPDEST (например, начало данных)
func (a *Assembler) Mark(name string) *Assembler {
	if _, ok := a.labels[name]; ok {
		a.fail(fmt.Errorf("%w: %s", ErrDuplicateLabel, name))
		return a
	}
	a.labels[name] = len(a.code)
	return a
}

// Raw добавляет байты как есть
func (a *Assembler) Raw(data []byte) *Assembler {
	a.code = append(a.code, data...)
	return a
}

// Len возвращает текущий размер кода
func (a *Assembler) Len() int {
	return len(a.code)
}

func (a *Assembler) fail(err error) {
	if a.err == nil {
		a.err = err
	}
}

// Bytes разрешает метки и возвращает готовый байткод
func (a *Assembler) Bytes() ([]byte, error) {
	if a.err != nil {
		return nil, a.err
	}
	out := make([]byte, len(a.code))
	copy(out, a.code)
	for _, ref := range a.refs {
		pos, ok := a.labels[ref.label]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownLabel, ref.label)
		}
		if pos > 0xffff {
			return nil, fmt.Errorf("%w: %s at %d", ErrCodeTooLarge, ref.label, pos)
		}
		out[ref.pos] = byte(pos >> 8)
		out[ref.pos+1] = byte(pos)
	}
	return out, nil
}

// MustBytes как Bytes, но паникует при ошибке. Для кода, собираемого при инициализации.
func (a *Assembler) MustBytes() []byte {
	code, err := a.Bytes()
	if err != nil {
		panic(err)
	}
	return code
}
