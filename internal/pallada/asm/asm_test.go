package asm

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faucetsim/internal/pallada/pallada"
)

func TestAssembler_PushWidth(t *testing.T) {
	code, err := New().
		PushUint(0).
		PushUint(0xff).
		PushUint(0x100).
		PushUint(0x10000).
		Bytes()
	require.NoError(t, err)

	want := []byte{
		byte(pallada.PUSH1), 0x00,
		byte(pallada.PUSH1), 0xff,
		byte(pallada.PUSH2), 0x01, 0x00,
		byte(pallada.PUSH4), 0x00, 0x01, 0x00, 0x00,
	}
	assert.Equal(t, want, code)
}

func TestAssembler_PushTooLarge(t *testing.T) {
	_, err := New().Push(new(big.Int).Lsh(big.NewInt(1), 256)).Bytes()
	assert.True(t, errors.Is(err, ErrValueTooLarge))

	_, err = New().Push(big.NewInt(-1)).Bytes()
	assert.True(t, errors.Is(err, ErrValueTooLarge))
}

func TestAssembler_PushBytesKeepsWidth(t *testing.T) {
	code, err := New().PushBytes([]byte{0x00, 0x00, 0x12, 0x34}).Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{byte(pallada.PUSH4), 0x00, 0x00, 0x12, 0x34}, code)
}

func TestAssembler_ForwardLabel(t *testing.T) {
	code, err := New().
		PushLabel("end").
		Op(pallada.JUMP).
		PushUint(1).
		Label("end").
		PushUint(2).
		Bytes()
	require.NoError(t, err)

	// PUSH2 0x0006, JUMP, PUSH1 1, JUMPDEST, PUSH1 2
	assert.Equal(t, []byte{0x00, 0x06}, code[1:3])
	assert.Equal(t, byte(pallada.JUMPDEST), code[6])

	vm := pallada.NewVM(code)
	_, err = vm.Run()
	require.NoError(t, err)
	assert.Equal(t, 1, vm.GetStack().Len())
	top, _ := vm.GetStack().Peek()
	assert.Equal(t, int64(2), top.Int64())
}

func TestAssembler_BackwardLabelLoop(t *testing.T) {
	// счетчик от 3 до 0
	code, err := New().
		PushUint(3).
		Label("loop").
		PushUint(1).
		Op(pallada.SUB).
		Op(pallada.DUP1).
		PushLabel("loop").
		Op(pallada.SWAP1, pallada.JUMPI).
		Bytes()
	require.NoError(t, err)

	vm := pallada.NewVM(code)
	_, err = vm.Run()
	require.NoError(t, err)
	top, _ := vm.GetStack().Peek()
	assert.Zero(t, top.Sign())
}

func TestAssembler_Mark(t *testing.T) {
	a := New().PushLabel("data").Op(pallada.STOP).Mark("data").Raw([]byte{0xAA})
	code, err := a.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x04}, code[1:3])
	assert.Equal(t, 5, a.Len())
}

func TestAssembler_Errors(t *testing.T) {
	_, err := New().PushLabel("missing").Bytes()
	assert.True(t, errors.Is(err, ErrUnknownLabel))

	_, err = New().Label("a").Label("a").Bytes()
	assert.True(t, errors.Is(err, ErrDuplicateLabel))

	_, err = New().Op(pallada.PUSH1).Bytes()
	assert.Error(t, err)

	assert.Panics(t, func() { New().PushLabel("x").MustBytes() })
}
