package pallada

import (
	"fmt"
	"math/big"

	"github.com/faucetsim/internal/faucetsim/common"
)

var (
	bigOne = big.NewInt(1)
	tt256  = new(big.Int).Lsh(big.NewInt(1), 256)
)

// wrap приводит значение к слову: результат по модулю 2^256
func wrap(x *big.Int) *big.Int {
	if x.Sign() >= 0 && x.BitLen() <= 256 {
		return x
	}
	return x.Mod(x, tt256)
}

// toOffset переводит слово в смещение памяти/данных
func toOffset(v *big.Int) (uint64, error) {
	if !v.IsUint64() {
		return 0, ErrMemoryOutOfBounds
	}
	return v.Uint64(), nil
}

func (vm *VM) useGas(amount uint64) error {
	if vm.gas == nil {
		return nil
	}
	return vm.gas.UseGas(amount)
}

// expandMemory списывает газ за расширение памяти под [offset, offset+size)
func (vm *VM) expandMemory(offset, size uint64) error {
	if size == 0 {
		return nil
	}
	if err := checkRange(offset, size); err != nil {
		return err
	}
	if vm.gas != nil {
		cost := vm.gas.CalculateMemoryGas(uint64(vm.memory.Len()), offset+size)
		if err := vm.gas.UseGas(cost); err != nil {
			return err
		}
	}
	return vm.memory.Resize(offset + size)
}

func (vm *VM) requireContext() error {
	if vm.ctx == nil {
		return ErrNoContext
	}
	return nil
}

// ========== Арифметика и логика ==========

func (vm *VM) opArithmetic(op OpCode) error {
	a, err := vm.stack.Pop()
	if err != nil {
		return err
	}
	b, err := vm.stack.Pop()
	if err != nil {
		return err
	}
	result := new(big.Int)
	switch op {
	case ADD:
		result.Add(b, a)
	case SUB:
		result.Sub(b, a)
	case MUL:
		result.Mul(b, a)
	case DIV:
		if a.Sign() != 0 {
			result.Div(b, a)
		}
	case MOD:
		if a.Sign() != 0 {
			result.Mod(b, a)
		}
	}
	return vm.stack.Push(wrap(result))
}

func (vm *VM) opBitwise(op OpCode) error {
	a, err := vm.stack.Pop()
	if err != nil {
		return err
	}
	b, err := vm.stack.Pop()
	if err != nil {
		return err
	}
	result := new(big.Int)
	switch op {
	case AND:
		result.And(b, a)
	case OR:
		result.Or(b, a)
	case XOR:
		result.Xor(b, a)
	case SHL, SHR:
		if !a.IsUint64() || a.Uint64() >= 256 {
			return vm.stack.Push(result)
		}
		if op == SHL {
			result.Lsh(b, uint(a.Uint64()))
		} else {
			result.Rsh(b, uint(a.Uint64()))
		}
	}
	return vm.stack.Push(wrap(result))
}

func (vm *VM) opNot() error {
	a, err := vm.stack.Pop()
	if err != nil {
		return err
	}
	// ~a в 256 битах == (2^256 - 1) - a
	result := new(big.Int).Sub(tt256, bigOne)
	result.Sub(result, a)
	return vm.stack.Push(result)
}

func (vm *VM) opCompare(op OpCode) error {
	a, err := vm.stack.Pop()
	if err != nil {
		return err
	}
	b, err := vm.stack.Pop()
	if err != nil {
		return err
	}
	var ok bool
	switch op {
	case LT:
		ok = b.Cmp(a) < 0
	case GT:
		ok = b.Cmp(a) > 0
	case EQ:
		ok = b.Cmp(a) == 0
	}
	if ok {
		return vm.stack.Push(big.NewInt(1))
	}
	return vm.stack.Push(big.NewInt(0))
}

func (vm *VM) opIsZero() error {
	a, err := vm.stack.Pop()
	if err != nil {
		return err
	}
	if a.Sign() == 0 {
		return vm.stack.Push(big.NewInt(1))
	}
	return vm.stack.Push(big.NewInt(0))
}

// ========== Память ==========

func (vm *VM) opMload() error {
	offset, err := vm.stack.Pop()
	if err != nil {
		return err
	}
	off, err := toOffset(offset)
	if err != nil {
		return err
	}
	if err := vm.expandMemory(off, WordSize); err != nil {
		return err
	}
	value, err := vm.memory.Get32(off)
	if err != nil {
		return err
	}
	return vm.stack.Push(value)
}

func (vm *VM) opMstore() error {
	offset, err := vm.stack.Pop()
	if err != nil {
		return err
	}
	value, err := vm.stack.Pop()
	if err != nil {
		return err
	}
	off, err := toOffset(offset)
	if err != nil {
		return err
	}
	if err := vm.expandMemory(off, WordSize); err != nil {
		return err
	}
	return vm.memory.Set32(off, value)
}

// ========== PUSH ==========

func (vm *VM) opPush(op OpCode) error {
	size, _ := GetPushSize(op)
	if vm.pc+size > len(vm.code) {
		return ErrInvalidBytecode
	}
	value := new(big.Int).SetBytes(vm.code[vm.pc : vm.pc+size])
	vm.pc += size
	return vm.stack.Push(value)
}

// ========== Управление потоком ==========

func (vm *VM) jumpTo(dest *big.Int) error {
	if !dest.IsInt64() {
		return ErrInvalidJump
	}
	d := dest.Int64()
	if d < 0 || d >= int64(len(vm.code)) || !vm.jumpdests[d] {
		return fmt.Errorf("%w: %d", ErrInvalidJump, d)
	}
	vm.pc = int(d)
	return nil
}

func (vm *VM) opJump() error {
	dest, err := vm.stack.Pop()
	if err != nil {
		return err
	}
	return vm.jumpTo(dest)
}

func (vm *VM) opJumpi() error {
	cond, err := vm.stack.Pop()
	if err != nil {
		return err
	}
	dest, err := vm.stack.Pop()
	if err != nil {
		return err
	}
	if cond.Sign() == 0 {
		return nil
	}
	return vm.jumpTo(dest)
}

func (vm *VM) opPc() error {
	return vm.stack.Push(big.NewInt(int64(vm.pc - 1)))
}

// opReturn обслуживает RETURN и REVERT: offset, size
func (vm *VM) opReturn(revert bool) error {
	offset, err := vm.stack.Pop()
	if err != nil {
		return err
	}
	size, err := vm.stack.Pop()
	if err != nil {
		return err
	}
	off, err := toOffset(offset)
	if err != nil {
		return err
	}
	sz, err := toOffset(size)
	if err != nil {
		return err
	}
	if err := vm.expandMemory(off, sz); err != nil {
		return err
	}
	data, err := vm.memory.Get(off, sz)
	if err != nil {
		return err
	}
	vm.returnData = data
	vm.stopped = true
	vm.reverted = revert
	return nil
}

// ========== Контекст выполнения ==========

func (vm *VM) opAddress() error {
	if err := vm.requireContext(); err != nil {
		return err
	}
	return vm.stack.Push(vm.ctx.Address.Big())
}

func (vm *VM) opCaller() error {
	if err := vm.requireContext(); err != nil {
		return err
	}
	return vm.stack.Push(vm.ctx.Caller.Big())
}

func (vm *VM) opCallValue() error {
	if err := vm.requireContext(); err != nil {
		return err
	}
	return vm.stack.Push(new(big.Int).Set(vm.ctx.Value))
}

// opCallDataLoad загружает 32 байта входных данных; недостающие байты справа - нули
func (vm *VM) opCallDataLoad() error {
	if err := vm.requireContext(); err != nil {
		return err
	}
	offset, err := vm.stack.Pop()
	if err != nil {
		return err
	}
	var word [WordSize]byte
	if offset.IsUint64() && offset.Uint64() < uint64(len(vm.ctx.Input)) {
		copy(word[:], vm.ctx.Input[offset.Uint64():])
	}
	return vm.stack.Push(new(big.Int).SetBytes(word[:]))
}

func (vm *VM) opCallDataSize() error {
	if err := vm.requireContext(); err != nil {
		return err
	}
	return vm.stack.Push(big.NewInt(int64(len(vm.ctx.Input))))
}

func (vm *VM) opCallDataCopy() error {
	if err := vm.requireContext(); err != nil {
		return err
	}
	return vm.copyToMemory(vm.ctx.Input)
}

func (vm *VM) opCodeSize() error {
	return vm.stack.Push(big.NewInt(int64(len(vm.code))))
}

func (vm *VM) opCodeCopy() error {
	return vm.copyToMemory(vm.code)
}

// copyToMemory: destOffset, offset, size; чтение за пределами src дает нули
func (vm *VM) copyToMemory(src []byte) error {
	args, err := vm.stack.PopN(3)
	if err != nil {
		return err
	}
	dest, err := toOffset(args[0])
	if err != nil {
		return err
	}
	size, err := toOffset(args[2])
	if err != nil {
		return err
	}
	if size == 0 {
		return nil
	}
	if err := vm.expandMemory(dest, size); err != nil {
		return err
	}
	if vm.gas != nil {
		if err := vm.useGas(vm.gas.CalculateCopyGas(size)); err != nil {
			return err
		}
	}
	var data []byte
	if args[1].IsUint64() && args[1].Uint64() < uint64(len(src)) {
		data = src[args[1].Uint64():]
	}
	return vm.memory.Set(dest, size, data)
}

func (vm *VM) opGas() error {
	if vm.gas == nil {
		return vm.stack.Push(big.NewInt(0))
	}
	return vm.stack.Push(new(big.Int).SetUint64(vm.gas.GasRemaining()))
}

// ========== Состояние ==========

func (vm *VM) opSload() error {
	if err := vm.requireContext(); err != nil {
		return err
	}
	if vm.ctx.Storage == nil {
		return fmt.Errorf("%w: storage", ErrNoContext)
	}
	key, err := vm.stack.Pop()
	if err != nil {
		return err
	}
	value, err := vm.ctx.Storage.GetStorage(vm.ctx.Address, key)
	if err != nil {
		return err
	}
	if value == nil {
		value = new(big.Int)
	}
	return vm.stack.Push(value)
}

func (vm *VM) opSstore() error {
	if err := vm.requireContext(); err != nil {
		return err
	}
	if vm.ctx.Storage == nil {
		return fmt.Errorf("%w: storage", ErrNoContext)
	}
	key, err := vm.stack.Pop()
	if err != nil {
		return err
	}
	value, err := vm.stack.Pop()
	if err != nil {
		return err
	}
	if vm.gas != nil {
		current, err := vm.ctx.Storage.GetStorage(vm.ctx.Address, key)
		if err != nil {
			return err
		}
		cost := vm.gas.Cost.SStoreEdit
		if (current == nil || current.Sign() == 0) && value.Sign() != 0 {
			cost = vm.gas.Cost.SStoreSet
		}
		if err := vm.gas.UseGas(cost); err != nil {
			return err
		}
	}
	return vm.ctx.Storage.SetStorage(vm.ctx.Address, key, value)
}

func (vm *VM) opBalance() error {
	if err := vm.requireContext(); err != nil {
		return err
	}
	if vm.ctx.Storage == nil {
		return fmt.Errorf("%w: storage", ErrNoContext)
	}
	addr, err := vm.stack.Pop()
	if err != nil {
		return err
	}
	return vm.stack.Push(vm.ctx.Storage.GetBalance(common.BigToAddress(addr)))
}

func (vm *VM) opSelfBalance() error {
	if err := vm.requireContext(); err != nil {
		return err
	}
	if vm.ctx.Storage == nil {
		return fmt.Errorf("%w: storage", ErrNoContext)
	}
	return vm.stack.Push(vm.ctx.Storage.GetBalance(vm.ctx.Address))
}

// opCall: gas, address, value, inOffset, inSize, outOffset, outSize -> success
func (vm *VM) opCall() error {
	if err := vm.requireContext(); err != nil {
		return err
	}
	if vm.ctx.CallerInt == nil {
		return fmt.Errorf("%w: calls", ErrNoContext)
	}
	args, err := vm.stack.PopN(7)
	if err != nil {
		return err
	}
	requested, to, value := args[0], common.BigToAddress(args[1]), args[2]
	inOff, err := toOffset(args[3])
	if err != nil {
		return err
	}
	inSize, err := toOffset(args[4])
	if err != nil {
		return err
	}
	outOff, err := toOffset(args[5])
	if err != nil {
		return err
	}
	outSize, err := toOffset(args[6])
	if err != nil {
		return err
	}

	if err := vm.expandMemory(inOff, inSize); err != nil {
		return err
	}
	if err := vm.expandMemory(outOff, outSize); err != nil {
		return err
	}
	input, err := vm.memory.Get(inOff, inSize)
	if err != nil {
		return err
	}

	var forwarded, stipend uint64
	if vm.gas != nil {
		if value.Sign() != 0 {
			if err := vm.gas.UseGas(vm.gas.Cost.CallValue); err != nil {
				return err
			}
			stipend = vm.gas.Cost.Stipend
		}
		forwarded = vm.gas.GasRemaining()
		if requested.IsUint64() && requested.Uint64() < forwarded {
			forwarded = requested.Uint64()
		}
		if err := vm.gas.UseGas(forwarded); err != nil {
			return err
		}
	}

	ret, ok, used := vm.ctx.CallerInt.Call(vm.ctx.Address, to, new(big.Int).Set(value), input, forwarded+stipend)

	if vm.gas != nil {
		limit := forwarded + stipend
		var left uint64
		if used < limit {
			left = limit - used
		}
		if left > forwarded {
			left = forwarded
		}
		vm.gas.RefundGas(left)
	}

	if outSize > 0 && len(ret) > 0 {
		n := uint64(len(ret))
		if n > outSize {
			n = outSize
		}
		if err := vm.memory.Set(outOff, n, ret[:n]); err != nil {
			return err
		}
	}
	if ok {
		return vm.stack.Push(big.NewInt(1))
	}
	return vm.stack.Push(big.NewInt(0))
}

// opLog: offset, size, topic1..topicN
func (vm *VM) opLog(op OpCode) error {
	if err := vm.requireContext(); err != nil {
		return err
	}
	if vm.ctx.Logs == nil {
		return fmt.Errorf("%w: logs", ErrNoContext)
	}
	n, _ := LogTopics(op)
	args, err := vm.stack.PopN(2 + n)
	if err != nil {
		return err
	}
	off, err := toOffset(args[0])
	if err != nil {
		return err
	}
	size, err := toOffset(args[1])
	if err != nil {
		return err
	}
	if err := vm.expandMemory(off, size); err != nil {
		return err
	}
	if vm.gas != nil {
		if err := vm.useGas(size * vm.gas.Cost.LogData); err != nil {
			return err
		}
	}
	data, err := vm.memory.Get(off, size)
	if err != nil {
		return err
	}
	topics := make([]common.Hash, n)
	for i := 0; i < n; i++ {
		topics[i] = common.BigToHash(args[2+i])
	}
	vm.ctx.Logs.AddLog(vm.ctx.Address, topics, data)
	return nil
}
