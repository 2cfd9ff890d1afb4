package pallada

import (
	"errors"
	"fmt"
)

// Ошибки VM
var (
	ErrInvalidOpcode     = errors.New("invalid opcode")
	ErrInvalidJump       = errors.New("invalid jump destination")
	ErrInvalidBytecode   = errors.New("invalid bytecode format")
	ErrExecutionReverted = errors.New("execution reverted")
	ErrNoContext         = errors.New("execution context not available")
)

// VM представляет виртуальную машину
type VM struct {
	stack      *Stack
	memory     *Memory
	code       []byte
	jumpdests  []bool // валидные цели переходов (JUMPDEST вне PUSH-данных)
	pc         int
	returnData []byte
	stopped    bool
	reverted   bool

	ctx *Context  // может быть nil для простых вычислений
	gas *GasMeter // nil - газ не учитывается
}

// NewVM создает новую виртуальную машину без контекста и без учета газа
func NewVM(code []byte) *VM {
	return &VM{
		stack:     NewStack(),
		memory:    NewMemory(),
		code:      code,
		jumpdests: analyzeJumpDests(code),
	}
}

// NewVMWithContext создает VM с контекстом блокчейна
func NewVMWithContext(code []byte, ctx *Context) *VM {
	vm := NewVM(code)
	vm.ctx = ctx
	if ctx != nil && ctx.GasLimit > 0 {
		vm.gas = NewGasMeter(ctx.GasLimit)
	}
	return vm
}

// analyzeJumpDests помечает позиции JUMPDEST, пропуская данные PUSH
func analyzeJumpDests(code []byte) []bool {
	dests := make([]bool, len(code))
	for pc := 0; pc < len(code); pc++ {
		op := OpCode(code[pc])
		if size, ok := GetPushSize(op); ok {
			pc += size
			continue
		}
		if op == JUMPDEST {
			dests[pc] = true
		}
	}
	return dests
}

// Run выполняет байткод.
//
// Результат:
//   - STOP, RETURN или конец кода: данные возврата и nil;
//   - REVERT: данные возврата и ErrExecutionReverted;
//   - прочие ошибки (газ, стек, память, опкод): nil и ошибка.
func (vm *VM) Run() ([]byte, error) {
	vm.pc = 0
	vm.returnData = nil
	vm.stopped = false
	vm.reverted = false

	for vm.pc < len(vm.code) && !vm.stopped {
		op := OpCode(vm.code[vm.pc])
		if !IsValidOpcode(op) {
			return nil, fmt.Errorf("%w: 0x%02x at position %d", ErrInvalidOpcode, byte(op), vm.pc)
		}
		if vm.gas != nil {
			if err := vm.gas.UseGas(vm.gas.Cost.constantGas(op)); err != nil {
				return nil, fmt.Errorf("%w at PC %d", err, vm.pc)
			}
		}

		vm.pc++
		if err := vm.executeOpcode(op); err != nil {
			if vm.gas != nil {
				// любая ошибка кроме REVERT сжигает весь газ
				_ = vm.gas.UseGas(vm.gas.GasRemaining() + 1)
			}
			return nil, fmt.Errorf("%s at PC %d: %w", OpcodeName(op), vm.pc-1, err)
		}
	}

	if vm.reverted {
		return vm.returnData, ErrExecutionReverted
	}
	return vm.returnData, nil
}

// executeOpcode выполняет одну инструкцию; PC уже указывает за опкод
func (vm *VM) executeOpcode(op OpCode) error {
	switch op {
	case STOP:
		vm.stopped = true
		return nil

	case ADD, SUB, MUL, DIV, MOD:
		return vm.opArithmetic(op)
	case AND, OR, XOR, SHL, SHR:
		return vm.opBitwise(op)
	case NOT:
		return vm.opNot()
	case LT, GT, EQ:
		return vm.opCompare(op)
	case ISZERO:
		return vm.opIsZero()

	case POP:
		_, err := vm.stack.Pop()
		return err
	case DUP1, DUP2, DUP3, DUP4:
		return vm.stack.Dup(int(op-DUP1) + 1)
	case SWAP1, SWAP2, SWAP3, SWAP4:
		return vm.stack.Swap(int(op-SWAP1) + 1)

	case MLOAD:
		return vm.opMload()
	case MSTORE:
		return vm.opMstore()

	case PUSH1, PUSH2, PUSH4, PUSH8, PUSH16, PUSH32:
		return vm.opPush(op)

	case JUMP:
		return vm.opJump()
	case JUMPI:
		return vm.opJumpi()
	case JUMPDEST:
		return nil
	case PC:
		return vm.opPc()
	case RETURN:
		return vm.opReturn(false)
	case REVERT:
		return vm.opReturn(true)

	case ADDRESS:
		return vm.opAddress()
	case CALLER:
		return vm.opCaller()
	case CALLVALUE:
		return vm.opCallValue()
	case CALLDATALOAD:
		return vm.opCallDataLoad()
	case CALLDATASIZE:
		return vm.opCallDataSize()
	case CALLDATACOPY:
		return vm.opCallDataCopy()
	case SLOAD:
		return vm.opSload()
	case SSTORE:
		return vm.opSstore()
	case CALL:
		return vm.opCall()
	case BALANCE:
		return vm.opBalance()
	case SELFBALANCE:
		return vm.opSelfBalance()
	case CODESIZE:
		return vm.opCodeSize()
	case CODECOPY:
		return vm.opCodeCopy()
	case GAS:
		return vm.opGas()

	case LOG0, LOG1, LOG2, LOG3:
		return vm.opLog(op)

	default:
		return fmt.Errorf("%w: 0x%02x", ErrInvalidOpcode, byte(op))
	}
}

// GetStack возвращает стек (для отладки)
func (vm *VM) GetStack() *Stack {
	return vm.stack
}

// GetMemory возвращает память (для отладки)
func (vm *VM) GetMemory() *Memory {
	return vm.memory
}

// GetContext возвращает контекст выполнения
func (vm *VM) GetContext() *Context {
	return vm.ctx
}

// GetGasMeter возвращает счетчик газа
func (vm *VM) GetGasMeter() *GasMeter {
	return vm.gas
}

// GasUsed возвращает использованный газ
func (vm *VM) GasUsed() uint64 {
	if vm.gas == nil {
		return 0
	}
	return vm.gas.GasUsed()
}

// ReturnData возвращает данные RETURN/REVERT последнего запуска
func (vm *VM) ReturnData() []byte {
	return vm.returnData
}
