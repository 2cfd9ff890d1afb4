package pallada

import "errors"

// GasCost представляет стоимость газа для различных операций
type GasCost struct {
	Zero       uint64
	Base       uint64
	VeryLow    uint64
	Low        uint64
	Mid        uint64
	High       uint64
	JumpDest   uint64
	Balance    uint64
	SLoad      uint64
	SStoreSet  uint64 // ноль -> не ноль
	SStoreEdit uint64 // все остальные записи
	Call       uint64
	CallValue  uint64 // надбавка за перевод value
	Stipend    uint64 // бесплатный газ получателю при переводе value
	Memory     uint64 // за слово (32 байта)
	Copy       uint64 // за слово при CALLDATACOPY/CODECOPY
	Log        uint64
	LogTopic   uint64
	LogData    uint64 // за байт
}

// DefaultGasCost возвращает стандартные стоимости газа
func DefaultGasCost() *GasCost {
	return &GasCost{
		Zero:       0,
		Base:       2,
		VeryLow:    3,
		Low:        5,
		Mid:        8,
		High:       10,
		JumpDest:   1,
		Balance:    400,
		SLoad:      200,
		SStoreSet:  20000,
		SStoreEdit: 5000,
		Call:       700,
		CallValue:  9000,
		Stipend:    2300,
		Memory:     3,
		Copy:       3,
		Log:        375,
		LogTopic:   375,
		LogData:    8,
	}
}

// constantGas возвращает фиксированную часть стоимости опкода.
// Динамическая часть (память, storage, вызовы) считается в самой операции.
func (c *GasCost) constantGas(op OpCode) uint64 {
	switch {
	case op == STOP, op == RETURN, op == REVERT:
		return c.Zero
	case op == ADDRESS, op == CALLER, op == CALLVALUE, op == CALLDATASIZE,
		op == CODESIZE, op == PC, op == POP, op == GAS:
		return c.Base
	case op == MUL, op == DIV, op == MOD, op == SELFBALANCE:
		return c.Low
	case op == JUMP:
		return c.Mid
	case op == JUMPI:
		return c.High
	case op == JUMPDEST:
		return c.JumpDest
	case op == BALANCE:
		return c.Balance
	case op == SLOAD:
		return c.SLoad
	case op == SSTORE:
		return c.Zero
	case op == CALL:
		return c.Call
	case op >= LOG0 && op <= LOG3:
		return c.Log + uint64(op-LOG0)*c.LogTopic
	default:
		return c.VeryLow
	}
}

// ErrOutOfGas - ошибка нехватки газа
var ErrOutOfGas = errors.New("out of gas")

// GasMeter отслеживает использование газа
type GasMeter struct {
	gasLimit uint64
	gasUsed  uint64
	Cost     *GasCost
}

func NewGasMeter(gasLimit uint64) *GasMeter {
	return &GasMeter{
		gasLimit: gasLimit,
		Cost:     DefaultGasCost(),
	}
}

// UseGas расходует газ и возвращает ошибку, если лимит превышен.
// При ошибке весь оставшийся газ считается израсходованным.
func (gm *GasMeter) UseGas(amount uint64) error {
	if amount > gm.GasRemaining() {
		gm.gasUsed = gm.gasLimit
		return ErrOutOfGas
	}
	gm.gasUsed += amount
	return nil
}

// RefundGas возвращает газ (неизрасходованный остаток вложенного вызова)
func (gm *GasMeter) RefundGas(amount uint64) {
	if amount > gm.gasUsed {
		gm.gasUsed = 0
	} else {
		gm.gasUsed -= amount
	}
}

func (gm *GasMeter) GasUsed() uint64 {
	return gm.gasUsed
}

func (gm *GasMeter) GasRemaining() uint64 {
	if gm.gasUsed > gm.gasLimit {
		return 0
	}
	return gm.gasLimit - gm.gasUsed
}

func (gm *GasMeter) GasLimit() uint64 {
	return gm.gasLimit
}

// CalculateMemoryGas рассчитывает газ за расширение памяти с oldSize до newSize байт
func (gm *GasMeter) CalculateMemoryGas(oldSize, newSize uint64) uint64 {
	words := (newSize + WordSize - 1) / WordSize
	oldWords := (oldSize + WordSize - 1) / WordSize
	if words <= oldWords {
		return 0
	}
	return (words - oldWords) * gm.Cost.Memory
}

// CalculateCopyGas рассчитывает газ за копирование size байт
func (gm *GasMeter) CalculateCopyGas(size uint64) uint64 {
	return (size + WordSize - 1) / WordSize * gm.Cost.Copy
}

// IsOutOfGas проверяет, является ли ошибка ошибкой нехватки газа
func IsOutOfGas(err error) bool {
	return errors.Is(err, ErrOutOfGas)
}
