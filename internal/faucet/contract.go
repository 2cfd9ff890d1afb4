package faucet

import (
	"fmt"
	"math/big"

	"github.com/faucetsim/internal/faucetsim/abi"
	"github.com/faucetsim/internal/faucetsim/common"
	"github.com/faucetsim/internal/pallada/asm"
	"github.com/faucetsim/internal/pallada/pallada"
)

// DefaultMaxWithdraw - лимит одного вывода: 0.1 единицы (10^17 базовых единиц)
var DefaultMaxWithdraw = new(big.Int).Exp(big.NewInt(10), big.NewInt(17), nil)

// Сигнатуры функций, событий и ошибок контракта
const (
	sigOwner             = "owner()"
	sigMaxWithdrawAmount = "maxWithdrawAmount()"
	sigWithdraw          = "withdraw(uint256)"

	sigFallbackCalled = "FallbackCalled(address,uint256)"
	sigWithdrawal     = "Withdrawal(address,uint256)"

	sigWithdrawalLimitExceeded = "WithdrawalLimitExceeded(uint256,uint256)"
	sigTransferFailed          = "TransferFailed()"
)

// slotOwner - слот storage с адресом владельца
const slotOwner = 0

// Bytecode возвращает init-код фаусета с лимитом max. Конструктор payable:
// записывает CALLER в слот владельца и возвращает runtime-код.
func Bytecode(max *big.Int) ([]byte, error) {
	runtime, err := RuntimeBytecode(max)
	if err != nil {
		return nil, err
	}
	a := asm.New()
	a.Op(pallada.CALLER).PushUint(slotOwner).Op(pallada.SSTORE)
	a.PushUint(uint64(len(runtime))).PushLabel("runtime").PushUint(0).Op(pallada.CODECOPY)
	a.PushUint(uint64(len(runtime))).PushUint(0).Op(pallada.RETURN)
	a.Mark("runtime").Raw(runtime)
	return a.Bytes()
}

// RuntimeBytecode возвращает код, который остается по адресу контракта
func RuntimeBytecode(max *big.Int) ([]byte, error) {
	if max == nil || max.Sign() < 0 || max.BitLen() > 256 {
		return nil, fmt.Errorf("invalid withdraw limit %v", max)
	}
	a := asm.New()

	// пустые calldata - receive
	a.PushLabel("receive").Op(pallada.CALLDATASIZE, pallada.ISZERO, pallada.JUMPI)

	// селектор - старшие 4 байта первого слова calldata
	a.PushUint(0).Op(pallada.CALLDATALOAD).PushUint(224).Op(pallada.SHR)
	for _, m := range []struct{ sig, label string }{
		{sigOwner, "owner"},
		{sigMaxWithdrawAmount, "maxWithdrawAmount"},
		{sigWithdraw, "withdraw"},
	} {
		a.Op(pallada.DUP1).PushLabel(m.label).Op(pallada.SWAP1).PushBytes(abi.Selector(m.sig)).Op(pallada.EQ, pallada.JUMPI)
	}
	revertEmpty(a)

	// owner() view
	a.Label("owner").Op(pallada.POP)
	nonPayable(a, "owner.body", 4)
	a.Label("owner.body")
	a.PushUint(slotOwner).Op(pallada.SLOAD).PushUint(0).Op(pallada.MSTORE)
	a.PushUint(32).PushUint(0).Op(pallada.RETURN)

	// maxWithdrawAmount() view
	a.Label("maxWithdrawAmount").Op(pallada.POP)
	nonPayable(a, "maxWithdrawAmount.body", 4)
	a.Label("maxWithdrawAmount.body")
	a.Push(max).PushUint(0).Op(pallada.MSTORE)
	a.PushUint(32).PushUint(0).Op(pallada.RETURN)

	// withdraw(uint256 amount)
	a.Label("withdraw").Op(pallada.POP)
	nonPayable(a, "withdraw.body", 36)
	a.Label("withdraw.body")
	a.PushUint(4).Op(pallada.CALLDATALOAD)                     // [amount]
	a.PushLabel("withdraw.allowed").Op(pallada.DUP2).Push(max) // [amount, L, amount, max]
	a.Op(pallada.GT, pallada.ISZERO, pallada.JUMPI)            // amount <= max
	// WithdrawalLimitExceeded(amount, max)
	a.PushBytes(selectorWord(sigWithdrawalLimitExceeded)).PushUint(0).Op(pallada.MSTORE)
	a.PushUint(4).Op(pallada.MSTORE)
	a.Push(max).PushUint(36).Op(pallada.MSTORE)
	a.PushUint(68).PushUint(0).Op(pallada.REVERT)

	a.Label("withdraw.allowed")
	// CALL(gas 0 + stipend, CALLER, amount, 0, 0, 0, 0)
	a.PushUint(0).PushUint(0).PushUint(0).PushUint(0).Op(pallada.SWAP4)
	a.Op(pallada.CALLER).PushUint(0).Op(pallada.CALL)
	a.PushLabel("withdraw.sent").Op(pallada.SWAP1, pallada.JUMPI)
	// TransferFailed()
	a.PushBytes(selectorWord(sigTransferFailed)).PushUint(0).Op(pallada.MSTORE)
	a.PushUint(4).PushUint(0).Op(pallada.REVERT)

	a.Label("withdraw.sent")
	a.PushUint(4).Op(pallada.CALLDATALOAD).PushUint(0).Op(pallada.MSTORE)
	emit(a, sigWithdrawal)

	// receive() payable
	a.Label("receive")
	a.Op(pallada.CALLVALUE).PushUint(0).Op(pallada.MSTORE)
	emit(a, sigFallbackCalled)

	return a.Bytes()
}

// nonPayable переходит на body, если value нулевое и calldata не короче minSize.
// Иначе REVERT без данных.
func nonPayable(a *asm.Assembler, body string, minSize uint64) {
	a.PushLabel(body + ".args").Op(pallada.CALLVALUE, pallada.ISZERO, pallada.JUMPI)
	revertEmpty(a)
	a.Label(body + ".args")
	a.PushLabel(body).Op(pallada.CALLDATASIZE).PushUint(minSize).Op(pallada.LT, pallada.ISZERO, pallada.JUMPI)
	revertEmpty(a)
}

// emit выпускает событие с топиками (sig, CALLER) и словом данных из memory[0:32]
func emit(a *asm.Assembler, sig string) {
	a.Op(pallada.CALLER).PushBytes(abi.EventID(sig).Bytes())
	a.PushUint(32).PushUint(0).Op(pallada.LOG2, pallada.STOP)
}

func revertEmpty(a *asm.Assembler) {
	a.PushUint(0).PushUint(0).Op(pallada.REVERT)
}

// selectorWord - селектор в старших 4 байтах слова
func selectorWord(sig string) []byte {
	word := make([]byte, common.HashLength)
	copy(word, abi.Selector(sig))
	return word
}
