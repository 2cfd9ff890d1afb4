package ledger

import (
	"errors"
	"fmt"

	"github.com/faucetsim/internal/faucetsim/common"
	"github.com/faucetsim/internal/pallada/pallada"
)

// Ошибки проверки транзакции: такая транзакция не попадает в блок
var (
	ErrNonceTooLow       = errors.New("nonce too low")
	ErrNonceTooHigh      = errors.New("nonce too high")
	ErrInsufficientFunds = errors.New("insufficient funds for gas * price + value")
	ErrIntrinsicGas      = errors.New("intrinsic gas too low")
	ErrGasLimit          = errors.New("exceeds block gas limit")
	ErrInvalidChainID    = errors.New("invalid chain id")
	ErrInvalidSig        = errors.New("invalid transaction signature")
	ErrTxNotFound        = errors.New("transaction not found")
	ErrClosed            = errors.New("ledger closed")
)

var (
	// ErrBlockNotFound - блока с таким номером нет в цепи
	ErrBlockNotFound = errors.New("block not found")
	// ErrStoreNotEmpty - хранилище содержит историю прошлого запуска,
	// а состояние аккаунтов живет только в памяти
	ErrStoreNotEmpty = errors.New("store already holds a chain")
)

// Ошибки выполнения: транзакция попадает в блок со статусом 0
var (
	ErrExecutionReverted   = pallada.ErrExecutionReverted
	ErrOutOfGas            = pallada.ErrOutOfGas
	ErrContractCollision   = errors.New("contract address collision")
	ErrCodeStoreOutOfGas   = errors.New("contract creation code storage out of gas")
	ErrDepth               = errors.New("max call depth exceeded")
	ErrInsufficientBalance = errors.New("insufficient balance for transfer")
	ErrEmptyCreationCode   = errors.New("contract creation requires non-empty data")
)

// RevertError - выполнение завершилось REVERT. Data - данные REVERT
// (например, закодированная пользовательская ошибка контракта).
type RevertError struct {
	Data []byte
}

func (e *RevertError) Error() string {
	if len(e.Data) == 0 {
		return ErrExecutionReverted.Error()
	}
	return fmt.Sprintf("%s: 0x%s", ErrExecutionReverted, common.Bytes2Hex(e.Data))
}

func (e *RevertError) Unwrap() error {
	return ErrExecutionReverted
}

// ErrorData возвращает данные REVERT
func (e *RevertError) ErrorData() []byte {
	return e.Data
}

// newExecError приводит ошибку VM к ошибке леджера
func newExecError(ret []byte, err error) error {
	if errors.Is(err, pallada.ErrExecutionReverted) {
		return &RevertError{Data: common.CopyBytes(ret)}
	}
	return err
}
