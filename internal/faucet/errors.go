package faucet

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/faucetsim/internal/faucetsim/bind"
	"github.com/faucetsim/internal/faucetsim/ledger"
	"github.com/faucetsim/internal/faucetsim/types"
)

var (
	// ErrWithdrawalLimitExceeded - запрошено больше maxWithdrawAmount
	ErrWithdrawalLimitExceeded = errors.New("withdrawal limit exceeded")
	// ErrTransferFailed - у фаусета не хватило средств на перевод
	ErrTransferFailed = errors.New("transfer failed")
)

// WithdrawalLimitExceededError - декодированная ошибка WithdrawalLimitExceeded
type WithdrawalLimitExceededError struct {
	Requested *big.Int
	Max       *big.Int
}

func (e *WithdrawalLimitExceededError) Error() string {
	return fmt.Sprintf("%s: requested %s, max %s", ErrWithdrawalLimitExceeded,
		types.FormatEther(e.Requested), types.FormatEther(e.Max))
}

func (e *WithdrawalLimitExceededError) Is(target error) bool {
	return target == ErrWithdrawalLimitExceeded
}

// UnpackError переводит revert фаусета в типизированную ошибку.
// Ошибки без данных revert возвращаются как есть.
func UnpackError(err error) error {
	if err == nil {
		return nil
	}
	data, ok := bind.RevertData(err)
	if !ok || len(data) == 0 {
		return err
	}
	if decoded := decodeRevert(data); decoded != nil {
		return decoded
	}
	return err
}

// ReceiptError возвращает ошибку неуспешной квитанции; nil для успешной
func ReceiptError(receipt *types.Receipt) error {
	if receipt.Succeeded() {
		return nil
	}
	if decoded := decodeRevert(receipt.RevertData); decoded != nil {
		return decoded
	}
	if len(receipt.RevertData) == 0 {
		return fmt.Errorf("transaction %s failed", receipt.TxHash.Hex())
	}
	return &ledger.RevertError{Data: receipt.RevertData}
}

func decodeRevert(data []byte) error {
	decoded, err := ABI.DecodeError(data)
	if err != nil {
		return nil
	}
	switch decoded.Name {
	case "WithdrawalLimitExceeded":
		requested, _ := decoded.Args[0].(*big.Int)
		max, _ := decoded.Args[1].(*big.Int)
		return &WithdrawalLimitExceededError{Requested: requested, Max: max}
	case "TransferFailed":
		return ErrTransferFailed
	}
	return nil
}
