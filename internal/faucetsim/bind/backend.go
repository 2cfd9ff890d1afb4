// Package bind связывает ABI контракта с цепью: вызовы только для чтения,
// подписанные транзакции, развертывание и ожидание квитанций.
package bind

import (
	"context"
	"errors"
	"math/big"

	"github.com/faucetsim/internal/faucetsim/common"
	"github.com/faucetsim/internal/faucetsim/types"
)

var (
	// ErrNoCode - по адресу нет кода контракта
	ErrNoCode = errors.New("no contract code at given address")
	// ErrNoSigner - в TransactOpts не задан подписант
	ErrNoSigner = errors.New("no signer to authorize the transaction with")
	// ErrNoTransaction - транзакция не найдена среди квитанций цепи
	ErrNoTransaction = errors.New("transaction not found")
)

// ContractCaller - доступ к цепи только для чтения
type ContractCaller interface {
	CodeAt(ctx context.Context, contract common.Address) ([]byte, error)
	CallContract(ctx context.Context, call types.CallMsg) ([]byte, error)
}

// ContractTransactor - все, что нужно для отправки транзакции
type ContractTransactor interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, call types.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// ContractFilterer - поиск логов
type ContractFilterer interface {
	FilterLogs(ctx context.Context, q types.FilterQuery) ([]types.Log, error)
}

// DeployBackend - ожидание квитанций
type DeployBackend interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	CodeAt(ctx context.Context, account common.Address) ([]byte, error)
}

// ContractBackend объединяет все интерфейсы; его реализует ledger.Ledger
type ContractBackend interface {
	ContractCaller
	ContractTransactor
	ContractFilterer
	DeployBackend
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
}
