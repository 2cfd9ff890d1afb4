package bind

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/faucetsim/internal/faucetsim/abi"
	"github.com/faucetsim/internal/faucetsim/common"
	"github.com/faucetsim/internal/faucetsim/logger"
	"github.com/faucetsim/internal/faucetsim/types"
)

// BoundContract - контракт по адресу с известным ABI
type BoundContract struct {
	address  common.Address
	abi      *abi.ABI
	caller   ContractCaller
	transact ContractTransactor
	filterer ContractFilterer
}

func NewBoundContract(address common.Address, contractABI *abi.ABI, caller ContractCaller, transactor ContractTransactor, filterer ContractFilterer) *BoundContract {
	return &BoundContract{
		address:  address,
		abi:      contractABI,
		caller:   caller,
		transact: transactor,
		filterer: filterer,
	}
}

// DeployContract отправляет транзакцию создания: bytecode и упакованные
// аргументы конструктора. Адрес известен сразу, квитанцию ждет WaitDeployed.
func DeployContract(opts *TransactOpts, contractABI *abi.ABI, bytecode []byte, backend ContractBackend, params ...interface{}) (common.Address, *types.Transaction, *BoundContract, error) {
	c := NewBoundContract(common.Address{}, contractABI, backend, backend, backend)

	input, err := contractABI.Pack("", params...)
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	tx, err := c.transactData(opts, nil, append(common.CopyBytes(bytecode), input...))
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	c.address = types.CreateAddress(opts.From, tx.Nonce())
	return c.address, tx, c, nil
}

func (c *BoundContract) Address() common.Address {
	return c.address
}

func (c *BoundContract) ABI() *abi.ABI {
	return c.abi
}

// Call выполняет метод только для чтения и декодирует результат.
// Revert возвращается как *ledger.RevertError (проверяется через errors.As).
func (c *BoundContract) Call(opts *CallOpts, method string, params ...interface{}) ([]interface{}, error) {
	if opts == nil {
		opts = new(CallOpts)
	}
	ctx := ensureContext(opts.Context)

	input, err := c.abi.Pack(method, params...)
	if err != nil {
		return nil, err
	}
	msg := types.CallMsg{From: opts.From, To: &c.address, Data: input}
	output, err := c.caller.CallContract(ctx, msg)
	if err != nil {
		return nil, err
	}
	if len(output) == 0 {
		code, err := c.caller.CodeAt(ctx, c.address)
		if err != nil {
			return nil, err
		}
		if len(code) == 0 {
			return nil, ErrNoCode
		}
	}
	return c.abi.Unpack(method, output)
}

// Transact подписывает и отправляет вызов метода
func (c *BoundContract) Transact(opts *TransactOpts, method string, params ...interface{}) (*types.Transaction, error) {
	input, err := c.abi.Pack(method, params...)
	if err != nil {
		return nil, err
	}
	return c.transactData(opts, &c.address, input)
}

// RawTransact отправляет произвольные calldata
func (c *BoundContract) RawTransact(opts *TransactOpts, calldata []byte) (*types.Transaction, error) {
	return c.transactData(opts, &c.address, calldata)
}

// Transfer отправляет value без данных (receive/fallback контракта)
func (c *BoundContract) Transfer(opts *TransactOpts) (*types.Transaction, error) {
	return c.transactData(opts, &c.address, nil)
}

// Transfer отправляет value на адрес без данных
func Transfer(opts *TransactOpts, backend ContractTransactor, to common.Address) (*types.Transaction, error) {
	c := &BoundContract{address: to, transact: backend}
	return c.transactData(opts, &to, nil)
}

func (c *BoundContract) transactData(opts *TransactOpts, to *common.Address, input []byte) (*types.Transaction, error) {
	if opts.Signer == nil {
		return nil, ErrNoSigner
	}
	ctx := ensureContext(opts.Context)

	value := opts.Value
	if value == nil {
		value = new(big.Int)
	}
	nonce, err := c.nonce(opts)
	if err != nil {
		return nil, err
	}
	gasPrice := opts.GasPrice
	if gasPrice == nil {
		if gasPrice, err = c.transact.SuggestGasPrice(ctx); err != nil {
			return nil, fmt.Errorf("failed to suggest gas price: %w", err)
		}
	}
	gasLimit := opts.GasLimit
	if gasLimit == 0 {
		msg := types.CallMsg{From: opts.From, To: to, GasPrice: gasPrice, Value: value, Data: input}
		if gasLimit, err = c.transact.EstimateGas(ctx, msg); err != nil {
			return nil, fmt.Errorf("failed to estimate gas needed: %w", err)
		}
	}

	var rawTx *types.Transaction
	if to == nil {
		rawTx = types.NewContractCreation(nonce, value, gasLimit, gasPrice, input)
	} else {
		rawTx = types.NewTransaction(nonce, *to, value, gasLimit, gasPrice, input)
	}
	signedTx, err := opts.Signer(opts.From, rawTx)
	if err != nil {
		return nil, err
	}
	if err := c.transact.SendTransaction(ctx, signedTx); err != nil {
		return nil, err
	}
	logger.Named("bind").Debugw("Transaction sent",
		"hash", signedTx.Hash().Hex(),
		"from", opts.From.Hex(),
		"method", c.methodName(input),
		"gas", gasLimit,
	)
	return signedTx, nil
}

func (c *BoundContract) nonce(opts *TransactOpts) (uint64, error) {
	if opts.Nonce != nil {
		return opts.Nonce.Uint64(), nil
	}
	nonce, err := c.transact.PendingNonceAt(ensureContext(opts.Context), opts.From)
	if err != nil {
		return 0, fmt.Errorf("failed to retrieve account nonce: %w", err)
	}
	return nonce, nil
}

func (c *BoundContract) methodName(input []byte) string {
	if c.abi == nil {
		return ""
	}
	return c.abi.MethodName(input)
}

// FilterLogs возвращает логи события name этого контракта.
// topics - значения индексированных полей по порядку; nil - любое значение.
func (c *BoundContract) FilterLogs(opts *FilterOpts, name string, topics ...[]common.Hash) ([]types.Log, error) {
	if opts == nil {
		opts = new(FilterOpts)
	}
	id, err := c.abi.EventTopic(name)
	if err != nil {
		return nil, err
	}
	q := types.FilterQuery{
		Addresses: []common.Address{c.address},
		Topics:    append([][]common.Hash{{id}}, topics...),
	}
	if opts.Start > 0 {
		q.FromBlock = new(big.Int).SetUint64(opts.Start)
	}
	if opts.End != nil {
		q.ToBlock = new(big.Int).SetUint64(*opts.End)
	}
	return c.filterer.FilterLogs(ensureContext(opts.Context), q)
}

// UnpackLog декодирует лог события name
func (c *BoundContract) UnpackLog(name string, log *types.Log) (map[string]interface{}, error) {
	if log.Address != c.address {
		return nil, fmt.Errorf("%w: log from %s", abi.ErrEventMismatch, log.Address.Hex())
	}
	return c.abi.ParseLog(name, log)
}

// RevertData извлекает данные REVERT из ошибки вызова
func RevertData(err error) ([]byte, bool) {
	var de interface{ ErrorData() []byte }
	if errors.As(err, &de) {
		return de.ErrorData(), true
	}
	return nil, false
}
