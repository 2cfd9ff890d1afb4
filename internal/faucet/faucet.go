// Package faucet - контракт Faucet: байткод для pallada, ABI и Go-обертка.
//
// Владелец развертывает контракт с начальным балансом. Любой аккаунт может
// вывести не больше maxWithdrawAmount за вызов. Перевод без данных выпускает
// событие FallbackCalled.
package faucet

import (
	"fmt"
	"math/big"

	"github.com/faucetsim/internal/faucetsim/bind"
	"github.com/faucetsim/internal/faucetsim/common"
	"github.com/faucetsim/internal/faucetsim/types"
)

// Faucet - обертка над развернутым контрактом
type Faucet struct {
	contract *bind.BoundContract
}

// FaucetFallbackCalled - событие FallbackCalled(address indexed sender, uint256 value)
type FaucetFallbackCalled struct {
	Sender common.Address
	Value  *big.Int
	Raw    types.Log
}

// FaucetWithdrawal - событие Withdrawal(address indexed to, uint256 amount)
type FaucetWithdrawal struct {
	To     common.Address
	Amount *big.Int
	Raw    types.Log
}

// Deploy развертывает фаусет с лимитом max; opts.Value - начальное пополнение
func Deploy(opts *bind.TransactOpts, backend bind.ContractBackend, max *big.Int) (common.Address, *types.Transaction, *Faucet, error) {
	code, err := Bytecode(max)
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	address, tx, contract, err := bind.DeployContract(opts, ABI, code, backend)
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	return address, tx, &Faucet{contract: contract}, nil
}

// New привязывает обертку к уже развернутому контракту
func New(address common.Address, backend bind.ContractBackend) *Faucet {
	return &Faucet{contract: bind.NewBoundContract(address, ABI, backend, backend, backend)}
}

func (f *Faucet) Address() common.Address {
	return f.contract.Address()
}

func (f *Faucet) Owner(opts *bind.CallOpts) (common.Address, error) {
	out, err := f.contract.Call(opts, "owner")
	if err != nil {
		return common.Address{}, err
	}
	owner, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("owner: unexpected type %T", out[0])
	}
	return owner, nil
}

func (f *Faucet) MaxWithdrawAmount(opts *bind.CallOpts) (*big.Int, error) {
	out, err := f.contract.Call(opts, "maxWithdrawAmount")
	if err != nil {
		return nil, err
	}
	max, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("maxWithdrawAmount: unexpected type %T", out[0])
	}
	return max, nil
}

// Withdraw отправляет withdraw(amount). Если opts.GasLimit не задан, revert
// обнаруживается при оценке газа и возвращается ошибкой (см. UnpackError).
func (f *Faucet) Withdraw(opts *bind.TransactOpts, amount *big.Int) (*types.Transaction, error) {
	return f.contract.Transact(opts, "withdraw", amount)
}

// Receive отправляет opts.Value на контракт без данных
func (f *Faucet) Receive(opts *bind.TransactOpts) (*types.Transaction, error) {
	return f.contract.Transfer(opts)
}

func (f *Faucet) ParseFallbackCalled(log types.Log) (*FaucetFallbackCalled, error) {
	fields, err := f.contract.UnpackLog("FallbackCalled", &log)
	if err != nil {
		return nil, err
	}
	ev := &FaucetFallbackCalled{Raw: log}
	ev.Sender, _ = fields["sender"].(common.Address)
	ev.Value, _ = fields["value"].(*big.Int)
	return ev, nil
}

func (f *Faucet) ParseWithdrawal(log types.Log) (*FaucetWithdrawal, error) {
	fields, err := f.contract.UnpackLog("Withdrawal", &log)
	if err != nil {
		return nil, err
	}
	ev := &FaucetWithdrawal{Raw: log}
	ev.To, _ = fields["to"].(common.Address)
	ev.Amount, _ = fields["amount"].(*big.Int)
	return ev, nil
}

// FallbackCalledLogs выбирает из квитанции события FallbackCalled этого контракта
func (f *Faucet) FallbackCalledLogs(receipt *types.Receipt) ([]*FaucetFallbackCalled, error) {
	var out []*FaucetFallbackCalled
	for _, log := range receipt.Logs {
		if log.Address != f.Address() || !isEvent(log, "FallbackCalled") {
			continue
		}
		ev, err := f.ParseFallbackCalled(*log)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

// FilterFallbackCalled ищет события FallbackCalled; sender - фильтр по отправителю
func (f *Faucet) FilterFallbackCalled(opts *bind.FilterOpts, sender []common.Address) ([]*FaucetFallbackCalled, error) {
	logs, err := f.contract.FilterLogs(opts, "FallbackCalled", addressTopics(sender))
	if err != nil {
		return nil, err
	}
	out := make([]*FaucetFallbackCalled, 0, len(logs))
	for _, log := range logs {
		ev, err := f.ParseFallbackCalled(log)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

// FilterWithdrawal ищет события Withdrawal; to - фильтр по получателю
func (f *Faucet) FilterWithdrawal(opts *bind.FilterOpts, to []common.Address) ([]*FaucetWithdrawal, error) {
	logs, err := f.contract.FilterLogs(opts, "Withdrawal", addressTopics(to))
	if err != nil {
		return nil, err
	}
	out := make([]*FaucetWithdrawal, 0, len(logs))
	for _, log := range logs {
		ev, err := f.ParseWithdrawal(log)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

func addressTopics(addrs []common.Address) []common.Hash {
	topics := make([]common.Hash, 0, len(addrs))
	for _, addr := range addrs {
		topics = append(topics, addr.Hash())
	}
	return topics
}

func isEvent(log *types.Log, name string) bool {
	id, err := ABI.EventTopic(name)
	return err == nil && len(log.Topics) > 0 && log.Topics[0] == id
}
