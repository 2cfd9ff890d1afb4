package ledger

import (
	"fmt"
	"math/big"

	"github.com/faucetsim/internal/faucetsim/common"
	"github.com/faucetsim/internal/faucetsim/types"
	"github.com/faucetsim/internal/pallada/pallada"
)

// message - транзакция с уже известным отправителем
type message struct {
	from     common.Address
	to       *common.Address
	nonce    uint64
	value    *big.Int
	gas      uint64
	gasPrice *big.Int
	data     []byte
	// skipFee - симуляция: плата за газ не списывается и не возвращается
	skipFee bool
}

// execResult - итог выполнения. err != nil означает revert или ошибку VM,
// транзакция при этом все равно включается в блок.
type execResult struct {
	usedGas         uint64
	returnData      []byte
	contractAddress common.Address
	err             error
}

// IntrinsicGas - газ, списываемый до выполнения кода
func IntrinsicGas(data []byte, create bool) uint64 {
	gas := TxGas + uint64(len(data))*TxDataGas
	if create {
		gas += TxCreateGas
	}
	return gas
}

// applyMessage списывает плату, увеличивает nonce и выполняет сообщение.
// При ошибке выполнения откатывается все, кроме nonce и платы.
// Возвращаемая ошибка означает, что сообщение невалидно и состояние не изменено.
func (l *Ledger) applyMessage(msg *message, block *pallada.BlockInfo) (*execResult, error) {
	intrinsic := IntrinsicGas(msg.data, msg.to == nil)
	if msg.gas < intrinsic {
		return nil, fmt.Errorf("%w: have %d, want %d", ErrIntrinsicGas, msg.gas, intrinsic)
	}

	fee := new(big.Int).Mul(new(big.Int).SetUint64(msg.gas), msg.gasPrice)
	need := new(big.Int).Set(msg.value)
	if !msg.skipFee {
		need.Add(need, fee)
	}
	if l.state.GetBalance(msg.from).Cmp(need) < 0 {
		return nil, fmt.Errorf("%w: address %s want %s", ErrInsufficientFunds, msg.from.Hex(), need)
	}

	if !msg.skipFee {
		l.state.SubBalance(msg.from, fee)
	}
	l.state.SetNonce(msg.from, msg.nonce+1)

	host := newStateHost(l.state, block, msg.gasPrice)
	vmGas := msg.gas - intrinsic
	res := &execResult{}
	var vmUsed uint64
	if msg.to == nil {
		res.contractAddress = types.CreateAddress(msg.from, msg.nonce)
		res.returnData, vmUsed, res.err = host.create(msg.from, res.contractAddress, msg.value, msg.data, vmGas)
	} else {
		res.returnData, vmUsed, res.err = host.run(msg.from, *msg.to, msg.value, msg.data, vmGas)
	}
	if vmUsed > vmGas {
		vmUsed = vmGas
	}
	res.usedGas = intrinsic + vmUsed

	if !msg.skipFee {
		remaining := new(big.Int).SetUint64(msg.gas - res.usedGas)
		l.state.AddBalance(msg.from, remaining.Mul(remaining, msg.gasPrice))
		spent := new(big.Int).SetUint64(res.usedGas)
		l.state.AddBalance(l.cfg.Coinbase, spent.Mul(spent, msg.gasPrice))
	}
	return res, nil
}
