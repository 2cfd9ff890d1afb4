package ledger

import (
	"math/big"

	"github.com/faucetsim/internal/faucetsim/common"
	"github.com/faucetsim/internal/faucetsim/types"
	"github.com/faucetsim/internal/pallada/pallada"
)

// MaxCallDepth - предел вложенности CALL
const MaxCallDepth = 64

// stateHost адаптирует StateDB к окружению VM: storage, вложенные вызовы и логи
type stateHost struct {
	state    *StateDB
	block    *pallada.BlockInfo
	gasPrice *big.Int
	depth    int
}

func newStateHost(state *StateDB, block *pallada.BlockInfo, gasPrice *big.Int) *stateHost {
	return &stateHost{state: state, block: block, gasPrice: gasPrice}
}

func (h *stateHost) GetStorage(address common.Address, key *big.Int) (*big.Int, error) {
	return h.state.GetState(address, common.BigToHash(key)), nil
}

func (h *stateHost) SetStorage(address common.Address, key *big.Int, value *big.Int) error {
	h.state.SetState(address, common.BigToHash(key), value)
	return nil
}

func (h *stateHost) GetBalance(address common.Address) *big.Int {
	return h.state.GetBalance(address)
}

func (h *stateHost) AddLog(address common.Address, topics []common.Hash, data []byte) {
	h.state.AddLog(&types.Log{
		Address: address,
		Topics:  append([]common.Hash(nil), topics...),
		Data:    common.CopyBytes(data),
	})
}

// Call обслуживает опкод CALL: перевод value и выполнение кода получателя.
// При неудаче все изменения вызова откатываются.
func (h *stateHost) Call(caller common.Address, address common.Address, value *big.Int, input []byte, gasLimit uint64) ([]byte, bool, uint64) {
	var (
		ret  []byte
		used uint64
		err  = ErrDepth
	)
	if h.depth < MaxCallDepth {
		ret, used, err = h.run(caller, address, value, input, gasLimit)
	}
	if err != nil {
		ldglogger().Debugw("CALL failed", "from", caller.Hex(), "to", address.Hex(), "depth", h.depth, "err", err)
		return ret, false, used
	}
	return ret, true, used
}

// run переводит value и выполняет код address; откатывает состояние при ошибке
func (h *stateHost) run(caller, address common.Address, value *big.Int, input []byte, gasLimit uint64) ([]byte, uint64, error) {
	snap := h.state.Snapshot()
	if !h.state.Transfer(caller, address, value) {
		return nil, 0, ErrInsufficientBalance
	}
	code := h.state.GetCode(address)
	if len(code) == 0 {
		return nil, 0, nil
	}
	if gasLimit == 0 {
		h.state.RevertToSnapshot(snap)
		return nil, 0, ErrOutOfGas
	}

	child := &stateHost{state: h.state, block: h.block, gasPrice: h.gasPrice, depth: h.depth + 1}
	ctx := pallada.NewContextWithHost(caller, address, value, input, gasLimit, h.gasPrice, h.block, child)
	vm := pallada.NewVMWithContext(code, ctx)
	ret, err := vm.Run()
	if err != nil {
		h.state.RevertToSnapshot(snap)
		return ret, vm.GasUsed(), newExecError(ret, err)
	}
	return ret, vm.GasUsed(), nil
}

// create выполняет init-код и сохраняет возвращенный код по адресу address
func (h *stateHost) create(caller, address common.Address, value *big.Int, initCode []byte, gasLimit uint64) ([]byte, uint64, error) {
	if len(initCode) == 0 {
		return nil, 0, ErrEmptyCreationCode
	}
	if len(h.state.GetCode(address)) > 0 || h.state.GetNonce(address) > 0 {
		return nil, gasLimit, ErrContractCollision
	}
	snap := h.state.Snapshot()
	if !h.state.Transfer(caller, address, value) {
		return nil, 0, ErrInsufficientBalance
	}
	if gasLimit == 0 {
		h.state.RevertToSnapshot(snap)
		return nil, 0, ErrOutOfGas
	}

	ctx := pallada.NewContextWithHost(caller, address, value, nil, gasLimit, h.gasPrice, h.block, h)
	vm := pallada.NewVMWithContext(initCode, ctx)
	ret, err := vm.Run()
	used := vm.GasUsed()
	if err != nil {
		h.state.RevertToSnapshot(snap)
		return ret, used, newExecError(ret, err)
	}

	deposit := uint64(len(ret)) * CodeDepositGas
	if used+deposit > gasLimit {
		h.state.RevertToSnapshot(snap)
		return nil, gasLimit, ErrCodeStoreOutOfGas
	}
	h.state.SetCode(address, ret)
	ldglogger().Debugw("Contract created",
		"contract", address.Hex(),
		"initSize", len(initCode),
		"runtimeSize", len(ret),
	)
	return ret, used + deposit, nil
}
