package types

import (
	"math/big"

	"github.com/faucetsim/internal/faucetsim/common"
)

// CallMsg - параметры вызова без подписи (eth_call, eth_estimateGas)
type CallMsg struct {
	From     common.Address
	To       *common.Address // nil - создание контракта
	Gas      uint64          // 0 - лимит блока
	GasPrice *big.Int
	Value    *big.Int
	Data     []byte
}

// FilterQuery - условия выборки логов.
//
// Topics работает как в eth_getLogs: позиция i соответствует topic[i],
// пустой список на позиции означает "любой", несколько значений - "любой из".
type FilterQuery struct {
	FromBlock *big.Int // nil - генезис
	ToBlock   *big.Int // nil - последний блок
	Addresses []common.Address
	Topics    [][]common.Hash
}

// Matches проверяет адрес и топики лога (диапазон блоков проверяет вызывающий)
func (q *FilterQuery) Matches(log *Log) bool {
	if len(q.Addresses) > 0 {
		found := false
		for _, addr := range q.Addresses {
			if addr == log.Address {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(q.Topics) > len(log.Topics) {
		return false
	}
	for i, alternatives := range q.Topics {
		if len(alternatives) == 0 {
			continue
		}
		match := false
		for _, topic := range alternatives {
			if topic == log.Topics[i] {
				match = true
				break
			}
		}
		if !match {
			return false
		}
	}
	return true
}
