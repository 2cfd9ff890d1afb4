package types

import (
	"encoding/binary"
	"math/big"

	"github.com/faucetsim/internal/faucetsim/common"
)

const (
	// ReceiptStatusFailed - транзакция откатилась (revert или ошибка VM)
	ReceiptStatusFailed = uint64(0)
	// ReceiptStatusSuccessful - транзакция выполнена
	ReceiptStatusSuccessful = uint64(1)
)

// Log - событие, выпущенное контрактом через LOGn
type Log struct {
	Address common.Address `json:"address"`
	Topics  []common.Hash  `json:"topics"`
	Data    []byte         `json:"data"`

	// заполняются леджером при включении в блок
	BlockNumber uint64      `json:"blockNumber"`
	TxHash      common.Hash `json:"transactionHash"`
	TxIndex     uint        `json:"transactionIndex"`
	BlockHash   common.Hash `json:"blockHash"`
	Index       uint        `json:"logIndex"`
}

// Receipt - результат выполнения транзакции
type Receipt struct {
	TxHash            common.Hash     `json:"transactionHash"`
	BlockNumber       uint64          `json:"blockNumber"`
	BlockHash         common.Hash     `json:"blockHash"`
	TransactionIndex  uint            `json:"transactionIndex"`
	From              common.Address  `json:"from"`
	To                *common.Address `json:"to,omitempty"`
	ContractAddress   common.Address  `json:"contractAddress"`
	Status            uint64          `json:"status"`
	GasUsed           uint64          `json:"gasUsed"`
	EffectiveGasPrice *big.Int        `json:"effectiveGasPrice"`
	Logs              []*Log          `json:"logs"`
	// RevertData - данные REVERT для неуспешной транзакции
	RevertData []byte `json:"revertData,omitempty"`
}

// Succeeded сообщает, выполнилась ли транзакция
func (r *Receipt) Succeeded() bool {
	return r.Status == ReceiptStatusSuccessful
}

// Fee возвращает списанную плату: gasUsed * effectiveGasPrice
func (r *Receipt) Fee() *big.Int {
	if r.EffectiveGasPrice == nil {
		return new(big.Int)
	}
	return new(big.Int).Mul(new(big.Int).SetUint64(r.GasUsed), r.EffectiveGasPrice)
}

// Header - заголовок блока симулированной цепи
type Header struct {
	Number     uint64         `json:"number"`
	ParentHash common.Hash    `json:"parentHash"`
	Time       uint64         `json:"timestamp"`
	GasLimit   uint64         `json:"gasLimit"`
	GasUsed    uint64         `json:"gasUsed"`
	Coinbase   common.Address `json:"miner"`
	TxHash     common.Hash    `json:"transactionHash"`
}

// Hash - blake2b от полей заголовка
func (h *Header) Hash() common.Hash {
	var buf []byte
	buf = binary.BigEndian.AppendUint64(buf, h.Number)
	buf = append(buf, h.ParentHash.Bytes()...)
	buf = binary.BigEndian.AppendUint64(buf, h.Time)
	buf = binary.BigEndian.AppendUint64(buf, h.GasLimit)
	buf = binary.BigEndian.AppendUint64(buf, h.GasUsed)
	buf = append(buf, h.Coinbase.Bytes()...)
	buf = append(buf, h.TxHash.Bytes()...)
	return common.BlakeHash(buf)
}
