package types

import (
	"encoding/binary"
	"errors"
	"math/big"
	"sync/atomic"

	"github.com/faucetsim/internal/faucetsim/common"
)

var (
	ErrInvalidSig        = errors.New("invalid transaction signature")
	ErrInvalidChainID    = errors.New("invalid chain id for signer")
	ErrMalformedEncoding = errors.New("malformed transaction encoding")
)

// SignatureLength - компактная подпись secp256k1: код восстановления + R + S
const SignatureLength = 65

// TxData - поля транзакции, покрываемые подписью (кроме Sig)
type TxData struct {
	ChainID  *big.Int
	Nonce    uint64
	GasPrice *big.Int
	Gas      uint64
	To       *common.Address // nil - создание контракта
	Value    *big.Int
	Data     []byte
	Sig      []byte
}

// Transaction - неизменяемая транзакция. Хэш и отправитель кэшируются.
type Transaction struct {
	inner TxData

	hash atomic.Value
	from atomic.Value
}

type sigCache struct {
	signer Signer
	from   common.Address
}

// NewTx копирует данные и создает транзакцию
func NewTx(inner *TxData) *Transaction {
	return &Transaction{inner: copyTxData(inner)}
}

// NewTransaction создает вызов или перевод на адрес to
func NewTransaction(nonce uint64, to common.Address, value *big.Int, gas uint64, gasPrice *big.Int, data []byte) *Transaction {
	return NewTx(&TxData{Nonce: nonce, To: &to, Value: value, Gas: gas, GasPrice: gasPrice, Data: data})
}

// NewContractCreation создает транзакцию развертывания с init-кодом data
func NewContractCreation(nonce uint64, value *big.Int, gas uint64, gasPrice *big.Int, data []byte) *Transaction {
	return NewTx(&TxData{Nonce: nonce, Value: value, Gas: gas, GasPrice: gasPrice, Data: data})
}

func copyBig(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}

func copyTxData(in *TxData) TxData {
	out := TxData{
		ChainID:  copyBig(in.ChainID),
		Nonce:    in.Nonce,
		GasPrice: copyBig(in.GasPrice),
		Gas:      in.Gas,
		Value:    copyBig(in.Value),
		Data:     common.CopyBytes(in.Data),
		Sig:      common.CopyBytes(in.Sig),
	}
	if in.To != nil {
		to := *in.To
		out.To = &to
	}
	return out
}

func (tx *Transaction) ChainID() *big.Int  { return copyBig(tx.inner.ChainID) }
func (tx *Transaction) Nonce() uint64      { return tx.inner.Nonce }
func (tx *Transaction) GasPrice() *big.Int { return copyBig(tx.inner.GasPrice) }
func (tx *Transaction) Gas() uint64        { return tx.inner.Gas }
func (tx *Transaction) Value() *big.Int    { return copyBig(tx.inner.Value) }
func (tx *Transaction) Data() []byte       { return common.CopyBytes(tx.inner.Data) }
func (tx *Transaction) Signature() []byte  { return common.CopyBytes(tx.inner.Sig) }

// To возвращает получателя; nil для создания контракта
func (tx *Transaction) To() *common.Address {
	if tx.inner.To == nil {
		return nil
	}
	to := *tx.inner.To
	return &to
}

func (tx *Transaction) IsCreate() bool { return tx.inner.To == nil }

// Cost возвращает value + gas * gasPrice
func (tx *Transaction) Cost() *big.Int {
	total := new(big.Int).Mul(tx.inner.GasPrice, new(big.Int).SetUint64(tx.inner.Gas))
	return total.Add(total, tx.inner.Value)
}

// Hash - blake2b-256 от полной (подписанной) кодировки
func (tx *Transaction) Hash() common.Hash {
	if h := tx.hash.Load(); h != nil {
		return h.(common.Hash)
	}
	h := common.BlakeHash(tx.encode(true))
	tx.hash.Store(h)
	return h
}

// WithSignature возвращает копию транзакции с подписью sig
func (tx *Transaction) WithSignature(signer Signer, sig []byte) (*Transaction, error) {
	if len(sig) != SignatureLength {
		return nil, ErrInvalidSig
	}
	inner := copyTxData(&tx.inner)
	inner.ChainID = signer.ChainID()
	inner.Sig = common.CopyBytes(sig)
	return &Transaction{inner: inner}, nil
}

// MarshalBinary кодирует транзакцию вместе с подписью
func (tx *Transaction) MarshalBinary() ([]byte, error) {
	return tx.encode(true), nil
}

// UnmarshalBinary разбирает результат MarshalBinary
func (tx *Transaction) UnmarshalBinary(b []byte) error {
	r := &decoder{buf: b}
	var inner TxData
	inner.ChainID = r.big()
	inner.Nonce = r.uint64()
	inner.GasPrice = r.big()
	inner.Gas = r.uint64()
	if to := r.bytes(); len(to) > 0 {
		addr := common.BytesToAddress(to)
		inner.To = &addr
	}
	inner.Value = r.big()
	inner.Data = r.bytes()
	inner.Sig = r.bytes()
	if r.err != nil || len(r.buf) != 0 {
		return ErrMalformedEncoding
	}
	if len(inner.Data) == 0 {
		inner.Data = nil
	}
	if len(inner.Sig) == 0 {
		inner.Sig = nil
	}
	*tx = Transaction{inner: inner}
	return nil
}

// encode - детерминированная кодировка полей с префиксами длины
func (tx *Transaction) encode(withSig bool) []byte {
	var buf []byte
	buf = appendBytes(buf, tx.inner.ChainID.Bytes())
	buf = binary.BigEndian.AppendUint64(buf, tx.inner.Nonce)
	buf = appendBytes(buf, tx.inner.GasPrice.Bytes())
	buf = binary.BigEndian.AppendUint64(buf, tx.inner.Gas)
	if tx.inner.To != nil {
		buf = appendBytes(buf, tx.inner.To.Bytes())
	} else {
		buf = appendBytes(buf, nil)
	}
	buf = appendBytes(buf, tx.inner.Value.Bytes())
	buf = appendBytes(buf, tx.inner.Data)
	if withSig {
		buf = appendBytes(buf, tx.inner.Sig)
	}
	return buf
}

func appendBytes(buf, b []byte) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(b)))
	return append(buf, b...)
}

type decoder struct {
	buf []byte
	err error
}

func (d *decoder) bytes() []byte {
	if d.err != nil {
		return nil
	}
	n, k := binary.Uvarint(d.buf)
	if k <= 0 || uint64(len(d.buf)-k) < n {
		d.err = ErrMalformedEncoding
		return nil
	}
	out := common.CopyBytes(d.buf[k : k+int(n)])
	d.buf = d.buf[k+int(n):]
	return out
}

func (d *decoder) big() *big.Int {
	return new(big.Int).SetBytes(d.bytes())
}

func (d *decoder) uint64() uint64 {
	if d.err != nil {
		return 0
	}
	if len(d.buf) < 8 {
		d.err = ErrMalformedEncoding
		return 0
	}
	v := binary.BigEndian.Uint64(d.buf)
	d.buf = d.buf[8:]
	return v
}
