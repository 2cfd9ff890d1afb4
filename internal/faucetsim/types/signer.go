package types

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/faucetsim/internal/faucetsim/common"
)

// Signer вычисляет хэш для подписи и восстанавливает отправителя
type Signer interface {
	// Sender возвращает адрес отправителя подписанной транзакции
	Sender(tx *Transaction) (common.Address, error)
	// Hash - хэш, который подписывается (без подписи, с chain id)
	Hash(tx *Transaction) common.Hash
	ChainID() *big.Int
	Equal(Signer) bool
}

// ChainSigner привязывает подпись к chain id, повтор в другой сети невозможен
type ChainSigner struct {
	chainID *big.Int
}

func NewSigner(chainID *big.Int) ChainSigner {
	return ChainSigner{chainID: copyBig(chainID)}
}

func (s ChainSigner) ChainID() *big.Int { return copyBig(s.chainID) }

func (s ChainSigner) Equal(other Signer) bool {
	o, ok := other.(ChainSigner)
	return ok && o.chainID.Cmp(s.chainID) == 0
}

func (s ChainSigner) Hash(tx *Transaction) common.Hash {
	inner := copyTxData(&tx.inner)
	inner.ChainID = s.ChainID()
	unsigned := &Transaction{inner: inner}
	return common.BlakeHash(unsigned.encode(false))
}

func (s ChainSigner) Sender(tx *Transaction) (common.Address, error) {
	if sc := tx.from.Load(); sc != nil {
		cache := sc.(sigCache)
		if cache.signer.Equal(s) {
			return cache.from, nil
		}
	}
	if tx.inner.ChainID.Cmp(s.chainID) != 0 {
		return common.Address{}, fmt.Errorf("%w: have %s, want %s", ErrInvalidChainID, tx.inner.ChainID, s.chainID)
	}
	if len(tx.inner.Sig) != SignatureLength {
		return common.Address{}, ErrInvalidSig
	}
	h := s.Hash(tx)
	pub, _, err := ecdsa.RecoverCompact(tx.inner.Sig, h[:])
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSig, err)
	}
	addr := PubkeyToAddress(pub)
	tx.from.Store(sigCache{signer: s, from: addr})
	return addr, nil
}

// SignTx подписывает транзакцию ключом prv
func SignTx(tx *Transaction, s Signer, prv *secp256k1.PrivateKey) (*Transaction, error) {
	h := s.Hash(tx)
	sig := ecdsa.SignCompact(prv, h[:], false)
	signed, err := tx.WithSignature(s, sig)
	if err != nil {
		return nil, err
	}
	signed.from.Store(sigCache{signer: s, from: PubkeyToAddress(prv.PubKey())})
	return signed, nil
}

// Sender восстанавливает отправителя через signer
func Sender(s Signer, tx *Transaction) (common.Address, error) {
	return s.Sender(tx)
}

// PubkeyToAddress - последние 20 байт blake2b-256 от несжатого ключа без префикса
func PubkeyToAddress(pub *secp256k1.PublicKey) common.Address {
	raw := pub.SerializeUncompressed()[1:]
	h := common.BlakeHash(raw)
	return common.BytesToAddress(h[common.HashLength-common.AddressLength:])
}

// PrivKeyToAddress возвращает адрес владельца ключа
func PrivKeyToAddress(prv *secp256k1.PrivateKey) common.Address {
	return PubkeyToAddress(prv.PubKey())
}

// CreateAddress - адрес контракта: последние 20 байт blake2b(sender || nonce)
func CreateAddress(sender common.Address, nonce uint64) common.Address {
	h := common.BlakeHash(sender.Bytes(), binary.BigEndian.AppendUint64(nil, nonce))
	return common.BytesToAddress(h[common.HashLength-common.AddressLength:])
}
