// Package wallet держит ключи тестовых аккаунтов: случайные и выведенные
// из мнемоники BIP-39 по пути m/44'/60'/0'/0/i.
package wallet

import (
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"

	"github.com/faucetsim/internal/faucetsim/common"
	"github.com/faucetsim/internal/faucetsim/types"
)

// DefaultMnemonic - общеизвестная тестовая мнемоника. Не использовать вне тестов.
const DefaultMnemonic = "test test test test test test test test test test test junk"

// DefaultPathPrefix - префикс пути вывода, к нему добавляется индекс аккаунта
const DefaultPathPrefix = "m/44'/60'/0'/0"

var (
	ErrInvalidMnemonic = errors.New("invalid mnemonic")
	ErrInvalidKey      = errors.New("invalid private key")
	ErrInvalidCount    = errors.New("invalid account count")
)

// Wallet - ключ и адрес аккаунта
type Wallet struct {
	key     *secp256k1.PrivateKey
	address common.Address

	// Mnemonic и Path заполнены для выведенных ключей
	Mnemonic string
	Path     string
}

func NewWallet(key *secp256k1.PrivateKey) *Wallet {
	return &Wallet{key: key, address: types.PrivKeyToAddress(key)}
}

// CreateRandom создает кошелек из новой мнемоники (256 бит энтропии)
func CreateRandom() (*Wallet, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return nil, err
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, err
	}
	return FromMnemonic(mnemonic, 0)
}

// FromMnemonic выводит ключ аккаунта index
func FromMnemonic(mnemonic string, index uint32) (*Wallet, error) {
	master, err := masterKey(mnemonic)
	if err != nil {
		return nil, err
	}
	return derive(master, mnemonic, index)
}

// DeriveAccounts выводит n аккаунтов с индексами 0..n-1
func DeriveAccounts(mnemonic string, n int) ([]*Wallet, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, n)
	}
	master, err := masterKey(mnemonic)
	if err != nil {
		return nil, err
	}
	wallets := make([]*Wallet, 0, n)
	for i := 0; i < n; i++ {
		w, err := derive(master, mnemonic, uint32(i))
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}
	return wallets, nil
}

func masterKey(mnemonic string) (*bip32.Key, error) {
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}
	return bip32.NewMasterKey(seed)
}

func derive(master *bip32.Key, mnemonic string, index uint32) (*Wallet, error) {
	path := []uint32{
		bip32.FirstHardenedChild + 44,
		bip32.FirstHardenedChild + 60,
		bip32.FirstHardenedChild,
		0,
		index,
	}
	key := master
	for _, child := range path {
		var err error
		key, err = key.NewChildKey(child)
		if err != nil {
			return nil, fmt.Errorf("derive %s/%d: %w", DefaultPathPrefix, index, err)
		}
	}
	w := NewWallet(secp256k1.PrivKeyFromBytes(key.Key))
	w.Mnemonic = mnemonic
	w.Path = fmt.Sprintf("%s/%d", DefaultPathPrefix, index)
	return w, nil
}

// HexToKey создает кошелек из 32-байтного ключа в hex
func HexToKey(s string) (*Wallet, error) {
	raw := common.FromHex(s)
	if len(raw) != 32 {
		return nil, fmt.Errorf("%w: want 32 bytes, have %d", ErrInvalidKey, len(raw))
	}
	key := secp256k1.PrivKeyFromBytes(raw)
	if key.Key.IsZero() {
		return nil, ErrInvalidKey
	}
	return NewWallet(key), nil
}

func (w *Wallet) Address() common.Address { return w.address }

func (w *Wallet) PrivateKey() *secp256k1.PrivateKey { return w.key }

// KeyHex возвращает приватный ключ в hex с префиксом 0x
func (w *Wallet) KeyHex() string {
	return "0x" + common.Bytes2Hex(w.key.Serialize())
}

// SignTx подписывает транзакцию ключом кошелька
func (w *Wallet) SignTx(tx *types.Transaction, signer types.Signer) (*types.Transaction, error) {
	return types.SignTx(tx, signer, w.key)
}

func (w *Wallet) String() string {
	return w.address.Hex()
}
