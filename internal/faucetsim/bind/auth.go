package bind

import (
	"context"
	"math/big"

	"github.com/faucetsim/internal/faucetsim/common"
	"github.com/faucetsim/internal/faucetsim/types"
	"github.com/faucetsim/internal/faucetsim/wallet"
)

// SignerFn подписывает транзакцию от имени address
type SignerFn func(address common.Address, tx *types.Transaction) (*types.Transaction, error)

// CallOpts - параметры вызова только для чтения
type CallOpts struct {
	From    common.Address
	Context context.Context
}

// TransactOpts - параметры транзакции. Незаданные поля заполняются из цепи:
// nonce, цена газа и лимит газа (через EstimateGas).
type TransactOpts struct {
	From   common.Address
	Nonce  *big.Int
	Signer SignerFn

	Value    *big.Int
	GasPrice *big.Int
	GasLimit uint64

	Context context.Context
}

// NewKeyedTransactor создает TransactOpts, подписывающие ключом кошелька
func NewKeyedTransactor(w *wallet.Wallet, chainID *big.Int) *TransactOpts {
	signer := types.NewSigner(chainID)
	from := w.Address()
	return &TransactOpts{
		From: from,
		Signer: func(address common.Address, tx *types.Transaction) (*types.Transaction, error) {
			if address != from {
				return nil, ErrNoSigner
			}
			return w.SignTx(tx, signer)
		},
		Context: context.Background(),
	}
}

// Copy возвращает копию опций; удобно менять Value для одной транзакции
func (opts *TransactOpts) Copy() *TransactOpts {
	cpy := *opts
	if opts.Value != nil {
		cpy.Value = new(big.Int).Set(opts.Value)
	}
	return &cpy
}

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
