package bind

import (
	"context"
	"fmt"
	"time"

	"github.com/faucetsim/internal/faucetsim/common"
	"github.com/faucetsim/internal/faucetsim/logger"
	"github.com/faucetsim/internal/faucetsim/types"
)

// PollInterval - период опроса квитанции в WaitMined
var PollInterval = 100 * time.Millisecond

// FilterOpts - диапазон блоков для FilterLogs; End == nil - до последнего блока
type FilterOpts struct {
	Start   uint64
	End     *uint64
	Context context.Context
}

// WaitMined ждет, пока транзакция попадет в блок, и возвращает квитанцию
func WaitMined(ctx context.Context, b DeployBackend, tx *types.Transaction) (*types.Receipt, error) {
	queryTicker := time.NewTicker(PollInterval)
	defer queryTicker.Stop()

	log := logger.Named("bind")
	for {
		receipt, err := b.TransactionReceipt(ctx, tx.Hash())
		if err == nil {
			return receipt, nil
		}
		log.Debugw("Receipt retrieval failed", "hash", tx.Hash().Hex(), "err", err)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", ErrNoTransaction, tx.Hash().Hex(), ctx.Err())
		case <-queryTicker.C:
		}
	}
}

// WaitDeployed ждет развертывания и проверяет, что по адресу появился код
func WaitDeployed(ctx context.Context, b DeployBackend, tx *types.Transaction) (common.Address, error) {
	if !tx.IsCreate() {
		return common.Address{}, fmt.Errorf("tx %s is not contract creation", tx.Hash().Hex())
	}
	receipt, err := WaitMined(ctx, b, tx)
	if err != nil {
		return common.Address{}, err
	}
	if !receipt.Succeeded() {
		return receipt.ContractAddress, fmt.Errorf("deployment of %s failed: status %d", receipt.ContractAddress.Hex(), receipt.Status)
	}
	code, err := b.CodeAt(ctx, receipt.ContractAddress)
	if err == nil && len(code) == 0 {
		err = ErrNoCode
	}
	return receipt.ContractAddress, err
}
