// Package ledger - симулированная цепь в памяти процесса: аккаунты,
// подписанные транзакции, автомайнинг (один блок на транзакцию),
// квитанции, логи и вызовы только для чтения. Контракты выполняет pallada.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/faucetsim/internal/faucetsim/common"
	"github.com/faucetsim/internal/faucetsim/config"
	"github.com/faucetsim/internal/faucetsim/logger"
	"github.com/faucetsim/internal/faucetsim/store"
	"github.com/faucetsim/internal/faucetsim/types"
	"github.com/faucetsim/internal/faucetsim/wallet"
	"github.com/faucetsim/internal/pallada/pallada"
)

const (
	TxGas                 = uint64(21000)
	TxDataGas             = uint64(16) // за байт данных
	TxCreateGas           = uint64(32000)
	CodeDepositGas        = uint64(200) // за байт сохраненного кода
	DefaultBlockGasLimit  = uint64(30_000_000)
	DefaultGenesisBalance = 10000 // единиц на аккаунт
)

// DefaultCoinbase получает плату за газ
var DefaultCoinbase = common.HexToAddress("0x000000000000000000000000000000000000c0de")

func ldglogger() *zap.SugaredLogger {
	return logger.Named("ledger")
}

// Config - параметры цепи и генезиса
type Config struct {
	ChainID       *big.Int
	Mnemonic      string
	Accounts      int
	Balance       *big.Int // начальный баланс каждого аккаунта
	GasPrice      *big.Int // рекомендуемая цена газа
	BlockGasLimit uint64
	BlockTime     uint64 // секунд между блоками
	GenesisTime   uint64 // 0 - текущее время
	Coinbase      common.Address
	// Alloc - дополнительные балансы генезиса
	Alloc map[common.Address]*big.Int
	// Store - хранилище истории; nil - в памяти. Ledger закрывает его в Close.
	Store store.Store
}

func DefaultConfig() Config {
	return Config{
		ChainID:       big.NewInt(config.DefaultChainID),
		Mnemonic:      wallet.DefaultMnemonic,
		Accounts:      config.DefaultAccounts,
		Balance:       new(big.Int).Mul(big.NewInt(DefaultGenesisBalance), types.Ether),
		GasPrice:      big.NewInt(config.DefaultGasPrice),
		BlockGasLimit: DefaultBlockGasLimit,
		BlockTime:     1,
		Coinbase:      DefaultCoinbase,
	}
}

// ConfigFrom переводит файловую конфигурацию в параметры леджера
func ConfigFrom(cfg *config.Config, st store.Store) (Config, error) {
	balance, err := types.ParseEther(cfg.Accounts.Balance)
	if err != nil {
		return Config{}, fmt.Errorf("accounts.balance: %w", err)
	}
	c := DefaultConfig()
	c.ChainID = big.NewInt(cfg.Chain.ChainID)
	c.Mnemonic = cfg.Accounts.Mnemonic
	c.Accounts = cfg.Accounts.Count
	c.Balance = balance
	c.GasPrice = big.NewInt(cfg.Chain.GasPrice)
	c.BlockGasLimit = cfg.Chain.BlockGasLimit
	c.BlockTime = cfg.Chain.BlockTime
	c.Store = st
	return c, nil
}

// Ledger - симулированная цепь. Все методы безопасны для конкурентного вызова:
// транзакции выполняются по одной под общим мьютексом.
type Ledger struct {
	mu       sync.Mutex
	cfg      Config
	signer   types.Signer
	state    *StateDB
	store    store.Store
	accounts []*wallet.Wallet
	head     *types.Header
	closed   bool
}

// New создает цепь с генезис-блоком и профинансированными аккаунтами.
// Хранилище должно быть пустым; при ошибке его закрывает вызывающий.
func New(cfg Config) (*Ledger, error) {
	if cfg.ChainID == nil || cfg.ChainID.Sign() <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidChainID, cfg.ChainID)
	}
	if cfg.BlockGasLimit == 0 {
		cfg.BlockGasLimit = DefaultBlockGasLimit
	}
	if cfg.GasPrice == nil {
		cfg.GasPrice = new(big.Int)
	}
	if cfg.Balance == nil {
		cfg.Balance = new(big.Int)
	}
	if cfg.GenesisTime == 0 {
		cfg.GenesisTime = uint64(time.Now().Unix())
	}
	if cfg.Store == nil {
		cfg.Store = store.NewMemory()
	}

	if _, err := cfg.Store.HeaderByNumber(0); err == nil {
		return nil, ErrStoreNotEmpty
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("inspect store: %w", err)
	}

	accounts, err := wallet.DeriveAccounts(cfg.Mnemonic, cfg.Accounts)
	if err != nil {
		return nil, fmt.Errorf("derive genesis accounts: %w", err)
	}

	l := &Ledger{
		cfg:      cfg,
		signer:   types.NewSigner(cfg.ChainID),
		state:    NewStateDB(),
		store:    cfg.Store,
		accounts: accounts,
	}
	for _, acc := range accounts {
		l.state.AddBalance(acc.Address(), cfg.Balance)
	}
	for addr, balance := range cfg.Alloc {
		l.state.AddBalance(addr, balance)
	}
	l.state.Commit()

	genesis := &types.Header{
		Number:   0,
		Time:     cfg.GenesisTime,
		GasLimit: cfg.BlockGasLimit,
		Coinbase: cfg.Coinbase,
	}
	if err := l.store.PutHeader(genesis); err != nil {
		return nil, fmt.Errorf("store genesis: %w", err)
	}
	l.head = genesis
	ledgerBlockHeight.Set(0)

	ldglogger().Infow("Ledger started",
		"chainId", cfg.ChainID,
		"accounts", len(accounts),
		"balance", types.FormatEther(cfg.Balance),
	)
	return l, nil
}

// Accounts возвращает известные подписанты генезиса
func (l *Ledger) Accounts() []*wallet.Wallet {
	out := make([]*wallet.Wallet, len(l.accounts))
	copy(out, l.accounts)
	return out
}

func (l *Ledger) Signer() types.Signer {
	return l.signer
}

// lock проверяет контекст и захватывает мьютекс
func (l *Ledger) lock(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	return nil
}

func (l *Ledger) ChainID(ctx context.Context) (*big.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return new(big.Int).Set(l.cfg.ChainID), nil
}

func (l *Ledger) BlockNumber(ctx context.Context) (uint64, error) {
	if err := l.lock(ctx); err != nil {
		return 0, err
	}
	defer l.mu.Unlock()
	return l.head.Number, nil
}

// HeaderByNumber возвращает заголовок; nil - последний блок
func (l *Ledger) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	if err := l.lock(ctx); err != nil {
		return nil, err
	}
	head := l.head
	l.mu.Unlock()

	if number == nil {
		h := *head
		return &h, nil
	}
	if !number.IsUint64() || number.Uint64() > head.Number {
		return nil, fmt.Errorf("%w: %s", ErrBlockNotFound, number)
	}
	header, err := l.store.HeaderByNumber(number.Uint64())
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrBlockNotFound, number)
	}
	return header, err
}

func (l *Ledger) BalanceAt(ctx context.Context, addr common.Address) (*big.Int, error) {
	if err := l.lock(ctx); err != nil {
		return nil, err
	}
	defer l.mu.Unlock()
	return l.state.GetBalance(addr), nil
}

func (l *Ledger) CodeAt(ctx context.Context, addr common.Address) ([]byte, error) {
	if err := l.lock(ctx); err != nil {
		return nil, err
	}
	defer l.mu.Unlock()
	return common.CopyBytes(l.state.GetCode(addr)), nil
}

func (l *Ledger) StorageAt(ctx context.Context, addr common.Address, key common.Hash) (common.Hash, error) {
	if err := l.lock(ctx); err != nil {
		return common.Hash{}, err
	}
	defer l.mu.Unlock()
	return common.BigToHash(l.state.GetState(addr, key)), nil
}

func (l *Ledger) NonceAt(ctx context.Context, addr common.Address) (uint64, error) {
	if err := l.lock(ctx); err != nil {
		return 0, err
	}
	defer l.mu.Unlock()
	return l.state.GetNonce(addr), nil
}

// PendingNonceAt совпадает с NonceAt: пула нет, транзакции майнятся сразу
func (l *Ledger) PendingNonceAt(ctx context.Context, addr common.Address) (uint64, error) {
	return l.NonceAt(ctx, addr)
}

func (l *Ledger) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return new(big.Int).Set(l.cfg.GasPrice), nil
}

// CallContract выполняет вызов на копии состояния; изменения всегда откатываются
func (l *Ledger) CallContract(ctx context.Context, call types.CallMsg) ([]byte, error) {
	if err := l.lock(ctx); err != nil {
		return nil, err
	}
	defer l.mu.Unlock()
	ledgerCallsTotal.WithLabelValues("call").Inc()

	res, err := l.simulate(call)
	if err != nil {
		return nil, err
	}
	if res.err != nil {
		return res.returnData, res.err
	}
	return res.returnData, nil
}

// EstimateGas возвращает газ, израсходованный вызовом. Revert возвращается как ошибка.
func (l *Ledger) EstimateGas(ctx context.Context, call types.CallMsg) (uint64, error) {
	if err := l.lock(ctx); err != nil {
		return 0, err
	}
	defer l.mu.Unlock()
	ledgerCallsTotal.WithLabelValues("estimate").Inc()

	res, err := l.simulate(call)
	if err != nil {
		return 0, err
	}
	if res.err != nil {
		return 0, res.err
	}
	return res.usedGas, nil
}

func (l *Ledger) simulate(call types.CallMsg) (*execResult, error) {
	gas := call.Gas
	if gas == 0 {
		gas = l.cfg.BlockGasLimit
	}
	msg := &message{
		from:     call.From,
		to:       call.To,
		nonce:    l.state.GetNonce(call.From),
		value:    orZero(call.Value),
		gas:      gas,
		gasPrice: orZero(call.GasPrice),
		data:     call.Data,
		skipFee:  true,
	}
	snap := l.state.Snapshot()
	defer l.state.RevertToSnapshot(snap)
	return l.applyMessage(msg, l.pendingBlock())
}

// SendTransaction проверяет, выполняет и сразу майнит транзакцию в новом блоке.
// Ошибка возвращается только если транзакция отклонена; revert отражается в квитанции.
func (l *Ledger) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if err := l.lock(ctx); err != nil {
		return err
	}
	defer l.mu.Unlock()

	receipt, err := l.mine(tx)
	if err != nil {
		ledgerTransactionsTotal.WithLabelValues(statusRejected).Inc()
		ldglogger().Warnw("Transaction rejected", "hash", tx.Hash().Hex(), "err", err)
		return err
	}

	status := statusSuccess
	if !receipt.Succeeded() {
		status = statusReverted
	}
	ledgerTransactionsTotal.WithLabelValues(status).Inc()
	ledgerGasUsedTotal.Add(float64(receipt.GasUsed))
	ledgerLogsTotal.Add(float64(len(receipt.Logs)))
	ledgerBlockHeight.Set(float64(receipt.BlockNumber))

	ldglogger().Infow("Transaction mined",
		"hash", receipt.TxHash.Hex(),
		"block", receipt.BlockNumber,
		"status", status,
		"gasUsed", receipt.GasUsed,
		"logs", len(receipt.Logs),
	)
	return nil
}

// validate выполняет проверки, после которых транзакцию можно включить в блок
func (l *Ledger) validate(tx *types.Transaction) (common.Address, error) {
	if tx.ChainID().Cmp(l.cfg.ChainID) != 0 {
		return common.Address{}, fmt.Errorf("%w: have %s, want %s", ErrInvalidChainID, tx.ChainID(), l.cfg.ChainID)
	}
	from, err := l.signer.Sender(tx)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSig, err)
	}
	nonce := l.state.GetNonce(from)
	switch {
	case tx.Nonce() < nonce:
		return from, fmt.Errorf("%w: address %s, tx %d, state %d", ErrNonceTooLow, from.Hex(), tx.Nonce(), nonce)
	case tx.Nonce() > nonce:
		return from, fmt.Errorf("%w: address %s, tx %d, state %d", ErrNonceTooHigh, from.Hex(), tx.Nonce(), nonce)
	}
	if tx.Gas() > l.cfg.BlockGasLimit {
		return from, fmt.Errorf("%w: %d > %d", ErrGasLimit, tx.Gas(), l.cfg.BlockGasLimit)
	}
	if intrinsic := IntrinsicGas(tx.Data(), tx.IsCreate()); tx.Gas() < intrinsic {
		return from, fmt.Errorf("%w: have %d, want %d", ErrIntrinsicGas, tx.Gas(), intrinsic)
	}
	if balance := l.state.GetBalance(from); balance.Cmp(tx.Cost()) < 0 {
		return from, fmt.Errorf("%w: address %s have %s want %s", ErrInsufficientFunds, from.Hex(), balance, tx.Cost())
	}
	return from, nil
}

func (l *Ledger) mine(tx *types.Transaction) (*types.Receipt, error) {
	from, err := l.validate(tx)
	if err != nil {
		return nil, err
	}

	block := l.pendingBlock()
	snap := l.state.Snapshot()
	msg := &message{
		from:     from,
		to:       tx.To(),
		nonce:    tx.Nonce(),
		value:    tx.Value(),
		gas:      tx.Gas(),
		gasPrice: tx.GasPrice(),
		data:     tx.Data(),
	}
	res, err := l.applyMessage(msg, block)
	if err != nil {
		// проверки validate совпадают с проверками applyMessage
		l.state.RevertToSnapshot(snap)
		return nil, err
	}
	logs := l.state.Logs()

	header := &types.Header{
		Number:     block.Number,
		ParentHash: l.head.Hash(),
		Time:       block.Timestamp,
		GasLimit:   l.cfg.BlockGasLimit,
		GasUsed:    res.usedGas,
		Coinbase:   l.cfg.Coinbase,
		TxHash:     tx.Hash(),
	}
	blockHash := header.Hash()

	receipt := &types.Receipt{
		TxHash:            tx.Hash(),
		BlockNumber:       header.Number,
		BlockHash:         blockHash,
		From:              from,
		To:                tx.To(),
		Status:            types.ReceiptStatusSuccessful,
		GasUsed:           res.usedGas,
		EffectiveGasPrice: tx.GasPrice(),
		Logs:              make([]*types.Log, 0, len(logs)),
	}
	if tx.IsCreate() {
		receipt.ContractAddress = res.contractAddress
	}
	if res.err != nil {
		receipt.Status = types.ReceiptStatusFailed
		receipt.RevertData = res.returnData
	}
	for i, log := range logs {
		log.BlockNumber = header.Number
		log.BlockHash = blockHash
		log.TxHash = tx.Hash()
		log.Index = uint(i)
		receipt.Logs = append(receipt.Logs, log)
	}

	// состояние и голова меняются только после записи блока
	if err := l.persist(tx, receipt, header); err != nil {
		l.state.RevertToSnapshot(snap)
		ldglogger().Errorw("Failed to persist block", "block", header.Number, "err", err)
		return nil, err
	}
	l.state.Commit()
	l.state.TakeLogs()
	l.head = header
	return receipt, nil
}

func (l *Ledger) persist(tx *types.Transaction, receipt *types.Receipt, header *types.Header) error {
	if err := l.store.PutTransaction(tx); err != nil {
		return fmt.Errorf("store transaction: %w", err)
	}
	if err := l.store.PutReceipt(receipt); err != nil {
		return fmt.Errorf("store receipt: %w", err)
	}
	if err := l.store.PutHeader(header); err != nil {
		return fmt.Errorf("store header: %w", err)
	}
	return nil
}

func (l *Ledger) pendingBlock() *pallada.BlockInfo {
	return &pallada.BlockInfo{
		Number:    l.head.Number + 1,
		Timestamp: l.head.Time + l.cfg.BlockTime,
		Hash:      l.head.Hash(),
		Coinbase:  l.cfg.Coinbase,
	}
}

// TransactionReceipt возвращает квитанцию; ErrTxNotFound если транзакции нет
func (l *Ledger) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	receipt, err := l.store.Receipt(hash)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrTxNotFound, hash.Hex())
	}
	return receipt, err
}

func (l *Ledger) TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tx, err := l.store.Transaction(hash)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrTxNotFound, hash.Hex())
	}
	return tx, err
}

// FilterLogs возвращает логи из диапазона блоков, подходящие под запрос
func (l *Ledger) FilterLogs(ctx context.Context, q types.FilterQuery) ([]types.Log, error) {
	if err := l.lock(ctx); err != nil {
		return nil, err
	}
	latest := l.head.Number
	l.mu.Unlock()

	from, to := uint64(0), latest
	if q.FromBlock != nil {
		from = q.FromBlock.Uint64()
	}
	if q.ToBlock != nil && q.ToBlock.Uint64() < to {
		to = q.ToBlock.Uint64()
	}

	var out []types.Log
	for n := from; n <= to; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		header, err := l.store.HeaderByNumber(n)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", n, err)
		}
		if header.TxHash.IsZero() {
			continue
		}
		receipt, err := l.store.Receipt(header.TxHash)
		if err != nil {
			return nil, fmt.Errorf("receipt for block %d: %w", n, err)
		}
		for _, log := range receipt.Logs {
			if q.Matches(log) {
				out = append(out, *log)
			}
		}
	}
	return out, nil
}

// Close закрывает хранилище; дальнейшие вызовы возвращают ErrClosed
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	l.closed = true
	return l.store.Close()
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
