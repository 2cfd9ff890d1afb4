// Package harness проверяет поведение контракта Faucet на симулированной цепи:
// владелец после развертывания, отказ при превышении лимита и событие
// FallbackCalled при переводе без данных.
package harness

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/faucetsim/internal/faucet"
	"github.com/faucetsim/internal/faucetsim/bind"
	"github.com/faucetsim/internal/faucetsim/config"
	"github.com/faucetsim/internal/faucetsim/logger"
	"github.com/faucetsim/internal/faucetsim/types"
	"github.com/faucetsim/internal/faucetsim/wallet"
)

var (
	ErrNotDeployed    = errors.New("faucet is not deployed")
	ErrNoSigners      = errors.New("need at least one signer")
	ErrOwnerMismatch  = errors.New("owner is not the deployer")
	ErrNotReverted    = errors.New("withdrawal over the limit did not revert")
	ErrBalanceChanged = errors.New("faucet balance changed after rejected withdrawal")
	ErrFallbackEvents = errors.New("unexpected FallbackCalled events")
)

func hlogger() *zap.SugaredLogger {
	return logger.Named("harness")
}

// Options - параметры сценариев
type Options struct {
	Funding     *big.Int // пополнение при развертывании
	MaxWithdraw *big.Int // лимит, компилируемый в контракт
	Repeat      int      // повторы проверки лимита
}

func DefaultOptions() Options {
	return Options{
		Funding:     types.MustParseEther("10"),
		MaxWithdraw: new(big.Int).Set(faucet.DefaultMaxWithdraw),
		Repeat:      1,
	}
}

// OptionsFrom переводит секцию faucet файла конфигурации
func OptionsFrom(cfg config.FaucetConfig) (Options, error) {
	funding, err := types.ParseEther(cfg.Funding)
	if err != nil {
		return Options{}, fmt.Errorf("faucet.funding: %w", err)
	}
	max, err := types.ParseEther(cfg.MaxWithdraw)
	if err != nil {
		return Options{}, fmt.Errorf("faucet.maxWithdraw: %w", err)
	}
	return Options{Funding: funding, MaxWithdraw: max, Repeat: cfg.Repeat}, nil
}

// Result - итог одного сценария
type Result struct {
	Name     string
	Err      error
	Duration time.Duration
}

func (r Result) Passed() bool { return r.Err == nil }

// Suite выполняет сценарии против backend. Первый подписант развертывает
// фаусет и финансирует новые кошельки.
type Suite struct {
	backend bind.ContractBackend
	signers []*wallet.Wallet
	opts    Options

	faucet *faucet.Faucet
}

func NewSuite(backend bind.ContractBackend, signers []*wallet.Wallet, opts Options) (*Suite, error) {
	if len(signers) == 0 {
		return nil, ErrNoSigners
	}
	defaults := DefaultOptions()
	if opts.Funding == nil {
		opts.Funding = defaults.Funding
	}
	if opts.MaxWithdraw == nil {
		opts.MaxWithdraw = defaults.MaxWithdraw
	}
	if opts.Repeat < 1 {
		opts.Repeat = 1
	}
	return &Suite{backend: backend, signers: signers, opts: opts}, nil
}

// Faucet возвращает развернутый контракт или nil
func (s *Suite) Faucet() *faucet.Faucet {
	return s.faucet
}

// Options возвращает копию параметров сценариев
func (s *Suite) Options() Options {
	return Options{
		Funding:     new(big.Int).Set(s.opts.Funding),
		MaxWithdraw: new(big.Int).Set(s.opts.MaxWithdraw),
		Repeat:      s.opts.Repeat,
	}
}

func (s *Suite) Deployer() *wallet.Wallet {
	return s.signers[0]
}

func (s *Suite) transactor(ctx context.Context, w *wallet.Wallet) (*bind.TransactOpts, error) {
	chainID, err := s.backend.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	opts := bind.NewKeyedTransactor(w, chainID)
	opts.Context = ctx
	return opts, nil
}

// DeployFaucet развертывает фаусет с Options.Funding и проверяет, что
// владелец - развернувший аккаунт
func (s *Suite) DeployFaucet(ctx context.Context) (*faucet.Faucet, error) {
	opts, err := s.transactor(ctx, s.Deployer())
	if err != nil {
		return nil, err
	}
	opts.Value = s.opts.Funding

	_, tx, f, err := faucet.Deploy(opts, s.backend, s.opts.MaxWithdraw)
	if err != nil {
		return nil, fmt.Errorf("deploy: %w", err)
	}
	if _, err := bind.WaitDeployed(ctx, s.backend, tx); err != nil {
		return nil, fmt.Errorf("deploy: %w", err)
	}

	owner, err := f.Owner(&bind.CallOpts{Context: ctx})
	if err != nil {
		return nil, fmt.Errorf("owner(): %w", err)
	}
	if owner != s.Deployer().Address() {
		return nil, fmt.Errorf("%w: owner %s, deployer %s", ErrOwnerMismatch, owner.Hex(), s.Deployer().Address().Hex())
	}
	s.faucet = f
	hlogger().Infow("Faucet deployed",
		"address", f.Address().Hex(),
		"owner", owner.Hex(),
		"funding", types.FormatEther(s.opts.Funding),
	)
	return f, nil
}

// CheckWithdrawLimit пытается вывести 1 единицу (или лимит + 1, если лимит не меньше
// единицы) Repeat раз. Каждая попытка должна откатиться с WithdrawalLimitExceeded,
// баланс фаусета не должен меняться.
func (s *Suite) CheckWithdrawLimit(ctx context.Context) error {
	if s.faucet == nil {
		return ErrNotDeployed
	}
	amount := types.MustParseEther("1")
	if amount.Cmp(s.opts.MaxWithdraw) <= 0 {
		amount = new(big.Int).Add(s.opts.MaxWithdraw, big.NewInt(1))
	}
	opts, err := s.transactor(ctx, s.Deployer())
	if err != nil {
		return err
	}
	before, err := s.backend.BalanceAt(ctx, s.faucet.Address())
	if err != nil {
		return err
	}

	for i := 0; i < s.opts.Repeat; i++ {
		_, err := s.faucet.Withdraw(opts, amount)
		if err == nil {
			return fmt.Errorf("%w: attempt %d, amount %s", ErrNotReverted, i+1, types.FormatEther(amount))
		}
		if err := faucet.UnpackError(err); !errors.Is(err, faucet.ErrWithdrawalLimitExceeded) {
			return fmt.Errorf("attempt %d: unexpected error: %w", i+1, err)
		}
		after, err := s.backend.BalanceAt(ctx, s.faucet.Address())
		if err != nil {
			return err
		}
		if after.Cmp(before) != 0 {
			return fmt.Errorf("%w: attempt %d, before %s, after %s", ErrBalanceChanged, i+1, before, after)
		}
	}
	hlogger().Infow("Withdrawal limit enforced",
		"amount", types.FormatEther(amount),
		"max", types.FormatEther(s.opts.MaxWithdraw),
		"attempts", s.opts.Repeat,
	)
	return nil
}

// CheckFallback финансирует новый кошелек 1 единицей, отправляет с него
// нулевой перевод без данных на фаусет и ищет в квитанции ровно одно FallbackCalled
func (s *Suite) CheckFallback(ctx context.Context) (*faucet.FaucetFallbackCalled, error) {
	if s.faucet == nil {
		return nil, ErrNotDeployed
	}
	fresh, err := wallet.CreateRandom()
	if err != nil {
		return nil, err
	}

	fund, err := s.transactor(ctx, s.Deployer())
	if err != nil {
		return nil, err
	}
	fund.Value = types.MustParseEther("1")
	tx, err := bind.Transfer(fund, s.backend, fresh.Address())
	if err != nil {
		return nil, fmt.Errorf("fund %s: %w", fresh.Address().Hex(), err)
	}
	if err := s.waitSuccess(ctx, tx); err != nil {
		return nil, fmt.Errorf("fund %s: %w", fresh.Address().Hex(), err)
	}

	opts, err := s.transactor(ctx, fresh)
	if err != nil {
		return nil, err
	}
	tx, err = s.faucet.Receive(opts)
	if err != nil {
		return nil, fmt.Errorf("plain transfer: %w", err)
	}
	receipt, err := bind.WaitMined(ctx, s.backend, tx)
	if err != nil {
		return nil, err
	}
	if err := faucet.ReceiptError(receipt); err != nil {
		return nil, fmt.Errorf("plain transfer: %w", err)
	}

	events, err := s.faucet.FallbackCalledLogs(receipt)
	if err != nil {
		return nil, err
	}
	if len(events) != 1 {
		return nil, fmt.Errorf("%w: have %d, want 1", ErrFallbackEvents, len(events))
	}
	if events[0].Sender != fresh.Address() {
		return nil, fmt.Errorf("%w: sender %s, want %s", ErrFallbackEvents, events[0].Sender.Hex(), fresh.Address().Hex())
	}
	hlogger().Infow("FallbackCalled emitted",
		"sender", events[0].Sender.Hex(),
		"tx", receipt.TxHash.Hex(),
		"block", receipt.BlockNumber,
	)
	return events[0], nil
}

func (s *Suite) waitSuccess(ctx context.Context, tx *types.Transaction) error {
	receipt, err := bind.WaitMined(ctx, s.backend, tx)
	if err != nil {
		return err
	}
	return faucet.ReceiptError(receipt)
}

// Run выполняет сценарии по порядку. Без развернутого фаусета остальные
// сценарии не запускаются. Ошибки всех сценариев объединяются.
func (s *Suite) Run(ctx context.Context) ([]Result, error) {
	var (
		results []Result
		errs    error
	)
	run := func(name string, fn func(context.Context) error) bool {
		start := time.Now()
		err := fn(ctx)
		res := Result{Name: name, Err: err, Duration: time.Since(start)}
		results = append(results, res)
		if err != nil {
			hlogger().Errorw("Scenario failed", "scenario", name, "err", err)
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
			return false
		}
		hlogger().Infow("Scenario passed", "scenario", name, "duration", res.Duration)
		return true
	}

	if !run("deploy", func(ctx context.Context) error {
		_, err := s.DeployFaucet(ctx)
		return err
	}) {
		return results, errs
	}
	run("withdraw-limit", s.CheckWithdrawLimit)
	run("fallback", func(ctx context.Context) error {
		_, err := s.CheckFallback(ctx)
		return err
	})
	return results, errs
}
