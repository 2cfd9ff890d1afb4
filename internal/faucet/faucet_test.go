package faucet

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faucetsim/internal/faucetsim/bind"
	"github.com/faucetsim/internal/faucetsim/common"
	"github.com/faucetsim/internal/faucetsim/ledger"
	"github.com/faucetsim/internal/faucetsim/types"
	"github.com/faucetsim/internal/faucetsim/wallet"
)

type testEnv struct {
	ledger *ledger.Ledger
	owner  *wallet.Wallet
	user   *wallet.Wallet
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := ledger.DefaultConfig()
	cfg.Accounts = 2
	l, err := ledger.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	accounts := l.Accounts()
	return &testEnv{ledger: l, owner: accounts[0], user: accounts[1]}
}

func (e *testEnv) opts(w *wallet.Wallet) *bind.TransactOpts {
	chainID, _ := e.ledger.ChainID(context.Background())
	return bind.NewKeyedTransactor(w, chainID)
}

func (e *testEnv) mined(t *testing.T, tx *types.Transaction) *types.Receipt {
	t.Helper()
	receipt, err := bind.WaitMined(context.Background(), e.ledger, tx)
	require.NoError(t, err)
	return receipt
}

func (e *testEnv) balance(t *testing.T, addr common.Address) *big.Int {
	t.Helper()
	b, err := e.ledger.BalanceAt(context.Background(), addr)
	require.NoError(t, err)
	return b
}

func (e *testEnv) deploy(t *testing.T, funding *big.Int, max *big.Int) *Faucet {
	t.Helper()
	opts := e.opts(e.owner)
	opts.Value = funding
	addr, tx, f, err := Deploy(opts, e.ledger, max)
	require.NoError(t, err)
	receipt := e.mined(t, tx)
	require.True(t, receipt.Succeeded())
	require.Equal(t, addr, receipt.ContractAddress)
	return f
}

func TestFaucet_OwnerIsDeployer(t *testing.T) {
	e := newTestEnv(t)
	f := e.deploy(t, types.MustParseEther("10"), DefaultMaxWithdraw)

	owner, err := f.Owner(&bind.CallOpts{From: e.user.Address()})
	require.NoError(t, err)
	assert.Equal(t, e.owner.Address(), owner)
	assert.Equal(t, types.MustParseEther("10"), e.balance(t, f.Address()))

	max, err := f.MaxWithdrawAmount(nil)
	require.NoError(t, err)
	assert.Equal(t, types.MustParseEther("0.1"), max)

	code, err := e.ledger.CodeAt(context.Background(), f.Address())
	require.NoError(t, err)
	runtime, err := RuntimeBytecode(DefaultMaxWithdraw)
	require.NoError(t, err)
	assert.Equal(t, runtime, code)
}

func TestFaucet_WithdrawOverLimitReverts(t *testing.T) {
	e := newTestEnv(t)
	f := e.deploy(t, types.MustParseEther("10"), DefaultMaxWithdraw)
	before := e.balance(t, f.Address())

	_, err := f.Withdraw(e.opts(e.owner), types.MustParseEther("1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrExecutionReverted)

	typed := UnpackError(err)
	assert.ErrorIs(t, typed, ErrWithdrawalLimitExceeded)
	var limit *WithdrawalLimitExceededError
	require.True(t, errors.As(typed, &limit))
	assert.Equal(t, types.MustParseEther("1"), limit.Requested)
	assert.Equal(t, DefaultMaxWithdraw, limit.Max)

	assert.Equal(t, before, e.balance(t, f.Address()))
}

func TestFaucet_WithdrawOverLimitMinedAsFailed(t *testing.T) {
	e := newTestEnv(t)
	f := e.deploy(t, types.MustParseEther("10"), DefaultMaxWithdraw)
	before := e.balance(t, f.Address())
	userBefore := e.balance(t, e.user.Address())

	opts := e.opts(e.user)
	opts.GasLimit = 200_000
	tx, err := f.Withdraw(opts, types.MustParseEther("1"))
	require.NoError(t, err)
	receipt := e.mined(t, tx)

	assert.False(t, receipt.Succeeded())
	assert.Empty(t, receipt.Logs)
	assert.ErrorIs(t, ReceiptError(receipt), ErrWithdrawalLimitExceeded)
	assert.Equal(t, before, e.balance(t, f.Address()))

	// пользователь платит только за газ
	want := new(big.Int).Sub(userBefore, receipt.Fee())
	assert.Equal(t, want, e.balance(t, e.user.Address()))
}

func TestFaucet_RejectedWithdrawalsAreIdempotent(t *testing.T) {
	e := newTestEnv(t)
	f := e.deploy(t, types.MustParseEther("10"), DefaultMaxWithdraw)
	before := e.balance(t, f.Address())

	for i := 0; i < 5; i++ {
		_, err := f.Withdraw(e.opts(e.owner), types.MustParseEther("1"))
		assert.ErrorIs(t, UnpackError(err), ErrWithdrawalLimitExceeded)

		opts := e.opts(e.owner)
		opts.GasLimit = 100_000
		tx, err := f.Withdraw(opts, types.MustParseEther("1"))
		require.NoError(t, err)
		assert.False(t, e.mined(t, tx).Succeeded())

		assert.Equal(t, before, e.balance(t, f.Address()), "attempt %d", i)
	}
}

func TestFaucet_WithdrawWithinLimit(t *testing.T) {
	e := newTestEnv(t)
	f := e.deploy(t, types.MustParseEther("10"), DefaultMaxWithdraw)
	faucetBefore := e.balance(t, f.Address())
	userBefore := e.balance(t, e.user.Address())

	amount := types.MustParseEther("0.05")
	tx, err := f.Withdraw(e.opts(e.user), amount)
	require.NoError(t, err)
	receipt := e.mined(t, tx)
	require.True(t, receipt.Succeeded())
	require.NoError(t, ReceiptError(receipt))

	assert.Equal(t, new(big.Int).Sub(faucetBefore, amount), e.balance(t, f.Address()))
	want := new(big.Int).Add(userBefore, amount)
	want.Sub(want, receipt.Fee())
	assert.Equal(t, want, e.balance(t, e.user.Address()))

	require.Len(t, receipt.Logs, 1)
	ev, err := f.ParseWithdrawal(*receipt.Logs[0])
	require.NoError(t, err)
	assert.Equal(t, e.user.Address(), ev.To)
	assert.Equal(t, amount, ev.Amount)

	events, err := f.FilterWithdrawal(nil, []common.Address{e.user.Address()})
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestFaucet_WithdrawExactlyMax(t *testing.T) {
	e := newTestEnv(t)
	f := e.deploy(t, types.MustParseEther("1"), DefaultMaxWithdraw)

	tx, err := f.Withdraw(e.opts(e.user), DefaultMaxWithdraw)
	require.NoError(t, err)
	assert.True(t, e.mined(t, tx).Succeeded())
	assert.Equal(t, types.MustParseEther("0.9"), e.balance(t, f.Address()))

	_, err = f.Withdraw(e.opts(e.user), new(big.Int).Add(DefaultMaxWithdraw, big.NewInt(1)))
	assert.ErrorIs(t, UnpackError(err), ErrWithdrawalLimitExceeded)
}

func TestFaucet_WithdrawFromEmptyFaucet(t *testing.T) {
	e := newTestEnv(t)
	f := e.deploy(t, nil, DefaultMaxWithdraw)

	_, err := f.Withdraw(e.opts(e.user), big.NewInt(1))
	assert.ErrorIs(t, UnpackError(err), ErrTransferFailed)
}

func TestFaucet_ReceiveEmitsFallbackCalled(t *testing.T) {
	e := newTestEnv(t)
	f := e.deploy(t, types.MustParseEther("10"), DefaultMaxWithdraw)

	// новый кошелек получает 1 единицу от известного подписанта
	fresh, err := wallet.CreateRandom()
	require.NoError(t, err)
	fund := e.opts(e.owner)
	fund.Value = types.MustParseEther("1")
	tx, err := bind.Transfer(fund, e.ledger, fresh.Address())
	require.NoError(t, err)
	require.True(t, e.mined(t, tx).Succeeded())
	assert.Equal(t, types.MustParseEther("1"), e.balance(t, fresh.Address()))

	before := e.balance(t, f.Address())
	tx, err = f.Receive(e.opts(fresh))
	require.NoError(t, err)
	receipt := e.mined(t, tx)
	require.True(t, receipt.Succeeded())

	events, err := f.FallbackCalledLogs(receipt)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, fresh.Address(), events[0].Sender)
	assert.Zero(t, events[0].Value.Sign())
	assert.Equal(t, before, e.balance(t, f.Address()))
}

func TestFaucet_ReceiveKeepsValue(t *testing.T) {
	e := newTestEnv(t)
	f := e.deploy(t, types.MustParseEther("1"), DefaultMaxWithdraw)

	opts := e.opts(e.user)
	opts.Value = types.MustParseEther("2")
	tx, err := f.Receive(opts)
	require.NoError(t, err)
	receipt := e.mined(t, tx)
	require.True(t, receipt.Succeeded())

	assert.Equal(t, types.MustParseEther("3"), e.balance(t, f.Address()))
	events, err := f.FilterFallbackCalled(nil, []common.Address{e.user.Address()})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, types.MustParseEther("2"), events[0].Value)

	none, err := f.FilterFallbackCalled(nil, []common.Address{e.owner.Address()})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFaucet_RejectsValueAndUnknownCalls(t *testing.T) {
	e := newTestEnv(t)
	f := e.deploy(t, types.MustParseEther("1"), DefaultMaxWithdraw)

	opts := e.opts(e.user)
	opts.Value = big.NewInt(1)
	_, err := f.Withdraw(opts, big.NewInt(1))
	assert.ErrorIs(t, err, ledger.ErrExecutionReverted)

	c := bind.NewBoundContract(f.Address(), ABI, e.ledger, e.ledger, e.ledger)
	_, err = c.RawTransact(e.opts(e.user), []byte{0xde, 0xad, 0xbe, 0xef})
	assert.ErrorIs(t, err, ledger.ErrExecutionReverted)

	// withdraw без аргумента
	_, err = c.RawTransact(e.opts(e.user), ABI.Methods["withdraw"].ID)
	assert.ErrorIs(t, err, ledger.ErrExecutionReverted)
}

func TestFaucet_CustomLimit(t *testing.T) {
	e := newTestEnv(t)
	max := types.MustParseEther("2")
	f := e.deploy(t, types.MustParseEther("5"), max)

	got, err := f.MaxWithdrawAmount(nil)
	require.NoError(t, err)
	assert.Equal(t, max, got)

	tx, err := f.Withdraw(e.opts(e.user), types.MustParseEther("1"))
	require.NoError(t, err)
	assert.True(t, e.mined(t, tx).Succeeded())

	same := New(f.Address(), e.ledger)
	owner, err := same.Owner(nil)
	require.NoError(t, err)
	assert.Equal(t, e.owner.Address(), owner)
}

func TestBytecode_InvalidLimit(t *testing.T) {
	_, err := Bytecode(nil)
	assert.Error(t, err)
	_, err = Bytecode(big.NewInt(-1))
	assert.Error(t, err)
}

func TestUnpackError_PassesThroughOtherErrors(t *testing.T) {
	assert.NoError(t, UnpackError(nil))
	other := errors.New("boom")
	assert.Equal(t, other, UnpackError(other))
	empty := &ledger.RevertError{}
	assert.Equal(t, error(empty), UnpackError(empty))
}
