package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faucetsim/internal/faucet"
	"github.com/faucetsim/internal/faucetsim/bind"
	"github.com/faucetsim/internal/faucetsim/config"
	"github.com/faucetsim/internal/faucetsim/harness"
	"github.com/faucetsim/internal/faucetsim/ledger"
	"github.com/faucetsim/internal/faucetsim/types"
)

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faucetsim.json")
	cfg, opts, err := loadConfig([]string{"--config", path, "--repeat", "4", "--max-withdraw", "0.5", "--loglevel", "debug"})
	require.NoError(t, err)
	assert.Equal(t, path, opts.ConfigFile)
	assert.Equal(t, 4, cfg.Faucet.Repeat)
	assert.Equal(t, "0.5", cfg.Faucet.MaxWithdraw)
	assert.Equal(t, "debug", cfg.Log.Level)

	// файл создан с умолчаниями, флаги в него не пишутся
	saved, err := config.ReadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 1, saved.Faucet.Repeat)
}

func TestLoadConfig_InvalidOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faucetsim.json")
	_, _, err := loadConfig([]string{"--config", path, "--funding", "ten"})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func newTestConsole(t *testing.T) (*console, *bytes.Buffer) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Accounts.Count = 2
	l, err := newLedger(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	suite, err := harness.NewSuite(l, l.Accounts(), harness.DefaultOptions())
	require.NoError(t, err)
	_, err = suite.Run(context.Background())
	require.NoError(t, err)

	out := new(bytes.Buffer)
	return newConsole(l, suite, out), out
}

func TestConsole_Commands(t *testing.T) {
	c, out := newTestConsole(t)
	ctx := context.Background()
	owner := c.ledger.Accounts()[0].Address()

	require.NoError(t, c.exec(ctx, "owner"))
	assert.Contains(t, out.String(), owner.Hex())

	out.Reset()
	require.NoError(t, c.exec(ctx, "balance faucet"))
	assert.Equal(t, "10\n", out.String())

	out.Reset()
	require.NoError(t, c.exec(ctx, "withdraw 0.05 1"))
	assert.Contains(t, out.String(), "success")

	out.Reset()
	err := c.exec(ctx, "withdraw 1")
	assert.ErrorIs(t, err, faucet.ErrWithdrawalLimitExceeded)

	out.Reset()
	require.NoError(t, c.exec(ctx, "send faucet 1"))
	require.NoError(t, c.exec(ctx, "logs"))
	assert.Contains(t, out.String(), "FallbackCalled")
	assert.Contains(t, out.String(), "Withdrawal")

	out.Reset()
	require.NoError(t, c.exec(ctx, "accounts"))
	assert.Contains(t, out.String(), owner.Hex())

	assert.ErrorIs(t, c.exec(ctx, "exit"), errQuit)
	assert.Error(t, c.exec(ctx, "balance nothex"))
	assert.ErrorIs(t, c.exec(ctx, "receipt 0x01"), ledger.ErrTxNotFound)
}

func TestConsole_Deploy(t *testing.T) {
	c, out := newTestConsole(t)
	first := c.faucet.Address()

	require.NoError(t, c.exec(context.Background(), "deploy 2"))
	assert.NotEqual(t, first, c.faucet.Address())
	assert.Contains(t, out.String(), c.faucet.Address().Hex())

	out.Reset()
	require.NoError(t, c.exec(context.Background(), "balance faucet"))
	assert.Equal(t, "2\n", out.String())
}

func TestConsole_DeployUsesSuiteOptions(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Accounts.Count = 2
	cfg.Faucet.MaxWithdraw = "0.5"
	cfg.Faucet.Funding = "3"
	l, err := newLedger(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	opts, err := harness.OptionsFrom(cfg.Faucet)
	require.NoError(t, err)
	suite, err := harness.NewSuite(l, l.Accounts(), opts)
	require.NoError(t, err)

	out := new(bytes.Buffer)
	c := newConsole(l, suite, out)
	ctx := context.Background()
	require.NoError(t, c.exec(ctx, "deploy"))

	max, err := c.faucet.MaxWithdrawAmount(&bind.CallOpts{Context: ctx})
	require.NoError(t, err)
	assert.Equal(t, types.MustParseEther("0.5"), max)

	out.Reset()
	require.NoError(t, c.exec(ctx, "balance faucet"))
	assert.Equal(t, "3\n", out.String())

	out.Reset()
	require.NoError(t, c.exec(ctx, "withdraw 0.3 1"))
	assert.Contains(t, out.String(), "success")
}

func TestUsage(t *testing.T) {
	u := Usage()
	for name := range descriptions {
		assert.Contains(t, u, name)
	}
}
