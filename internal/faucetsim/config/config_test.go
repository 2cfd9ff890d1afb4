package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "0.1", cfg.Faucet.MaxWithdraw)
	assert.Equal(t, "10", cfg.Faucet.Funding)
	assert.Equal(t, "memory", cfg.Store.Backend)
}

func TestLoadOrCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFile)

	cfg, err := LoadOrCreate(path)
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err, "defaults must be written")

	cfg.Faucet.Repeat = 5
	cfg.Store.Backend = "pebble"
	require.NoError(t, cfg.WriteConfigToFile(path))

	again, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestReadConfig_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"faucet":{"maxWithdraw":"0.5"}}`), 0o644))

	cfg, err := ReadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "0.5", cfg.Faucet.MaxWithdraw)
	assert.Equal(t, "10", cfg.Faucet.Funding)
	assert.Equal(t, DefaultChainID, cfg.Chain.ChainID)
}

func TestReadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"syntax":  `{"chain":`,
		"chainId": `{"chain":{"chainId":0}}`,
		"amount":  `{"faucet":{"funding":"-1"}}`,
		"backend": `{"store":{"backend":"bolt"}}`,
		"repeat":  `{"faucet":{"repeat":0}}`,
	}
	for name, body := range cases {
		path := filepath.Join(dir, name+".json")
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		_, err := ReadConfig(path)
		assert.Error(t, err, name)
	}

	_, err := ReadConfig(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
