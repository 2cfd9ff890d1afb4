package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/faucetsim/internal/faucetsim/logger"
	"github.com/faucetsim/internal/faucetsim/types"
	"github.com/faucetsim/internal/faucetsim/wallet"
)

const (
	DefaultConfigFile = "faucetsim.json"
	DefaultChainID    = int64(31337)
	DefaultAccounts   = 10
	DefaultGasLimit   = uint64(30_000_000)
	DefaultGasPrice   = int64(1_000_000_000) // 1 gwei
)

type ChainConfig struct {
	ChainID       int64  `json:"chainId"`
	BlockGasLimit uint64 `json:"blockGasLimit"`
	GasPrice      int64  `json:"gasPrice"`
	// BlockTime - шаг времени между блоками в секундах
	BlockTime uint64 `json:"blockTime"`
}

type AccountsConfig struct {
	Mnemonic string `json:"mnemonic"`
	Count    int    `json:"count"`
	// Balance - начальный баланс каждого аккаунта в единицах ("10000")
	Balance string `json:"balance"`
}

type StoreConfig struct {
	// Backend: "memory" или "pebble"
	Backend string `json:"backend"`
	// Path - каталог pebble; пустой - база в памяти. Состояние аккаунтов
	// не сохраняется, поэтому каталог при запуске должен быть пустым.
	Path    string `json:"path"`
	CacheMB int    `json:"cacheMb"`
}

type FaucetConfig struct {
	// MaxWithdraw - лимит вывода в единицах ("0.1")
	MaxWithdraw string `json:"maxWithdraw"`
	// Funding - начальное пополнение при развертывании в единицах ("10")
	Funding string `json:"funding"`
	// Repeat - сколько раз повторять проверку лимита
	Repeat int `json:"repeat"`
}

type MetricsConfig struct {
	// Addr - адрес для /metrics; пусто - не поднимать
	Addr string `json:"addr"`
}

// Config - основная конфигурация
type Config struct {
	Chain    ChainConfig    `json:"chain"`
	Accounts AccountsConfig `json:"accounts"`
	Store    StoreConfig    `json:"store"`
	Faucet   FaucetConfig   `json:"faucet"`
	Log      logger.Config  `json:"log"`
	Metrics  MetricsConfig  `json:"metrics"`
}

var (
	ErrInvalidConfig = errors.New("invalid config")
)

func DefaultConfig() *Config {
	return &Config{
		Chain: ChainConfig{
			ChainID:       DefaultChainID,
			BlockGasLimit: DefaultGasLimit,
			GasPrice:      DefaultGasPrice,
			BlockTime:     1,
		},
		Accounts: AccountsConfig{
			Mnemonic: wallet.DefaultMnemonic,
			Count:    DefaultAccounts,
			Balance:  "10000",
		},
		Store: StoreConfig{
			Backend: "memory",
			CacheMB: 16,
		},
		Faucet: FaucetConfig{
			MaxWithdraw: "0.1",
			Funding:     "10",
			Repeat:      1,
		},
		Log: logger.Config{
			Level:   "info",
			Console: true,
		},
	}
}

// Validate проверяет значения, которые нельзя исправить умолчаниями
func (cfg *Config) Validate() error {
	if cfg.Chain.ChainID <= 0 {
		return fmt.Errorf("%w: chainId must be positive", ErrInvalidConfig)
	}
	if cfg.Accounts.Count < 2 {
		return fmt.Errorf("%w: need at least 2 accounts, have %d", ErrInvalidConfig, cfg.Accounts.Count)
	}
	if cfg.Faucet.Repeat < 1 {
		return fmt.Errorf("%w: repeat must be at least 1", ErrInvalidConfig)
	}
	for name, value := range map[string]string{
		"accounts.balance":   cfg.Accounts.Balance,
		"faucet.maxWithdraw": cfg.Faucet.MaxWithdraw,
		"faucet.funding":     cfg.Faucet.Funding,
	} {
		if _, err := types.ParseEther(value); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, name, err)
		}
	}
	switch cfg.Store.Backend {
	case "memory", "pebble":
	default:
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalidConfig, cfg.Store.Backend)
	}
	return nil
}

// WriteConfigToFile сохраняет конфигурацию в JSON
func (cfg *Config) WriteConfigToFile(path string) error {
	fileData, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, fileData, 0o644)
}

// ReadConfig читает конфигурацию; отсутствующие поля берутся из DefaultConfig
func ReadConfig(filePath string) (*Config, error) {
	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config from file: %w", err)
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(fileData, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrCreate читает файл, а если его нет - пишет умолчания и возвращает их
func LoadOrCreate(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cfg := DefaultConfig()
		if err := cfg.WriteConfigToFile(path); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return ReadConfig(path)
}
