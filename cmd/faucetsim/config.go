package main

import (
	"fmt"

	flags "github.com/jessevdk/go-flags"

	"github.com/faucetsim/internal/faucetsim/config"
)

// options - параметры командной строки; заданные флаги перекрывают файл конфигурации
type options struct {
	ConfigFile  string `short:"C" long:"config" description:"Path to configuration file" default:"faucetsim.json"`
	LogLevel    string `long:"loglevel" description:"Logging level {debug, info, warn, error}"`
	LogFile     string `long:"logfile" description:"Write logs to this file"`
	MetricsAddr string `long:"metrics" description:"Serve prometheus metrics on this address, e.g. :9100"`
	Console     bool   `long:"console" description:"Open the interactive console after the suite"`
	Repeat      int    `long:"repeat" description:"Repeat the withdrawal limit check N times"`
	MaxWithdraw string `long:"max-withdraw" description:"Withdrawal limit compiled into the faucet, in units"`
	Funding     string `long:"funding" description:"Faucet funding at deployment, in units"`
}

// loadConfig разбирает флаги, читает (или создает) файл и применяет флаги поверх него
func loadConfig(args []string) (*config.Config, *options, error) {
	opts := &options{}
	parser := flags.NewParser(opts, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, nil, err
	}

	cfg, err := config.LoadOrCreate(opts.ConfigFile)
	if err != nil {
		return nil, nil, err
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.LogFile != "" {
		cfg.Log.Path = opts.LogFile
	}
	if opts.MetricsAddr != "" {
		cfg.Metrics.Addr = opts.MetricsAddr
	}
	if opts.Repeat > 0 {
		cfg.Faucet.Repeat = opts.Repeat
	}
	if opts.MaxWithdraw != "" {
		cfg.Faucet.MaxWithdraw = opts.MaxWithdraw
	}
	if opts.Funding != "" {
		cfg.Faucet.Funding = opts.Funding
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", opts.ConfigFile, err)
	}
	return cfg, opts, nil
}
