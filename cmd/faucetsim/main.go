package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	flags "github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/faucetsim/internal/faucetsim/config"
	"github.com/faucetsim/internal/faucetsim/harness"
	"github.com/faucetsim/internal/faucetsim/ledger"
	"github.com/faucetsim/internal/faucetsim/logger"
	"github.com/faucetsim/internal/faucetsim/store"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "faucetsim: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) (err error) {
	cfg, opts, err := loadConfig(args)
	if err != nil {
		return err
	}
	if _, err := logger.Init(cfg.Log); err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer logger.Sync()
	log := logger.Named("main")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	l, err := newLedger(cfg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, l.Close())
	}()

	if cfg.Metrics.Addr != "" {
		srv := serveMetrics(cfg.Metrics.Addr)
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			err = multierr.Append(err, srv.Shutdown(shutdownCtx))
		}()
	}

	suiteOpts, err := harness.OptionsFrom(cfg.Faucet)
	if err != nil {
		return err
	}
	suite, err := harness.NewSuite(l, l.Accounts(), suiteOpts)
	if err != nil {
		return err
	}

	results, suiteErr := suite.Run(ctx)
	printResults(os.Stdout, results)
	if !opts.Console {
		return suiteErr
	}
	if suiteErr != nil {
		log.Warnw("Suite failed, opening console anyway", "err", suiteErr)
	}
	return newConsole(l, suite, os.Stdout).loop(ctx)
}

func newLedger(cfg *config.Config) (*ledger.Ledger, error) {
	st, err := store.Open(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	lcfg, err := ledger.ConfigFrom(cfg, st)
	if err != nil {
		return nil, multierr.Append(err, st.Close())
	}
	l, err := ledger.New(lcfg)
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("failed to init ledger: %w", err), st.Close())
	}
	return l, nil
}

func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Named("main").Infow("Serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Named("main").Errorw("Metrics server failed", "err", err)
		}
	}()
	return srv
}
