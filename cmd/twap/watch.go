package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"twapScope/internal/chain"
	"twapScope/internal/config"
	"twapScope/internal/oracle"
	"twapScope/internal/storage"
	"twapScope/internal/storage/postgres"
	"twapScope/internal/twap"
	"twapScope/internal/watch"
)

func runWatch(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadWatch(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}

	params, err := parseQuoteParams(cfg.QuoteConfig)
	if err != nil {
		return err
	}

	interval, err := time.ParseDuration(cfg.Interval)
	if err != nil {
		return fmt.Errorf("invalid interval: %w", err)
	}
	if interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	var sink storage.Storage
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		sink = store
	} else {
		if cfg.Out == "" {
			return fmt.Errorf("output path is required")
		}
		sink = storage.NewJsonlStorage(cfg.Out)
	}

	resolver := oracle.NewResolver(chainClient, params.Factory, params.InitCodeHash, logger)
	source, err := resolver.Resolve(ctx, params.BaseToken, params.QuoteToken, cfg.Fee)
	if err != nil {
		return err
	}

	pool := twap.PoolAddress(params.Factory, params.BaseToken, params.QuoteToken, cfg.Fee, params.InitCodeHash)

	watcher := watch.NewWatcher(watch.Config{
		Pool:         pool,
		BaseToken:    params.BaseToken,
		QuoteToken:   params.QuoteToken,
		Fee:          cfg.Fee,
		BaseAmount:   params.Amount,
		Window:       params.Window,
		Interval:     interval,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, chainClient, source, sink, logger)

	logger.Info("watch start",
		zap.String("pool", pool.Hex()),
		zap.String("base_token", params.BaseToken.Hex()),
		zap.String("quote_token", params.QuoteToken.Hex()),
		zap.Uint32("fee", cfg.Fee),
		zap.Uint32("window_seconds", params.Window),
		zap.Duration("interval", interval),
		zap.String("out", cfg.Out),
		zap.Bool("postgres", cfg.PGDSN != ""),
	)

	return watcher.Run(ctx)
}
