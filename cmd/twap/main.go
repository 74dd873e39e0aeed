package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"twapScope/internal/chain"
	"twapScope/internal/config"
	"twapScope/internal/oracle"
	"twapScope/internal/twap"
)

func main() {
	root := &cobra.Command{
		Use:          "twap",
		Short:        "Uniswap V3 TWAP consultant",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Consult a time-weighted quote once",
		RunE:  runQuote,
	}

	quoteCmd.Flags().String("rpc", "", "Ethereum RPC URL")
	quoteCmd.Flags().String("base-token", "", "base token address")
	quoteCmd.Flags().String("quote-token", "", "quote token address")
	quoteCmd.Flags().Uint32("fee", 3000, "pool fee tier in hundredths of a bip")
	quoteCmd.Flags().String("amount", "", "base amount to convert (decimal, token base units)")
	quoteCmd.Flags().String("window", "30m", "averaging window (e.g. 30s, 5m, 1h)")
	quoteCmd.Flags().String("factory", "", "factory address (default Uniswap V3 mainnet)")
	quoteCmd.Flags().String("init-code-hash", "", "pool init code hash (default Uniswap V3 mainnet)")
	quoteCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(quoteCmd)

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-consult a pair on an interval and persist quote history",
		RunE:  runWatch,
	}

	watchCmd.Flags().String("rpc", "", "Ethereum RPC URL")
	watchCmd.Flags().String("base-token", "", "base token address")
	watchCmd.Flags().String("quote-token", "", "quote token address")
	watchCmd.Flags().Uint32("fee", 3000, "pool fee tier in hundredths of a bip")
	watchCmd.Flags().String("amount", "", "base amount to convert (decimal, token base units)")
	watchCmd.Flags().String("window", "30m", "averaging window (e.g. 30s, 5m, 1h)")
	watchCmd.Flags().String("factory", "", "factory address (default Uniswap V3 mainnet)")
	watchCmd.Flags().String("init-code-hash", "", "pool init code hash (default Uniswap V3 mainnet)")
	watchCmd.Flags().String("interval", "1m", "consult interval")
	watchCmd.Flags().String("out", "./data/quotes.jsonl", "output JSONL path")
	watchCmd.Flags().String("pg-dsn", "", "Postgres DSN (overrides JSONL output)")
	watchCmd.Flags().Int("max-retries", 5, "maximum retry attempts per consult")
	watchCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	watchCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(watchCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// quoteParams are the validated, typed quote inputs shared by both commands.
type quoteParams struct {
	BaseToken    common.Address
	QuoteToken   common.Address
	Factory      common.Address
	InitCodeHash common.Hash
	Amount       *uint256.Int
	Window       uint32
}

func parseQuoteParams(cfg config.QuoteConfig) (quoteParams, error) {
	if !common.IsHexAddress(cfg.BaseToken) {
		return quoteParams{}, fmt.Errorf("invalid base token: %q", cfg.BaseToken)
	}
	if !common.IsHexAddress(cfg.QuoteToken) {
		return quoteParams{}, fmt.Errorf("invalid quote token: %q", cfg.QuoteToken)
	}

	amount, err := uint256.FromDecimal(cfg.Amount)
	if err != nil {
		return quoteParams{}, fmt.Errorf("invalid amount %q: %w", cfg.Amount, err)
	}

	window, err := config.ParseWindow(cfg.Window)
	if err != nil {
		return quoteParams{}, err
	}

	factory := twap.DefaultFactory
	if cfg.Factory != "" {
		if !common.IsHexAddress(cfg.Factory) {
			return quoteParams{}, fmt.Errorf("invalid factory: %q", cfg.Factory)
		}
		factory = common.HexToAddress(cfg.Factory)
	}

	initCodeHash := twap.DefaultInitCodeHash
	if cfg.InitCodeHash != "" {
		initCodeHash = common.HexToHash(cfg.InitCodeHash)
	}

	return quoteParams{
		BaseToken:    common.HexToAddress(cfg.BaseToken),
		QuoteToken:   common.HexToAddress(cfg.QuoteToken),
		Factory:      factory,
		InitCodeHash: initCodeHash,
		Amount:       amount,
		Window:       window,
	}, nil
}

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
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

	params, err := parseQuoteParams(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	resolver := oracle.NewResolver(chainClient, params.Factory, params.InitCodeHash, logger)
	source, err := resolver.Resolve(ctx, params.BaseToken, params.QuoteToken, cfg.Fee)
	if err != nil {
		return err
	}

	meanTick, err := twap.Consult(ctx, source, params.Window)
	if err != nil {
		return err
	}

	quote, err := twap.QuoteAtTick(meanTick, params.Amount, params.BaseToken, params.QuoteToken)
	if err != nil {
		return err
	}

	logger.Info("consulted quote",
		zap.String("base_token", params.BaseToken.Hex()),
		zap.String("quote_token", params.QuoteToken.Hex()),
		zap.Uint32("fee", cfg.Fee),
		zap.Uint32("window_seconds", params.Window),
		zap.Int32("mean_tick", meanTick),
		zap.String("base_amount", params.Amount.Dec()),
		zap.String("quote_amount", quote.Dec()),
	)

	fmt.Println(quote.Dec())
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
