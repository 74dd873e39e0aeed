package watch

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"twapScope/internal/model"
	"twapScope/internal/storage"
	"twapScope/internal/twap"
)

// ChainInfo is the slice of the chain client the watcher uses to stamp
// quote records.
type ChainInfo interface {
	GetChainID(ctx context.Context) (*big.Int, error)
	LatestBlockNumber(ctx context.Context) (uint64, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
}

// spotTicker is implemented by sources that can also report the pool's
// instantaneous tick.
type spotTicker interface {
	SpotTick(ctx context.Context) (int32, error)
}

// stateStore is implemented by sinks that track watcher progress across
// restarts.
type stateStore interface {
	LoadState(ctx context.Context, name string) (uint64, bool, error)
	SaveState(ctx context.Context, name string, block uint64) error
}

// Config holds runtime settings for the watch loop.
type Config struct {
	Pool         common.Address
	BaseToken    common.Address
	QuoteToken   common.Address
	Fee          uint32
	BaseAmount   *uint256.Int
	Window       uint32
	Interval     time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

// Watcher re-consults a pool's TWAP on an interval and writes quote records
// to storage.
type Watcher struct {
	cfg    Config
	chain  ChainInfo
	source twap.ObservationSource
	sink   storage.Storage
	logger *zap.Logger
}

// NewWatcher builds a Watcher with its dependencies.
func NewWatcher(cfg Config, chain ChainInfo, source twap.ObservationSource, sink storage.Storage, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{cfg: cfg, chain: chain, source: source, sink: sink, logger: logger}
}

// Run executes the watch loop until ctx is cancelled. Transient consult
// failures are logged and retried on the next interval; an invalid window is
// a configuration error and ends the loop.
func (w *Watcher) Run(ctx context.Context) error {
	if w.chain == nil {
		return fmt.Errorf("chain client is nil")
	}
	if w.source == nil {
		return fmt.Errorf("observation source is nil")
	}
	if w.sink == nil {
		return fmt.Errorf("storage is nil")
	}
	if w.cfg.Window == 0 {
		return twap.ErrInvalidWindow
	}
	if w.cfg.BaseAmount == nil {
		return fmt.Errorf("base amount is nil")
	}
	if w.cfg.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}

	chainID, err := w.chain.GetChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}
	if !chainID.IsUint64() {
		return fmt.Errorf("chain id does not fit in uint64: %s", chainID)
	}
	chainIDValue := chainID.Uint64()

	if ss, ok := w.sink.(stateStore); ok {
		block, found, err := ss.LoadState(ctx, w.stateName())
		if err != nil {
			return fmt.Errorf("load state: %w", err)
		}
		if found {
			w.logger.Info("resume watch", zap.Uint64("last_consulted_block", block))
		}
	}

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		if err := w.consultOnce(ctx, chainIDValue); err != nil {
			if errors.Is(err, twap.ErrInvalidWindow) || errors.Is(err, context.Canceled) {
				return err
			}
			w.logger.Warn("consult failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *Watcher) stateName() string {
	return fmt.Sprintf("watcher:%s:%d", w.cfg.Pool.Hex(), w.cfg.Window)
}

func (w *Watcher) consultOnce(ctx context.Context, chainID uint64) error {
	var meanTick int32
	err := withRetry(ctx, w.cfg.MaxRetries, w.cfg.RetryBackoff, func(ctx context.Context) error {
		tick, err := twap.Consult(ctx, w.source, w.cfg.Window)
		if err != nil {
			return err
		}
		meanTick = tick
		return nil
	})
	if err != nil {
		return fmt.Errorf("consult: %w", err)
	}

	quote, err := twap.QuoteAtTick(meanTick, w.cfg.BaseAmount, w.cfg.BaseToken, w.cfg.QuoteToken)
	if err != nil {
		return fmt.Errorf("quote at tick %d: %w", meanTick, err)
	}

	block, err := w.chain.LatestBlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("get latest block: %w", err)
	}
	ts, err := w.chain.BlockTimestamp(ctx, block)
	if err != nil {
		return fmt.Errorf("block timestamp %d: %w", block, err)
	}

	record := model.QuoteRecord{
		ChainID:     chainID,
		PoolAddress: w.cfg.Pool.Hex(),
		BaseToken:   w.cfg.BaseToken.Hex(),
		QuoteToken:  w.cfg.QuoteToken.Hex(),
		Fee:         w.cfg.Fee,
		WindowSecs:  w.cfg.Window,
		MeanTick:    meanTick,
		BaseAmount:  w.cfg.BaseAmount.Dec(),
		QuoteAmount: quote.Dec(),
		BlockNumber: block,
		Timestamp:   ts,
		IngestedAt:  time.Now().UTC().Format(time.RFC3339Nano),
	}

	if err := w.sink.PutQuoteBatch([]model.QuoteRecord{record}); err != nil {
		return fmt.Errorf("store quote: %w", err)
	}

	if ss, ok := w.sink.(stateStore); ok {
		if err := ss.SaveState(ctx, w.stateName(), block); err != nil {
			return fmt.Errorf("save state: %w", err)
		}
	}

	fields := []zap.Field{
		zap.Uint64("block", block),
		zap.Int32("mean_tick", meanTick),
		zap.String("base_amount", record.BaseAmount),
		zap.String("quote_amount", record.QuoteAmount),
	}
	if st, ok := w.source.(spotTicker); ok {
		if spot, err := st.SpotTick(ctx); err == nil {
			fields = append(fields, zap.Int32("spot_tick", spot))
		}
	}
	w.logger.Info("quote", fields...)
	return nil
}
