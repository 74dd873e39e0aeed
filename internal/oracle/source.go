package oracle

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"twapScope/internal/twap"
)

// ChainBackend is the slice of the chain client the oracle layer reads.
type ChainBackend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
}

// PoolObserver reads cumulative observations from a deployed V3 pool.
type PoolObserver struct {
	backend ChainBackend
	pool    common.Address
	logger  *zap.Logger
}

// NewPoolObserver binds an observer to a pool address.
func NewPoolObserver(backend ChainBackend, pool common.Address, logger *zap.Logger) *PoolObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PoolObserver{backend: backend, pool: pool, logger: logger}
}

// Address returns the pool address the observer is bound to.
func (o *PoolObserver) Address() common.Address {
	return o.pool
}

// Observe implements twap.ObservationSource via eth_call to the pool's
// observe method.
func (o *PoolObserver) Observe(ctx context.Context, secondsAgos []uint32) ([]int64, []*uint256.Int, error) {
	poolABI, err := V3PoolOracleABI()
	if err != nil {
		return nil, nil, fmt.Errorf("parse pool abi: %w", err)
	}

	data, err := poolABI.Pack("observe", secondsAgos)
	if err != nil {
		return nil, nil, fmt.Errorf("pack observe: %w", err)
	}

	msg := ethereum.CallMsg{To: &o.pool, Data: data}
	resp, err := o.backend.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("call observe: %w", err)
	}

	values, err := poolABI.Unpack("observe", resp)
	if err != nil {
		return nil, nil, fmt.Errorf("unpack observe: %w", err)
	}
	if len(values) != 2 {
		return nil, nil, fmt.Errorf("observe return size %d", len(values))
	}

	rawTicks, ok := values[0].([]*big.Int)
	if !ok {
		return nil, nil, fmt.Errorf("observe tick cumulatives unexpected type %T", values[0])
	}
	rawLiquidity, ok := values[1].([]*big.Int)
	if !ok {
		return nil, nil, fmt.Errorf("observe liquidity cumulatives unexpected type %T", values[1])
	}

	tickCumulatives := make([]int64, 0, len(rawTicks))
	for _, raw := range rawTicks {
		if !raw.IsInt64() {
			return nil, nil, fmt.Errorf("tick cumulative out of range: %s", raw)
		}
		tickCumulatives = append(tickCumulatives, raw.Int64())
	}

	liquidityCumulatives := make([]*uint256.Int, 0, len(rawLiquidity))
	for _, raw := range rawLiquidity {
		value, overflow := uint256.FromBig(raw)
		if overflow {
			return nil, nil, fmt.Errorf("liquidity cumulative out of range: %s", raw)
		}
		liquidityCumulatives = append(liquidityCumulatives, value)
	}

	o.logger.Debug("observed pool",
		zap.String("pool", o.pool.Hex()),
		zap.Uint32s("seconds_agos", secondsAgos),
		zap.Int64s("tick_cumulatives", tickCumulatives),
	)

	return tickCumulatives, liquidityCumulatives, nil
}

// SpotTick returns the pool's current tick from slot0.
func (o *PoolObserver) SpotTick(ctx context.Context) (int32, error) {
	poolABI, err := V3PoolOracleABI()
	if err != nil {
		return 0, fmt.Errorf("parse pool abi: %w", err)
	}

	data, err := poolABI.Pack("slot0")
	if err != nil {
		return 0, fmt.Errorf("pack slot0: %w", err)
	}

	msg := ethereum.CallMsg{To: &o.pool, Data: data}
	resp, err := o.backend.CallContract(ctx, msg, nil)
	if err != nil {
		return 0, fmt.Errorf("call slot0: %w", err)
	}

	values, err := poolABI.Unpack("slot0", resp)
	if err != nil {
		return 0, fmt.Errorf("unpack slot0: %w", err)
	}
	if len(values) != 7 {
		return 0, fmt.Errorf("slot0 return size %d", len(values))
	}

	rawTick, ok := values[1].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("slot0 tick unexpected type %T", values[1])
	}
	if !rawTick.IsInt64() || rawTick.Int64() < int64(twap.MinTick) || rawTick.Int64() > int64(twap.MaxTick) {
		return 0, fmt.Errorf("slot0 tick out of range: %s", rawTick)
	}
	return int32(rawTick.Int64()), nil
}

// Resolver derives pool addresses for token pairs and binds observers to the
// ones that are actually deployed.
type Resolver struct {
	backend      ChainBackend
	factory      common.Address
	initCodeHash common.Hash
	logger       *zap.Logger
}

// NewResolver builds a resolver for one factory deployment.
func NewResolver(backend ChainBackend, factory common.Address, initCodeHash common.Hash, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{backend: backend, factory: factory, initCodeHash: initCodeHash, logger: logger}
}

// Resolve implements twap.SourceResolver. A pair whose derived pool has no
// deployed code resolves to ErrSourceUnavailable.
func (r *Resolver) Resolve(ctx context.Context, tokenA, tokenB common.Address, fee uint32) (twap.ObservationSource, error) {
	if tokenA == tokenB {
		return nil, fmt.Errorf("%w: identical tokens %s", twap.ErrSourceUnavailable, tokenA.Hex())
	}

	pool := twap.PoolAddress(r.factory, tokenA, tokenB, fee, r.initCodeHash)
	code, err := r.backend.CodeAt(ctx, pool, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: code lookup for %s: %v", twap.ErrSourceUnavailable, pool.Hex(), err)
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("%w: no pool deployed at %s", twap.ErrSourceUnavailable, pool.Hex())
	}

	r.logger.Debug("resolved pool", zap.String("pool", pool.Hex()), zap.Uint32("fee", fee))
	return NewPoolObserver(r.backend, pool, r.logger), nil
}
