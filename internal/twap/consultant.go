package twap

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ObservationSource supplies cumulative tick observations for a single pool.
// Offsets are seconds before "now", largest first. The second return value
// mirrors the pool's seconds-per-liquidity accumulator; the consultant does
// not read it, but it stays in the contract so a liquidity-weighted consumer
// can share the same source.
type ObservationSource interface {
	Observe(ctx context.Context, secondsAgos []uint32) (tickCumulatives []int64, secondsPerLiquidityX128s []*uint256.Int, err error)
}

// SourceResolver locates the observation source for a token pair and fee tier.
type SourceResolver interface {
	Resolve(ctx context.Context, tokenA, tokenB common.Address, fee uint32) (ObservationSource, error)
}

// Consult returns the time-weighted arithmetic mean tick over the last
// secondsAgo seconds. The mean is floor-rounded: negative averages round
// toward negative infinity, not toward zero, so the result always indexes
// the true geometric mean price.
func Consult(ctx context.Context, source ObservationSource, secondsAgo uint32) (int32, error) {
	if secondsAgo == 0 {
		return 0, ErrInvalidWindow
	}

	tickCumulatives, _, err := source.Observe(ctx, []uint32{secondsAgo, 0})
	if err != nil {
		return 0, wrapSourceErr(err)
	}
	if len(tickCumulatives) != 2 {
		return 0, fmt.Errorf("%w: expected 2 cumulative ticks, got %d", ErrSourceUnavailable, len(tickCumulatives))
	}

	// int64 holds the difference of two int56 accumulators without overflow.
	delta := tickCumulatives[1] - tickCumulatives[0]
	meanTick := delta / int64(secondsAgo)
	if delta < 0 && delta%int64(secondsAgo) != 0 {
		meanTick--
	}
	return int32(meanTick), nil
}

// QuoteAtTick converts baseAmount of baseToken into the equivalent amount of
// quoteToken at the price implied by tick. Which side of the price ratio
// applies is decided purely by the address ordering of the two tokens.
func QuoteAtTick(tick int32, baseAmount *uint256.Int, baseToken, quoteToken common.Address) (*uint256.Int, error) {
	sqrtRatioX96, err := SqrtRatioAtTick(tick)
	if err != nil {
		return nil, err
	}

	// Squaring a full-range sqrt ratio needs up to 320 bits. When the ratio
	// fits a uint128 the square fits 256 bits and keeps every fractional
	// bit; otherwise trade 32 fractional bits for headroom before squaring.
	if sqrtRatioX96.Cmp(maxUint128) <= 0 {
		ratioX192 := new(uint256.Int).Mul(sqrtRatioX96, sqrtRatioX96)
		if baseToken.Cmp(quoteToken) < 0 {
			return MulDiv(ratioX192, baseAmount, q192)
		}
		return MulDiv(q192, baseAmount, ratioX192)
	}

	ratioX128 := new(uint256.Int).Rsh(sqrtRatioX96, 32)
	ratioX128.Mul(ratioX128, ratioX128)
	if baseToken.Cmp(quoteToken) < 0 {
		return MulDiv(ratioX128, baseAmount, q128)
	}
	return MulDiv(q128, baseAmount, ratioX128)
}

// ConsultQuote resolves the pool for (baseToken, quoteToken, fee), consults
// the mean tick over secondsAgo, and quotes baseAmount at that tick.
func ConsultQuote(ctx context.Context, resolver SourceResolver, baseToken, quoteToken common.Address, fee uint32, baseAmount *uint256.Int, secondsAgo uint32) (*uint256.Int, error) {
	if secondsAgo == 0 {
		return nil, ErrInvalidWindow
	}

	source, err := resolver.Resolve(ctx, baseToken, quoteToken, fee)
	if err != nil {
		return nil, wrapSourceErr(err)
	}

	meanTick, err := Consult(ctx, source, secondsAgo)
	if err != nil {
		return nil, err
	}
	return QuoteAtTick(meanTick, baseAmount, baseToken, quoteToken)
}

func wrapSourceErr(err error) error {
	if errors.Is(err, ErrSourceUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
}
