package twap

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Tick bounds of the 1.0001^tick log-price grid. sqrt(1.0001^tick) stays
// representable as an unsigned Q64.96 value over this range.
const (
	MinTick int32 = -887272
	MaxTick int32 = 887272
)

// Sqrt ratio values at the tick bounds.
var (
	MinSqrtRatio = uint256.NewInt(4295128739)
	MaxSqrtRatio = mustU256("0xfffd8963efd1fc6a506488495d951d5263988d26")
)

// sqrtRatioMultipliers[i] is sqrt(1.0001)^-(2^i) in Q128.128. Multiplying one
// in for each set bit of |tick| builds sqrt(1.0001)^-|tick|.
var sqrtRatioMultipliers = [20]*uint256.Int{
	mustU256("0xfffcb933bd6fad37aa2d162d1a594001"),
	mustU256("0xfff97272373d413259a46990580e213a"),
	mustU256("0xfff2e50f5f656932ef12357cf3c7fdcc"),
	mustU256("0xffe5caca7e10e4e61c3624eaa0941cd0"),
	mustU256("0xffcb9843d60f6159c9db58835c926644"),
	mustU256("0xff973b41fa98c081472e6896dfb254c0"),
	mustU256("0xff2ea16466c96a3843ec78b326b52861"),
	mustU256("0xfe5dee046a99a2a811c461f1969c3053"),
	mustU256("0xfcbe86c7900a88aedcffc83b479aa3a4"),
	mustU256("0xf987a7253ac413176f2b074cf7815e54"),
	mustU256("0xf3392b0822b70005940c7a398e4b70f3"),
	mustU256("0xe7159475a2c29b7443b29c7fa6e889d9"),
	mustU256("0xd097f3bdfd2022b8845ad8f792aa5825"),
	mustU256("0xa9f746462d870fdf8a65dc1f90e061e5"),
	mustU256("0x70d869a156d2a1b890bb3df62baf32f7"),
	mustU256("0x31be135f97d08fd981231505542fcfa6"),
	mustU256("0x9aa508b5b7a84e1c677de54f3e99bc9"),
	mustU256("0x5d6af8dedb81196699c329225ee604"),
	mustU256("0x2216e584f5fa1ea926041bedfe98"),
	mustU256("0x48a170391f7dc42444e8fa2"),
}

var (
	oneX128 = new(uint256.Int).Lsh(uint256.NewInt(1), 128)
	mask32  = uint256.NewInt(0xffffffff)
)

// SqrtRatioAtTick converts a log-price tick into the Q64.96 square root of
// the price 1.0001^tick. Ticks outside [MinTick, MaxTick] are rejected.
func SqrtRatioAtTick(tick int32) (*uint256.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, fmt.Errorf("tick %d out of range", tick)
	}

	absTick := uint32(tick)
	if tick < 0 {
		absTick = uint32(-int64(tick))
	}

	// ratio accumulates sqrt(1.0001)^-absTick in Q128.128. Each factor is
	// below 2^128, so the running 256-bit product never wraps.
	ratio := new(uint256.Int)
	if absTick&1 != 0 {
		ratio.Set(sqrtRatioMultipliers[0])
	} else {
		ratio.Set(oneX128)
	}
	for i := 1; i < len(sqrtRatioMultipliers); i++ {
		if absTick&(1<<uint(i)) != 0 {
			ratio.Mul(ratio, sqrtRatioMultipliers[i])
			ratio.Rsh(ratio, 128)
		}
	}

	if tick > 0 {
		ratio.Div(maxUint256, ratio)
	}

	// Q128.128 -> Q64.96, rounding up so the inverse tick lookup of the
	// resulting price lands back on the input tick.
	sqrtRatioX96 := new(uint256.Int).Rsh(ratio, 32)
	if !new(uint256.Int).And(ratio, mask32).IsZero() {
		sqrtRatioX96.AddUint64(sqrtRatioX96, 1)
	}
	return sqrtRatioX96, nil
}

func mustU256(hex string) *uint256.Int {
	v, err := uint256.FromHex(hex)
	if err != nil {
		panic(err)
	}
	return v
}
