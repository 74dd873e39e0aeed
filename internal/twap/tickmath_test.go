package twap

import (
	"math"
	"math/big"
	"testing"

	"github.com/holiman/uint256"
)

func TestSqrtRatioAtTickZero(t *testing.T) {
	got, err := SqrtRatioAtTick(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := new(uint256.Int).Lsh(uint256.NewInt(1), 96)
	if !got.Eq(want) {
		t.Fatalf("sqrt ratio at tick 0: got %s, want %s", got, want)
	}
}

func TestSqrtRatioAtTickBounds(t *testing.T) {
	minRatio, err := SqrtRatioAtTick(MinTick)
	if err != nil {
		t.Fatalf("min tick: %v", err)
	}
	if !minRatio.Eq(MinSqrtRatio) {
		t.Fatalf("min sqrt ratio: got %s, want %s", minRatio, MinSqrtRatio)
	}

	maxRatio, err := SqrtRatioAtTick(MaxTick)
	if err != nil {
		t.Fatalf("max tick: %v", err)
	}
	if !maxRatio.Eq(MaxSqrtRatio) {
		t.Fatalf("max sqrt ratio: got %s, want %s", maxRatio, MaxSqrtRatio)
	}
}

func TestSqrtRatioAtTickOutOfRange(t *testing.T) {
	if _, err := SqrtRatioAtTick(MinTick - 1); err == nil {
		t.Fatalf("expected error below MinTick")
	}
	if _, err := SqrtRatioAtTick(MaxTick + 1); err == nil {
		t.Fatalf("expected error above MaxTick")
	}
}

func TestSqrtRatioAtTickApproximatesPrice(t *testing.T) {
	q96 := new(big.Float).SetInt(new(big.Int).Lsh(big.NewInt(1), 96))

	for _, tick := range []int32{-100000, -5000, -100, -1, 1, 2, 100, 5000, 100000} {
		got, err := SqrtRatioAtTick(tick)
		if err != nil {
			t.Fatalf("tick %d: %v", tick, err)
		}

		ratio := new(big.Float).SetInt(got.ToBig())
		ratio.Quo(ratio, q96)
		value, _ := ratio.Float64()

		want := math.Pow(1.0001, float64(tick)/2)
		if relErr := math.Abs(value-want) / want; relErr > 1e-9 {
			t.Fatalf("tick %d: sqrt ratio off by %g (got %g, want %g)", tick, relErr, value, want)
		}
	}
}

func TestSqrtRatioAtTickMonotonic(t *testing.T) {
	ticks := []int32{MinTick, -400000, -1000, -1, 0, 1, 1000, 400000, MaxTick}

	prev, err := SqrtRatioAtTick(ticks[0])
	if err != nil {
		t.Fatalf("tick %d: %v", ticks[0], err)
	}
	for _, tick := range ticks[1:] {
		cur, err := SqrtRatioAtTick(tick)
		if err != nil {
			t.Fatalf("tick %d: %v", tick, err)
		}
		if cur.Cmp(prev) <= 0 {
			t.Fatalf("sqrt ratio not increasing at tick %d", tick)
		}
		prev = cur
	}
}
