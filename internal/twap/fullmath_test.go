package twap

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
)

func TestMulDiv(t *testing.T) {
	got, err := MulDiv(uint256.NewInt(6), uint256.NewInt(7), uint256.NewInt(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Uint64() != 21 {
		t.Fatalf("got %s, want 21", got)
	}
}

func TestMulDivFloors(t *testing.T) {
	got, err := MulDiv(uint256.NewInt(7), uint256.NewInt(3), uint256.NewInt(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Uint64() != 10 {
		t.Fatalf("got %s, want 10", got)
	}
}

func TestMulDivFullPrecision(t *testing.T) {
	// a*b overflows 256 bits, the quotient does not.
	a := new(uint256.Int).Lsh(uint256.NewInt(1), 200)
	b := new(uint256.Int).Lsh(uint256.NewInt(1), 100)
	d := new(uint256.Int).Lsh(uint256.NewInt(1), 50)

	got, err := MulDiv(a, b, d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := new(uint256.Int).Lsh(uint256.NewInt(1), 250)
	if !got.Eq(want) {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestMulDivZeroDenominator(t *testing.T) {
	_, err := MulDiv(uint256.NewInt(1), uint256.NewInt(1), uint256.NewInt(0))
	if !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("expected ErrArithmeticOverflow, got %v", err)
	}
}

func TestMulDivResultOverflow(t *testing.T) {
	_, err := MulDiv(maxUint256, uint256.NewInt(2), uint256.NewInt(1))
	if !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("expected ErrArithmeticOverflow, got %v", err)
	}
}
