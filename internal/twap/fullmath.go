package twap

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Named powers of two for the Q64.96 fixed-point family. Squaring a Q64.96
// sqrt ratio yields a Q128.192 price; squaring a 32-bit-right-shifted ratio
// yields a Q64.128 price.
var (
	q128 = new(uint256.Int).Lsh(uint256.NewInt(1), 128)
	q192 = new(uint256.Int).Lsh(uint256.NewInt(1), 192)

	maxUint128 = new(uint256.Int).SubUint64(new(uint256.Int).Lsh(uint256.NewInt(1), 128), 1)
	maxUint256 = new(uint256.Int).SetAllOne()
)

// MulDiv computes floor(a*b/denominator) over a full 512-bit intermediate
// product, so a*b may exceed 256 bits as long as the quotient fits.
func MulDiv(a, b, denominator *uint256.Int) (*uint256.Int, error) {
	if denominator.IsZero() {
		return nil, fmt.Errorf("%w: division by zero", ErrArithmeticOverflow)
	}
	result, overflow := new(uint256.Int).MulDivOverflow(a, b, denominator)
	if overflow {
		return nil, fmt.Errorf("%w: quotient exceeds 256 bits", ErrArithmeticOverflow)
	}
	return result, nil
}
