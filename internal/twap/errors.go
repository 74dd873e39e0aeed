package twap

import "errors"

// Error kinds surfaced by the consultant. Call sites wrap these with
// fmt.Errorf("...: %w", ...) so callers can match with errors.Is.
var (
	// ErrInvalidWindow means the requested averaging window was zero.
	ErrInvalidWindow = errors.New("window must be positive")

	// ErrSourceUnavailable means the observation source could not be
	// resolved or queried.
	ErrSourceUnavailable = errors.New("observation source unavailable")

	// ErrArithmeticOverflow means a quote is not representable in 256 bits.
	ErrArithmeticOverflow = errors.New("arithmetic overflow")
)
