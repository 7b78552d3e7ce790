/*
errors.go - Error types for the valuation engine

All valuation failures wrap ErrInvalidValuationInput so callers can
classify with errors.Is. The structured error carries which drink and
which input was rejected.
*/
package valuation

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidValuationInput is returned for a negative quantity or a
	// package size the drink does not ship in. The engine never values
	// such input as zero.
	ErrInvalidValuationInput = errors.New("invalid valuation input")
)

// InvalidInputError describes a rejected valuation input.
type InvalidInputError struct {
	Drink  string
	Reason string
	Size   int // the rejected package size, when relevant
}

func (e *InvalidInputError) Error() string {
	if e.Size != 0 {
		return fmt.Sprintf("invalid valuation input for %s: %s (%d)", e.Drink, e.Reason, e.Size)
	}
	return fmt.Sprintf("invalid valuation input for %s: %s", e.Drink, e.Reason)
}

func (e *InvalidInputError) Unwrap() error {
	return ErrInvalidValuationInput
}
