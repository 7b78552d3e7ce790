package reconcile

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidLedgerInput is returned for structurally malformed
	// period input. Unusual business values (negative theoretical
	// sales, zero cash) are NOT errors.
	ErrInvalidLedgerInput = errors.New("invalid ledger input")

	// ErrInvalidTransition is returned when a session operation is
	// attempted from the wrong state.
	ErrInvalidTransition = errors.New("invalid session transition")
)

// InvalidInputError names the rejected field.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid ledger input: %s %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Unwrap() error {
	return ErrInvalidLedgerInput
}
