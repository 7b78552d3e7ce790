package history

import "errors"

var (
	// ErrEntryNotFound is returned when the referenced history entry
	// does not exist.
	ErrEntryNotFound = errors.New("history entry not found")

	// ErrManagerNotFound is returned when the referenced manager does
	// not exist.
	ErrManagerNotFound = errors.New("manager not found")

	// ErrDeliveryNotFound is returned when the referenced delivery
	// record does not exist.
	ErrDeliveryNotFound = errors.New("delivery not found")

	// ErrPersistenceFailure is returned when an atomic commit could not
	// complete. The store guarantees prior state is unchanged; the
	// caller may retry, the engine will not.
	ErrPersistenceFailure = errors.New("persistence failure")

	// ErrNotComputed is returned when a save or correction is attempted
	// on a session that has not derived a ledger.
	ErrNotComputed = errors.New("session has no computed ledger")
)
