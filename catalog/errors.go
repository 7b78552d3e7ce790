package catalog

import "errors"

var (
	// ErrInvalidDrink is returned when a drink definition violates a
	// catalog invariant (empty name, negative price, bad sizes).
	ErrInvalidDrink = errors.New("invalid drink definition")

	// ErrDrinkNotFound is returned by stores when a drink is missing.
	ErrDrinkNotFound = errors.New("drink not found")
)
