package domain

import "errors"

// ErrInvalidInput is wrapped by every validation failure. Invalid input never
// reaches the simulators.
var ErrInvalidInput = errors.New("invalid input")

// IsInvalidInput reports whether err stems from request validation.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
