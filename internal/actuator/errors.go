package actuator

import "errors"

var (
	// ErrInvalidCharacteristics indicates actuator or backup constants that
	// cannot produce a working actuator.
	ErrInvalidCharacteristics = errors.New("actuator: invalid characteristics")

	// ErrUnknownMode is returned when parsing an unrecognised mode name.
	ErrUnknownMode = errors.New("actuator: unknown mode")
)
