package body

import "errors"

var (
	// ErrInvalidGeometry indicates a hinge, arm or anchor layout the body cannot be built from.
	ErrInvalidGeometry = errors.New("body: invalid geometry")

	// ErrInvalidMass indicates a non-positive mass or a degenerate inertia.
	ErrInvalidMass = errors.New("body: invalid mass properties")
)
