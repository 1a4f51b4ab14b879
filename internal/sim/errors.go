package sim

import "errors"

var (
	ErrInvalidConfig = errors.New("sim: invalid run configuration")

	// ErrNonFinite indicates the assembly state diverged to NaN or Inf.
	ErrNonFinite = errors.New("sim: non-finite state")

	ErrEvent = errors.New("sim: event failed")
)

// SimulationError wraps an error with the tick it occurred on.
type SimulationError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return e.Wrapped.Error()
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
