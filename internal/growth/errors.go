package growth

import (
	"errors"
	"fmt"
)

var (
	// ErrNegativeDelta indicates a tick with a negative or non-finite time step.
	ErrNegativeDelta = errors.New("growth: tick delta must be non-negative")

	// ErrNoSink indicates an interpreter built without a geometry sink.
	ErrNoSink = errors.New("growth: nil sink")

	// ErrNoRegistry indicates an interpreter built without a grammar registry.
	ErrNoRegistry = errors.New("growth: nil grammar registry")

	// ErrInvalidOption indicates an out-of-range option value.
	ErrInvalidOption = errors.New("growth: invalid option")
)

// InstanceError reports an invariant violation that aborted one instance.
// Other instances keep growing.
type InstanceError struct {
	ID      int
	Grammar string
	Cursor  int
	Symbol  rune
	Wrapped error
}

func (e *InstanceError) Error() string {
	return fmt.Sprintf("growth %d (%s) symbol %d %q: %v", e.ID, e.Grammar, e.Cursor, e.Symbol, e.Wrapped)
}

func (e *InstanceError) Unwrap() error {
	return e.Wrapped
}
