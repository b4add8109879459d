package lsystem

import "errors"

// Configuration errors. All of them are raised while building a grammar or
// registry; derivation itself never fails.
var (
	// ErrMalformedRule indicates a rule line that is not `pred -> succ`.
	ErrMalformedRule = errors.New("lsystem: malformed rule")

	// ErrUndefinedContext indicates a context symbol that no derivation can produce.
	ErrUndefinedContext = errors.New("lsystem: rule context references undefined symbol")

	// ErrInvalidGrammar indicates out-of-range constants or an empty axiom.
	ErrInvalidGrammar = errors.New("lsystem: invalid grammar")

	// ErrUnknownGrammar indicates a lookup of a name that was never registered.
	ErrUnknownGrammar = errors.New("lsystem: unknown grammar")

	// ErrDuplicateGrammar indicates a second registration under the same name.
	ErrDuplicateGrammar = errors.New("lsystem: grammar already registered")

	// ErrRegistryFrozen indicates a registration after Freeze.
	ErrRegistryFrozen = errors.New("lsystem: registry is frozen")
)
