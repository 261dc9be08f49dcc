package domain

import "errors"

// Sentinel errors shared across the engine. Callers classify failures with
// errors.Is; anything wrapping ErrInvalidInput or ErrNotFound is terminal
// and must not be retried.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidTransition = errors.New("invalid attempt transition")
)
