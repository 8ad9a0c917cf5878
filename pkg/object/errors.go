package object

import "errors"

// ErrNotFound reports a get for an id the store has never seen.
var ErrNotFound = errors.New("object not found")

// ErrCorrupt reports stored bytes that do not parse as a well-formed object
// of their declared type. Corruption is surfaced, never silently repaired.
var ErrCorrupt = errors.New("corrupt object")

// ErrInvalidInput reports a malformed builder input, rejected before any
// store write is attempted.
var ErrInvalidInput = errors.New("invalid input")
