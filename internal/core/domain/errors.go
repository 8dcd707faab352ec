package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a referenced project, sample, or rule file does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed input, such as a hash of the wrong
	// length or a missing command chain. It is the validation error kind.
	ErrInvalidInput = errors.New("invalid input")

	// Dispatch Errors.

	// ErrUnknownCommand indicates a root token matched neither a builtin nor a module.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrExecutionFailed indicates a resolved builtin or module failed while running.
	ErrExecutionFailed = errors.New("execution failed")

	// ErrNoSession indicates a command needs an open session but none is set.
	ErrNoSession = errors.New("no open session")

	// Module Errors.

	// ErrScannerUnavailable indicates the external scanning binary is not installed.
	ErrScannerUnavailable = errors.New("scanner unavailable")
)
