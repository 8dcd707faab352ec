package driven

import (
	"context"

	"github.com/custodia-labs/specimen/internal/core/domain"
)

// Chain is the per-chain context handed to every builtin and module.
// It replaces process-wide project and session state, so concurrent
// chains never observe each other.
type Chain interface {
	// ID identifies the chain execution.
	ID() string

	// Project returns the active project.
	Project() domain.Project

	// Workspace returns the storage scope of the active project.
	Workspace() *Workspace

	// SwitchProject activates another project. It does not close the session.
	SwitchProject(ctx context.Context, name string) error

	// Session returns the current sample, or nil when no session is open.
	Session() *domain.SessionSample

	// OpenSession resolves path to a sample and makes it current.
	OpenSession(ctx context.Context, path string) error

	// CloseSession clears the current sample.
	CloseSession()
}

// Module is an analysis capability. A fresh instance is constructed for
// every statement that invokes it and discarded once its output is drained.
type Module interface {
	// ParseArgs interprets the statement arguments.
	// Malformed arguments return an error wrapping domain.ErrInvalidInput.
	ParseArgs(args []string) error

	// Run executes the module against the chain context.
	Run(ctx context.Context, chain Chain) error

	// Output returns the entries produced so far, in order.
	Output() []domain.Entry
}

// ModuleDescriptor registers a module under a command token.
type ModuleDescriptor struct {
	// Name is the command token.
	Name string

	// Description is a one-line summary shown by help.
	Description string

	// New constructs a fresh module instance.
	New func() Module
}
