package driving

import (
	"context"

	"github.com/custodia-labs/specimen/internal/core/domain"
)

// Dispatcher executes command chains.
type Dispatcher interface {
	// Dispatch runs every statement of req.Command in order and returns the
	// aggregated results. Per-statement failures are reported inside the
	// result; an error is returned only when the chain could not start
	// (empty command, malformed sample hash, unknown project).
	Dispatch(ctx context.Context, req domain.ChainRequest) (*domain.ChainResult, error)
}

// CommandInfo describes a builtin or module for listings.
type CommandInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CommandCatalog lists what a dispatcher can resolve.
type CommandCatalog interface {
	// Builtins returns the builtin commands, sorted by name.
	Builtins() []CommandInfo

	// Modules returns the registered modules, sorted by name.
	Modules() []CommandInfo
}
