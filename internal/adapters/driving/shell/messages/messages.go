// Package messages defines Bubbletea message types for the shell.
package messages

import (
	"github.com/custodia-labs/specimen/internal/core/domain"
)

// ChainRequested asks the shell to dispatch a command chain.
type ChainRequested struct {
	Request domain.ChainRequest
}

// ChainCompleted carries the result of a dispatched chain back to the model.
type ChainCompleted struct {
	Request domain.ChainRequest
	Result  *domain.ChainResult
	Err     error
}
