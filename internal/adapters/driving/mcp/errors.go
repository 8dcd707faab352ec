// Package mcp exposes specimen to AI assistants over the Model Context
// Protocol: command chains, sample search and project listings.
package mcp

import "errors"

// ErrMissingDispatcher is returned when the command dispatcher is not provided.
var ErrMissingDispatcher = errors.New("mcp: dispatcher is required")
