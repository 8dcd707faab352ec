package mcp

import (
	"github.com/custodia-labs/specimen/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server talks to.
type Ports struct {
	// Dispatcher runs command chains.
	Dispatcher driving.Dispatcher

	// Samples searches and tags samples. Optional.
	Samples driving.SampleService

	// Projects lists projects. Optional.
	Projects driving.ProjectService

	// Catalog lists builtins and modules. Optional.
	Catalog driving.CommandCatalog
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Dispatcher == nil {
		return ErrMissingDispatcher
	}
	return nil
}
