// Package shell provides the interactive specimen shell: a prompt that
// runs command chains and keeps the project and open sample between them.
package shell

import (
	"github.com/custodia-labs/specimen/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the shell.
type Ports struct {
	// Dispatcher runs command chains.
	Dispatcher driving.Dispatcher
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Dispatcher == nil {
		return ErrMissingDispatcher
	}
	return nil
}
