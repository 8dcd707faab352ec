// Package modules wires the built-in analysis modules.
package modules

import (
	"github.com/custodia-labs/specimen/internal/core/domain"
	"github.com/custodia-labs/specimen/internal/core/ports/driven"
	"github.com/custodia-labs/specimen/internal/modules/ascii"
	"github.com/custodia-labs/specimen/internal/modules/eyara"
	"github.com/custodia-labs/specimen/internal/modules/fuzzy"
)

// Defaults returns the descriptors of every built-in module.
// Call this during application initialisation to build the module registry.
func Defaults(settings domain.AppSettings, scanner driven.Scanner) []driven.ModuleDescriptor {
	return []driven.ModuleDescriptor{
		eyara.Descriptor(scanner, settings.Scanner.RulesDir),
		ascii.Descriptor(),
		fuzzy.Descriptor(),
	}
}
