package services

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/specimen/internal/core/domain"
	"github.com/custodia-labs/specimen/internal/core/ports/driven"
)

// ModuleRegistry maps command tokens to analysis module descriptors.
// It is built once at startup and never mutated afterwards, so it can be
// shared by concurrent chains.
type ModuleRegistry struct {
	modules map[string]driven.ModuleDescriptor
}

// NewModuleRegistry builds a registry from descs.
// Returns domain.ErrAlreadyExists if two descriptors share a token and
// domain.ErrInvalidInput if a descriptor has no name or constructor.
func NewModuleRegistry(descs ...driven.ModuleDescriptor) (*ModuleRegistry, error) {
	r := &ModuleRegistry{
		modules: make(map[string]driven.ModuleDescriptor, len(descs)),
	}
	for _, desc := range descs {
		if desc.Name == "" || desc.New == nil {
			return nil, fmt.Errorf("%w: module descriptor %q is incomplete", domain.ErrInvalidInput, desc.Name)
		}
		if _, ok := r.modules[desc.Name]; ok {
			return nil, fmt.Errorf("%w: module %s registered twice", domain.ErrAlreadyExists, desc.Name)
		}
		r.modules[desc.Name] = desc
	}
	return r, nil
}

// Lookup returns the descriptor registered under token.
func (r *ModuleRegistry) Lookup(token string) (driven.ModuleDescriptor, bool) {
	desc, ok := r.modules[token]
	return desc, ok
}

// Has returns true if a module with the given token is registered.
func (r *ModuleRegistry) Has(token string) bool {
	_, ok := r.modules[token]
	return ok
}

// Names returns all registered tokens in sorted order.
func (r *ModuleRegistry) Names() []string {
	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns all descriptors sorted by token.
func (r *ModuleRegistry) List() []driven.ModuleDescriptor {
	names := r.Names()
	out := make([]driven.ModuleDescriptor, 0, len(names))
	for _, name := range names {
		out = append(out, r.modules[name])
	}
	return out
}
