// Package workspace opens project workspaces backed by the filesystem
// repository and a per-project SQLite database.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/specimen/internal/adapters/driven/storage/filesystem"
	"github.com/custodia-labs/specimen/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/specimen/internal/core/domain"
	"github.com/custodia-labs/specimen/internal/core/ports/driven"
	"github.com/custodia-labs/specimen/internal/logger"
)

// Ensure Opener implements the interface.
var _ driven.WorkspaceOpener = (*Opener)(nil)

// Opener caches one workspace per project path. Database handles stay open
// until Close so concurrent chains share them.
type Opener struct {
	mu     sync.Mutex
	open   map[string]*driven.Workspace
	stores []*sqlite.Store
	closed bool
}

// NewOpener creates an empty workspace cache.
func NewOpener() *Opener {
	return &Opener{open: make(map[string]*driven.Workspace)}
}

// Open returns the workspace of project, opening its database on first use.
func (o *Opener) Open(_ context.Context, project domain.Project) (*driven.Workspace, error) {
	if project.Path == "" {
		return nil, fmt.Errorf("%w: project %s has no path", domain.ErrInvalidInput, project.Name)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil, errors.New("workspace opener is closed")
	}
	if ws, ok := o.open[project.Path]; ok {
		return ws, nil
	}

	store, err := sqlite.NewStore(project.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database for %s: %w", project.Name, err)
	}
	logger.Debug("opened database %s", store.Path())

	ws := &driven.Workspace{
		Project:    project,
		Repository: filesystem.NewRepository(project.Path),
		Database:   store,
	}
	o.open[project.Path] = ws
	o.stores = append(o.stores, store)
	return ws, nil
}

// Close closes every database opened so far.
func (o *Opener) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	var errs []error
	for _, store := range o.stores {
		if err := store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	o.stores = nil
	o.open = make(map[string]*driven.Workspace)
	o.closed = true
	return errors.Join(errs...)
}
