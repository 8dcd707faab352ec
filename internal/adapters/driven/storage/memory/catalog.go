package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/specimen/internal/core/domain"
	"github.com/custodia-labs/specimen/internal/core/ports/driven"
)

// Ensure Catalog implements the interfaces.
var (
	_ driven.ProjectCatalog  = (*Catalog)(nil)
	_ driven.WorkspaceOpener = (*Catalog)(nil)
)

// Catalog is an in-memory project catalog that also opens workspaces.
// Each project gets its own SampleDatabase and Repository. The default
// project always exists.
type Catalog struct {
	mu         sync.RWMutex
	projects   map[string]domain.Project
	workspaces map[string]*driven.Workspace
	opens      int
}

// NewCatalog creates a catalog holding only the default project.
func NewCatalog() *Catalog {
	c := &Catalog{
		projects:   make(map[string]domain.Project),
		workspaces: make(map[string]*driven.Workspace),
	}
	c.projects[domain.DefaultProjectName] = domain.Project{
		Name:      domain.DefaultProjectName,
		Path:      "mem://",
		CreatedAt: time.Now().UTC(),
	}
	return c
}

// List returns the default project first, then named projects by name.
func (c *Catalog) List(_ context.Context) ([]domain.Project, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Project, 0, len(c.projects))
	for _, p := range c.projects {
		if !p.IsDefault() {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return append([]domain.Project{c.projects[domain.DefaultProjectName]}, out...), nil
}

// Get retrieves a project by name.
func (c *Catalog) Get(_ context.Context, name string) (*domain.Project, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.projects[name]
	if !ok {
		return nil, fmt.Errorf("%w: project %s", domain.ErrNotFound, name)
	}
	return &p, nil
}

// Create adds a project if it does not exist and returns it.
func (c *Catalog) Create(_ context.Context, name string) (*domain.Project, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.projects[name]
	if !ok {
		p = domain.Project{
			Name:      name,
			Path:      "mem://" + name,
			CreatedAt: time.Now().UTC(),
		}
		c.projects[name] = p
	}
	return &p, nil
}

// Open returns the workspace of a project, creating its stores on first use.
func (c *Catalog) Open(_ context.Context, project domain.Project) (*driven.Workspace, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.projects[project.Name]; !ok {
		return nil, fmt.Errorf("%w: project %s", domain.ErrNotFound, project.Name)
	}
	c.opens++
	ws, ok := c.workspaces[project.Name]
	if !ok {
		ws = &driven.Workspace{
			Project:    c.projects[project.Name],
			Repository: NewRepository(),
			Database:   NewSampleDatabase(),
		}
		c.workspaces[project.Name] = ws
	}
	return ws, nil
}

// Opens returns how many times Open has been called.
func (c *Catalog) Opens() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.opens
}

// Close drops every workspace.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.workspaces = make(map[string]*driven.Workspace)
	return nil
}
