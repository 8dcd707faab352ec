package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/specimen/internal/core/domain"
	"github.com/custodia-labs/specimen/internal/core/ports/driven"
	"github.com/custodia-labs/specimen/internal/core/ports/driving"
	"github.com/custodia-labs/specimen/internal/logger"
)

// ProjectContext tracks which project is active for one chain or request.
// It is not safe for concurrent use; every chain owns its own value.
type ProjectContext struct {
	catalog driven.ProjectCatalog
	opener  driven.WorkspaceOpener

	active   *driven.Workspace
	switches int
}

// NewProjectContext creates a project context with no active project.
func NewProjectContext(catalog driven.ProjectCatalog, opener driven.WorkspaceOpener) *ProjectContext {
	return &ProjectContext{
		catalog: catalog,
		opener:  opener,
	}
}

// Open activates the project called name. The empty name, "../" and
// "default" all denote the default project. Opening the already active
// project is a no-op. Open never touches the session.
// Returns domain.ErrNotFound if the project directory does not exist.
func (p *ProjectContext) Open(ctx context.Context, name string) error {
	name, err := domain.NormaliseProjectName(name)
	if err != nil {
		return err
	}

	if p.active != nil && p.active.Project.Name == name {
		logger.Debug("project %s already active", name)
		return nil
	}

	project, err := p.catalog.Get(ctx, name)
	if err != nil {
		return fmt.Errorf("project %s: %w", name, err)
	}

	ws, err := p.opener.Open(ctx, *project)
	if err != nil {
		return fmt.Errorf("opening project %s: %w", name, err)
	}

	p.active = ws
	p.switches++
	logger.Debug("switched to project %s (%s)", project.Name, project.Path)
	return nil
}

// Active returns the active project and whether one has been opened.
func (p *ProjectContext) Active() (domain.Project, bool) {
	if p.active == nil {
		return domain.Project{}, false
	}
	return p.active.Project, true
}

// Workspace returns the storage scope of the active project, or nil.
func (p *ProjectContext) Workspace() *driven.Workspace {
	return p.active
}

// Switches returns how many times Open actually switched datasets.
func (p *ProjectContext) Switches() int {
	return p.switches
}

// Ensure ProjectService implements the interface.
var _ driving.ProjectService = (*ProjectService)(nil)

// ProjectService manages project datasets.
type ProjectService struct {
	catalog driven.ProjectCatalog
}

// NewProjectService creates a new project service.
func NewProjectService(catalog driven.ProjectCatalog) *ProjectService {
	return &ProjectService{catalog: catalog}
}

// List returns the default project followed by every named project.
func (s *ProjectService) List(ctx context.Context) ([]domain.Project, error) {
	return s.catalog.List(ctx)
}

// Create creates a project if it does not exist.
func (s *ProjectService) Create(ctx context.Context, name string) (*domain.Project, error) {
	name, err := domain.NormaliseProjectName(name)
	if err != nil {
		return nil, err
	}
	return s.catalog.Create(ctx, name)
}
