package driven

import (
	"context"

	"github.com/custodia-labs/specimen/internal/core/domain"
)

// Workspace is the storage scope of one project.
type Workspace struct {
	Project    domain.Project
	Repository Repository
	Database   SampleDatabase
}

// ProjectCatalog discovers and creates project datasets on disk.
type ProjectCatalog interface {
	// List returns the default project followed by every named project.
	List(ctx context.Context) ([]domain.Project, error)

	// Get returns a project by name, or domain.ErrNotFound if its directory is missing.
	Get(ctx context.Context, name string) (*domain.Project, error)

	// Create returns the project, creating its directory if needed.
	Create(ctx context.Context, name string) (*domain.Project, error)
}

// WorkspaceOpener opens the repository and database of a project.
// Implementations may cache open workspaces; callers must not close them.
type WorkspaceOpener interface {
	// Open returns the workspace for a project.
	Open(ctx context.Context, project domain.Project) (*Workspace, error)

	// Close releases every opened workspace.
	Close() error
}
