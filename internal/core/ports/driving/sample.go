package driving

import (
	"context"
	"io"

	"github.com/custodia-labs/specimen/internal/core/domain"
)

// SampleService manages samples inside projects.
// An empty project name selects the default project.
type SampleService interface {
	// Store adds the contents of r under name. Storing a known sample merges tags.
	Store(ctx context.Context, project, name string, r io.Reader, tags []string) (*domain.Sample, error)

	// StoreFile stores a file, or every regular file below a directory.
	StoreFile(ctx context.Context, project, path string, tags []string) ([]domain.Sample, error)

	// Get looks a sample up by md5 or sha256.
	Get(ctx context.Context, project, hash string) (*domain.Sample, error)

	// Open returns the stored contents of a sample looked up by md5 or sha256.
	Open(ctx context.Context, project, hash string) (io.ReadCloser, *domain.Sample, error)

	// Delete removes a sample from the database and the repository.
	Delete(ctx context.Context, project, hash string) error

	// Find searches one project, or every project when scope is domain.AllProjects.
	// Results are keyed by project name.
	Find(ctx context.Context, scope string, query domain.SearchQuery) (map[string][]domain.Sample, error)

	// AddTags unions tags onto every sample matching query and returns how many matched.
	AddTags(ctx context.Context, project string, query domain.SearchQuery, tags []string) (int, error)

	// ListTags returns every tag used in a project.
	ListTags(ctx context.Context, project string) ([]string, error)
}

// ProjectService manages project datasets.
type ProjectService interface {
	// List returns the default project followed by every named project.
	List(ctx context.Context) ([]domain.Project, error)

	// Create creates a project if it does not exist.
	Create(ctx context.Context, name string) (*domain.Project, error)
}
