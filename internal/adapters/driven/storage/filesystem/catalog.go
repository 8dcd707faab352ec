package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/custodia-labs/specimen/internal/core/domain"
	"github.com/custodia-labs/specimen/internal/core/ports/driven"
)

// projectsDir holds the named projects under the storage root.
const projectsDir = "projects"

// Ensure Catalog implements the interface.
var _ driven.ProjectCatalog = (*Catalog)(nil)

// Catalog lists and creates project directories under a storage root.
// The storage root itself is the default project.
type Catalog struct {
	root string
}

// NewCatalog creates a catalog rooted at root, creating the directory.
func NewCatalog(root string) (*Catalog, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: empty storage root", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(root, 0700); err != nil {
		return nil, fmt.Errorf("creating storage root: %w", err)
	}
	return &Catalog{root: root}, nil
}

// Root returns the storage root.
func (c *Catalog) Root() string {
	return c.root
}

func (c *Catalog) projectPath(name string) string {
	if name == domain.DefaultProjectName {
		return c.root
	}
	return filepath.Join(c.root, projectsDir, name)
}

func project(name, path string, info fs.FileInfo) domain.Project {
	return domain.Project{Name: name, Path: path, CreatedAt: info.ModTime().UTC()}
}

// List returns the default project followed by named projects by name.
func (c *Catalog) List(ctx context.Context) ([]domain.Project, error) {
	def, err := c.Get(ctx, domain.DefaultProjectName)
	if err != nil {
		return nil, err
	}
	projects := []domain.Project{*def}

	entries, err := os.ReadDir(filepath.Join(c.root, projectsDir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return projects, nil
		}
		return nil, fmt.Errorf("listing projects: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		// projects/default is shadowed by the storage root.
		name, err := domain.NormaliseProjectName(entry.Name())
		if err != nil || name == domain.DefaultProjectName {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		projects = append(projects, project(entry.Name(), c.projectPath(entry.Name()), info))
	}
	return projects, nil
}

// Get returns a project by its normalised name.
func (c *Catalog) Get(_ context.Context, name string) (*domain.Project, error) {
	path := c.projectPath(name)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: project %s", domain.ErrNotFound, name)
		}
		return nil, fmt.Errorf("reading project %s: %w", name, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: project %s is not a directory", domain.ErrNotFound, name)
	}
	p := project(name, path, info)
	return &p, nil
}

// Create makes the project directory if needed and returns the project.
func (c *Catalog) Create(ctx context.Context, name string) (*domain.Project, error) {
	if err := os.MkdirAll(c.projectPath(name), 0700); err != nil {
		return nil, fmt.Errorf("creating project %s: %w", name, err)
	}
	return c.Get(ctx, name)
}
