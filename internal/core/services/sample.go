package services

import (
	"context"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/specimen/internal/core/domain"
	"github.com/custodia-labs/specimen/internal/core/ports/driven"
	"github.com/custodia-labs/specimen/internal/core/ports/driving"
)

// Ensure SampleService implements the interface.
var _ driving.SampleService = (*SampleService)(nil)

// searchConcurrency bounds how many projects are searched at once.
const searchConcurrency = 4

// SampleService stores, retrieves, and searches samples outside of a
// command chain.
type SampleService struct {
	catalog driven.ProjectCatalog
	opener  driven.WorkspaceOpener
	ingest  ingester
}

// NewSampleService creates a new sample service.
func NewSampleService(
	catalog driven.ProjectCatalog,
	opener driven.WorkspaceOpener,
	inspector driven.FileInspector,
) *SampleService {
	return &SampleService{
		catalog: catalog,
		opener:  opener,
		ingest:  ingester{inspector: inspector},
	}
}

// workspace opens the named project. Missing projects are created.
func (s *SampleService) workspace(ctx context.Context, project string, create bool) (*driven.Workspace, error) {
	name, err := domain.NormaliseProjectName(project)
	if err != nil {
		return nil, err
	}

	var p *domain.Project
	if create {
		p, err = s.catalog.Create(ctx, name)
	} else {
		p, err = s.catalog.Get(ctx, name)
	}
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", name, err)
	}
	return s.opener.Open(ctx, *p)
}

// Store stores the content of r under name.
func (s *SampleService) Store(
	ctx context.Context,
	project, name string,
	r io.Reader,
	tags []string,
) (*domain.Sample, error) {
	ws, err := s.workspace(ctx, project, true)
	if err != nil {
		return nil, err
	}
	return s.ingest.storeReader(ctx, ws, name, r, tags)
}

// StoreFile stores a file, or every non-empty file under a directory.
func (s *SampleService) StoreFile(ctx context.Context, project, path string, tags []string) ([]domain.Sample, error) {
	ws, err := s.workspace(ctx, project, true)
	if err != nil {
		return nil, err
	}
	return s.ingest.storeTree(ctx, ws, path, tags)
}

// Get returns the sample identified by an md5 or sha256 hash.
func (s *SampleService) Get(ctx context.Context, project, hash string) (*domain.Sample, error) {
	if _, err := domain.ClassifyHash(hash); err != nil {
		return nil, err
	}
	ws, err := s.workspace(ctx, project, false)
	if err != nil {
		return nil, err
	}
	return lookupSample(ctx, ws, hash)
}

// Open returns the stored content of a sample. The caller must close it.
func (s *SampleService) Open(ctx context.Context, project, hash string) (io.ReadCloser, *domain.Sample, error) {
	if _, err := domain.ClassifyHash(hash); err != nil {
		return nil, nil, err
	}
	ws, err := s.workspace(ctx, project, false)
	if err != nil {
		return nil, nil, err
	}
	sample, err := lookupSample(ctx, ws, hash)
	if err != nil {
		return nil, nil, err
	}
	rc, err := ws.Repository.Open(ctx, sample.SHA256)
	if err != nil {
		return nil, nil, err
	}
	return rc, sample, nil
}

// Delete removes a sample from the database and the repository.
func (s *SampleService) Delete(ctx context.Context, project, hash string) error {
	if _, err := domain.ClassifyHash(hash); err != nil {
		return err
	}
	ws, err := s.workspace(ctx, project, false)
	if err != nil {
		return err
	}
	sample, err := lookupSample(ctx, ws, hash)
	if err != nil {
		return err
	}
	if err := ws.Database.Delete(ctx, sample.SHA256); err != nil {
		return err
	}
	return ws.Repository.Delete(ctx, sample.SHA256)
}

// Find searches one project, or every project when scope is "all".
// Results are keyed by project name.
func (s *SampleService) Find(
	ctx context.Context,
	scope string,
	query domain.SearchQuery,
) (map[string][]domain.Sample, error) {
	if !query.Key.IsValid() {
		return nil, fmt.Errorf("%w: unknown search key %q", domain.ErrInvalidInput, query.Key)
	}

	if scope != domain.AllProjects {
		ws, err := s.workspace(ctx, scope, false)
		if err != nil {
			return nil, err
		}
		samples, err := ws.Database.Find(ctx, query)
		if err != nil {
			return nil, err
		}
		return map[string][]domain.Sample{ws.Project.Name: samples}, nil
	}

	projects, err := s.catalog.List(ctx)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	results := make(map[string][]domain.Sample, len(projects))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(searchConcurrency)
	for _, p := range projects {
		g.Go(func() error {
			ws, err := s.opener.Open(gctx, p)
			if err != nil {
				return fmt.Errorf("opening project %s: %w", p.Name, err)
			}
			samples, err := ws.Database.Find(gctx, query)
			if err != nil {
				return fmt.Errorf("searching project %s: %w", p.Name, err)
			}
			mu.Lock()
			results[p.Name] = samples
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// AddTags merges tags into every sample matching query and returns how
// many samples were tagged.
func (s *SampleService) AddTags(
	ctx context.Context,
	project string,
	query domain.SearchQuery,
	tags []string,
) (int, error) {
	if len(tags) == 0 {
		return 0, fmt.Errorf("%w: no tags given", domain.ErrInvalidInput)
	}
	ws, err := s.workspace(ctx, project, false)
	if err != nil {
		return 0, err
	}
	samples, err := ws.Database.Find(ctx, query)
	if err != nil {
		return 0, err
	}
	for _, sample := range samples {
		if err := ws.Database.AddTags(ctx, sample.SHA256, tags); err != nil {
			return 0, err
		}
	}
	return len(samples), nil
}

// ListTags returns every tag used in a project.
func (s *SampleService) ListTags(ctx context.Context, project string) ([]string, error) {
	ws, err := s.workspace(ctx, project, false)
	if err != nil {
		return nil, err
	}
	return ws.Database.ListTags(ctx)
}
