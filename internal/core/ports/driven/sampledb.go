package driven

import (
	"context"

	"github.com/custodia-labs/specimen/internal/core/domain"
)

// SampleDatabase indexes samples by hash, name and tag.
type SampleDatabase interface {
	// Add inserts a sample. If a sample with the same sha256 already exists,
	// its tags are merged with sample.Tags and created is false.
	Add(ctx context.Context, sample *domain.Sample) (created bool, err error)

	// Get returns a sample by sha256, or domain.ErrNotFound.
	Get(ctx context.Context, sha256 string) (*domain.Sample, error)

	// Find returns the samples matching a query. An empty result is not an error.
	Find(ctx context.Context, query domain.SearchQuery) ([]domain.Sample, error)

	// Delete removes a sample and its tag associations.
	// Returns domain.ErrNotFound if the sample does not exist.
	Delete(ctx context.Context, sha256 string) error

	// AddTags unions tags onto an existing sample.
	AddTags(ctx context.Context, sha256 string, tags []string) error

	// ListTags returns every tag in use, sorted.
	ListTags(ctx context.Context) ([]string, error)

	// Close releases the database.
	Close() error
}
