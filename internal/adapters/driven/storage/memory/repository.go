package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/custodia-labs/specimen/internal/core/domain"
	"github.com/custodia-labs/specimen/internal/core/ports/driven"
)

// Ensure Repository implements the interface.
var _ driven.Repository = (*Repository)(nil)

// Repository is an in-memory implementation of driven.Repository.
// Paths are synthetic keys of the form "mem://<sha256>".
type Repository struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewRepository creates a new in-memory repository.
func NewRepository() *Repository {
	return &Repository{
		blobs: make(map[string][]byte),
	}
}

func memPath(sha256 string) string {
	return "mem://" + sha256
}

// Store keeps the content of r under sha256. Storing an existing sample
// leaves the first copy in place.
func (r *Repository) Store(_ context.Context, sha256 string, src io.Reader) (string, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.blobs[sha256]; !ok {
		r.blobs[sha256] = data
	}
	return memPath(sha256), nil
}

// Path returns the synthetic path of a stored sample.
func (r *Repository) Path(_ context.Context, sha256 string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.blobs[sha256]; !ok {
		return "", fmt.Errorf("%w: stored file %s", domain.ErrNotFound, sha256)
	}
	return memPath(sha256), nil
}

// Open returns a reader over a stored sample.
func (r *Repository) Open(_ context.Context, sha256 string) (io.ReadCloser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, ok := r.blobs[sha256]
	if !ok {
		return nil, fmt.Errorf("%w: stored file %s", domain.ErrNotFound, sha256)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete removes a stored sample.
func (r *Repository) Delete(_ context.Context, sha256 string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.blobs[sha256]; !ok {
		return fmt.Errorf("%w: stored file %s", domain.ErrNotFound, sha256)
	}
	delete(r.blobs, sha256)
	return nil
}

// Len returns the number of stored samples.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.blobs)
}
