package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/custodia-labs/specimen/internal/core/domain"
	"github.com/custodia-labs/specimen/internal/core/ports/driven"
)

// binariesDir is the repository directory inside a project.
const binariesDir = "binaries"

// Ensure Repository implements the interface.
var _ driven.Repository = (*Repository)(nil)

// Repository is a content-addressed file store rooted at a project path.
type Repository struct {
	root string
}

// NewRepository creates a repository under projectPath/binaries.
func NewRepository(projectPath string) *Repository {
	return &Repository{root: filepath.Join(projectPath, binariesDir)}
}

// location returns the on-disk path of a sample.
func (r *Repository) location(sha256 string) (string, error) {
	if len(sha256) < 4 || filepath.Base(sha256) != sha256 {
		return "", fmt.Errorf("%w: bad content address %q", domain.ErrInvalidInput, sha256)
	}
	return filepath.Join(r.root, sha256[0:1], sha256[1:2], sha256[2:3], sha256[3:4], sha256), nil
}

// Store copies r to the sample's content address. An existing copy is kept.
func (r *Repository) Store(_ context.Context, sha256 string, src io.Reader) (string, error) {
	dest, err := r.location(sha256)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(dest); err == nil {
		return dest, nil
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".incoming-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing %s: %w", sha256, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("writing %s: %w", sha256, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("moving %s into place: %w", sha256, err)
	}
	return dest, nil
}

// Path returns the on-disk path of a stored sample.
func (r *Repository) Path(_ context.Context, sha256 string) (string, error) {
	dest, err := r.location(sha256)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(dest); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: stored file %s", domain.ErrNotFound, sha256)
		}
		return "", err
	}
	return dest, nil
}

// Open returns a reader over a stored sample.
func (r *Repository) Open(ctx context.Context, sha256 string) (io.ReadCloser, error) {
	path, err := r.Path(ctx, sha256)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// Delete removes a stored sample.
func (r *Repository) Delete(ctx context.Context, sha256 string) error {
	path, err := r.Path(ctx, sha256)
	if err != nil {
		return err
	}
	return os.Remove(path)
}
