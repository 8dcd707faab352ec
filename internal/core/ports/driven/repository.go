package driven

import (
	"context"
	"io"
)

// Repository stores sample contents addressed by their sha256.
type Repository interface {
	// Store writes the contents under sha256 and returns the stored path.
	// Storing an already present hash is a no-op that returns the existing path.
	Store(ctx context.Context, sha256 string, r io.Reader) (string, error)

	// Path returns the stored path for sha256.
	// Returns domain.ErrNotFound if nothing is stored under that hash.
	Path(ctx context.Context, sha256 string) (string, error)

	// Open returns a reader over the stored contents.
	Open(ctx context.Context, sha256 string) (io.ReadCloser, error)

	// Delete removes the stored contents.
	// Returns domain.ErrNotFound if nothing is stored under that hash.
	Delete(ctx context.Context, sha256 string) error
}
