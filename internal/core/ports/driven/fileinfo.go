package driven

import (
	"context"

	"github.com/custodia-labs/specimen/internal/core/domain"
)

// FileInspector computes the identity of a file on disk.
type FileInspector interface {
	// Inspect reads the file at path and returns a Sample with every digest,
	// size, MIME type and the base name filled in. Tags and CreatedAt are left empty.
	// Returns domain.ErrNotFound if path is not a readable regular file.
	Inspect(ctx context.Context, path string) (*domain.Sample, error)
}
