package services

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
	"github.com/custodia-labs/specimen/internal/logger"
)

// ingester copies files into a workspace and records them in its database.
type ingester struct {
	inspector driven.FileInspector
}

// storeTree stores path, or every non-empty regular file below it when
// path is a directory.
func (in ingester) storeTree(
	ctx context.Context,
	ws *driven.Workspace,
	path string,
	tags []string,
) ([]domain.Sample, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	if !info.IsDir() {
		sample, err := in.storeFile(ctx, ws, path, "", tags)
		if err != nil {
			return nil, err
		}
		return []domain.Sample{*sample}, nil
	}

	var stored []domain.Sample
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			logger.Warn("skipping %s: %v", p, walkErr)
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		fi, err := d.Info()
		if err != nil || fi.Size() == 0 {
			logger.Debug("skipping empty or unreadable file %s", p)
			return nil
		}
		sample, err := in.storeFile(ctx, ws, p, "", tags)
		if err != nil {
			return err
		}
		stored = append(stored, *sample)
		return nil
	})
	if err != nil {
		return stored, err
	}
	return stored, nil
}

// storeFile stores a single file. An empty name defaults to the file's
// base name. Storing a sample that already exists merges the tags.
func (in ingester) storeFile(
	ctx context.Context,
	ws *driven.Workspace,
	path, name string,
	tags []string,
) (*domain.Sample, error) {
	sample, err := in.inspector.Inspect(ctx, path)
	if err != nil {
		return nil, err
	}
	if name != "" {
		sample.Name = name
	}
	sample.Tags = domain.UnionTags(nil, tags)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	_, statErr := ws.Repository.Path(ctx, sample.SHA256)
	existed := statErr == nil
	if _, err := ws.Repository.Store(ctx, sample.SHA256, f); err != nil {
		return nil, fmt.Errorf("storing %s: %w", sample.SHA256, err)
	}

	created, err := ws.Database.Add(ctx, sample)
	if err != nil {
		// A binary without a database row is unreachable.
		if !existed {
			if delErr := ws.Repository.Delete(ctx, sample.SHA256); delErr != nil {
				logger.Warn("removing orphaned %s: %v", sample.SHA256, delErr)
			}
		}
		return nil, fmt.Errorf("recording %s: %w", sample.SHA256, err)
	}
	if !created {
		logger.Debug("sample %s already stored in %s, merging tags", sample.SHA256, ws.Project.Name)
		if len(tags) > 0 {
			if err := ws.Database.AddTags(ctx, sample.SHA256, tags); err != nil {
				return nil, err
			}
		}
	}

	return ws.Database.Get(ctx, sample.SHA256)
}

// storeReader spools r to a temporary file and stores it under name.
func (in ingester) storeReader(
	ctx context.Context,
	ws *driven.Workspace,
	name string,
	r io.Reader,
	tags []string,
) (*domain.Sample, error) {
	tmp, err := os.CreateTemp("", "specimen-upload-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("spooling upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("spooling upload: %w", err)
	}

	if name == "" {
		name = filepath.Base(tmp.Name())
	}
	return in.storeFile(ctx, ws, tmp.Name(), filepath.Base(name), tags)
}

// lookupSample finds a sample by md5 or sha256 in a workspace.
func lookupSample(ctx context.Context, ws *driven.Workspace, hash string) (*domain.Sample, error) {
	kind, err := domain.ClassifyHash(hash)
	if err != nil {
		return nil, err
	}

	if kind == domain.HashSHA256 {
		return ws.Database.Get(ctx, hash)
	}

	matches, err := ws.Database.Find(ctx, domain.SearchQuery{Key: domain.SearchMD5, Value: hash})
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: sample %s", domain.ErrNotFound, hash)
	}
	return &matches[0], nil
}
