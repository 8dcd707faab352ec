// Package watch stores files dropped into a directory as samples.
package watch

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/specimen/internal/core/domain"
	"github.com/custodia-labs/specimen/internal/core/ports/driving"
	"github.com/custodia-labs/specimen/internal/logger"
)

// DefaultSettle is how long a file must stay unchanged before it is stored.
const DefaultSettle = 500 * time.Millisecond

const tick = 100 * time.Millisecond

// Watcher stores new and rewritten files of one directory into a project.
// Files are stored once writes to them have settled.
type Watcher struct {
	samples driving.SampleService
	project string
	tags    []string
	settle  time.Duration
	pending map[string]time.Time

	// OnStored, if set, is called for every stored sample.
	OnStored func(domain.Sample)
}

// New creates a watcher storing into project with tags applied.
func New(samples driving.SampleService, project string, tags []string) *Watcher {
	return &Watcher{
		samples: samples,
		project: project,
		tags:    tags,
		settle:  DefaultSettle,
		pending: make(map[string]time.Time),
	}
}

// WithSettle overrides the settle delay.
func (w *Watcher) WithSettle(d time.Duration) *Watcher {
	w.settle = d
	return w
}

// Run watches dir until ctx is cancelled. Subdirectories are not watched.
func (w *Watcher) Run(ctx context.Context, dir string) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	logger.Info("watching %s for project %s", dir, w.project)

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.pending[event.Name] = time.Now()
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch %s: %v", dir, err)

		case now := <-ticker.C:
			w.flush(ctx, now)
		}
	}
}

// flush stores every pending file that has been quiet for the settle delay.
func (w *Watcher) flush(ctx context.Context, now time.Time) {
	for path, last := range w.pending {
		if now.Sub(last) < w.settle {
			continue
		}
		delete(w.pending, path)

		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() || info.Size() == 0 {
			continue
		}

		stored, err := w.samples.StoreFile(ctx, w.project, path, w.tags)
		if err != nil {
			logger.Error("storing %s: %v", path, err)
			continue
		}
		for _, s := range stored {
			logger.Debug("stored %s as %s", path, s.SHA256)
			if w.OnStored != nil {
				w.OnStored(s)
			}
		}
	}
}
