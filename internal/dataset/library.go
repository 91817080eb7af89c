package dataset

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/nrw/releasewall/internal/catalog"
)

// Library serves the published snapshot. The parsed snapshot is cached
// until the file's modification time changes or Invalidate is called.
type Library struct {
	path string
	opts catalog.Options

	mu      sync.Mutex
	modTime time.Time
	records []catalog.Record
	movies  []catalog.Movie
}

// NewLibrary creates a library over the snapshot at path.
func NewLibrary(path string, opts catalog.Options) *Library {
	return &Library{path: path, opts: opts}
}

// Path returns the snapshot path.
func (l *Library) Path() string {
	return l.path
}

// Invalidate drops the cached snapshot.
func (l *Library) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.modTime = time.Time{}
	l.records = nil
	l.movies = nil
}

// Records returns the snapshot's raw records.
func (l *Library) Records(ctx context.Context) ([]catalog.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.refresh(ctx); err != nil {
		return nil, err
	}
	return l.records, nil
}

// Movies returns the snapshot's normalized movies in snapshot order.
func (l *Library) Movies(ctx context.Context) ([]catalog.Movie, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.refresh(ctx); err != nil {
		return nil, err
	}
	return l.movies, nil
}

func (l *Library) refresh(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(l.path)
	if err != nil {
		return fmt.Errorf("failed to stat snapshot: %w", err)
	}
	if l.records != nil && info.ModTime().Equal(l.modTime) {
		return nil
	}

	f, err := os.Open(l.path)
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	records, err := catalog.LoadSnapshot(f)
	if err != nil {
		return err
	}
	l.records = records
	l.movies = catalog.NormalizeAll(records, l.opts)
	l.modTime = info.ModTime()
	return nil
}
