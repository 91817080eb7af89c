package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/nrw/releasewall/internal/catalog"
	"github.com/nrw/releasewall/internal/store"
)

// ErrRegenerationRunning is returned when a regeneration is already in progress.
var ErrRegenerationRunning = errors.New("regeneration already running")

// OverrideSource provides the admin overrides. *store.Store satisfies it.
type OverrideSource interface {
	Load(ctx context.Context) (store.Snapshot, error)
}

// Config locates the dataset files.
type Config struct {
	TrackingPath string
	SnapshotPath string
	// DaysBack limits the snapshot to movies available within that many
	// days. Zero keeps every dated movie.
	DaysBack int
	Options  catalog.Options
}

// Entry is one tracked movie with its overrides applied.
type Entry struct {
	Record catalog.Record
	Movie  catalog.Movie
	Status store.Status
	Review *store.Review
}

// Result summarises a regeneration.
type Result struct {
	Count       int
	Hidden      int
	Featured    int
	Path        string
	GeneratedAt time.Time
	Duration    time.Duration
}

// Regenerator rebuilds the snapshot. Only one regeneration runs at a time.
type Regenerator struct {
	cfg       Config
	overrides OverrideSource
	logger    zerolog.Logger
	now       func() time.Time
	running   atomic.Bool

	hooksMu sync.RWMutex
	hooks   []func(Result)
}

// NewRegenerator creates a regenerator.
func NewRegenerator(cfg Config, overrides OverrideSource, logger zerolog.Logger) *Regenerator {
	return &Regenerator{
		cfg:       cfg,
		overrides: overrides,
		logger:    logger.With().Str("component", "dataset").Logger(),
		now:       time.Now,
	}
}

// SetClock replaces the time source.
func (r *Regenerator) SetClock(now func() time.Time) {
	r.now = now
}

// OnRegenerated registers a hook run after every successful regeneration.
func (r *Regenerator) OnRegenerated(f func(Result)) {
	r.hooksMu.Lock()
	defer r.hooksMu.Unlock()
	r.hooks = append(r.hooks, f)
}

// SnapshotPath returns where the snapshot is written.
func (r *Regenerator) SnapshotPath() string {
	return r.cfg.SnapshotPath
}

// Running reports whether a regeneration is in progress.
func (r *Regenerator) Running() bool {
	return r.running.Load()
}

// Tracked reports whether the tracking file holds a movie with id,
// regardless of status or date.
func (r *Regenerator) Tracked(_ context.Context, id string) (bool, error) {
	records, err := LoadTracking(r.cfg.TrackingPath)
	if err != nil {
		return false, err
	}
	for _, rec := range records {
		if m, ok := catalog.Normalize(rec, r.cfg.Options); ok && m.ID == id {
			return true, nil
		}
	}
	return false, nil
}

// Entries loads every tracked movie in the window with field overrides,
// statuses and reviews applied, newest first. Hidden movies are included.
func (r *Regenerator) Entries(ctx context.Context) ([]Entry, error) {
	records, err := LoadTracking(r.cfg.TrackingPath)
	if err != nil {
		return nil, err
	}
	snap, err := r.overrides.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load overrides: %w", err)
	}

	cutoff := time.Time{}
	if r.cfg.DaysBack > 0 {
		now := r.now().UTC()
		cutoff = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -r.cfg.DaysBack)
	}

	entries := make([]Entry, 0, len(records))
	for _, raw := range records {
		rec := raw.Clone()
		movie, ok := catalog.Normalize(rec, r.cfg.Options)
		if !ok || movie.ID == "" {
			continue
		}
		if status, ok := rec.Lookup("status"); ok && status != "available" {
			continue
		}
		if o, ok := snap.Fields[movie.ID]; ok {
			o.Apply(rec)
			movie, ok = catalog.Normalize(rec, r.cfg.Options)
			if !ok {
				continue
			}
		}
		date, ok := movie.Date()
		if !ok {
			r.logger.Debug().Str("movieId", movie.ID).Msg("Skipping movie without digital date")
			continue
		}
		if !cutoff.IsZero() && date.Before(cutoff) {
			continue
		}

		e := Entry{Record: rec, Movie: movie, Status: snap.Statuses[movie.ID]}
		e.Status.MovieID = movie.ID
		if rv, ok := snap.Reviews[movie.ID]; ok {
			e.Review = &rv
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Movie.AvailabilityDate > entries[j].Movie.AvailabilityDate
	})
	return entries, nil
}

// Regenerate rebuilds the snapshot: hidden movies are dropped, featured
// movies are flagged, and the file is replaced atomically.
func (r *Regenerator) Regenerate(ctx context.Context) (Result, error) {
	if !r.running.CompareAndSwap(false, true) {
		return Result{}, ErrRegenerationRunning
	}
	defer r.running.Store(false)

	start := time.Now()
	entries, err := r.Entries(ctx)
	if err != nil {
		return Result{}, err
	}

	res := Result{Path: r.cfg.SnapshotPath, GeneratedAt: r.now()}
	records := make([]catalog.Record, 0, len(entries))
	for _, e := range entries {
		if e.Status.Hidden {
			res.Hidden++
			continue
		}
		rec := e.Record
		if e.Status.Featured {
			rec["featured"] = true
			res.Featured++
		} else {
			delete(rec, "featured")
		}
		records = append(records, rec)
	}
	res.Count = len(records)

	if err := writeAtomic(r.cfg.SnapshotPath, func(f *os.File) error {
		return catalog.WriteSnapshot(f, records, res.GeneratedAt)
	}); err != nil {
		return Result{}, err
	}
	res.Duration = time.Since(start)

	r.logger.Info().
		Int("count", res.Count).
		Int("hidden", res.Hidden).
		Int("featured", res.Featured).
		Dur("duration", res.Duration).
		Msg("Snapshot regenerated")

	r.hooksMu.RLock()
	hooks := append([]func(Result){}, r.hooks...)
	r.hooksMu.RUnlock()
	for _, h := range hooks {
		h(res)
	}
	return res, nil
}

func writeAtomic(path string, write func(f *os.File) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to set snapshot permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}
