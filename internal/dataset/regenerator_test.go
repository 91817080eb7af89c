package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nrw/releasewall/internal/catalog"
	"github.com/nrw/releasewall/internal/store"
	"github.com/nrw/releasewall/internal/testutil"
)

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

const trackingJSON = `{
  "movies": {
    "tt1": {"title": "Alpha", "digital_date": "2024-03-08", "status": "available", "rt_score": 91,
            "links": {"trailer": "https://youtu.be/a"}, "crew": {"director": "Ann Lee"}},
    "tt2": {"title": "Beta", "digital_date": "2024-03-01", "status": "available"},
    "tt3": {"title": "Gamma", "digital_date": "2024-02-20"},
    "tt4": {"title": "Delta", "digital_date": "2024-03-05", "status": "tracking"},
    "tt5": {"title": "Old", "digital_date": "2023-01-01", "status": "available"},
    "tt6": {"title": "Undated", "status": "available"}
  }
}`

type fakeOverrides struct {
	snap store.Snapshot
	err  error
}

func (f fakeOverrides) Load(context.Context) (store.Snapshot, error) {
	return f.snap, f.err
}

func writeTracking(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func newRegen(t *testing.T, overrides OverrideSource) *Regenerator {
	t.Helper()
	cfg := Config{
		TrackingPath: writeTracking(t, "tracking.json", trackingJSON),
		SnapshotPath: filepath.Join(t.TempDir(), "out", "data.json"),
		DaysBack:     90,
	}
	r := NewRegenerator(cfg, overrides, testutil.NewTestLogger(t))
	r.SetClock(func() time.Time { return fixedNow })
	return r
}

func readSnapshot(t *testing.T, path string) []catalog.Movie {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := catalog.LoadSnapshot(f)
	require.NoError(t, err)
	return catalog.NormalizeAll(records, catalog.Options{})
}

func titles(movies []catalog.Movie) []string {
	out := make([]string, len(movies))
	for i, m := range movies {
		out[i] = m.Title
	}
	return out
}

func TestEntries_FiltersAndSorts(t *testing.T) {
	r := newRegen(t, fakeOverrides{})

	entries, err := r.Entries(context.Background())
	require.NoError(t, err)

	got := make([]string, len(entries))
	for i, e := range entries {
		got[i] = e.Movie.Title
	}
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, got)
}

func TestEntries_AllDates(t *testing.T) {
	r := newRegen(t, fakeOverrides{})
	r.cfg.DaysBack = 0

	entries, err := r.Entries(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 4)
	assert.Equal(t, "Old", entries[3].Movie.Title)
}

func TestRegenerate_AppliesOverrides(t *testing.T) {
	rating := 4.0
	r := newRegen(t, fakeOverrides{snap: store.Snapshot{
		Statuses: map[string]store.Status{
			"tt2": {Hidden: true},
			"tt3": {Featured: true},
		},
		Reviews: map[string]store.Review{
			"tt1": {Text: "Great", Author: "Ann", Rating: &rating},
		},
		Fields: map[string]store.Overrides{
			"tt1": {"rt_score": 55, "links.trailer": nil, "country": "Japan"},
			"tt3": {"digital_date": "2024-03-09"},
		},
	}})

	var hooked []Result
	r.OnRegenerated(func(res Result) { hooked = append(hooked, res) })

	res, err := r.Regenerate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, 1, res.Hidden)
	assert.Equal(t, 1, res.Featured)
	assert.Equal(t, fixedNow, res.GeneratedAt)
	require.Len(t, hooked, 1)

	movies := readSnapshot(t, r.SnapshotPath())
	assert.Equal(t, []string{"Gamma", "Alpha"}, titles(movies), "date override reorders")
	assert.True(t, movies[0].Featured)
	assert.False(t, movies[1].Featured)
	require.NotNil(t, movies[1].CriticScore)
	assert.Equal(t, 55, *movies[1].CriticScore)
	assert.Empty(t, movies[1].Links.Trailer)
	assert.Equal(t, "Japan", movies[1].Country)
	assert.Equal(t, "Ann Lee", movies[1].Director)
}

func TestRegenerate_ReplacesSnapshot(t *testing.T) {
	r := newRegen(t, fakeOverrides{})
	require.NoError(t, os.MkdirAll(filepath.Dir(r.SnapshotPath()), 0o750))
	require.NoError(t, os.WriteFile(r.SnapshotPath(), []byte("stale"), 0o644))

	_, err := r.Regenerate(context.Background())
	require.NoError(t, err)

	assert.Len(t, readSnapshot(t, r.SnapshotPath()), 3)
	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(r.SnapshotPath()), ".*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestRegenerate_OverrideFailureKeepsSnapshot(t *testing.T) {
	r := newRegen(t, fakeOverrides{err: errors.New("db gone")})
	require.NoError(t, os.MkdirAll(filepath.Dir(r.SnapshotPath()), 0o750))
	require.NoError(t, os.WriteFile(r.SnapshotPath(), []byte("previous"), 0o644))

	_, err := r.Regenerate(context.Background())
	require.Error(t, err)

	data, err := os.ReadFile(r.SnapshotPath())
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))
	assert.False(t, r.Running())
}

type blockingOverrides struct {
	entered chan struct{}
	release chan struct{}
}

func (b blockingOverrides) Load(context.Context) (store.Snapshot, error) {
	close(b.entered)
	<-b.release
	return store.Snapshot{}, nil
}

func TestRegenerate_SingleFlight(t *testing.T) {
	b := blockingOverrides{entered: make(chan struct{}), release: make(chan struct{})}
	r := newRegen(t, b)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := r.Regenerate(context.Background())
		assert.NoError(t, err)
	}()

	<-b.entered
	assert.True(t, r.Running())
	_, err := r.Regenerate(context.Background())
	assert.True(t, errors.Is(err, ErrRegenerationRunning))

	close(b.release)
	wg.Wait()
	assert.False(t, r.Running())
}

func TestRegenerate_WithStore(t *testing.T) {
	ctx := context.Background()
	tdb := testutil.NewTestDB(t)
	s := store.New(tdb.Conn, tdb.Logger)
	require.NoError(t, s.SetStatus(ctx, "tt1", "hidden", true))
	_, err := s.MergeFields(ctx, "tt2", store.Overrides{"rt_score": 70})
	require.NoError(t, err)

	r := newRegen(t, s)
	res, err := r.Regenerate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)

	movies := readSnapshot(t, r.SnapshotPath())
	assert.Equal(t, []string{"Beta", "Gamma"}, titles(movies))
	require.NotNil(t, movies[0].CriticScore)
	assert.Equal(t, 70, *movies[0].CriticScore)
}

func TestTracked(t *testing.T) {
	r := newRegen(t, fakeOverrides{})
	ctx := context.Background()

	ok, err := r.Tracked(ctx, "tt4")
	require.NoError(t, err)
	assert.True(t, ok, "status does not matter")

	ok, err = r.Tracked(ctx, "tt99")
	require.NoError(t, err)
	assert.False(t, ok)
}
