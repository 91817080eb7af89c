package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nrw/releasewall/internal/catalog"
)

func TestLibrary_CachesUntilChanged(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"movies":[{"id":"a","title":"A","digital_date":"2024-01-01"}]}`), 0o644))

	lib := NewLibrary(path, catalog.Options{})
	movies, err := lib.Movies(ctx)
	require.NoError(t, err)
	require.Len(t, movies, 1)
	assert.Equal(t, "A", movies[0].Title)

	require.NoError(t, os.WriteFile(path, []byte(`[{"title":"B"},{"title":"C"}]`), 0o644))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	records, err := lib.Records(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	lib.Invalidate()
	movies, err = lib.Movies(ctx)
	require.NoError(t, err)
	assert.Equal(t, "B", movies[0].Title)
}

func TestLibrary_MissingSnapshot(t *testing.T) {
	lib := NewLibrary(filepath.Join(t.TempDir(), "none.json"), catalog.Options{})
	_, err := lib.Movies(context.Background())
	assert.Error(t, err)
}
