package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nrw/releasewall/internal/catalog"
	"github.com/nrw/releasewall/internal/testutil"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	tdb := testutil.NewTestDB(t)
	return New(tdb.Conn, tdb.Logger)
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Status(ctx, "tt1")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, s.SetStatus(ctx, "tt1", "hidden", true))
	require.NoError(t, s.SetStatus(ctx, "tt1", "featured", true))
	require.NoError(t, s.SetStatus(ctx, "tt1", "hidden", false))
	require.NoError(t, s.SetStatus(ctx, "tt2", "hidden", true))

	st, err := s.Status(ctx, "tt1")
	require.NoError(t, err)
	assert.False(t, st.Hidden)
	assert.True(t, st.Featured)

	all, err := s.Statuses(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.True(t, all["tt2"].Hidden)

	assert.Error(t, s.SetStatus(ctx, "tt1", "pinned", true))
}

func TestReviews(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	rating := 4.5

	first, err := s.SaveReview(ctx, Review{MovieID: "tt1", Text: "Great", Author: "Ann", Rating: &rating})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	require.NotNil(t, first.Rating)
	assert.Equal(t, 4.5, *first.Rating)

	second, err := s.SaveReview(ctx, Review{MovieID: "tt1", Text: "Still great", Author: "Ann", FeaturedInNewsletter: true})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "updates keep the review id")
	assert.Equal(t, "Still great", second.Text)
	assert.Nil(t, second.Rating)
	assert.True(t, second.FeaturedInNewsletter)

	all, err := s.Reviews(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, s.DeleteReview(ctx, "tt1"))
	_, err = s.Review(ctx, "tt1")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(s.DeleteReview(ctx, "tt1"), ErrNotFound))
}

func TestMergeFields(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Fields(ctx, "tt1")
	assert.True(t, errors.Is(err, ErrNotFound))

	first, err := s.MergeFields(ctx, "tt1", Overrides{"rt_score": 87, "links.trailer": "https://youtu.be/a"})
	require.NoError(t, err)
	assert.Equal(t, float64(87), first["rt_score"], "fresh values come back as stored")
	merged, err := s.MergeFields(ctx, "tt1", Overrides{"links.trailer": nil, "country": "Japan"})
	require.NoError(t, err)
	assert.Equal(t, Overrides{"rt_score": float64(87), "links.trailer": nil, "country": "Japan"}, merged)

	stored, err := s.Fields(ctx, "tt1")
	require.NoError(t, err)
	assert.Equal(t, float64(87), stored["rt_score"])
	v, ok := stored["links.trailer"]
	assert.True(t, ok, "cleared paths are kept as null")
	assert.Nil(t, v)

	all, err := s.AllFields(ctx)
	require.NoError(t, err)
	assert.Contains(t, all, "tt1")
}

func TestOverrides_Apply(t *testing.T) {
	rec := catalog.Record{
		"title": "A",
		"links": map[string]any{"trailer": "https://youtu.be/a", "rt": "https://rt/a"},
		"crew":  map[string]any{"director": "X"},
	}
	Overrides{"links.trailer": nil, "crew.director": "Y", "rt_score": 90}.Apply(rec)

	_, ok := rec.Lookup("links.trailer")
	assert.False(t, ok)
	rt, _ := rec.Lookup("links.rt")
	assert.Equal(t, "https://rt/a", rt)
	dir, _ := rec.Lookup("crew.director")
	assert.Equal(t, "Y", dir)
	assert.Equal(t, 90, rec["rt_score"])
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.SetStatus(ctx, "tt1", "hidden", true))
	_, err := s.SaveReview(ctx, Review{MovieID: "tt2", Text: "ok", Author: "B"})
	require.NoError(t, err)
	_, err = s.MergeFields(ctx, "tt3", Overrides{"country": "Chile"})
	require.NoError(t, err)

	snap, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Statuses, 1)
	assert.Len(t, snap.Reviews, 1)
	assert.Len(t, snap.Fields, 1)
}
