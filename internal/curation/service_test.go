package curation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nrw/releasewall/internal/admin"
	"github.com/nrw/releasewall/internal/catalog"
	"github.com/nrw/releasewall/internal/dataset"
	"github.com/nrw/releasewall/internal/store"
	"github.com/nrw/releasewall/internal/testutil"
	"github.com/nrw/releasewall/internal/websocket"
)

const tracking = `{"movies": {
  "tt1": {"title": "Alpha", "digital_date": "2024-03-08", "status": "available", "rt_score": 91,
          "links": {"trailer": "https://youtu.be/a"}, "crew": {"director": "Ann Lee"}, "country": "France",
          "poster": "https://img.example/a.jpg"},
  "tt2": {"title": "Beta", "digital_date": "2024-03-01", "status": "available"}
}}`

type event struct {
	Type    string
	Payload any
}

type recorder struct {
	mu     sync.Mutex
	events []event
}

func (r *recorder) Broadcast(msgType string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{msgType, payload})
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type env struct {
	svc      *Service
	store    *store.Store
	regen    *dataset.Regenerator
	events   *recorder
	snapshot string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	tdb := testutil.NewTestDB(t)
	s := store.New(tdb.Conn, tdb.Logger)

	dir := t.TempDir()
	trackingPath := filepath.Join(dir, "tracking.json")
	require.NoError(t, os.WriteFile(trackingPath, []byte(tracking), 0o644))

	snapshot := filepath.Join(dir, "data.json")
	regen := dataset.NewRegenerator(dataset.Config{
		TrackingPath: trackingPath,
		SnapshotPath: snapshot,
	}, s, tdb.Logger)
	regen.SetClock(func() time.Time { return time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC) })

	events := &recorder{}
	return &env{
		svc:      NewService(s, regen, events, Options{}, tdb.Logger),
		store:    s,
		regen:    regen,
		events:   events,
		snapshot: snapshot,
	}
}

func (e *env) snapshotMovies(t *testing.T) []catalog.Movie {
	t.Helper()
	f, err := os.Open(e.snapshot)
	require.NoError(t, err)
	defer f.Close()
	records, err := catalog.LoadSnapshot(f)
	require.NoError(t, err)
	return catalog.NormalizeAll(records, catalog.Options{})
}

func TestToggleStatus_Validation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  admin.ToggleStatusRequest
		want string
	}{
		{"no movie", admin.ToggleStatusRequest{StatusType: "hidden", Value: true}, "Missing required parameter: movie_id"},
		{"no type", admin.ToggleStatusRequest{MovieID: "tt1", Value: true}, "Missing required parameter: status_type"},
		{"no value", admin.ToggleStatusRequest{MovieID: "tt1", StatusType: "hidden"}, "Missing required parameter: value"},
		{"string value", admin.ToggleStatusRequest{MovieID: "tt1", StatusType: "hidden", Value: "true"}, "Parameter value must be boolean"},
		{"bad type", admin.ToggleStatusRequest{MovieID: "tt1", StatusType: "invalid", Value: true}, `Invalid status_type "invalid". Must be "hidden" or "featured"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := e.svc.ToggleStatus(ctx, tt.req)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.want, resp.Error)
		})
	}
	assert.Empty(t, e.events.types())
}

func TestToggleStatus(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	resp := e.svc.ToggleStatus(ctx, admin.ToggleStatusRequest{MovieID: "tt1", StatusType: "hidden", Value: true})
	require.True(t, resp.Success, resp.Error)

	st, err := e.store.Status(ctx, "tt1")
	require.NoError(t, err)
	assert.True(t, st.Hidden)
	assert.Equal(t, []string{websocket.EventMovieStatus}, e.events.types())

	board, err := e.svc.Board(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, board.Stats().Hidden)
	assert.Equal(t, 2, board.Stats().Total)
}

func TestUpdateFields_Validation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	req := func(mod func(*admin.UpdateFieldsRequest)) admin.UpdateFieldsRequest {
		r := admin.UpdateFieldsRequest{MovieID: "tt1"}
		mod(&r)
		return r
	}

	tests := []struct {
		name string
		req  admin.UpdateFieldsRequest
		want string
	}{
		{"no id", admin.UpdateFieldsRequest{}, "Movie ID required"},
		{"unknown", admin.UpdateFieldsRequest{MovieID: "tt9"}, "Movie tt9 not found in tracking database"},
		{"score 101", req(func(r *admin.UpdateFieldsRequest) { r.RTScore = admin.Some[any](float64(101)) }), "RT score must be between 0 and 100"},
		{"score float", req(func(r *admin.UpdateFieldsRequest) { r.RTScore = admin.Some[any](87.5) }), "RT score must be an integer between 0 and 100"},
		{"score text", req(func(r *admin.UpdateFieldsRequest) { r.RTScore = admin.Some[any]("8.5") }), "RT score must be an integer between 0 and 100"},
		{"score bool", req(func(r *admin.UpdateFieldsRequest) { r.RTScore = admin.Some[any](true) }), "RT score must be an integer between 0 and 100"},
		{"rt link", req(func(r *admin.UpdateFieldsRequest) { r.RTLink = admin.Some("rt.com/x") }), "RT link must be a valid URL starting with http:// or https://"},
		{"trailer", req(func(r *admin.UpdateFieldsRequest) { r.TrailerLink = admin.Some("ftp://x") }), "Trailer link must be a valid URL starting with http:// or https://"},
		{"poster", req(func(r *admin.UpdateFieldsRequest) { r.PosterURL = admin.Some("/p.jpg") }), "Poster URL must be a valid URL starting with http:// or https://"},
		{"date", req(func(r *admin.UpdateFieldsRequest) { r.DigitalDate = admin.Some("03/08/2024") }), "Digital date must be in ISO format YYYY-MM-DD (e.g., 2025-10-20)"},
		{"impossible date", req(func(r *admin.UpdateFieldsRequest) { r.DigitalDate = admin.Some("2024-02-30") }), "Digital date must be in ISO format YYYY-MM-DD (e.g., 2025-10-20)"},
		{"synopsis", req(func(r *admin.UpdateFieldsRequest) { r.Synopsis = admin.Some(strings.Repeat("a", 5001)) }), "Synopsis is too long (maximum 5000 characters)"},
		{"watch missing link", req(func(r *admin.UpdateFieldsRequest) {
			r.WatchLinks = admin.Some(map[string]admin.WatchLink{"rent": {Service: admin.Some("Apple TV")}})
		}), `Watch links rent must have "service" and "link" fields`},
		{"watch empty service", req(func(r *admin.UpdateFieldsRequest) {
			r.WatchLinks = admin.Some(map[string]admin.WatchLink{"buy": {Service: admin.Some(" "), Link: admin.Some("https://x")}})
		}), "Watch links buy service cannot be empty"},
		{"watch bad link", req(func(r *admin.UpdateFieldsRequest) {
			r.WatchLinks = admin.Some(map[string]admin.WatchLink{"streaming": {Service: admin.Some("Netflix"), Link: admin.Some("netflix.com")}})
		}), "Watch links streaming link must be a valid URL starting with http:// or https://"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := e.svc.UpdateFields(ctx, tt.req)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.want, resp.Error)
		})
	}

	_, err := e.store.Fields(ctx, "tt1")
	assert.True(t, errors.Is(err, store.ErrNotFound), "rejected edits store nothing")
}

func TestUpdateFields(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	resp := e.svc.UpdateFields(ctx, admin.UpdateFieldsRequest{
		MovieID:     "tt2",
		RTScore:     admin.Some[any](" 77 "),
		TrailerLink: admin.Some(" https://youtu.be/b "),
		Director:    admin.Some("Bo Kim"),
		Country:     admin.Null[string](),
		WatchLinks: admin.Some(map[string]admin.WatchLink{
			"streaming": {Service: admin.Some("Netflix"), Link: admin.Some("https://netflix.com/b")},
			"rent":      {Service: admin.Some("Apple TV"), Link: admin.Null[string]()},
			"other":     {Service: admin.Some("Ignored"), Link: admin.Some("https://x")},
		}),
	})
	require.True(t, resp.Success, resp.Error)
	assert.Equal(t, "Updated RT Score, Trailer, Director, Country (cleared), Watch Links and regenerated data.json", resp.Message)
	assert.Empty(t, resp.Warning)

	movies := e.snapshotMovies(t)
	require.Len(t, movies, 2)
	beta := movies[1]
	assert.Equal(t, "Beta", beta.Title)
	require.NotNil(t, beta.CriticScore)
	assert.Equal(t, 77, *beta.CriticScore)
	assert.Equal(t, "https://youtu.be/b", beta.Links.Trailer)
	assert.Equal(t, "Bo Kim", beta.Director)
	require.NotNil(t, beta.Watch.Streaming)
	assert.Equal(t, "https://netflix.com/b", beta.Watch.Streaming.URL)
	require.NotNil(t, beta.Watch.Rent)
	assert.Empty(t, beta.Watch.Rent.URL)

	assert.Equal(t, []string{websocket.EventMovieFields}, e.events.types())
}

func TestUpdateFields_NullScoreIsSkipped(t *testing.T) {
	e := newEnv(t)
	resp := e.svc.UpdateFields(context.Background(), admin.UpdateFieldsRequest{MovieID: "tt1", RTScore: admin.Null[any]()})
	assert.True(t, resp.Success)
	assert.Equal(t, "No fields to update", resp.Message)
}

func TestUpdateFields_RegenerationFailureWarns(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	// A directory where the snapshot file should be makes the rename fail.
	require.NoError(t, os.MkdirAll(filepath.Join(e.snapshot, "blocker"), 0o750))

	resp := e.svc.UpdateFields(ctx, admin.UpdateFieldsRequest{MovieID: "tt1", Country: admin.Some("Japan")})
	assert.True(t, resp.Success)
	assert.Equal(t, "Fields updated (Country) but regeneration failed", resp.Message)
	assert.NotEmpty(t, resp.Warning)

	stored, err := e.store.Fields(ctx, "tt1")
	require.NoError(t, err)
	assert.Equal(t, "Japan", stored["country"])
}

func TestReviews(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	rating := 4.5

	resp := e.svc.SaveReview(ctx, admin.ReviewRequest{MovieID: "tt1", ReviewText: "  Great  ", Rating: &rating})
	require.True(t, resp.Success, resp.Error)

	rv, err := e.store.Review(ctx, "tt1")
	require.NoError(t, err)
	assert.Equal(t, "Great", rv.Text)
	assert.Equal(t, admin.DefaultReviewAuthor, rv.Author)

	board, err := e.svc.Board(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, board.Stats().Reviewed)

	resp = e.svc.DeleteReview(ctx, admin.DeleteReviewRequest{MovieID: "tt1"})
	require.True(t, resp.Success, resp.Error)
	resp = e.svc.DeleteReview(ctx, admin.DeleteReviewRequest{MovieID: "tt1"})
	assert.False(t, resp.Success)
	assert.Equal(t, "No review found for movie tt1", resp.Error)

	assert.Equal(t, []string{websocket.EventMovieReview, websocket.EventMovieReview}, e.events.types())
}

func TestSaveReview_Validation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	high := 5.5

	tests := []struct {
		name string
		req  admin.ReviewRequest
		want string
	}{
		{"no movie", admin.ReviewRequest{ReviewText: "x"}, "movie_id is required"},
		{"blank text", admin.ReviewRequest{MovieID: "tt1", ReviewText: "   "}, "review_text is required"},
		{"too long", admin.ReviewRequest{MovieID: "tt1", ReviewText: strings.Repeat("a", 5001)}, "review_text must be at most 5000 characters"},
		{"rating", admin.ReviewRequest{MovieID: "tt1", ReviewText: "x", Rating: &high}, "rating must be less than or equal to 5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := e.svc.SaveReview(ctx, tt.req)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.want, resp.Error)
		})
	}
}

func TestRegenerate(t *testing.T) {
	e := newEnv(t)
	resp := e.svc.Regenerate(context.Background())
	require.True(t, resp.Success, resp.Error)
	assert.Equal(t, "data.json regenerated successfully", resp.Message)
	assert.Len(t, e.snapshotMovies(t), 2)
}

type busyDataset struct{ Dataset }

func (busyDataset) Regenerate(context.Context) (dataset.Result, error) {
	return dataset.Result{}, dataset.ErrRegenerationRunning
}

func TestRegenerate_AlreadyRunning(t *testing.T) {
	e := newEnv(t)
	svc := NewService(e.store, busyDataset{e.regen}, nil, Options{}, testutil.NewTestLogger(t))
	resp := svc.Regenerate(context.Background())
	assert.False(t, resp.Success)
	assert.Equal(t, "Regeneration already in progress", resp.Error)
}
