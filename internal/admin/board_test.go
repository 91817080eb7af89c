package admin

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nrw/releasewall/internal/catalog"
)

func intPtr(n int) *int { return &n }

func completeFields() Fields {
	return Fields{
		DigitalDate: "2024-03-01",
		Score:       intPtr(91),
		TrailerLink: "https://youtu.be/abc",
		Director:    "Jane Doe",
		Country:     "France",
		PosterURL:   "https://img.example/p.jpg",
	}
}

func testBoard() *Board {
	return NewBoard([]CardState{
		{ID: "tt1", Title: "Alpha", Fields: completeFields()},
		{ID: "tt2", Title: "Beta", Hidden: true, Fields: Fields{Director: "Unknown"}},
		{ID: "tt3", Title: "Gamma", Featured: true, Review: &Review{Text: "Loved it", Author: "Ann"}, Fields: completeFields()},
	})
}

func TestFields_Missing(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Fields)
		want   bool
	}{
		{"complete", func(*Fields) {}, false},
		{"no score", func(f *Fields) { f.Score = nil }, true},
		{"zero score counts", func(f *Fields) { f.Score = intPtr(0) }, false},
		{"no trailer", func(f *Fields) { f.TrailerLink = "" }, true},
		{"no poster", func(f *Fields) { f.PosterURL = "" }, true},
		{"unknown director", func(f *Fields) { f.Director = "Unknown" }, true},
		{"no country", func(f *Fields) { f.Country = "" }, true},
		{"no synopsis is fine", func(f *Fields) { f.Synopsis = "" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := completeFields()
			tt.modify(&f)
			assert.Equal(t, tt.want, f.Missing())
		})
	}
}

func TestFieldsFromMovie_PlaceholderPoster(t *testing.T) {
	m := catalog.Movie{Poster: catalog.DefaultPlaceholder}
	assert.Empty(t, FieldsFromMovie(m, "").PosterURL)

	m.Poster = "https://img.example/p.jpg"
	assert.Equal(t, m.Poster, FieldsFromMovie(m, "").PosterURL)
}

func TestBoard_Stats(t *testing.T) {
	b := testBoard()
	assert.Equal(t, Stats{Total: 3, Visible: 2, Hidden: 1, Featured: 1, Reviewed: 1, MissingData: 1}, b.Stats())
}

func TestBoard_ApplyStatus(t *testing.T) {
	b := testBoard()
	before := b.Stats()

	card, err := b.Apply("tt1", StatusChanged{Kind: StatusHidden, Value: true})
	require.NoError(t, err)
	assert.True(t, card.Hidden)

	after := b.Stats()
	assert.Equal(t, before.Total, after.Total)
	assert.Equal(t, before.Visible-1, after.Visible)
	assert.Equal(t, before.Hidden+1, after.Hidden)
}

func TestBoard_ApplyUnknown(t *testing.T) {
	_, err := testBoard().Apply("nope", ReviewDeleted{})
	assert.True(t, errors.Is(err, ErrUnknownMovie))
}

func TestBoard_FieldsSaved(t *testing.T) {
	b := testBoard()

	card, err := b.Apply("tt1", FieldsSaved{Form: FieldsForm{
		DigitalDate: " 2024-04-02 ",
		Director:    "New Director",
		Streaming:   WatchLinkInput{Service: "Netflix", Link: "https://netflix.com/x"},
		Rent:        WatchLinkInput{Service: "Apple TV"},
	}})
	require.NoError(t, err)

	assert.Equal(t, "2024-04-02", card.Fields.DigitalDate)
	assert.Equal(t, 91, *card.Fields.Score, "blank score leaves it unchanged")
	assert.Empty(t, card.Fields.TrailerLink, "blank clears")
	assert.Equal(t, "New Director", card.Fields.Director)
	require.NotNil(t, card.Fields.Watch.Streaming)
	assert.Equal(t, "Netflix", card.Fields.Watch.Streaming.Service)
	assert.Nil(t, card.Fields.Watch.Rent, "incomplete rows are dropped")
	assert.True(t, card.Fields.Missing())
}

func TestBoard_Reviews(t *testing.T) {
	b := testBoard()

	card, err := b.Apply("tt1", ReviewSaved{Review: Review{Text: "Fine", Author: "Bob"}})
	require.NoError(t, err)
	assert.True(t, card.HasReview())
	assert.Equal(t, 2, b.Stats().Reviewed)

	card, err = b.Apply("tt3", ReviewDeleted{})
	require.NoError(t, err)
	assert.False(t, card.HasReview())
	assert.Equal(t, 1, b.Stats().Reviewed)
}

func TestCardState_BlankReviewIsNoReview(t *testing.T) {
	c := CardState{Review: &Review{Text: "   "}}
	assert.False(t, c.HasReview())
}

func TestNewBoard_DropsDuplicates(t *testing.T) {
	b := NewBoard([]CardState{{ID: "a", Title: "first"}, {ID: "b"}, {ID: "a", Title: "second"}})
	assert.Equal(t, []string{"a", "b"}, b.IDs())
	card, ok := b.Card("a")
	require.True(t, ok)
	assert.Equal(t, "first", card.Title)
}

func TestFieldsForm_Validate(t *testing.T) {
	tests := []struct {
		score   string
		wantErr bool
	}{
		{"", false},
		{"0", false},
		{"100", false},
		{" 87 ", false},
		{"101", true},
		{"-1", true},
		{"8.5", true},
		{"abc", true},
	}
	for _, tt := range tests {
		err := FieldsForm{Score: tt.score}.Validate()
		if tt.wantErr {
			assert.Error(t, err, "score %q", tt.score)
		} else {
			assert.NoError(t, err, "score %q", tt.score)
		}
	}
}

func TestFieldsForm_Request(t *testing.T) {
	req := FieldsForm{
		Score:     "75",
		Director:  "  ",
		Country:   "Japan",
		Streaming: WatchLinkInput{Service: "Netflix", Link: "https://netflix.com/x"},
		Buy:       WatchLinkInput{Link: "https://store/x"},
	}.Request("tt1")

	assert.Equal(t, "tt1", req.MovieID)
	assert.True(t, req.RTScore.Valid)
	assert.Equal(t, 75, req.RTScore.Value)
	assert.True(t, req.Director.Set)
	assert.False(t, req.Director.Valid, "blank becomes null")
	assert.Equal(t, "Japan", req.Country.Value)
	require.True(t, req.WatchLinks.Valid)
	assert.Len(t, req.WatchLinks.Value, 1)
	assert.Equal(t, "Netflix", req.WatchLinks.Value[catalog.WatchStreaming].Service.Value)

	empty := FieldsForm{}.Request("tt1")
	assert.True(t, empty.WatchLinks.Set)
	assert.False(t, empty.WatchLinks.Valid)
	assert.False(t, empty.RTScore.Valid)
}

func TestReviewForm_Validate(t *testing.T) {
	long := make([]rune, MaxReviewLength+1)
	for i := range long {
		long[i] = 'a'
	}

	tests := []struct {
		name    string
		form    ReviewForm
		wantMsg string
	}{
		{"ok", ReviewForm{Text: "Good", Rating: "4.5"}, ""},
		{"max length", ReviewForm{Text: string(long[:MaxReviewLength])}, ""},
		{"upper rating", ReviewForm{Text: "x", Rating: "5.0"}, ""},
		{"lower rating", ReviewForm{Text: "x", Rating: "0"}, ""},
		{"blank text", ReviewForm{Text: "   "}, "Please enter review text before saving."},
		{"too long", ReviewForm{Text: string(long)}, "Review text is too long (max 5000 characters)."},
		{"rating high", ReviewForm{Text: "x", Rating: "5.5"}, "Rating must be between 0 and 5."},
		{"rating negative", ReviewForm{Text: "x", Rating: "-1"}, "Rating must be between 0 and 5."},
		{"rating garbage", ReviewForm{Text: "x", Rating: "great"}, "Rating must be between 0 and 5."},
		{"rating NaN", ReviewForm{Text: "x", Rating: "NaN"}, "Rating must be between 0 and 5."},
		{"rating infinite", ReviewForm{Text: "x", Rating: "+Inf"}, "Rating must be between 0 and 5."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.form.Validate()
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantMsg, ve.Message)
		})
	}
}

func TestReviewForm_RequestDefaultsAuthor(t *testing.T) {
	req := ReviewForm{Text: " Nice ", Rating: "3"}.Request("tt1", DefaultReviewAuthor)
	assert.Equal(t, "Nice", req.ReviewText)
	assert.Equal(t, DefaultReviewAuthor, req.Author)
	require.NotNil(t, req.Rating)
	assert.Equal(t, 3.0, *req.Rating)
}
