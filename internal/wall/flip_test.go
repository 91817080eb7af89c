package wall

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nrw/releasewall/internal/catalog"
)

func flipFixture(t *testing.T) (*goquery.Document, *FlipController, *Renderer) {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<html><body><main id="wall"></main><div class="movie-card outside"><span class="x">x</span></div></body></html>`))
	require.NoError(t, err)
	r := newTestRenderer(t)
	require.NoError(t, r.RenderInto(doc, DefaultSelector, []catalog.Movie{
		{ID: "a", Title: "A", AvailabilityDate: "2024-01-01", Links: catalog.Links{Trailer: "https://youtu.be/a"}},
		{ID: "b", Title: "B", AvailabilityDate: "2024-01-01"},
	}))
	flip, err := AttachFlip(doc, DefaultSelector)
	require.NoError(t, err)
	return doc, flip, r
}

func TestFlip_TogglesNearestCard(t *testing.T) {
	doc, flip, _ := flipFixture(t)
	poster := doc.Find(`.movie-card[data-movie-id="a"] img`)

	assert.True(t, flip.Click(poster))
	assert.True(t, Flipped(poster))
	assert.False(t, Flipped(doc.Find(`.movie-card[data-movie-id="b"] img`)), "other cards untouched")

	assert.True(t, flip.Click(doc.Find(`.movie-card[data-movie-id="a"] .synopsis`)))
	assert.False(t, Flipped(poster))
}

func TestFlip_IgnoredTargets(t *testing.T) {
	doc, flip, _ := flipFixture(t)

	tests := []struct {
		name   string
		target *goquery.Selection
	}{
		{"link", doc.Find(`.movie-card[data-movie-id="a"] .info-btn`).First()},
		{"disabled button link", doc.Find(`.movie-card[data-movie-id="b"] .watch-btn`).First()},
		{"info line", doc.Find(`.movie-container[data-movie-id="a"] .movie-info .director`)},
		{"outside wall", doc.Find(".outside .x")},
		{"divider", doc.Find(".date-divider-card .date-day")},
		{"empty selection", doc.Find(".nope")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotNil(t, tt.target)
			assert.False(t, flip.Click(tt.target))
		})
	}
	assert.Equal(t, 0, doc.Find(".movie-card.flipped").Length())
}

func TestFlip_SurvivesRerender(t *testing.T) {
	doc, flip, r := flipFixture(t)

	require.NoError(t, r.RenderInto(doc, DefaultSelector, []catalog.Movie{
		{ID: "c", Title: "C", AvailabilityDate: "2024-02-01"},
	}))

	target := doc.Find(`.movie-card[data-movie-id="c"] .synopsis`)
	assert.True(t, flip.Click(target))
	assert.True(t, Flipped(target))
}

func TestAttachFlip_Once(t *testing.T) {
	doc, _, _ := flipFixture(t)

	_, err := AttachFlip(doc, DefaultSelector)
	assert.ErrorIs(t, err, ErrFlipAttached)

	_, err = AttachFlip(doc, "#missing")
	assert.ErrorIs(t, err, ErrNoContainer)
}
