package wall

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nrw/releasewall/internal/catalog"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer("")
	require.NoError(t, err)
	return r
}

func renderDoc(t *testing.T, movies []catalog.Movie) *goquery.Document {
	t.Helper()
	html, err := newTestRenderer(t).RenderString(movies)
	require.NoError(t, err)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<div id=\"wall\">" + html + "</div>"))
	require.NoError(t, err)
	return doc
}

func score(n int) *int { return &n }

func TestRender_DateDividers(t *testing.T) {
	movies := []catalog.Movie{
		{ID: "a", Title: "A", AvailabilityDate: "2024-01-01"},
		{ID: "b", Title: "B", AvailabilityDate: "2024-01-01"},
		{ID: "c", Title: "C", AvailabilityDate: "2024-01-02"},
	}
	doc := renderDoc(t, movies)

	dividers := doc.Find(".date-divider-card")
	require.Equal(t, 2, dividers.Length())
	assert.Equal(t, "2024-01-02", dividers.Eq(0).AttrOr("data-date", ""))
	assert.Equal(t, "2024-01-01", dividers.Eq(1).AttrOr("data-date", ""))

	// Each divider directly precedes its group.
	var order []string
	doc.Find("#wall").Children().Each(func(_ int, s *goquery.Selection) {
		if s.HasClass("date-divider-card") {
			order = append(order, "divider:"+s.AttrOr("data-date", ""))
			return
		}
		order = append(order, s.AttrOr("data-movie-id", ""))
	})
	assert.Equal(t, []string{"divider:2024-01-02", "c", "divider:2024-01-01", "a", "b"}, order)

	first := dividers.Eq(0)
	assert.Equal(t, "TUE", strings.TrimSpace(first.Find(".date-day").Text()))
	assert.Equal(t, "2", strings.TrimSpace(first.Find(".date-number").Text()))
	assert.Equal(t, "JAN", strings.TrimSpace(first.Find(".date-month").Text()))
}

func TestRender_OneDividerPerUnknownDate(t *testing.T) {
	movies := []catalog.Movie{
		{ID: "a", Title: "A", AvailabilityDate: "soon"},
		{ID: "b", Title: "B", AvailabilityDate: "TBD"},
		{ID: "c", Title: "C", AvailabilityDate: "soon"},
		{ID: "d", Title: "D", AvailabilityDate: "2024-01-02"},
	}
	doc := renderDoc(t, movies)

	var order []string
	doc.Find("#wall").Children().Each(func(_ int, s *goquery.Selection) {
		if s.HasClass("date-divider-card") {
			order = append(order, "divider:"+s.AttrOr("data-date", ""))
			return
		}
		order = append(order, s.AttrOr("data-movie-id", ""))
	})
	assert.Equal(t, []string{
		"divider:2024-01-02", "d",
		"divider:soon", "a", "c",
		"divider:TBD", "b",
	}, order)
}

func TestRender_ApproximateDivider(t *testing.T) {
	doc := renderDoc(t, []catalog.Movie{{ID: "a", Title: "A", AvailabilityDate: "2024-03-09", Approximate: true}})

	content := doc.Find(".date-content")
	assert.True(t, content.HasClass("date-approximate"))
	assert.Equal(t, "~9", strings.TrimSpace(content.Find(".date-number").Text()))
}

func TestRender_WatchButtons(t *testing.T) {
	tests := []struct {
		name        string
		watch       catalog.WatchOptions
		wantLabels  []string
		wantClasses []string
	}{
		{
			name:        "nothing resolves",
			watch:       catalog.WatchOptions{},
			wantLabels:  []string{"NOT AVAILABLE"},
			wantClasses: []string{"watch-btn-disabled"},
		},
		{
			name: "streaming name shortened",
			watch: catalog.WatchOptions{
				Streaming: &catalog.WatchOption{Service: "Amazon Prime Video", URL: "https://prime.example/m"},
			},
			wantLabels:  []string{"PRIME"},
			wantClasses: []string{"watch-btn-stream"},
		},
		{
			name: "streaming missing url",
			watch: catalog.WatchOptions{
				Streaming: &catalog.WatchOption{Service: "Netflix"},
			},
			wantLabels:  []string{"NETFLIX (MISSING)"},
			wantClasses: []string{"watch-btn-error"},
		},
		{
			name: "all three",
			watch: catalog.WatchOptions{
				Streaming: &catalog.WatchOption{Service: "Disney Plus", URL: "https://disney.example/m"},
				Rent:      &catalog.WatchOption{Service: "Amazon Video", URL: "https://amazon.example/rent"},
				Buy:       &catalog.WatchOption{Service: "Apple TV", URL: "https://apple.example/buy"},
			},
			wantLabels:  []string{"DISNEY+", "AMAZON", "APPLE"},
			wantClasses: []string{"watch-btn-stream", "watch-btn-amazon", "watch-btn-apple"},
		},
		{
			name: "buy without url is skipped",
			watch: catalog.WatchOptions{
				Buy: &catalog.WatchOption{Service: "Apple TV"},
			},
			wantLabels:  []string{"NOT AVAILABLE"},
			wantClasses: []string{"watch-btn-disabled"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := renderDoc(t, []catalog.Movie{{ID: "m", Title: "M", AvailabilityDate: "2024-01-01", Watch: tt.watch}})

			var labels, classes []string
			doc.Find(".watch-btn").Each(func(_ int, s *goquery.Selection) {
				labels = append(labels, strings.TrimSpace(s.Text()))
				for _, c := range tt.wantClasses {
					if s.HasClass(c) {
						classes = append(classes, c)
					}
				}
			})
			assert.Equal(t, tt.wantLabels, labels)
			assert.Equal(t, tt.wantClasses, classes)
		})
	}
}

func TestRender_AmazonPrefersRent(t *testing.T) {
	doc := renderDoc(t, []catalog.Movie{{
		ID: "m", Title: "M", AvailabilityDate: "2024-01-01",
		Watch: catalog.WatchOptions{
			Rent: &catalog.WatchOption{Service: "Amazon Video", URL: "https://amazon.example/rent"},
			Buy:  &catalog.WatchOption{Service: "Amazon Video", URL: "https://amazon.example/buy"},
		},
	}})

	btn := doc.Find(".watch-btn-amazon")
	require.Equal(t, 1, btn.Length())
	assert.Equal(t, "https://amazon.example/rent", btn.AttrOr("href", ""))
}

func TestRender_CardText(t *testing.T) {
	movie := catalog.Movie{
		ID:               "m",
		Title:            "Dune",
		AvailabilityDate: "2024-01-01",
		Genres:           []string{"Sci-Fi", "Drama", "Adventure"},
		Studio:           "Legendary",
		RuntimeMinutes:   166,
		Country:          "United States of America",
		Cast:             []string{"A", "B", "C", "D"},
		CriticScore:      score(92),
		Links: catalog.Links{
			Trailer:    "https://youtu.be/x",
			ReviewSite: "https://rt.example/dune",
		},
	}
	doc := renderDoc(t, []catalog.Movie{movie})

	assert.Equal(t, "Sci-Fi • Drama | Legendary | 166 min", doc.Find(".bottom-meta").Text())
	assert.Equal(t, "Director Unknown", doc.Find(".director").Text())
	assert.Equal(t, "USA", doc.Find(".country").Text())
	assert.Equal(t, "Synopsis coming soon", doc.Find(".synopsis").Text())
	assert.Equal(t, "Starring A, B, C", doc.Find(".cast").Text())

	var info []string
	doc.Find(".info-btn").Each(func(_ int, s *goquery.Selection) {
		info = append(info, s.Text())
	})
	assert.Equal(t, []string{"Trailer", "RT 92"}, info, "wiki link is omitted when absent")
}

func TestRender_EscapesText(t *testing.T) {
	html, err := newTestRenderer(t).RenderString([]catalog.Movie{{
		ID: "m", Title: "<script>x</script>", AvailabilityDate: "2024-01-01",
		Synopsis: "Tom & Jerry <b>", Director: "\"Quote\"",
	}})
	require.NoError(t, err)

	assert.NotContains(t, html, "<script>")
	assert.NotContains(t, html, "<b>")
	assert.Contains(t, html, "Tom &amp; Jerry &lt;b&gt;")
}

func TestRender_PosterFallback(t *testing.T) {
	doc := renderDoc(t, []catalog.Movie{{ID: "m", Title: "M", AvailabilityDate: "2024-01-01"}})

	img := doc.Find(".card-front img")
	assert.Equal(t, catalog.DefaultPlaceholder, img.AttrOr("src", ""))
	assert.Equal(t, catalog.DefaultPlaceholder, img.AttrOr("data-fallback", ""))
	assert.NotEmpty(t, img.AttrOr("onerror", ""))
}

func TestRender_Empty(t *testing.T) {
	doc := renderDoc(t, nil)
	assert.Equal(t, "No movies in database", doc.Find(".wall-empty").Text())
}

func TestRender_ExcludesFutureViaVisible(t *testing.T) {
	today := mustDate(t, "2024-01-02")
	movies := catalog.Visible([]catalog.Movie{
		{ID: "today", Title: "T", AvailabilityDate: "2024-01-02"},
		{ID: "tomorrow", Title: "F", AvailabilityDate: "2024-01-03"},
	}, today)
	doc := renderDoc(t, movies)

	assert.Equal(t, 1, doc.Find(`.movie-card[data-movie-id="today"]`).Length())
	assert.Equal(t, 0, doc.Find(`.movie-card[data-movie-id="tomorrow"]`).Length())
}

func TestRenderInto_ReplacesWholesale(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<main id="wall"><p class="stale">old</p></main>`))
	require.NoError(t, err)
	r := newTestRenderer(t)

	require.NoError(t, r.RenderInto(doc, DefaultSelector, []catalog.Movie{{ID: "a", Title: "A", AvailabilityDate: "2024-01-01"}}))
	assert.Equal(t, 0, doc.Find(".stale").Length())
	assert.Equal(t, 1, doc.Find(".movie-card").Length())

	err = r.RenderInto(doc, "#missing", nil)
	assert.ErrorIs(t, err, ErrNoContainer)
}

func TestRenderPage(t *testing.T) {
	var buf bytes.Buffer
	err := newTestRenderer(t).RenderPage(&buf, Page{
		Movies: []catalog.Movie{{ID: "a", Title: "A", AvailabilityDate: "2024-01-01"}},
	})
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, "New Release Wall", doc.Find("title").Text())
	assert.Equal(t, 1, doc.Find("#wall .movie-card").Length())
}

func TestStreamingLabel(t *testing.T) {
	tests := map[string]string{
		"Amazon Prime Video": "PRIME",
		"Disney Plus":        "DISNEY+",
		"HBO Max":            "HBO",
		"Mubi":               "MUBI",
	}
	for in, want := range tests {
		if got := StreamingLabel(in); got != want {
			t.Errorf("StreamingLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, ok := catalog.ParseDate(s)
	require.True(t, ok, "bad date %q", s)
	return d
}
