package admin

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/nrw/releasewall/internal/catalog"
)

// Review limits.
const (
	MaxReviewLength = 5000
	MinRating       = 0.0
	MaxRating       = 5.0
)

// ValidationError is a client-side rejection. No request is sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// WatchLinkInput is one row of the watch link editor.
type WatchLinkInput struct {
	Service string
	Link    string
}

func (w WatchLinkInput) complete() bool {
	return w.Service != "" && w.Link != ""
}

func (w WatchLinkInput) option() *catalog.WatchOption {
	if !w.complete() {
		return nil
	}
	return &catalog.WatchOption{Service: w.Service, URL: w.Link}
}

// FieldsForm is the raw content of a card's field editor.
type FieldsForm struct {
	DigitalDate string
	Score       string
	ReviewLink  string
	TrailerLink string
	Director    string
	Country     string
	Synopsis    string
	PosterURL   string
	Streaming   WatchLinkInput
	Rent        WatchLinkInput
	Buy         WatchLinkInput
}

func (f FieldsForm) trimmed() FieldsForm {
	trim := strings.TrimSpace
	f.DigitalDate = trim(f.DigitalDate)
	f.Score = trim(f.Score)
	f.ReviewLink = trim(f.ReviewLink)
	f.TrailerLink = trim(f.TrailerLink)
	f.Director = trim(f.Director)
	f.Country = trim(f.Country)
	f.Synopsis = trim(f.Synopsis)
	f.PosterURL = trim(f.PosterURL)
	for _, w := range []*WatchLinkInput{&f.Streaming, &f.Rent, &f.Buy} {
		w.Service, w.Link = trim(w.Service), trim(w.Link)
	}
	return f
}

// Validate checks what can be checked without the server.
func (f FieldsForm) Validate() error {
	f = f.trimmed()
	if f.Score != "" {
		n, err := strconv.Atoi(f.Score)
		if err != nil || n < 0 || n > 100 {
			return &ValidationError{Field: "rt_score", Message: "RT score must be an integer between 0 and 100"}
		}
	}
	return nil
}

// Request builds the wire body. Blank strings become null; only watch
// categories with both a service and a link are sent.
func (f FieldsForm) Request(movieID string) UpdateFieldsRequest {
	f = f.trimmed()
	req := UpdateFieldsRequest{
		MovieID:     movieID,
		DigitalDate: nullString(f.DigitalDate),
		RTScore:     Null[any](),
		RTLink:      nullString(f.ReviewLink),
		TrailerLink: nullString(f.TrailerLink),
		Director:    nullString(f.Director),
		Country:     nullString(f.Country),
		Synopsis:    nullString(f.Synopsis),
		PosterURL:   nullString(f.PosterURL),
		WatchLinks:  Null[map[string]WatchLink](),
	}
	if n, err := strconv.Atoi(f.Score); err == nil {
		req.RTScore = Some[any](n)
	}

	links := map[string]WatchLink{}
	for category, w := range map[string]WatchLinkInput{
		catalog.WatchStreaming: f.Streaming,
		catalog.WatchRent:      f.Rent,
		catalog.WatchBuy:       f.Buy,
	} {
		if w.complete() {
			links[category] = WatchLink{Service: Some(w.Service), Link: Some(w.Link)}
		}
	}
	if len(links) > 0 {
		req.WatchLinks = Some(links)
	}
	return req
}

func nullString(s string) Nullable[string] {
	if s == "" {
		return Null[string]()
	}
	return Some(s)
}

// ReviewForm is the raw content of a card's review editor.
type ReviewForm struct {
	Text                 string
	Author               string
	Rating               string
	FeaturedInNewsletter bool
}

// Validate applies the review rules: text required and at most
// MaxReviewLength characters, rating blank or within [0, 5].
func (f ReviewForm) Validate() error {
	text := strings.TrimSpace(f.Text)
	if text == "" {
		return &ValidationError{Field: "review_text", Message: "Please enter review text before saving."}
	}
	if utf8.RuneCountInString(text) > MaxReviewLength {
		return &ValidationError{Field: "review_text", Message: "Review text is too long (max 5000 characters)."}
	}
	if _, err := f.rating(); err != nil {
		return err
	}
	return nil
}

func (f ReviewForm) rating() (*float64, error) {
	raw := strings.TrimSpace(f.Rating)
	if raw == "" {
		return nil, nil
	}
	r, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(r) || r < MinRating || r > MaxRating {
		return nil, &ValidationError{Field: "rating", Message: "Rating must be between 0 and 5."}
	}
	return &r, nil
}

// Request builds the wire body. A blank author becomes defaultAuthor.
// Call Validate first.
func (f ReviewForm) Request(movieID, defaultAuthor string) ReviewRequest {
	author := strings.TrimSpace(f.Author)
	if author == "" {
		author = defaultAuthor
	}
	rating, _ := f.rating()
	return ReviewRequest{
		MovieID:              movieID,
		ReviewText:           strings.TrimSpace(f.Text),
		Author:               author,
		Rating:               rating,
		FeaturedInNewsletter: f.FeaturedInNewsletter,
	}
}

// Review converts a sent request into the view-model review.
func (r ReviewRequest) Review() Review {
	return Review{
		Text:                 r.ReviewText,
		Author:               r.Author,
		Rating:               r.Rating,
		FeaturedInNewsletter: r.FeaturedInNewsletter,
	}
}
