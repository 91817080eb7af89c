package admin

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nrw/releasewall/internal/catalog"
)

// ErrUnknownMovie is returned when an event targets a movie the board does not hold.
var ErrUnknownMovie = errors.New("unknown movie")

// StatusKind names a boolean admin flag.
type StatusKind string

const (
	StatusHidden   StatusKind = "hidden"
	StatusFeatured StatusKind = "featured"
)

// Valid reports whether k is a known status kind.
func (k StatusKind) Valid() bool {
	return k == StatusHidden || k == StatusFeatured
}

// Review is the admin review attached to a movie.
type Review struct {
	Text                 string   `json:"text"`
	Author               string   `json:"author"`
	Rating               *float64 `json:"rating,omitempty"`
	FeaturedInNewsletter bool     `json:"featuredInNewsletter"`
}

// Fields are the editable metadata fields of a movie.
type Fields struct {
	DigitalDate string
	Score       *int
	ReviewLink  string
	TrailerLink string
	Director    string
	Country     string
	Synopsis    string
	PosterURL   string
	Watch       catalog.WatchOptions
}

func (f Fields) HasScore() bool   { return f.Score != nil }
func (f Fields) HasTrailer() bool { return f.TrailerLink != "" }
func (f Fields) HasPoster() bool  { return f.PosterURL != "" }

// Missing reports whether any field the wall relies on is absent.
func (f Fields) Missing() bool {
	return !f.HasScore() || !f.HasTrailer() || !f.HasPoster() ||
		f.Director == "" || f.Director == "Unknown" || f.Country == ""
}

// FieldsFromMovie extracts the editable fields of a normalized movie.
// Placeholder posters count as no poster.
func FieldsFromMovie(m catalog.Movie, placeholder string) Fields {
	f := Fields{
		DigitalDate: m.AvailabilityDate,
		Score:       m.CriticScore,
		ReviewLink:  m.Links.ReviewSite,
		TrailerLink: m.Links.Trailer,
		Director:    m.Director,
		Country:     m.Country,
		Synopsis:    m.Synopsis,
		PosterURL:   m.Poster,
		Watch:       m.Watch,
	}
	if placeholder == "" {
		placeholder = catalog.DefaultPlaceholder
	}
	if f.PosterURL == placeholder {
		f.PosterURL = ""
	}
	return f
}

// CardState is the view-model of one admin card.
type CardState struct {
	ID       string
	Title    string
	Hidden   bool
	Featured bool
	Review   *Review
	Fields   Fields
}

// HasReview reports whether a non-empty review exists.
func (c CardState) HasReview() bool {
	return c.Review != nil && strings.TrimSpace(c.Review.Text) != ""
}

// Event is a successful server mutation applied to a card.
type Event interface {
	apply(c *CardState)
}

// StatusChanged records a toggle-status success.
type StatusChanged struct {
	Kind  StatusKind
	Value bool
}

func (e StatusChanged) apply(c *CardState) {
	switch e.Kind {
	case StatusHidden:
		c.Hidden = e.Value
	case StatusFeatured:
		c.Featured = e.Value
	}
}

// FieldsSaved records an update-movie-fields success. Blank values clear
// their field, except the score which a blank leaves unchanged.
type FieldsSaved struct {
	Form FieldsForm
}

func (e FieldsSaved) apply(c *CardState) {
	f := &c.Fields
	form := e.Form.trimmed()
	f.DigitalDate = form.DigitalDate
	if form.Score != "" {
		if n, err := strconv.Atoi(form.Score); err == nil {
			f.Score = &n
		}
	}
	f.ReviewLink = form.ReviewLink
	f.TrailerLink = form.TrailerLink
	f.Director = form.Director
	f.Country = form.Country
	f.Synopsis = form.Synopsis
	f.PosterURL = form.PosterURL
	f.Watch = catalog.WatchOptions{
		Streaming: form.Streaming.option(),
		Rent:      form.Rent.option(),
		Buy:       form.Buy.option(),
	}
}

// ReviewSaved records an update-review success.
type ReviewSaved struct {
	Review Review
}

func (e ReviewSaved) apply(c *CardState) {
	r := e.Review
	c.Review = &r
}

// ReviewDeleted records a delete-review success.
type ReviewDeleted struct{}

func (ReviewDeleted) apply(c *CardState) {
	c.Review = nil
}

// Stats are the admin header counters.
type Stats struct {
	Total       int `json:"total"`
	Visible     int `json:"visible"`
	Hidden      int `json:"hidden"`
	Featured    int `json:"featured"`
	Reviewed    int `json:"reviewed"`
	MissingData int `json:"missingData"`
}

// Board is the admin view-model keyed by movie id. It is not safe for
// concurrent use; Client serializes access.
type Board struct {
	order []string
	cards map[string]*CardState
}

// NewBoard builds a board. Later duplicates of an id are dropped.
func NewBoard(cards []CardState) *Board {
	b := &Board{cards: make(map[string]*CardState, len(cards))}
	for i := range cards {
		card := cards[i]
		if _, dup := b.cards[card.ID]; dup {
			continue
		}
		b.order = append(b.order, card.ID)
		b.cards[card.ID] = &card
	}
	return b
}

// IDs returns the movie ids in display order.
func (b *Board) IDs() []string {
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

// Card returns a copy of a card's state.
func (b *Board) Card(id string) (CardState, bool) {
	c, ok := b.cards[id]
	if !ok {
		return CardState{}, false
	}
	return *c, true
}

// Cards returns copies of every card in display order.
func (b *Board) Cards() []CardState {
	out := make([]CardState, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, *b.cards[id])
	}
	return out
}

// Apply runs an event against one card and returns its new state.
func (b *Board) Apply(id string, ev Event) (CardState, error) {
	c, ok := b.cards[id]
	if !ok {
		return CardState{}, fmt.Errorf("%w: %s", ErrUnknownMovie, id)
	}
	ev.apply(c)
	return *c, nil
}

// Stats derives the header counters from the view-model.
func (b *Board) Stats() Stats {
	var s Stats
	for _, c := range b.cards {
		s.Total++
		if c.Hidden {
			s.Hidden++
		}
		if c.Featured {
			s.Featured++
		}
		if c.HasReview() {
			s.Reviewed++
		}
		if c.Fields.Missing() {
			s.MissingData++
		}
	}
	s.Visible = s.Total - s.Hidden
	return s
}
