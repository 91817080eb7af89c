package admin

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nrw/releasewall/internal/catalog"
	"github.com/nrw/releasewall/internal/dom"
)

//go:embed templates/admin.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("templates").Funcs(template.FuncMap{
	"yesno": yesno,
}).ParseFS(templateFS, "templates/admin.html"))

// Status button labels.
const (
	labelHide      = "🚫 Hide"
	labelShow      = "👁️ Show"
	labelFeature   = "⭐ Feature"
	labelUnfeature = "⭐ Unfeature"
)

// Filter is an admin grid filter.
type Filter string

const (
	FilterAll         Filter = "all"
	FilterVisible     Filter = "visible"
	FilterHidden      Filter = "hidden"
	FilterFeatured    Filter = "featured"
	FilterNoScore     Filter = "no-score"
	FilterNoTrailer   Filter = "no-trailer"
	FilterNoPoster    Filter = "no-poster"
	FilterMissingData Filter = "missing-data"
	FilterReviewed    Filter = "reviewed"
)

var filters = []struct {
	Key   Filter
	Label string
}{
	{FilterAll, "All Movies"},
	{FilterVisible, "Visible"},
	{FilterHidden, "Hidden"},
	{FilterFeatured, "Featured"},
	{FilterNoScore, "No Score"},
	{FilterNoTrailer, "No Trailer"},
	{FilterNoPoster, "No Poster"},
	{FilterMissingData, "Missing Data"},
	{FilterReviewed, "Reviewed"},
}

// ParseFilter validates a filter name.
func ParseFilter(s string) (Filter, error) {
	for _, f := range filters {
		if string(f.Key) == s {
			return f.Key, nil
		}
	}
	return "", fmt.Errorf("unknown filter %q", s)
}

type watchRow struct {
	Category string
	Service  string
	Link     string
}

type cardView struct {
	CardState
	SearchTitle    string
	PosterSrc      string
	DigitalDate    string
	Score          string
	ReviewLink     string
	TrailerLink    string
	Director       string
	Country        string
	Synopsis       string
	PosterURL      string
	Watch          []watchRow
	ReviewText     string
	ReviewAuthor   string
	ReviewRating   string
	ReviewFeatured bool
	HasScore       bool
	HasTrailer     bool
	HasPoster      bool
	Missing        bool
}

// PageOptions tune the server-rendered admin page.
type PageOptions struct {
	DefaultAuthor string
	Placeholder   string
}

// RenderPage writes the admin page for a board.
func RenderPage(w io.Writer, b *Board, opts PageOptions) error {
	if opts.Placeholder == "" {
		opts.Placeholder = catalog.DefaultPlaceholder
	}
	cards := b.Cards()
	views := make([]cardView, 0, len(cards))
	for _, c := range cards {
		views = append(views, newCardView(c, opts))
	}
	data := struct {
		Stats   Stats
		Filters any
		Cards   []cardView
	}{
		Stats:   b.Stats(),
		Filters: filters,
		Cards:   views,
	}
	if err := pageTemplate.ExecuteTemplate(w, "admin", data); err != nil {
		return fmt.Errorf("failed to render admin page: %w", err)
	}
	return nil
}

func newCardView(c CardState, opts PageOptions) cardView {
	f := c.Fields
	v := cardView{
		CardState:    c,
		SearchTitle:  strings.ToLower(c.Title),
		PosterSrc:    f.PosterURL,
		DigitalDate:  f.DigitalDate,
		ReviewLink:   f.ReviewLink,
		TrailerLink:  f.TrailerLink,
		Director:     f.Director,
		Country:      f.Country,
		Synopsis:     f.Synopsis,
		PosterURL:    f.PosterURL,
		HasScore:     f.HasScore(),
		HasTrailer:   f.HasTrailer(),
		HasPoster:    f.HasPoster(),
		Missing:      f.Missing(),
		ReviewAuthor: opts.DefaultAuthor,
	}
	if v.PosterSrc == "" {
		v.PosterSrc = opts.Placeholder
	}
	if f.Score != nil {
		v.Score = strconv.Itoa(*f.Score)
	}
	for _, category := range []string{catalog.WatchStreaming, catalog.WatchRent, catalog.WatchBuy} {
		row := watchRow{Category: category}
		if opt := f.Watch.Get(category); opt != nil {
			row.Service, row.Link = opt.Service, opt.URL
		}
		v.Watch = append(v.Watch, row)
	}
	if r := c.Review; r != nil {
		v.ReviewText = r.Text
		if r.Author != "" {
			v.ReviewAuthor = r.Author
		}
		if r.Rating != nil {
			v.ReviewRating = formatRating(*r.Rating)
		}
		v.ReviewFeatured = r.FeaturedInNewsletter
	}
	return v
}

func formatRating(r float64) string {
	return strconv.FormatFloat(r, 'f', -1, 64)
}

func yesno(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// Page is the admin document. It is a projection of a Board: every patch
// writes state into the document, never the other way round, except for
// BoardFromPage which hydrates a board from a freshly loaded page.
type Page struct {
	doc *goquery.Document
}

// NewPage wraps a parsed admin document.
func NewPage(doc *goquery.Document) *Page {
	return &Page{doc: doc}
}

// Document returns the underlying document.
func (p *Page) Document() *goquery.Document {
	return p.doc
}

// Card finds a movie card by id.
func (p *Page) Card(id string) *goquery.Selection {
	return p.doc.Find(fmt.Sprintf(".movie-card[data-movie-id=%q]", id)).First()
}

func (p *Page) field(prefix, id string) *goquery.Selection {
	return dom.ByID(p.doc, prefix+"-"+id)
}

// StatusButton returns the hide/show or feature/unfeature button of a card.
func (p *Page) StatusButton(id string, kind StatusKind) dom.Control {
	sel := ".btn-hide, .btn-show"
	if kind == StatusFeatured {
		sel = ".btn-feature, .btn-unfeature"
	}
	return dom.NewControl(p.Card(id).Find(".movie-actions").Find(sel).First())
}

// SaveFieldsButton returns the field editor's save button.
func (p *Page) SaveFieldsButton(id string) dom.Control {
	return dom.NewControl(p.Card(id).Find(".save-btn").First())
}

// SaveReviewButton returns the review editor's save button.
func (p *Page) SaveReviewButton(id string) dom.Control {
	return dom.NewControl(p.Card(id).Find(".review-save-btn").First())
}

// DeleteReviewButton returns the review delete button.
func (p *Page) DeleteReviewButton(id string) dom.Control {
	return dom.NewControl(p.Card(id).Find(".review-delete-btn").First())
}

// RegenerateButton returns the toolbar regenerate button.
func (p *Page) RegenerateButton() dom.Control {
	return dom.NewControl(dom.ByID(p.doc, "regenerate-btn"))
}

// SetRegenerateStatus writes the status line next to the regenerate button.
func (p *Page) SetRegenerateStatus(text string) {
	dom.ByID(p.doc, "regenerate-status").SetText(text)
}

// RegenerateStatus reads the status line.
func (p *Page) RegenerateStatus() string {
	return dom.ByID(p.doc, "regenerate-status").Text()
}

// ReadFieldsForm reads the current field editor values of a card.
func (p *Page) ReadFieldsForm(id string) FieldsForm {
	val := func(prefix string) string { return dom.Value(p.field(prefix, id)) }
	return FieldsForm{
		DigitalDate: val("digital-date"),
		Score:       val("rt-score"),
		ReviewLink:  val("rt-link"),
		TrailerLink: val("trailer-link"),
		Director:    val("director"),
		Country:     val("country"),
		Synopsis:    val("synopsis"),
		PosterURL:   val("poster-url"),
		Streaming:   WatchLinkInput{Service: val("streaming-service"), Link: val("streaming-link")},
		Rent:        WatchLinkInput{Service: val("rent-service"), Link: val("rent-link")},
		Buy:         WatchLinkInput{Service: val("buy-service"), Link: val("buy-link")},
	}
}

// WriteFieldsForm fills a card's field editor.
func (p *Page) WriteFieldsForm(id string, f FieldsForm) {
	set := func(prefix, v string) { dom.SetValue(p.field(prefix, id), v) }
	set("digital-date", f.DigitalDate)
	set("rt-score", f.Score)
	set("rt-link", f.ReviewLink)
	set("trailer-link", f.TrailerLink)
	set("director", f.Director)
	set("country", f.Country)
	set("synopsis", f.Synopsis)
	set("poster-url", f.PosterURL)
	set("streaming-service", f.Streaming.Service)
	set("streaming-link", f.Streaming.Link)
	set("rent-service", f.Rent.Service)
	set("rent-link", f.Rent.Link)
	set("buy-service", f.Buy.Service)
	set("buy-link", f.Buy.Link)
}

// ReadReviewForm reads the current review editor values of a card.
func (p *Page) ReadReviewForm(id string) ReviewForm {
	return ReviewForm{
		Text:                 dom.Value(p.field("review-text", id)),
		Author:               dom.Value(p.field("review-author", id)),
		Rating:               dom.Value(p.field("review-rating", id)),
		FeaturedInNewsletter: dom.Checked(p.field("review-featured", id)),
	}
}

// WriteReviewForm fills a card's review editor.
func (p *Page) WriteReviewForm(id string, f ReviewForm) {
	dom.SetValue(p.field("review-text", id), f.Text)
	dom.SetValue(p.field("review-author", id), f.Author)
	dom.SetValue(p.field("review-rating", id), f.Rating)
	dom.SetChecked(p.field("review-featured", id), f.FeaturedInNewsletter)
}

// ClearReviewForm resets a card's review editor to its defaults.
func (p *Page) ClearReviewForm(id, defaultAuthor string) {
	p.WriteReviewForm(id, ReviewForm{Author: defaultAuthor})
}

// MarkFieldsPopulated restyles the field inputs of a card from their
// current values.
func (p *Page) MarkFieldsPopulated(id string) {
	for _, prefix := range []string{"digital-date", "rt-score", "rt-link", "trailer-link", "director", "country", "poster-url"} {
		sel := p.field(prefix, id)
		if strings.TrimSpace(dom.Value(sel)) != "" {
			sel.RemoveClass("field-missing")
		} else {
			sel.AddClass("field-missing")
		}
	}
}

// Project writes a card's state into the document: status classes, data
// attributes, status buttons, review styling and the delete affordance.
func (p *Page) Project(c CardState) {
	card := p.Card(c.ID)
	if card.Length() == 0 {
		return
	}
	setClass(card, "hidden", c.Hidden)
	setClass(card, "featured", c.Featured)
	card.SetAttr("data-has-review", yesno(c.HasReview()))
	card.SetAttr("data-has-score", yesno(c.Fields.HasScore()))
	card.SetAttr("data-has-trailer", yesno(c.Fields.HasTrailer()))
	card.SetAttr("data-has-poster", yesno(c.Fields.HasPoster()))
	card.SetAttr("data-missing-any", yesno(c.Fields.Missing()))

	hide := card.Find(".movie-actions .btn-hide, .movie-actions .btn-show").First()
	if c.Hidden {
		hide.SetAttr("class", "action-btn btn-show").SetText(labelShow)
	} else {
		hide.SetAttr("class", "action-btn btn-hide").SetText(labelHide)
	}
	feature := card.Find(".movie-actions .btn-feature, .movie-actions .btn-unfeature").First()
	if c.Featured {
		feature.SetAttr("class", "action-btn btn-unfeature").SetText(labelUnfeature)
	} else {
		feature.SetAttr("class", "action-btn btn-feature").SetText(labelFeature)
	}

	text := p.field("review-text", c.ID)
	setClass(text, "review-filled", c.HasReview())
	setClass(text, "review-empty", !c.HasReview())
	dom.SetVisible(card.Find(".review-delete-btn"), c.HasReview())
}

func setClass(sel *goquery.Selection, class string, on bool) {
	if on {
		sel.AddClass(class)
		return
	}
	sel.RemoveClass(class)
}

var statIDs = []struct {
	id  string
	get func(Stats) int
}{
	{"total-count", func(s Stats) int { return s.Total }},
	{"visible-count", func(s Stats) int { return s.Visible }},
	{"hidden-count", func(s Stats) int { return s.Hidden }},
	{"featured-count", func(s Stats) int { return s.Featured }},
	{"reviewed-count", func(s Stats) int { return s.Reviewed }},
	{"missing-count", func(s Stats) int { return s.MissingData }},
}

// WriteStats writes the header counters.
func (p *Page) WriteStats(s Stats) {
	for _, st := range statIDs {
		dom.ByID(p.doc, st.id).SetText(strconv.Itoa(st.get(s)))
	}
}

// HeaderStats reads the header counters back. Unparseable counters read as 0.
func (p *Page) HeaderStats() Stats {
	read := func(id string) int {
		n, _ := strconv.Atoi(strings.TrimSpace(dom.ByID(p.doc, id).Text()))
		return n
	}
	s := Stats{
		Total:       read("total-count"),
		Visible:     read("visible-count"),
		Hidden:      read("hidden-count"),
		Featured:    read("featured-count"),
		Reviewed:    read("reviewed-count"),
		MissingData: read("missing-count"),
	}
	return s
}

// CountStats derives the counters by querying the projected cards.
func (p *Page) CountStats() Stats {
	count := func(sel string) int { return p.doc.Find(sel).Length() }
	s := Stats{
		Total:       count(".movie-card"),
		Hidden:      count(".movie-card.hidden"),
		Featured:    count(".movie-card.featured"),
		Reviewed:    count(`.movie-card[data-has-review="yes"]`),
		MissingData: count(`.movie-card[data-missing-any="yes"]`),
	}
	s.Visible = s.Total - s.Hidden
	return s
}

// ShowSuccess displays the success banner.
func (p *Page) ShowSuccess(msg string) {
	banner := dom.ByID(p.doc, "success-msg")
	banner.SetText(msg)
	dom.SetVisible(banner, true)
}

// HideSuccess hides the success banner.
func (p *Page) HideSuccess() {
	dom.SetVisible(dom.ByID(p.doc, "success-msg"), false)
}

// SuccessMessage returns the banner text when it is shown.
func (p *Page) SuccessMessage() (string, bool) {
	banner := dom.ByID(p.doc, "success-msg")
	if !dom.Visible(banner) {
		return "", false
	}
	return banner.Text(), true
}

// Filter shows only the cards matching f and marks its button active.
func (p *Page) Filter(f Filter) {
	p.doc.Find(".filter-btn").Each(func(_ int, btn *goquery.Selection) {
		setClass(btn, "active", btn.AttrOr("data-filter", "") == string(f))
	})
	p.doc.Find(".movie-card").Each(func(_ int, card *goquery.Selection) {
		dom.SetVisible(card, matches(card, f))
	})
}

func matches(card *goquery.Selection, f Filter) bool {
	data := func(key string) string { return card.AttrOr("data-"+key, "") }
	switch f {
	case FilterVisible:
		return !card.HasClass("hidden")
	case FilterHidden:
		return card.HasClass("hidden")
	case FilterFeatured:
		return card.HasClass("featured")
	case FilterNoScore:
		return data("has-score") == "no"
	case FilterNoTrailer:
		return data("has-trailer") == "no"
	case FilterNoPoster:
		return data("has-poster") == "no"
	case FilterMissingData:
		return data("missing-any") == "yes"
	case FilterReviewed:
		return data("has-review") == "yes"
	}
	return true
}

// Search shows only the cards whose title contains query, case-insensitively.
func (p *Page) Search(query string) {
	query = strings.ToLower(strings.TrimSpace(query))
	dom.SetValue(dom.ByID(p.doc, "search-box"), query)
	p.doc.Find(".movie-card").Each(func(_ int, card *goquery.Selection) {
		dom.SetVisible(card, strings.Contains(card.AttrOr("data-title", ""), query))
	})
}

// ShownIDs returns the ids of cards not hidden by a filter or search.
func (p *Page) ShownIDs() []string {
	var ids []string
	p.doc.Find(".movie-card").Each(func(_ int, card *goquery.Selection) {
		if dom.Visible(card) {
			ids = append(ids, card.AttrOr("data-movie-id", ""))
		}
	})
	return ids
}

// BoardFromPage hydrates a view-model from a server-rendered admin page.
func BoardFromPage(p *Page) *Board {
	var cards []CardState
	p.doc.Find(".movie-card[data-movie-id]").Each(func(_ int, card *goquery.Selection) {
		id := card.AttrOr("data-movie-id", "")
		form := p.ReadFieldsForm(id).trimmed()
		state := CardState{
			ID:       id,
			Title:    strings.TrimSpace(card.Find(".movie-title").First().Text()),
			Hidden:   card.HasClass("hidden"),
			Featured: card.HasClass("featured"),
		}
		FieldsSaved{Form: form}.apply(&state)
		if card.AttrOr("data-has-review", "no") == "yes" {
			rf := p.ReadReviewForm(id)
			req := rf.Request(id, "")
			review := req.Review()
			state.Review = &review
		}
		cards = append(cards, state)
	})
	return NewBoard(cards)
}
