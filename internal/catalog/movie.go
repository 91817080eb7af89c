package catalog

import "time"

// Watch categories in render priority order.
const (
	WatchStreaming = "streaming"
	WatchRent      = "rent"
	WatchBuy       = "buy"
)

// Movie is the canonical display model every renderer and admin view works on.
// It is built by Normalize and never mutated afterwards.
type Movie struct {
	ID               string       `json:"id"`
	Title            string       `json:"title"`
	Year             int          `json:"year,omitempty"`
	AvailabilityDate string       `json:"availabilityDate,omitempty"` // YYYY-MM-DD, or the raw value when unparseable
	Approximate      bool         `json:"approximate,omitempty"`
	Genres           []string     `json:"genres,omitempty"`
	Studio           string       `json:"studio,omitempty"`
	RuntimeMinutes   int          `json:"runtimeMinutes,omitempty"`
	Director         string       `json:"director,omitempty"`
	Cast             []string     `json:"cast,omitempty"`
	Synopsis         string       `json:"synopsis,omitempty"`
	Country          string       `json:"country,omitempty"`
	Poster           string       `json:"poster"`
	CriticScore      *int         `json:"criticScore,omitempty"`
	Links            Links        `json:"links"`
	Watch            WatchOptions `json:"watch"`
	Providers        []string     `json:"providers,omitempty"`
	Featured         bool         `json:"featured,omitempty"`
}

// Links holds the optional info links shown on the back of a card.
type Links struct {
	Trailer    string `json:"trailer,omitempty"`
	ReviewSite string `json:"reviewSite,omitempty"`
	Wiki       string `json:"wiki,omitempty"`
}

// WatchOption is a single service offering the movie.
// URL may be empty when the service is known but the deep link is not.
type WatchOption struct {
	Service string `json:"service"`
	URL     string `json:"url,omitempty"`
}

// WatchOptions maps each watch category to at most one option.
type WatchOptions struct {
	Streaming *WatchOption `json:"streaming,omitempty"`
	Rent      *WatchOption `json:"rent,omitempty"`
	Buy       *WatchOption `json:"buy,omitempty"`
}

// Get returns the option for a category, or nil.
func (w WatchOptions) Get(category string) *WatchOption {
	switch category {
	case WatchStreaming:
		return w.Streaming
	case WatchRent:
		return w.Rent
	case WatchBuy:
		return w.Buy
	}
	return nil
}

// Date returns the parsed availability date. ok is false when the date is
// missing or malformed.
func (m *Movie) Date() (time.Time, bool) {
	return ParseDate(m.AvailabilityDate)
}

// Raw converts the movie back into the canonical raw record shape.
// Normalizing the result yields an identical Movie.
func (m *Movie) Raw() Record {
	rec := Record{
		"id":    m.ID,
		"title": m.Title,
	}
	if m.Year != 0 {
		rec["year"] = m.Year
	}
	if m.AvailabilityDate != "" {
		rec["digital_date"] = m.AvailabilityDate
	}
	if m.Approximate {
		rec["bootstrap_date"] = true
	}
	if len(m.Genres) > 0 {
		rec["genres"] = toAnySlice(m.Genres)
	}
	if m.Studio != "" {
		rec["studio"] = m.Studio
	}
	if m.RuntimeMinutes != 0 {
		rec["runtime"] = m.RuntimeMinutes
	}
	crew := map[string]any{}
	if m.Director != "" {
		crew["director"] = m.Director
	}
	if len(m.Cast) > 0 {
		crew["cast"] = toAnySlice(m.Cast)
	}
	if len(crew) > 0 {
		rec["crew"] = crew
	}
	if m.Synopsis != "" {
		rec["synopsis"] = m.Synopsis
	}
	if m.Country != "" {
		rec["country"] = m.Country
	}
	if m.Poster != "" {
		rec["poster"] = m.Poster
	}
	if m.CriticScore != nil {
		rec["rt_score"] = *m.CriticScore
	}

	links := map[string]any{}
	if m.Links.Trailer != "" {
		links["trailer"] = m.Links.Trailer
	}
	if m.Links.ReviewSite != "" {
		links["rt"] = m.Links.ReviewSite
	}
	if m.Links.Wiki != "" {
		links["wikipedia"] = m.Links.Wiki
	}
	if len(links) > 0 {
		rec["links"] = links
	}

	watch := map[string]any{}
	for _, category := range []string{WatchStreaming, WatchRent, WatchBuy} {
		if opt := m.Watch.Get(category); opt != nil {
			watch[category] = map[string]any{"service": opt.Service, "link": opt.URL}
		}
	}
	if len(watch) > 0 {
		rec["watch_links"] = watch
	}

	if len(m.Providers) > 0 {
		rec["providers"] = toAnySlice(m.Providers)
	}
	if m.Featured {
		rec["featured"] = true
	}
	return rec
}

func toAnySlice(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
