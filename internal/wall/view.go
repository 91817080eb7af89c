package wall

import (
	"strconv"
	"strings"

	"github.com/nrw/releasewall/internal/catalog"
)

const maxCastNames = 3

// entry is one element of the wall: a date divider or a movie card.
type entry struct {
	Divider *divider
	Card    *card
}

type divider struct {
	Date        string
	Weekday     string
	Day         string
	Month       string
	Approximate bool
}

type card struct {
	ID          string
	Title       string
	Year        int
	Poster      string
	Placeholder string
	Synopsis    string
	Cast        string
	Buttons     []watchButton
	InfoLinks   []infoLink
	BottomMeta  string
	Director    string
	Country     string
	Featured    bool
}

type watchButton struct {
	Label    string
	Href     string
	Class    string
	Service  string
	Disabled bool
}

type infoLink struct {
	Label string
	Href  string
}

// entries sorts a copy of movies newest first and interleaves a divider
// before each run of equal availability dates.
func entries(movies []catalog.Movie, placeholder string) []entry {
	sorted := make([]catalog.Movie, len(movies))
	copy(sorted, movies)
	catalog.SortByDateDesc(sorted)

	out := make([]entry, 0, len(sorted)*2)
	for i := range sorted {
		m := &sorted[i]
		if i == 0 || sorted[i-1].AvailabilityDate != m.AvailabilityDate {
			out = append(out, entry{Divider: newDivider(m)})
		}
		out = append(out, entry{Card: newCard(m, placeholder)})
	}
	return out
}

func newDivider(m *catalog.Movie) *divider {
	d := &divider{Date: m.AvailabilityDate, Approximate: m.Approximate}
	t, ok := m.Date()
	if !ok {
		d.Weekday, d.Day, d.Month = "TBA", "?", "TBA"
		return d
	}
	d.Weekday = strings.ToUpper(t.Format("Mon"))
	d.Day = strconv.Itoa(t.Day())
	d.Month = strings.ToUpper(t.Format("Jan"))
	return d
}

func newCard(m *catalog.Movie, placeholder string) *card {
	c := &card{
		ID:          m.ID,
		Title:       m.Title,
		Year:        m.Year,
		Poster:      m.Poster,
		Placeholder: placeholder,
		Synopsis:    m.Synopsis,
		Buttons:     watchButtons(m.Watch),
		InfoLinks:   infoLinks(m),
		BottomMeta:  bottomMeta(m),
		Director:    m.Director,
		Country:     displayCountry(m.Country),
		Featured:    m.Featured,
	}
	if c.Title == "" {
		c.Title = "Untitled"
	}
	if c.Poster == "" {
		c.Poster = placeholder
	}
	if c.Synopsis == "" {
		c.Synopsis = "Synopsis coming soon"
	}
	if c.Director == "" {
		c.Director = "Director Unknown"
	}
	if len(m.Cast) > 0 {
		names := m.Cast
		if len(names) > maxCastNames {
			names = names[:maxCastNames]
		}
		c.Cast = "Starring " + strings.Join(names, ", ")
	}
	return c
}

var streamingNames = strings.NewReplacer(
	"Amazon Prime Video", "PRIME",
	"Disney Plus", "DISNEY+",
	"HBO Max", "HBO",
)

// StreamingLabel shortens a streaming service name for a button.
func StreamingLabel(service string) string {
	return strings.ToUpper(streamingNames.Replace(service))
}

func watchButtons(w catalog.WatchOptions) []watchButton {
	var buttons []watchButton

	if s := w.Streaming; s != nil {
		if s.URL != "" {
			buttons = append(buttons, watchButton{
				Label:   StreamingLabel(s.Service),
				Href:    s.URL,
				Class:   "watch-btn-stream",
				Service: s.Service,
			})
		} else {
			buttons = append(buttons, watchButton{
				Label:    strings.ToUpper(s.Service) + " (MISSING)",
				Class:    "watch-btn-error",
				Service:  s.Service,
				Disabled: true,
			})
		}
	}

	if href := transactionalLink(w, "amazon"); href != "" {
		buttons = append(buttons, watchButton{Label: "AMAZON", Href: href, Class: "watch-btn-amazon", Service: "Amazon"})
	}
	if href := transactionalLink(w, "apple"); href != "" {
		buttons = append(buttons, watchButton{Label: "APPLE", Href: href, Class: "watch-btn-apple", Service: "Apple TV"})
	}

	if len(buttons) == 0 {
		buttons = append(buttons, watchButton{
			Label:    "NOT AVAILABLE",
			Class:    "watch-btn-disabled",
			Service:  "None",
			Disabled: true,
		})
	}
	return buttons
}

// transactionalLink prefers rent over buy for a service family.
func transactionalLink(w catalog.WatchOptions, family string) string {
	for _, opt := range []*catalog.WatchOption{w.Rent, w.Buy} {
		if opt != nil && opt.URL != "" && strings.Contains(strings.ToLower(opt.Service), family) {
			return opt.URL
		}
	}
	return ""
}

func infoLinks(m *catalog.Movie) []infoLink {
	var links []infoLink
	if m.Links.Trailer != "" {
		links = append(links, infoLink{Label: "Trailer", Href: m.Links.Trailer})
	}
	if m.Links.ReviewSite != "" {
		label := "RT"
		if m.CriticScore != nil {
			label = "RT " + strconv.Itoa(*m.CriticScore)
		}
		links = append(links, infoLink{Label: label, Href: m.Links.ReviewSite})
	}
	if m.Links.Wiki != "" {
		links = append(links, infoLink{Label: "Wiki", Href: m.Links.Wiki})
	}
	return links
}

func bottomMeta(m *catalog.Movie) string {
	var parts []string
	if len(m.Genres) > 0 {
		genres := m.Genres
		if len(genres) > 2 {
			genres = genres[:2]
		}
		parts = append(parts, strings.Join(genres, " • "))
	}
	if m.Studio != "" {
		parts = append(parts, m.Studio)
	}
	if m.RuntimeMinutes > 0 {
		parts = append(parts, strconv.Itoa(m.RuntimeMinutes)+" min")
	}
	return strings.Join(parts, " | ")
}

func displayCountry(country string) string {
	switch country {
	case "":
		return "Country Unknown"
	case "United States of America":
		return "USA"
	}
	return country
}
