package catalog

import (
	"strings"
)

// Options configures the parts of normalization that depend on deployment.
type Options struct {
	// ImageBaseURL prefixes image-host relative poster paths.
	ImageBaseURL string
	// Placeholder replaces missing or unusable posters.
	Placeholder string
}

// DefaultImageBaseURL is the public poster host used by upstream records.
const DefaultImageBaseURL = "https://image.tmdb.org/t/p/w500"

// DefaultPlaceholder is served from the embedded web assets.
const DefaultPlaceholder = "assets/no-poster.svg"

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{ImageBaseURL: DefaultImageBaseURL, Placeholder: DefaultPlaceholder}
}

func (o Options) withDefaults() Options {
	if o.ImageBaseURL == "" {
		o.ImageBaseURL = DefaultImageBaseURL
	}
	if o.Placeholder == "" {
		o.Placeholder = DefaultPlaceholder
	}
	return o
}

// Field probes, first non-empty value wins.
var (
	probeID       = []string{"id", "tmdb_id", "movie_id"}
	probeTitle    = []string{"title", "name"}
	probeDate     = []string{"digital_date", "date_key", "release_date", "date"}
	probeYear     = []string{"year"}
	probeDirector = []string{"crew.director", "director", "dir"}
	probeCast     = []string{"crew.cast", "cast"}
	probeRuntime  = []string{"metadata.runtime", "runtime"}
	probeStudio   = []string{"metadata.studio", "studio"}
	probeSynopsis = []string{"synopsis", "overview"}
	probePoster   = []string{"poster", "poster_url", "poster_path"}
	probeScore    = []string{"rt_score", "critic_score"}
	probeTrailer  = []string{"links.trailer", "trailer_link", "trailer"}
	probeReview   = []string{"links.rt", "rt_link", "rt_url"}
	probeWiki     = []string{"links.wikipedia", "links.wiki", "wiki"}
	probeApprox   = []string{"bootstrap_date", "date_approximate"}
	probeCountry  = []string{"country"}
	probeGenres   = []string{"genres"}
	probeFeatured = []string{"featured"}
)

// Normalize converts one raw record into a Movie. It returns false when the
// record has neither a title nor an availability date.
func Normalize(raw Record, opts Options) (Movie, bool) {
	if raw == nil {
		return Movie{}, false
	}
	opts = opts.withDefaults()

	title := raw.firstString(probeTitle...)
	rawDate := raw.firstString(probeDate...)
	if title == "" && rawDate == "" {
		return Movie{}, false
	}

	m := Movie{
		ID:          raw.firstString(probeID...),
		Title:       title,
		Approximate: raw.firstBool(probeApprox...),
		Genres:      raw.firstStrings(probeGenres...),
		Studio:      raw.firstString(probeStudio...),
		Director:    raw.firstString(probeDirector...),
		Cast:        raw.firstStrings(probeCast...),
		Synopsis:    raw.firstString(probeSynopsis...),
		Country:     raw.firstString(probeCountry...),
		Featured:    raw.firstBool(probeFeatured...),
		Links: Links{
			Trailer:    raw.firstString(probeTrailer...),
			ReviewSite: raw.firstString(probeReview...),
			Wiki:       raw.firstString(probeWiki...),
		},
	}

	m.AvailabilityDate = rawDate
	if d, ok := ParseDate(rawDate); ok {
		m.AvailabilityDate = d.Format(DateLayout)
	}

	if y, ok := raw.firstInt(probeYear...); ok && y > 0 {
		m.Year = y
	} else if d, ok := ParseDate(rawDate); ok {
		m.Year = d.Year()
	}

	if n, ok := raw.firstInt(probeRuntime...); ok && n > 0 {
		m.RuntimeMinutes = n
	}

	if score, ok := raw.firstInt(probeScore...); ok && score >= 0 && score <= 100 {
		m.CriticScore = &score
	}

	m.Poster = ResolvePoster(raw.firstString(probePoster...), opts)
	m.Watch = watchOptions(raw)
	m.Providers = Providers(raw)
	return m, true
}

// NormalizeAll normalizes every record, dropping the ones that normalize to
// nothing. Input order is preserved.
func NormalizeAll(records []Record, opts Options) []Movie {
	movies := make([]Movie, 0, len(records))
	for _, rec := range records {
		if m, ok := Normalize(rec, opts); ok {
			movies = append(movies, m)
		}
	}
	return movies
}

func watchOptions(raw Record) WatchOptions {
	var w WatchOptions
	v, ok := raw.Lookup("watch_links")
	if !ok {
		return w
	}
	buckets, ok := asObject(v)
	if !ok {
		return w
	}
	w.Streaming = watchOption(buckets[WatchStreaming])
	w.Rent = watchOption(buckets[WatchRent])
	w.Buy = watchOption(buckets[WatchBuy])
	if w.Streaming == nil {
		w.Streaming = watchOption(buckets["default"])
	}
	return w
}

func watchOption(v any) *WatchOption {
	obj, ok := asObject(v)
	if !ok {
		return nil
	}
	service := asString(obj["service"])
	if service == "" {
		return nil
	}
	url := asString(obj["link"])
	if url == "" {
		url = asString(obj["url"])
	}
	return &WatchOption{Service: service, URL: url}
}

// HasImageHostPath reports whether a poster value is a bare image-host file
// such as "/abc123.jpg".
func HasImageHostPath(value string) bool {
	if !strings.HasPrefix(value, "/") || strings.Count(value, "/") != 1 {
		return false
	}
	lower := strings.ToLower(value)
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".webp"} {
		if strings.HasSuffix(lower, ext) {
			return len(value) > len(ext)+1
		}
	}
	return false
}

// ResolvePoster maps a raw poster value to a usable image reference.
// The result is never empty.
func ResolvePoster(value string, opts Options) string {
	opts = opts.withDefaults()
	value = strings.TrimSpace(value)
	switch strings.ToLower(value) {
	case "", "n/a", "none", "null", "undefined":
		return opts.Placeholder
	}
	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		return value
	}
	if HasImageHostPath(value) {
		return strings.TrimSuffix(opts.ImageBaseURL, "/") + value
	}
	return value
}
