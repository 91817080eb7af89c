package playlist

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/nrw/releasewall/internal/catalog"
	"github.com/nrw/releasewall/internal/validation"
)

// ErrNotConfigured is reported when a playlist must be published but no
// Publisher is set.
var ErrNotConfigured = errors.New("playlist publishing is not configured")

// DefaultDaysBack is used when a last-days request omits days_back.
const DefaultDaysBack = 7

const descriptionListSize = 10

var youtubeIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`watch\?v=([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`youtu\.be/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`youtube\.com/embed/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`youtube\.com/shorts/([a-zA-Z0-9_-]+)`),
}

// ExtractYouTubeID returns the video id of a YouTube link, or "".
func ExtractYouTubeID(url string) string {
	for _, re := range youtubeIDPatterns {
		if m := re.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	return ""
}

// Trailer is a movie selected for a playlist.
type Trailer struct {
	VideoID  string
	Title    string
	Date     string
	Score    *int
	Director string
	URL      string
}

// Playlist is what a Publisher creates.
type Playlist struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Privacy     string   `json:"privacy"`
	VideoIDs    []string `json:"video_ids"`
}

// Publisher creates playlists on a video platform and returns their URL.
type Publisher interface {
	Publish(ctx context.Context, p Playlist) (string, error)
}

// Source provides the movies a playlist is chosen from.
type Source interface {
	Movies(ctx context.Context) ([]catalog.Movie, error)
}

// PlannerOption configures a Planner.
type PlannerOption func(*Planner)

// WithPublisher sets the playlist publisher.
func WithPublisher(p Publisher) PlannerOption {
	return func(pl *Planner) { pl.publisher = p }
}

// WithClock sets the time source used for last-days ranges.
func WithClock(now func() time.Time) PlannerOption {
	return func(pl *Planner) { pl.now = now }
}

// WithSiteURL sets the link appended to playlist descriptions.
func WithSiteURL(url string) PlannerOption {
	return func(pl *Planner) { pl.siteURL = url }
}

// Planner selects trailers for a date range and publishes them.
type Planner struct {
	source    Source
	publisher Publisher
	now       func() time.Time
	siteURL   string
	logger    zerolog.Logger
}

// NewPlanner creates a planner over source.
func NewPlanner(source Source, logger zerolog.Logger, opts ...PlannerOption) *Planner {
	p := &Planner{
		source: source,
		now:    time.Now,
		logger: logger.With().Str("component", "playlist").Logger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type window struct {
	from, to time.Time
	bounded  bool
	label    string
	title    string
}

// window resolves the date range of req. A non-empty reject is the
// in-band error for an unusable range.
func (p *Planner) window(req Request) (w window, reject string) {
	if req.DateType == ModeDateRange {
		if req.FromDate == "" || req.ToDate == "" {
			return window{}, "Both from_date and to_date required for date range"
		}
		from, okFrom := catalog.ParseDate(req.FromDate)
		to, okTo := catalog.ParseDate(req.ToDate)
		if !okFrom || !okTo {
			return window{}, "Dates must be in YYYY-MM-DD format"
		}
		if from.After(to) {
			return window{}, "from_date must not be after to_date"
		}
		return window{
			from:    from,
			to:      to,
			bounded: true,
			label:   req.FromDate + " to " + req.ToDate,
			title:   fmt.Sprintf("New Releases (%s - %s)", from.Format("Jan 02"), to.Format("Jan 02, 2006")),
		}, ""
	}

	days := DefaultDaysBack
	if req.DaysBack != nil {
		days = *req.DaysBack
	}
	end := p.now()
	start := end.AddDate(0, 0, -days)
	today := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return window{
		from:  today.AddDate(0, 0, -days),
		label: fmt.Sprintf("%s - %s", start.Format("Jan 02"), end.Format("Jan 02, 2006")),
		title: fmt.Sprintf("New Releases - Last %d Days", days),
	}, ""
}

// trailers returns the movies in w with a YouTube trailer, newest first.
func (p *Planner) trailers(ctx context.Context, w window) ([]Trailer, error) {
	movies, err := p.source.Movies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load movies: %w", err)
	}

	var out []Trailer
	for i := range movies {
		m := &movies[i]
		id := ExtractYouTubeID(m.Links.Trailer)
		if id == "" {
			continue
		}
		date, ok := m.Date()
		if !ok {
			p.logger.Debug().Str("movieId", m.ID).Str("title", m.Title).Msg("Skipping movie with invalid date")
			continue
		}
		if date.Before(w.from) || (w.bounded && date.After(w.to)) {
			continue
		}
		out = append(out, Trailer{
			VideoID:  id,
			Title:    m.Title,
			Date:     m.AvailabilityDate,
			Score:    m.CriticScore,
			Director: m.Director,
			URL:      m.Links.Trailer,
		})
	}
	sortTrailers(out)
	return out, nil
}

func sortTrailers(ts []Trailer) {
	slices.SortStableFunc(ts, func(a, b Trailer) int {
		return strings.Compare(b.Date, a.Date)
	})
}

// Create plans a playlist and, unless it is a dry run, publishes it.
// Failures the caller should report in-band come back as Result.Error.
func (p *Planner) Create(ctx context.Context, req Request) Result {
	if err := validation.Struct(&req); err != nil {
		var re *validation.RequestError
		if errors.As(err, &re) {
			return Result{Error: re.First()}
		}
		return Result{Error: err.Error()}
	}
	if req.DateType == "" {
		req.DateType = ModeLastDays
	}
	if req.Privacy == "" {
		req.Privacy = PrivacyPublic
	}

	w, reject := p.window(req)
	if reject != "" {
		return Result{Error: reject}
	}
	trailers, err := p.trailers(ctx, w)
	if err != nil {
		p.logger.Error().Err(err).Msg("Failed to select trailers")
		return Result{Error: "Error creating playlist: " + err.Error()}
	}
	if len(trailers) == 0 {
		return Result{Error: "No trailers found for specified date range"}
	}

	title := req.Title
	if title == "" {
		title = w.title
	}
	count := len(trailers)
	res := Result{
		Success:    true,
		Title:      title,
		VideoCount: &count,
		DateRange:  w.label,
	}

	p.logger.Info().
		Str("dateType", req.DateType).
		Str("privacy", req.Privacy).
		Bool("dryRun", req.DryRun).
		Int("videos", count).
		Msg("Creating playlist")

	if req.DryRun {
		for _, t := range trailers[:min(PreviewSize, len(trailers))] {
			res.PreviewVideos = append(res.PreviewVideos, t.Title)
		}
		res.Message = "Preview generated"
		return res
	}

	if p.publisher == nil {
		return Result{Error: "Error creating playlist: " + ErrNotConfigured.Error()}
	}
	ids := make([]string, len(trailers))
	for i, t := range trailers {
		ids[i] = t.VideoID
	}
	url, err := p.publisher.Publish(ctx, Playlist{
		Title:       title,
		Description: p.describe(trailers, w.label),
		Privacy:     req.Privacy,
		VideoIDs:    ids,
	})
	if err != nil {
		p.logger.Error().Err(err).Msg("Playlist creation failed")
		return Result{Error: "Playlist creation failed: " + err.Error()}
	}
	res.PlaylistURL = url
	res.Message = "Playlist created successfully"
	p.logger.Info().Str("title", title).Int("videos", count).Msg("Playlist created")
	return res
}

func (p *Planner) describe(trailers []Trailer, dateRange string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎬 %d movies released digitally\n\n", len(trailers))
	b.WriteString("Curated by New Release Wall\n")
	fmt.Fprintf(&b, "Created: %s\n", p.now().Format("January 02, 2006 at 03:04 PM"))
	fmt.Fprintf(&b, "Date Range: %s\n\nFeatured titles:\n", dateRange)
	for i, t := range trailers[:min(descriptionListSize, len(trailers))] {
		fmt.Fprintf(&b, "\n%d. %s", i+1, t.Title)
		if t.Score != nil {
			fmt.Fprintf(&b, " • %d%% RT", *t.Score)
		}
		if t.Director != "" && t.Director != "Unknown" {
			fmt.Fprintf(&b, " • %s", t.Director)
		}
	}
	if len(trailers) > descriptionListSize {
		fmt.Fprintf(&b, "\n...and %d more!", len(trailers)-descriptionListSize)
	}
	if p.siteURL != "" {
		fmt.Fprintf(&b, "\n\n🔗 Full list: %s", p.siteURL)
	}
	return b.String()
}
