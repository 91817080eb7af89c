// Command wallctl drives a running release wall server from the terminal:
// it loads the admin page, runs mutations through the admin client and
// builds playlists.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/nrw/releasewall/internal/admin"
	"github.com/nrw/releasewall/internal/dom"
	"github.com/nrw/releasewall/internal/playlist"
	"github.com/nrw/releasewall/internal/retry"
)

const usage = `usage: wallctl [flags] <command> [args]

commands:
  stats                          print admin counters
  list [-filter F] [-q text]     list movies shown by a filter or search
  hide|show|feature|unfeature ID toggle a status flag
  fields ID [field flags]        edit movie fields
  review ID -text T [...]        save a review
  delete-review ID               delete a review
  regenerate                     rebuild data.json
  playlist [-days N | -from D -to D] [-title T] [-privacy P] [-dry-run]
`

type app struct {
	server  string
	yes     bool
	wait    bool
	http    *http.Client
	logger  zerolog.Logger
	doc     *goquery.Document
	alerted bool
}

func main() {
	server := flag.String("server", envOr("NRW_SERVER_URL", "http://localhost:8080"), "Base URL of the release wall server")
	timeout := flag.Duration("timeout", 5*time.Minute, "Request timeout")
	yes := flag.Bool("yes", false, "Answer yes to confirmations")
	wait := flag.Bool("wait", false, "Retry while the server is unreachable")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	level := zerolog.WarnLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	a := &app{
		server: strings.TrimSuffix(*server, "/"),
		yes:    *yes,
		wait:   *wait,
		http:   &http.Client{Timeout: *timeout},
		logger: zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			Level(level).With().Timestamp().Logger(),
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := a.run(ctx, flag.Arg(0), flag.Args()[1:]); err != nil {
		if !a.alerted {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	if err := a.load(ctx); err != nil {
		return err
	}
	switch cmd {
	case "stats":
		return a.stats()
	case "list":
		return a.list(args)
	case "hide", "show", "feature", "unfeature":
		return a.toggle(ctx, cmd, args)
	case "fields":
		return a.fields(ctx, args)
	case "review":
		return a.review(ctx, args)
	case "delete-review":
		if len(args) != 1 {
			return errors.New("delete-review needs a movie id")
		}
		return a.client().DeleteReview(ctx, args[0])
	case "regenerate":
		if err := a.client().Regenerate(ctx); err != nil {
			return err
		}
		fmt.Println("data.json regenerated")
		return nil
	case "playlist":
		return a.playlist(ctx, args)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// load fetches and parses the admin page every command works against.
func (a *app) load(ctx context.Context) error {
	cfg := retry.Config{MaxAttempts: 1}
	if a.wait {
		cfg = retry.DefaultConfig()
	}
	return retry.Do(ctx, "load admin page", cfg, a.fetch, a.logger)
}

func (a *app) fetch(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.server+admin.PathAdminPage, nil)
	if err != nil {
		return err
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to load admin page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("admin page returned %s", resp.Status)
	}
	a.doc, err = goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to parse admin page: %w", err)
	}
	return nil
}

func (a *app) client() *admin.Client {
	return admin.NewClient(a.server, a.doc,
		admin.WithHTTPClient(a.http),
		admin.WithLogger(a.logger),
		admin.WithAlerter(a),
		admin.WithConfirmer(dom.ConfirmFunc(a.confirm)),
		admin.WithScheduler(func(time.Duration, func()) {}),
	)
}

// Alert prints what the page would have shown in an alert box.
func (a *app) Alert(msg string) {
	a.alerted = true
	fmt.Fprintln(os.Stderr, msg)
}

func (a *app) confirm(msg string) bool {
	if a.yes {
		return true
	}
	fmt.Fprintf(os.Stderr, "%s [y/N] ", msg)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func (a *app) stats() error {
	s := a.client().Stats()
	fmt.Printf("total %d  visible %d  hidden %d  featured %d  reviewed %d  missing data %d\n",
		s.Total, s.Visible, s.Hidden, s.Featured, s.Reviewed, s.MissingData)
	return nil
}

func (a *app) list(args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	filter := fs.String("filter", string(admin.FilterAll), "Filter name")
	query := fs.String("q", "", "Title search")
	if err := fs.Parse(args); err != nil {
		return err
	}
	f, err := admin.ParseFilter(*filter)
	if err != nil {
		return err
	}

	a.client().View(func(p *admin.Page, b *admin.Board) {
		if *query != "" {
			p.Search(*query)
		} else {
			p.Filter(f)
		}
		for _, id := range p.ShownIDs() {
			card, ok := b.Card(id)
			if !ok {
				continue
			}
			var flags []string
			if card.Hidden {
				flags = append(flags, "hidden")
			}
			if card.Featured {
				flags = append(flags, "featured")
			}
			if card.HasReview() {
				flags = append(flags, "reviewed")
			}
			fmt.Printf("%-12s %s", id, card.Title)
			if len(flags) > 0 {
				fmt.Printf(" [%s]", strings.Join(flags, ", "))
			}
			fmt.Println()
		}
	})
	return nil
}

func (a *app) toggle(ctx context.Context, cmd string, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%s needs a movie id", cmd)
	}
	kind, value := admin.StatusHidden, true
	switch cmd {
	case "show":
		value = false
	case "feature":
		kind = admin.StatusFeatured
	case "unfeature":
		kind, value = admin.StatusFeatured, false
	}
	if err := a.client().ToggleStatus(ctx, args[0], kind, value); err != nil {
		return err
	}
	fmt.Printf("%s: %s\n", args[0], cmd)
	return nil
}

func (a *app) fields(ctx context.Context, args []string) error {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return errors.New("fields needs a movie id")
	}
	id := args[0]
	c := a.client()

	var form admin.FieldsForm
	c.View(func(p *admin.Page, _ *admin.Board) { form = p.ReadFieldsForm(id) })

	fs := flag.NewFlagSet("fields", flag.ContinueOnError)
	fs.StringVar(&form.Score, "rt-score", form.Score, "Rotten Tomatoes score (0-100, blank clears)")
	fs.StringVar(&form.ReviewLink, "rt-link", form.ReviewLink, "Rotten Tomatoes link")
	fs.StringVar(&form.TrailerLink, "trailer", form.TrailerLink, "Trailer link")
	fs.StringVar(&form.Director, "director", form.Director, "Director")
	fs.StringVar(&form.Country, "country", form.Country, "Country")
	fs.StringVar(&form.PosterURL, "poster", form.PosterURL, "Poster URL")
	fs.StringVar(&form.DigitalDate, "digital-date", form.DigitalDate, "Digital release date (YYYY-MM-DD)")
	fs.StringVar(&form.Synopsis, "synopsis", form.Synopsis, "Synopsis")
	fs.Func("streaming", "Streaming link as service=url", watchLink(&form.Streaming))
	fs.Func("rent", "Rent link as service=url", watchLink(&form.Rent))
	fs.Func("buy", "Buy link as service=url", watchLink(&form.Buy))
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	if err := c.UpdateFields(ctx, id, form); err != nil {
		return err
	}
	c.View(func(p *admin.Page, _ *admin.Board) {
		if msg, ok := p.SuccessMessage(); ok {
			fmt.Println(msg)
		}
	})
	return nil
}

func watchLink(dst *admin.WatchLinkInput) func(string) error {
	return func(v string) error {
		service, link, ok := strings.Cut(v, "=")
		if !ok {
			return errors.New("expected service=url")
		}
		*dst = admin.WatchLinkInput{Service: strings.TrimSpace(service), Link: strings.TrimSpace(link)}
		return nil
	}
}

func (a *app) review(ctx context.Context, args []string) error {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return errors.New("review needs a movie id")
	}
	id := args[0]

	var form admin.ReviewForm
	fs := flag.NewFlagSet("review", flag.ContinueOnError)
	fs.StringVar(&form.Text, "text", "", "Review text")
	fs.StringVar(&form.Author, "author", "", "Review author")
	fs.StringVar(&form.Rating, "rating", "", "Rating (0-5)")
	fs.BoolVar(&form.FeaturedInNewsletter, "newsletter", false, "Feature in the newsletter")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	if err := a.client().SaveReview(ctx, id, form); err != nil {
		return err
	}
	fmt.Printf("%s: review saved\n", id)
	return nil
}

func (a *app) playlist(ctx context.Context, args []string) error {
	form := playlist.Form{Mode: playlist.ModeLastDays, Days: "7"}
	fs := flag.NewFlagSet("playlist", flag.ContinueOnError)
	fs.StringVar(&form.Days, "days", form.Days, "Days back")
	fs.StringVar(&form.From, "from", "", "Range start (YYYY-MM-DD)")
	fs.StringVar(&form.To, "to", "", "Range end (YYYY-MM-DD)")
	fs.StringVar(&form.Title, "title", "", "Playlist title")
	fs.StringVar(&form.Privacy, "privacy", playlist.PrivacyPublic, "public, unlisted or private")
	fs.BoolVar(&form.DryRun, "dry-run", false, "Preview without publishing")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if form.From != "" || form.To != "" {
		form.Mode = playlist.ModeDateRange
	}

	b := playlist.NewBuilder(a.server, a.doc,
		playlist.WithHTTPClient(a.http),
		playlist.WithLogger(a.logger),
		playlist.WithAlerter(a),
	)
	res, err := b.Create(ctx, form)
	if err != nil {
		return err
	}

	fmt.Println(res.Title)
	if res.DateRange != "" {
		fmt.Println(res.DateRange)
	}
	if res.VideoCount != nil {
		fmt.Printf("%d videos\n", *res.VideoCount)
	}
	for _, title := range res.PreviewVideos {
		fmt.Println("  -", title)
	}
	if res.PlaylistURL != "" {
		fmt.Println(res.PlaylistURL)
	}
	return nil
}
