package playlist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/nrw/releasewall/internal/catalog"
	"github.com/nrw/releasewall/internal/dom"
)

// ErrInFlight is returned when a playlist request is already pending.
var ErrInFlight = errors.New("playlist request already in flight")

// ValidationError is a form rejection. Nothing is sent.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// LogicalError is a well-formed failure response.
type LogicalError struct {
	Message string
}

func (e *LogicalError) Error() string { return "create playlist: " + e.Message }

// Form is the raw content of the playlist form.
type Form struct {
	Mode    string
	Days    string
	From    string
	To      string
	Title   string
	Privacy string
	DryRun  bool
}

// Validate checks the form before anything is sent.
func (f Form) Validate() error {
	switch f.Mode {
	case ModeLastDays:
		n, err := strconv.Atoi(strings.TrimSpace(f.Days))
		if err != nil || n < 1 {
			return &ValidationError{Message: "Please enter a valid number of days"}
		}
	case ModeDateRange:
		from, to := strings.TrimSpace(f.From), strings.TrimSpace(f.To)
		if from == "" || to == "" {
			return &ValidationError{Message: "Please select both from and to dates"}
		}
		fromDate, okFrom := catalog.ParseDate(from)
		toDate, okTo := catalog.ParseDate(to)
		if !okFrom || !okTo {
			return &ValidationError{Message: "Dates must be in YYYY-MM-DD format"}
		}
		if fromDate.After(toDate) {
			return &ValidationError{Message: "From date must be before to date"}
		}
	default:
		return &ValidationError{Message: fmt.Sprintf("Unknown date type %q", f.Mode)}
	}
	return nil
}

// Request builds the wire body. Call Validate first.
func (f Form) Request() Request {
	req := Request{
		DateType: f.Mode,
		Title:    strings.TrimSpace(f.Title),
		Privacy:  f.Privacy,
		DryRun:   f.DryRun,
	}
	if req.Privacy == "" {
		req.Privacy = PrivacyPublic
	}
	if f.Mode == ModeLastDays {
		n, _ := strconv.Atoi(strings.TrimSpace(f.Days))
		req.DaysBack = &n
	} else {
		req.FromDate, req.ToDate = strings.TrimSpace(f.From), strings.TrimSpace(f.To)
	}
	return req
}

// Option configures a Builder.
type Option func(*Builder)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(b *Builder) { b.http = hc }
}

// WithAlerter sets where validation alerts go.
func WithAlerter(a dom.Alerter) Option {
	return func(b *Builder) { b.alerter = a }
}

// WithLogger sets the builder logger.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Builder) { b.logger = l.With().Str("component", "playlist-builder").Logger() }
}

// Builder drives the playlist form of the admin document.
type Builder struct {
	baseURL string
	http    *http.Client
	alerter dom.Alerter
	logger  zerolog.Logger

	mu   sync.Mutex
	doc  *goquery.Document
	busy bool
}

// NewBuilder creates a builder for an admin document served from baseURL.
func NewBuilder(baseURL string, doc *goquery.Document, opts ...Option) *Builder {
	b := &Builder{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    http.DefaultClient,
		alerter: dom.AlertFunc(func(string) {}),
		logger:  zerolog.Nop(),
		doc:     doc,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Builder) el(id string) *goquery.Selection {
	return dom.ByID(b.doc, id)
}

// ReadForm reads the playlist form.
func (b *Builder) ReadForm() Form {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Form{
		Mode:    dom.Value(b.el("playlist-date-type")),
		Days:    dom.Value(b.el("playlist-days")),
		From:    dom.Value(b.el("playlist-from-date")),
		To:      dom.Value(b.el("playlist-to-date")),
		Title:   dom.Value(b.el("playlist-title")),
		Privacy: dom.Value(b.el("playlist-privacy")),
		DryRun:  dom.Checked(b.el("playlist-dry-run")),
	}
}

// WriteForm fills the playlist form and shows the inputs of its mode.
func (b *Builder) WriteForm(f Form) {
	b.mu.Lock()
	defer b.mu.Unlock()
	dom.SetValue(b.el("playlist-days"), f.Days)
	dom.SetValue(b.el("playlist-from-date"), f.From)
	dom.SetValue(b.el("playlist-to-date"), f.To)
	dom.SetValue(b.el("playlist-title"), f.Title)
	if f.Privacy != "" {
		dom.SetValue(b.el("playlist-privacy"), f.Privacy)
	}
	dom.SetChecked(b.el("playlist-dry-run"), f.DryRun)
	b.setMode(f.Mode)
}

// SetMode switches between the days input and the date range inputs.
func (b *Builder) SetMode(mode string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setMode(mode)
}

func (b *Builder) setMode(mode string) {
	dom.SetValue(b.el("playlist-date-type"), mode)
	dom.SetVisible(b.el("days-input-container"), mode != ModeDateRange)
	dom.SetVisible(b.el("date-range-container"), mode == ModeDateRange)
}

// Status returns the status line text.
func (b *Builder) Status() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.el("playlist-status").Text()
}

// Submit validates the form in the document and sends it.
func (b *Builder) Submit(ctx context.Context) (Result, error) {
	return b.Create(ctx, b.ReadForm())
}

// Create validates f and sends it. The trigger is disabled while the request
// runs and re-enabled whatever the outcome.
func (b *Builder) Create(ctx context.Context, f Form) (Result, error) {
	if err := f.Validate(); err != nil {
		b.alerter.Alert(err.Error())
		return Result{}, err
	}
	req := f.Request()

	b.mu.Lock()
	if b.busy {
		b.mu.Unlock()
		return Result{}, ErrInFlight
	}
	b.busy = true
	btn := b.el("create-playlist-btn")
	dom.SetDisabled(btn, true)
	if req.DryRun {
		b.el("playlist-status").SetText("Generating preview...")
	} else {
		b.el("playlist-status").SetText("Creating playlist... (this may take 30-60 seconds)")
	}
	dom.SetVisible(b.el("playlist-result"), false)
	b.mu.Unlock()

	res, err := b.post(ctx, req)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.busy = false
	dom.SetDisabled(btn, false)

	if err != nil {
		b.el("playlist-status").SetText("✗ Error: " + err.Error())
		b.logger.Warn().Err(err).Msg("Playlist request failed")
		return Result{}, fmt.Errorf("create playlist: %w", err)
	}
	if !res.Success {
		msg := res.Error
		if msg == "" {
			msg = "Failed to create playlist"
		}
		b.el("playlist-status").SetText("✗ " + msg)
		b.renderResult(errorTemplate, orDefault(res.Error, "Unknown error"))
		return res, &LogicalError{Message: msg}
	}

	if req.DryRun {
		b.el("playlist-status").SetText("✓ Preview generated")
	} else {
		b.el("playlist-status").SetText("✓ Playlist created successfully!")
	}
	b.renderResult(resultTemplate, newResultView(res))
	banner := b.el("success-msg")
	if req.DryRun {
		banner.SetText("Preview generated")
	} else {
		banner.SetText("Playlist created!")
	}
	dom.SetVisible(banner, true)
	return res, nil
}

var resultTemplate = template.Must(template.New("result").Parse(`<div class="playlist-summary">
{{- with .Title}}<strong>Title:</strong> {{.}}<br>{{end}}
{{- if .HasCount}}<strong>Videos:</strong> {{.Count}}<br>{{end}}
{{- with .DateRange}}<strong>Date Range:</strong> {{.}}<br>{{end}}
{{- with .PlaylistURL}}<br><a class="playlist-link" href="{{.}}" target="_blank">🔗 View Playlist on YouTube</a><br>{{end}}
{{- if .Preview}}<br><strong>Preview (first 5 videos):</strong><br><ul class="playlist-preview">
{{- range .Preview}}<li>{{.}}</li>{{end}}</ul>{{end}}
{{- with .Message}}<br><em class="playlist-message">{{.}}</em>{{end -}}
</div>`))

var errorTemplate = template.Must(template.New("error").Parse(`<div class="playlist-error">{{.}}</div>`))

type resultView struct {
	Title       string
	HasCount    bool
	Count       int
	DateRange   string
	PlaylistURL string
	Preview     []string
	Message     string
}

func newResultView(r Result) resultView {
	v := resultView{
		Title:       r.Title,
		DateRange:   r.DateRange,
		PlaylistURL: r.PlaylistURL,
		Preview:     r.PreviewVideos,
		Message:     r.Message,
	}
	if r.VideoCount != nil {
		v.HasCount, v.Count = true, *r.VideoCount
	}
	if len(v.Preview) > PreviewSize {
		v.Preview = v.Preview[:PreviewSize]
	}
	return v
}

// renderResult fills the result panel. Callers hold b.mu.
func (b *Builder) renderResult(tpl *template.Template, data any) {
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		b.logger.Error().Err(err).Msg("Failed to render playlist result")
		return
	}
	panel := b.el("playlist-result")
	panel.SetHtml(buf.String())
	dom.SetVisible(panel, true)
}

func (b *Builder) post(ctx context.Context, body Request) (Result, error) {
	var res Result
	payload, err := json.Marshal(body)
	if err != nil {
		return res, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+PathCreate, bytes.NewReader(payload))
	if err != nil {
		return res, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.http.Do(req)
	if err != nil {
		return res, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return res, fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(data, &res); err != nil {
		return res, fmt.Errorf("unexpected response (HTTP %d): %w", resp.StatusCode, err)
	}
	return res, nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
