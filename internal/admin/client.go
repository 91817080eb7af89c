package admin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/nrw/releasewall/internal/dom"
)

var (
	// ErrMutationInFlight is returned when a mutation for the same movie is
	// still pending.
	ErrMutationInFlight = errors.New("mutation already in flight")
	// ErrCancelled is returned when the operator declines a confirmation.
	ErrCancelled = errors.New("cancelled")
)

// DefaultReviewAuthor is used when a review is saved without an author.
const DefaultReviewAuthor = "Hadrian Belove"

// DefaultSuccessDelay is how long a success label stays before the control
// reverts.
const DefaultSuccessDelay = 2 * time.Second

const (
	successBannerDelay = 3 * time.Second
	regenStatusDelay   = 5 * time.Second
	regenerateKey      = "\x00regenerate"
)

// LogicalError is a well-formed failure response from the server.
type LogicalError struct {
	Op      string
	Message string
}

func (e *LogicalError) Error() string {
	return e.Op + ": " + e.Message
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithAlerter sets where alerts go.
func WithAlerter(a dom.Alerter) Option {
	return func(c *Client) { c.alerter = a }
}

// WithConfirmer sets who answers confirmations.
func WithConfirmer(cf dom.Confirmer) Option {
	return func(c *Client) { c.confirmer = cf }
}

// WithLogger sets the client logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l.With().Str("component", "admin-client").Logger() }
}

// WithSuccessDelay sets how long success labels stay.
func WithSuccessDelay(d time.Duration) Option {
	return func(c *Client) { c.successDelay = d }
}

// WithDefaultAuthor sets the review author used when none is entered.
func WithDefaultAuthor(author string) Option {
	return func(c *Client) { c.defaultAuthor = author }
}

// WithScheduler replaces time.AfterFunc for delayed UI reverts. after must
// not call f before returning.
func WithScheduler(after func(time.Duration, func())) Option {
	return func(c *Client) { c.after = after }
}

// Client runs admin mutations against the server and keeps the admin
// view-model and its document projection in step with the responses.
// It is safe for concurrent use.
type Client struct {
	baseURL       string
	http          *http.Client
	alerter       dom.Alerter
	confirmer     dom.Confirmer
	logger        zerolog.Logger
	successDelay  time.Duration
	defaultAuthor string
	after         func(time.Duration, func())

	mu       sync.Mutex
	page     *Page
	board    *Board
	inflight map[string]struct{}
}

// NewClient creates a client for an admin document served from baseURL.
// The view-model is hydrated from the document.
func NewClient(baseURL string, doc *goquery.Document, opts ...Option) *Client {
	page := NewPage(doc)
	c := &Client{
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		http:          http.DefaultClient,
		alerter:       dom.AlertFunc(func(string) {}),
		confirmer:     dom.ConfirmFunc(func(string) bool { return true }),
		logger:        zerolog.Nop(),
		successDelay:  DefaultSuccessDelay,
		defaultAuthor: DefaultReviewAuthor,
		after:         func(d time.Duration, f func()) { time.AfterFunc(d, f) },
		page:          page,
		board:         BoardFromPage(page),
		inflight:      make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// View runs f with exclusive access to the page and board.
func (c *Client) View(f func(p *Page, b *Board)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f(c.page, c.board)
}

// Stats returns the counters derived from the view-model.
func (c *Client) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.board.Stats()
}

// ToggleStatus sets the hidden or featured flag of a movie.
func (c *Client) ToggleStatus(ctx context.Context, movieID string, kind StatusKind, value bool) error {
	if !kind.Valid() {
		err := &ValidationError{Field: "status_type", Message: fmt.Sprintf("Invalid status_type %q", kind)}
		c.alert(err.Message)
		return err
	}
	req := ToggleStatusRequest{MovieID: movieID, StatusType: string(kind), Value: value}

	return c.mutate(ctx, mutation{
		op:        "toggle status",
		key:       movieID,
		path:      PathToggleStatus,
		body:      req,
		control:   func(p *Page) dom.Control { return p.StatusButton(movieID, kind) },
		busy:      "⏳ Updating...",
		failAlert: "Failed to update status",
		errPrefix: "Error: ",
		onSuccess: func(resp Response) (string, error) {
			card, err := c.board.Apply(movieID, StatusChanged{Kind: kind, Value: value})
			if err != nil {
				return "", err
			}
			c.page.Project(card)
			c.banner(statusMessage(kind, value))
			return "", nil
		},
	})
}

func statusMessage(kind StatusKind, value bool) string {
	switch {
	case kind == StatusHidden && value:
		return "Movie hidden"
	case kind == StatusHidden:
		return "Movie shown"
	case value:
		return "Movie featured"
	default:
		return "Movie unfeatured"
	}
}

// UpdateFields saves the field editor of a movie.
func (c *Client) UpdateFields(ctx context.Context, movieID string, form FieldsForm) error {
	if err := form.Validate(); err != nil {
		c.alert(err.Error())
		return err
	}

	return c.mutate(ctx, mutation{
		op:        "update fields",
		key:       movieID,
		path:      PathUpdateFields,
		body:      form.Request(movieID),
		control:   func(p *Page) dom.Control { return p.SaveFieldsButton(movieID) },
		busy:      "⏳ Saving...",
		failAlert: "Failed to update fields",
		errPrefix: "Error updating fields: ",
		onSuccess: func(resp Response) (string, error) {
			card, err := c.board.Apply(movieID, FieldsSaved{Form: form})
			if err != nil {
				return "", err
			}
			c.page.WriteFieldsForm(movieID, form.trimmed())
			c.page.MarkFieldsPopulated(movieID)
			c.page.Project(card)
			c.banner(orDefault(resp.Message, "All fields updated successfully!"))
			if resp.Warning != "" {
				c.logger.Warn().Str("movieId", movieID).Str("warning", resp.Warning).Msg("Fields saved with warning")
			}
			return "✅ Saved!", nil
		},
	})
}

// SaveReview saves the review editor of a movie.
func (c *Client) SaveReview(ctx context.Context, movieID string, form ReviewForm) error {
	if err := form.Validate(); err != nil {
		c.alert(err.Error())
		return err
	}
	req := form.Request(movieID, c.defaultAuthor)

	return c.mutate(ctx, mutation{
		op:        "save review",
		key:       movieID,
		path:      PathUpdateReview,
		body:      req,
		control:   func(p *Page) dom.Control { return p.SaveReviewButton(movieID) },
		busy:      "⏳ Saving...",
		failAlert: "Failed to save review",
		errPrefix: "Error saving review: ",
		onSuccess: func(resp Response) (string, error) {
			card, err := c.board.Apply(movieID, ReviewSaved{Review: req.Review()})
			if err != nil {
				return "", err
			}
			saved := form
			saved.Text, saved.Author = req.ReviewText, req.Author
			c.page.WriteReviewForm(movieID, saved)
			c.page.Project(card)
			c.banner(orDefault(resp.Message, "Review saved successfully!"))
			return "✅ Saved!", nil
		},
	})
}

// DeleteReview removes a movie's review after operator confirmation.
func (c *Client) DeleteReview(ctx context.Context, movieID string) error {
	if !c.confirmer.Confirm("Are you sure you want to delete this review?") {
		return ErrCancelled
	}

	return c.mutate(ctx, mutation{
		op:        "delete review",
		key:       movieID,
		path:      PathDeleteReview,
		body:      DeleteReviewRequest{MovieID: movieID},
		control:   func(p *Page) dom.Control { return p.DeleteReviewButton(movieID) },
		busy:      "⏳ Deleting...",
		failAlert: "Failed to delete review",
		errPrefix: "Error deleting review: ",
		onSuccess: func(resp Response) (string, error) {
			card, err := c.board.Apply(movieID, ReviewDeleted{})
			if err != nil {
				return "", err
			}
			c.page.ClearReviewForm(movieID, c.defaultAuthor)
			c.page.Project(card)
			c.banner("Review deleted")
			return "", nil
		},
	})
}

// Regenerate asks the server to rebuild the published snapshot.
func (c *Client) Regenerate(ctx context.Context) error {
	return c.mutate(ctx, mutation{
		op:        "regenerate",
		key:       regenerateKey,
		path:      PathRegenerate,
		body:      struct{}{},
		control:   func(p *Page) dom.Control { return p.RegenerateButton() },
		busy:      "⏳ Regenerating...",
		failAlert: "Regeneration failed: Unknown error",
		errPrefix: "Error triggering regeneration: ",
		begin: func() {
			c.page.SetRegenerateStatus("Regenerating... (this may take 10-30 seconds)")
		},
		onSuccess: func(resp Response) (string, error) {
			c.page.SetRegenerateStatus("✓ " + orDefault(resp.Message, "Regeneration complete!"))
			c.banner("data.json regenerated successfully")
			c.later(regenStatusDelay, func() { c.page.SetRegenerateStatus("") })
			return "", nil
		},
		onFailure: func(msg string) {
			c.page.SetRegenerateStatus("✗ " + msg)
			c.later(regenStatusDelay, func() { c.page.SetRegenerateStatus("") })
		},
	})
}

type mutation struct {
	op        string
	key       string
	path      string
	body      any
	control   func(p *Page) dom.Control
	busy      string
	failAlert string
	errPrefix string
	begin     func()
	// onSuccess runs with the lock held and returns the success label to
	// show on the control, or "" to restore it at once.
	onSuccess func(resp Response) (string, error)
	onFailure func(msg string)
}

func (c *Client) mutate(ctx context.Context, m mutation) error {
	c.mu.Lock()
	if m.key != regenerateKey {
		if _, ok := c.board.Card(m.key); !ok {
			c.mu.Unlock()
			return fmt.Errorf("%s: %w: %s", m.op, ErrUnknownMovie, m.key)
		}
	}
	if _, busy := c.inflight[m.key]; busy {
		c.mu.Unlock()
		return fmt.Errorf("%s %s: %w", m.op, m.key, ErrMutationInFlight)
	}
	c.inflight[m.key] = struct{}{}
	ctl := m.control(c.page)
	if ctl.Exists() {
		ctl.Begin(m.busy)
	}
	if m.begin != nil {
		m.begin()
	}
	c.mu.Unlock()

	resp, err := c.post(ctx, m.path, m.body)

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, m.key)

	restore := func() {
		if ctl.Exists() {
			ctl.Restore()
		}
	}

	if err != nil {
		restore()
		if m.onFailure != nil {
			m.onFailure("Error: " + err.Error())
		}
		c.alert(m.errPrefix + err.Error())
		return fmt.Errorf("%s: %w", m.op, err)
	}
	if !resp.Success {
		restore()
		msg := orDefault(resp.Error, resp.Message)
		if m.onFailure != nil {
			m.onFailure(orDefault(msg, "Request failed"))
		}
		c.alert(orDefault(msg, m.failAlert))
		return &LogicalError{Op: m.op, Message: orDefault(msg, m.failAlert)}
	}

	label, err := m.onSuccess(resp)
	if err != nil {
		restore()
		return fmt.Errorf("%s: %w", m.op, err)
	}
	c.refreshStats()

	if label == "" {
		restore()
		// Status buttons take their new label from the projection.
		if card, ok := c.board.Card(m.key); ok {
			c.page.Project(card)
		}
		return nil
	}
	if ctl.Exists() {
		ctl.Show(label)
		c.later(c.successDelay, restore)
	}
	return nil
}

// refreshStats writes the header from the view-model and checks the
// document projection agrees with it. Callers hold c.mu.
func (c *Client) refreshStats() {
	stats := c.board.Stats()
	c.page.WriteStats(stats)
	if counted := c.page.CountStats(); counted != stats {
		c.logger.Warn().
			Interface("board", stats).
			Interface("document", counted).
			Msg("Admin document drifted from view-model")
	}
}

// banner shows the success banner and schedules it to hide. Callers hold c.mu.
func (c *Client) banner(msg string) {
	c.page.ShowSuccess(msg)
	c.later(successBannerDelay, c.page.HideSuccess)
}

// later schedules f to run under the client lock.
func (c *Client) later(d time.Duration, f func()) {
	c.after(d, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		f()
	})
}

func (c *Client) alert(msg string) {
	c.logger.Debug().Str("alert", msg).Msg("Alert")
	c.alerter.Alert(msg)
}

func (c *Client) post(ctx context.Context, path string, body any) (Response, error) {
	var resp Response
	payload, err := json.Marshal(body)
	if err != nil {
		return resp, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return resp, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	httpResp, err := c.http.Do(req)
	if err != nil {
		return resp, fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return resp, fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return resp, fmt.Errorf("unexpected response (HTTP %d): %w", httpResp.StatusCode, err)
	}
	return resp, nil
}

// ShowSuccess displays the banner and hides it again after a delay.
func (c *Client) ShowSuccess(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.banner(msg)
}

// Filter applies an admin grid filter.
func (c *Client) Filter(f Filter) {
	c.View(func(p *Page, _ *Board) { p.Filter(f) })
}

// Search filters the grid by title.
func (c *Client) Search(query string) {
	c.View(func(p *Page, _ *Board) { p.Search(query) })
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
