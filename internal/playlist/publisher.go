package playlist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/nrw/releasewall/internal/metrics"
)

// WebhookPublisher hands playlists to an external publishing service over
// HTTP. The service replies with {"playlist_url": "..."}.
type WebhookPublisher struct {
	url    string
	token  string
	client *http.Client
}

// NewWebhookPublisher creates a publisher posting to url. A non-empty token
// is sent as a bearer token.
func NewWebhookPublisher(url, token string, timeout time.Duration) *WebhookPublisher {
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}
	return &WebhookPublisher{url: url, token: token, client: &http.Client{Timeout: timeout}}
}

type webhookReply struct {
	PlaylistURL string `json:"playlist_url"`
	Error       string `json:"error"`
}

// Publish implements Publisher.
func (w *WebhookPublisher) Publish(ctx context.Context, p Playlist) (string, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode playlist: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if w.token != "" {
		req.Header.Set("Authorization", "Bearer "+w.token)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("publish request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read publish response: %w", err)
	}
	var reply webhookReply
	_ = json.Unmarshal(data, &reply)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if reply.Error != "" {
			return "", fmt.Errorf("publisher returned %d: %s", resp.StatusCode, reply.Error)
		}
		return "", fmt.Errorf("publisher returned %d", resp.StatusCode)
	}
	if reply.PlaylistURL == "" {
		return "", errors.New("publisher reply has no playlist_url")
	}
	return reply.PlaylistURL, nil
}

// BreakerPublisher guards a Publisher with a circuit breaker so a failing
// publishing service is not hammered by repeated admin submissions.
type BreakerPublisher struct {
	next Publisher
	cb   *gobreaker.CircuitBreaker[string]
	name string
}

// BreakerSettings tunes the breaker.
type BreakerSettings struct {
	// ConsecutiveFailures opens the circuit.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the circuit stays open before a trial request.
	OpenTimeout time.Duration
}

// NewBreakerPublisher wraps next.
func NewBreakerPublisher(next Publisher, settings BreakerSettings, logger zerolog.Logger) *BreakerPublisher {
	const name = "playlist-publisher"
	if settings.ConsecutiveFailures == 0 {
		settings.ConsecutiveFailures = 3
	}
	if settings.OpenTimeout <= 0 {
		settings.OpenTimeout = 2 * time.Minute
	}
	log := logger.With().Str("component", "playlist-breaker").Logger()

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    10 * time.Minute,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info().Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})
	return &BreakerPublisher{next: next, cb: cb, name: name}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	}
	return 0
}

// State returns the breaker state name.
func (b *BreakerPublisher) State() string {
	return b.cb.State().String()
}

// Publish implements Publisher.
func (b *BreakerPublisher) Publish(ctx context.Context, p Playlist) (string, error) {
	url, err := b.cb.Execute(func() (string, error) {
		return b.next.Publish(ctx, p)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("publishing temporarily unavailable: %w", err)
	}
	return url, err
}
