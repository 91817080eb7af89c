// Package curation implements the admin mutation endpoints: status flags,
// field edits, reviews and manual regeneration.
package curation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/nrw/releasewall/internal/admin"
	"github.com/nrw/releasewall/internal/dataset"
	"github.com/nrw/releasewall/internal/metrics"
	"github.com/nrw/releasewall/internal/store"
	"github.com/nrw/releasewall/internal/validation"
	"github.com/nrw/releasewall/internal/websocket"
)

// Store persists overrides. *store.Store satisfies it.
type Store interface {
	SetStatus(ctx context.Context, movieID, kind string, value bool) error
	SaveReview(ctx context.Context, r store.Review) (store.Review, error)
	DeleteReview(ctx context.Context, movieID string) error
	MergeFields(ctx context.Context, movieID string, patch store.Overrides) (store.Overrides, error)
}

// Dataset reads tracked movies and rebuilds the snapshot.
// *dataset.Regenerator satisfies it.
type Dataset interface {
	Entries(ctx context.Context) ([]dataset.Entry, error)
	Tracked(ctx context.Context, movieID string) (bool, error)
	Regenerate(ctx context.Context) (dataset.Result, error)
}

// Broadcaster publishes change events. *websocket.Hub satisfies it.
type Broadcaster interface {
	Broadcast(msgType string, payload any) error
}

// Options configures the service.
type Options struct {
	DefaultAuthor string
	Placeholder   string
}

// Service applies admin mutations.
type Service struct {
	store  Store
	data   Dataset
	events Broadcaster
	opts   Options
	logger zerolog.Logger
}

// NewService creates a curation service. events may be nil.
func NewService(s Store, data Dataset, events Broadcaster, opts Options, logger zerolog.Logger) *Service {
	if opts.DefaultAuthor == "" {
		opts.DefaultAuthor = admin.DefaultReviewAuthor
	}
	return &Service{
		store:  s,
		data:   data,
		events: events,
		opts:   opts,
		logger: logger.With().Str("component", "curation").Logger(),
	}
}

func fail(msg string) admin.Response {
	return admin.Response{Success: false, Error: msg}
}

func (s *Service) broadcast(msgType string, payload any) {
	if s.events == nil {
		return
	}
	if err := s.events.Broadcast(msgType, payload); err != nil {
		s.logger.Warn().Err(err).Str("type", msgType).Msg("Failed to broadcast event")
	}
}

func record(op string, resp admin.Response) admin.Response {
	metrics.RecordMutation(op, resp.Success)
	return resp
}

// ToggleStatus sets the hidden or featured flag of a movie.
func (s *Service) ToggleStatus(ctx context.Context, req admin.ToggleStatusRequest) admin.Response {
	return record("toggle-status", s.toggleStatus(ctx, req))
}

func (s *Service) toggleStatus(ctx context.Context, req admin.ToggleStatusRequest) admin.Response {
	switch {
	case req.MovieID == "":
		return fail("Missing required parameter: movie_id")
	case req.StatusType == "":
		return fail("Missing required parameter: status_type")
	case req.Value == nil:
		return fail("Missing required parameter: value")
	}
	value, ok := req.Value.(bool)
	if !ok {
		return fail("Parameter value must be boolean")
	}
	kind := admin.StatusKind(req.StatusType)
	if !kind.Valid() {
		return fail(fmt.Sprintf("Invalid status_type %q. Must be \"hidden\" or \"featured\"", req.StatusType))
	}

	if err := s.store.SetStatus(ctx, req.MovieID, string(kind), value); err != nil {
		s.logger.Error().Err(err).Str("movieId", req.MovieID).Str("status", string(kind)).Msg("Failed to toggle status")
		return fail("Internal error: " + err.Error())
	}

	s.logger.Info().Str("movieId", req.MovieID).Str("status", string(kind)).Bool("value", value).Msg("Status changed")
	s.broadcast(websocket.EventMovieStatus, map[string]any{
		"movie_id":    req.MovieID,
		"status_type": string(kind),
		"value":       value,
	})
	return admin.Response{Success: true}
}

// UpdateFields validates and stores field overrides, then regenerates the
// snapshot. A regeneration failure is reported as a warning on a
// successful response.
func (s *Service) UpdateFields(ctx context.Context, req admin.UpdateFieldsRequest) admin.Response {
	return record("update-movie-fields", s.updateFields(ctx, req))
}

func (s *Service) updateFields(ctx context.Context, req admin.UpdateFieldsRequest) admin.Response {
	if req.MovieID == "" {
		return fail("Movie ID required")
	}
	tracked, err := s.data.Tracked(ctx, req.MovieID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read tracking file")
		return fail("Error updating fields: " + err.Error())
	}
	if !tracked {
		return fail(fmt.Sprintf("Movie %s not found in tracking database", req.MovieID))
	}

	plan, msg := planFields(req)
	if msg != "" {
		return fail(msg)
	}
	if len(plan) == 0 {
		return admin.Response{Success: true, Message: "No fields to update"}
	}

	if _, err := s.store.MergeFields(ctx, req.MovieID, plan.overrides()); err != nil {
		s.logger.Error().Err(err).Str("movieId", req.MovieID).Msg("Failed to save field overrides")
		return fail("Error updating fields: " + err.Error())
	}

	changes := strings.Join(plan.labels(), ", ")
	s.logger.Info().Str("movieId", req.MovieID).Int("count", len(plan)).Str("changes", changes).Msg("Saved field changes")
	s.broadcast(websocket.EventMovieFields, map[string]any{
		"movie_id": req.MovieID,
		"changes":  plan.labels(),
	})

	if _, err := s.rebuild(ctx, "fields"); err != nil {
		s.logger.Warn().Err(err).Str("movieId", req.MovieID).Msg("Fields updated but regeneration failed")
		return admin.Response{
			Success: true,
			Message: fmt.Sprintf("Fields updated (%s) but regeneration failed", changes),
			Warning: err.Error(),
		}
	}
	return admin.Response{Success: true, Message: fmt.Sprintf("Updated %s and regenerated data.json", changes)}
}

// SaveReview creates or replaces the review of a movie.
func (s *Service) SaveReview(ctx context.Context, req admin.ReviewRequest) admin.Response {
	return record("update-review", s.saveReview(ctx, req))
}

func (s *Service) saveReview(ctx context.Context, req admin.ReviewRequest) admin.Response {
	req.ReviewText = strings.TrimSpace(req.ReviewText)
	req.Author = strings.TrimSpace(req.Author)
	if err := validation.Struct(req); err != nil {
		var re *validation.RequestError
		if errors.As(err, &re) {
			return fail(re.First())
		}
		return fail(err.Error())
	}
	if req.Author == "" {
		req.Author = s.opts.DefaultAuthor
	}

	saved, err := s.store.SaveReview(ctx, store.Review{
		MovieID:              req.MovieID,
		Text:                 req.ReviewText,
		Author:               req.Author,
		Rating:               req.Rating,
		FeaturedInNewsletter: req.FeaturedInNewsletter,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("movieId", req.MovieID).Msg("Failed to save review")
		return fail("Internal error: " + err.Error())
	}

	s.logger.Info().Str("movieId", req.MovieID).Str("reviewId", saved.ID).Msg("Review saved")
	s.broadcast(websocket.EventMovieReview, map[string]any{
		"movie_id":  req.MovieID,
		"review_id": saved.ID,
		"deleted":   false,
	})
	return admin.Response{Success: true, Message: "Review saved"}
}

// DeleteReview removes the review of a movie.
func (s *Service) DeleteReview(ctx context.Context, req admin.DeleteReviewRequest) admin.Response {
	return record("delete-review", s.deleteReview(ctx, req))
}

func (s *Service) deleteReview(ctx context.Context, req admin.DeleteReviewRequest) admin.Response {
	if err := validation.Struct(req); err != nil {
		return fail("Missing required parameter: movie_id")
	}
	if err := s.store.DeleteReview(ctx, req.MovieID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail(fmt.Sprintf("No review found for movie %s", req.MovieID))
		}
		s.logger.Error().Err(err).Str("movieId", req.MovieID).Msg("Failed to delete review")
		return fail("Internal error: " + err.Error())
	}

	s.logger.Info().Str("movieId", req.MovieID).Msg("Review deleted")
	s.broadcast(websocket.EventMovieReview, map[string]any{
		"movie_id": req.MovieID,
		"deleted":  true,
	})
	return admin.Response{Success: true, Message: "Review deleted"}
}

// Regenerate rebuilds the snapshot on demand.
func (s *Service) Regenerate(ctx context.Context) admin.Response {
	return record("regenerate", s.regenerate(ctx))
}

func (s *Service) regenerate(ctx context.Context) admin.Response {
	if _, err := s.rebuild(ctx, "manual"); err != nil {
		if errors.Is(err, dataset.ErrRegenerationRunning) {
			return fail("Regeneration already in progress")
		}
		s.logger.Error().Err(err).Msg("Manual regeneration failed")
		return fail("Failed to trigger regeneration: " + err.Error())
	}
	return admin.Response{Success: true, Message: "data.json regenerated successfully"}
}

// rebuild regenerates the snapshot and records the attempt under trigger.
// A rebuild refused because another one is running is not recorded.
func (s *Service) rebuild(ctx context.Context, trigger string) (dataset.Result, error) {
	start := time.Now()
	res, err := s.data.Regenerate(ctx)
	if errors.Is(err, dataset.ErrRegenerationRunning) {
		return res, err
	}
	metrics.RecordRegeneration(trigger, err, time.Since(start), res.Count, res.Hidden, res.Featured)
	if err != nil {
		s.broadcast(websocket.EventDatasetRegenFailure, map[string]string{
			"trigger": trigger,
			"error":   err.Error(),
		})
	}
	return res, err
}

// Board builds the admin view-model from the tracked movies, hidden ones
// included.
func (s *Service) Board(ctx context.Context) (*admin.Board, error) {
	entries, err := s.data.Entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load entries: %w", err)
	}
	cards := make([]admin.CardState, 0, len(entries))
	for _, e := range entries {
		card := admin.CardState{
			ID:       e.Movie.ID,
			Title:    e.Movie.Title,
			Hidden:   e.Status.Hidden,
			Featured: e.Status.Featured,
			Fields:   admin.FieldsFromMovie(e.Movie, s.opts.Placeholder),
		}
		if e.Review != nil {
			card.Review = &admin.Review{
				Text:                 e.Review.Text,
				Author:               e.Review.Author,
				Rating:               e.Review.Rating,
				FeaturedInNewsletter: e.Review.FeaturedInNewsletter,
			}
		}
		cards = append(cards, card)
	}
	return admin.NewBoard(cards), nil
}

// PageOptions returns the options the admin page renders with.
func (s *Service) PageOptions() admin.PageOptions {
	return admin.PageOptions{DefaultAuthor: s.opts.DefaultAuthor, Placeholder: s.opts.Placeholder}
}
