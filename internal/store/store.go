// Package store persists admin overrides: hidden and featured flags,
// reviews, and per-movie field overrides.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nrw/releasewall/internal/catalog"
)

// ErrNotFound is returned when a movie has no stored row.
var ErrNotFound = errors.New("not found")

// Status is the admin flag state of one movie.
type Status struct {
	MovieID   string
	Hidden    bool
	Featured  bool
	UpdatedAt time.Time
}

// Review is a stored review. A movie has at most one.
type Review struct {
	ID                   string
	MovieID              string
	Text                 string
	Author               string
	Rating               *float64
	FeaturedInNewsletter bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Overrides maps canonical record paths (see catalog.Record) to values.
// A nil value removes the path from the source record.
type Overrides map[string]any

// Apply writes the overrides into rec.
func (o Overrides) Apply(rec catalog.Record) {
	for path, v := range o {
		if v == nil {
			rec.Delete(path)
			continue
		}
		rec.Set(path, v)
	}
}

// Store reads and writes overrides in sqlite.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
	now    func() time.Time
}

// New creates a store over a migrated database.
func New(db *sql.DB, logger zerolog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger.With().Str("component", "store").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SetStatus sets one flag of a movie, creating its row if needed.
func (s *Store) SetStatus(ctx context.Context, movieID, kind string, value bool) error {
	var column string
	switch kind {
	case "hidden":
		column = "hidden"
	case "featured":
		column = "featured"
	default:
		return fmt.Errorf("unknown status kind %q", kind)
	}

	query := fmt.Sprintf(`INSERT INTO movie_status (movie_id, %[1]s, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(movie_id) DO UPDATE SET %[1]s = excluded.%[1]s, updated_at = excluded.updated_at`, column)
	if _, err := s.db.ExecContext(ctx, query, movieID, value, s.now()); err != nil {
		return fmt.Errorf("failed to set %s for %s: %w", kind, movieID, err)
	}
	s.logger.Debug().Str("movieId", movieID).Str("status", kind).Bool("value", value).Msg("Status updated")
	return nil
}

// Status returns the flags of one movie.
func (s *Store) Status(ctx context.Context, movieID string) (Status, error) {
	st := Status{MovieID: movieID}
	err := s.db.QueryRowContext(ctx,
		`SELECT hidden, featured, updated_at FROM movie_status WHERE movie_id = ?`, movieID,
	).Scan(&st.Hidden, &st.Featured, &st.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Status{}, ErrNotFound
	}
	if err != nil {
		return Status{}, fmt.Errorf("failed to get status for %s: %w", movieID, err)
	}
	return st, nil
}

// Statuses returns every stored status keyed by movie id.
func (s *Store) Statuses(ctx context.Context) (map[string]Status, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT movie_id, hidden, featured, updated_at FROM movie_status`)
	if err != nil {
		return nil, fmt.Errorf("failed to list statuses: %w", err)
	}
	defer rows.Close()

	out := make(map[string]Status)
	for rows.Next() {
		var st Status
		if err := rows.Scan(&st.MovieID, &st.Hidden, &st.Featured, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status: %w", err)
		}
		out[st.MovieID] = st
	}
	return out, rows.Err()
}

// SaveReview creates or replaces the review of r.MovieID. The review keeps
// its id and creation time across updates.
func (s *Store) SaveReview(ctx context.Context, r Review) (Review, error) {
	now := s.now()
	r.ID = uuid.NewString()
	r.CreatedAt, r.UpdatedAt = now, now

	var rating sql.NullFloat64
	if r.Rating != nil {
		rating = sql.NullFloat64{Float64: *r.Rating, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO reviews
		(id, movie_id, review_text, author, rating, featured_in_newsletter, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(movie_id) DO UPDATE SET
			review_text = excluded.review_text,
			author = excluded.author,
			rating = excluded.rating,
			featured_in_newsletter = excluded.featured_in_newsletter,
			updated_at = excluded.updated_at`,
		r.ID, r.MovieID, r.Text, r.Author, rating, r.FeaturedInNewsletter, now, now)
	if err != nil {
		return Review{}, fmt.Errorf("failed to save review for %s: %w", r.MovieID, err)
	}
	return s.Review(ctx, r.MovieID)
}

const reviewColumns = `id, movie_id, review_text, author, rating, featured_in_newsletter, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanReview(row scanner) (Review, error) {
	var (
		r      Review
		rating sql.NullFloat64
	)
	if err := row.Scan(&r.ID, &r.MovieID, &r.Text, &r.Author, &rating, &r.FeaturedInNewsletter, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return Review{}, err
	}
	if rating.Valid {
		v := rating.Float64
		r.Rating = &v
	}
	return r, nil
}

// Review returns the review of a movie.
func (s *Store) Review(ctx context.Context, movieID string) (Review, error) {
	r, err := scanReview(s.db.QueryRowContext(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE movie_id = ?`, movieID))
	if errors.Is(err, sql.ErrNoRows) {
		return Review{}, ErrNotFound
	}
	if err != nil {
		return Review{}, fmt.Errorf("failed to get review for %s: %w", movieID, err)
	}
	return r, nil
}

// Reviews returns every review keyed by movie id.
func (s *Store) Reviews(ctx context.Context) (map[string]Review, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+reviewColumns+` FROM reviews`)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	out := make(map[string]Review)
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		out[r.MovieID] = r
	}
	return out, rows.Err()
}

// DeleteReview removes the review of a movie.
func (s *Store) DeleteReview(ctx context.Context, movieID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reviews WHERE movie_id = ?`, movieID)
	if err != nil {
		return fmt.Errorf("failed to delete review for %s: %w", movieID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete review for %s: %w", movieID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// MergeFields merges patch into the stored overrides of a movie and returns
// the result as Fields would read it back, so numbers are float64. Paths in
// patch replace stored paths, including nil clears.
func (s *Store) MergeFields(ctx context.Context, movieID string, patch Overrides) (Overrides, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := fieldsFrom(tx.QueryRowContext(ctx, `SELECT fields FROM field_overrides WHERE movie_id = ?`, movieID))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to load overrides for %s: %w", movieID, err)
	}
	if current == nil {
		current = Overrides{}
	}
	for path, v := range patch {
		current[path] = v
	}

	data, err := json.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("failed to encode overrides: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO field_overrides (movie_id, fields, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(movie_id) DO UPDATE SET fields = excluded.fields, updated_at = excluded.updated_at`,
		movieID, string(data), s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to save overrides for %s: %w", movieID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit overrides: %w", err)
	}

	var merged Overrides
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, fmt.Errorf("failed to decode overrides: %w", err)
	}
	return merged, nil
}

func fieldsFrom(row scanner) (Overrides, error) {
	var raw string
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var o Overrides
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		return nil, fmt.Errorf("failed to decode overrides: %w", err)
	}
	return o, nil
}

// Fields returns the stored overrides of a movie.
func (s *Store) Fields(ctx context.Context, movieID string) (Overrides, error) {
	o, err := fieldsFrom(s.db.QueryRowContext(ctx, `SELECT fields FROM field_overrides WHERE movie_id = ?`, movieID))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to get overrides for %s: %w", movieID, err)
	}
	return o, err
}

// AllFields returns every movie's overrides keyed by movie id.
func (s *Store) AllFields(ctx context.Context) (map[string]Overrides, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT movie_id, fields FROM field_overrides`)
	if err != nil {
		return nil, fmt.Errorf("failed to list overrides: %w", err)
	}
	defer rows.Close()

	out := make(map[string]Overrides)
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan overrides: %w", err)
		}
		var o Overrides
		if err := json.Unmarshal([]byte(raw), &o); err != nil {
			s.logger.Warn().Err(err).Str("movieId", id).Msg("Skipping undecodable overrides")
			continue
		}
		out[id] = o
	}
	return out, rows.Err()
}

// Snapshot is every override the dataset regenerator applies.
type Snapshot struct {
	Statuses map[string]Status
	Reviews  map[string]Review
	Fields   map[string]Overrides
}

// Load reads every override.
func (s *Store) Load(ctx context.Context) (Snapshot, error) {
	var (
		snap Snapshot
		err  error
	)
	if snap.Statuses, err = s.Statuses(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Reviews, err = s.Reviews(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Fields, err = s.AllFields(ctx); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
