package admin

import (
	"bytes"

	"github.com/goccy/go-json"
)

// Endpoint paths shared by the client and the server.
const (
	PathToggleStatus = "/toggle-status"
	PathUpdateFields = "/update-movie-fields"
	PathUpdateReview = "/update-review"
	PathDeleteReview = "/delete-review"
	PathRegenerate   = "/regenerate"
	PathAdminPage    = "/admin"
)

// Response is the in-band result of every mutation endpoint.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Warning string `json:"warning,omitempty"`
}

// Nullable distinguishes an absent field (Set false), an explicit null
// (Set true, Valid false) and a value.
type Nullable[T any] struct {
	Value T
	Valid bool
	Set   bool
}

// Some wraps a present value.
func Some[T any](v T) Nullable[T] {
	return Nullable[T]{Value: v, Valid: true, Set: true}
}

// Null is an explicit null.
func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		n.Value, n.Valid = zero, false
		return nil
	}
	if err := json.Unmarshal(data, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// MarshalJSON implements json.Marshaler.
func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// ToggleStatusRequest is the body of POST /toggle-status. Value is left
// untyped so a non-boolean can be reported in-band.
type ToggleStatusRequest struct {
	MovieID    string `json:"movie_id"`
	StatusType string `json:"status_type"`
	Value      any    `json:"value"`
}

// WatchLink is one category of the watch_links bundle.
type WatchLink struct {
	Service Nullable[string] `json:"service"`
	Link    Nullable[string] `json:"link"`
}

// UpdateFieldsRequest is the body of POST /update-movie-fields.
// A null string clears its field; a null score leaves it unchanged.
type UpdateFieldsRequest struct {
	MovieID     string                         `json:"movie_id"`
	DigitalDate Nullable[string]               `json:"digital_date"`
	RTScore     Nullable[any]                  `json:"rt_score"`
	RTLink      Nullable[string]               `json:"rt_link"`
	TrailerLink Nullable[string]               `json:"trailer_link"`
	Director    Nullable[string]               `json:"director"`
	Country     Nullable[string]               `json:"country"`
	Synopsis    Nullable[string]               `json:"synopsis"`
	PosterURL   Nullable[string]               `json:"poster_url"`
	WatchLinks  Nullable[map[string]WatchLink] `json:"watch_links"`
}

// ReviewRequest is the body of POST /update-review.
type ReviewRequest struct {
	MovieID              string   `json:"movie_id" validate:"required"`
	ReviewText           string   `json:"review_text" validate:"required,max=5000"`
	Author               string   `json:"author" validate:"max=200"`
	Rating               *float64 `json:"rating" validate:"omitempty,gte=0,lte=5"`
	FeaturedInNewsletter bool     `json:"featured_in_newsletter"`
}

// DeleteReviewRequest is the body of POST /delete-review.
type DeleteReviewRequest struct {
	MovieID string `json:"movie_id" validate:"required"`
}
