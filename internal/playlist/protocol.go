// Package playlist builds trailer playlists for a range of release dates.
// Builder is the admin form client; Planner selects the trailers server side
// and hands them to a Publisher.
package playlist

// PathCreate is the playlist endpoint.
const PathCreate = "/create-youtube-playlist"

// Date range modes.
const (
	ModeLastDays  = "last_x_days"
	ModeDateRange = "date_range"
)

// Privacy levels.
const (
	PrivacyPublic   = "public"
	PrivacyUnlisted = "unlisted"
	PrivacyPrivate  = "private"
)

// PreviewSize is how many entries a result previews.
const PreviewSize = 5

// Request is the body of POST /create-youtube-playlist.
type Request struct {
	DateType string `json:"date_type" validate:"omitempty,oneof=last_x_days date_range"`
	DaysBack *int   `json:"days_back,omitempty" validate:"omitempty,gte=1"`
	FromDate string `json:"from_date,omitempty" validate:"omitempty,isodate"`
	ToDate   string `json:"to_date,omitempty" validate:"omitempty,isodate"`
	Title    string `json:"title,omitempty" validate:"max=150"`
	Privacy  string `json:"privacy" validate:"omitempty,oneof=public unlisted private"`
	DryRun   bool   `json:"dry_run"`
}

// Result is the response of POST /create-youtube-playlist.
type Result struct {
	Success       bool     `json:"success"`
	Title         string   `json:"title,omitempty"`
	VideoCount    *int     `json:"video_count,omitempty"`
	DateRange     string   `json:"date_range,omitempty"`
	PlaylistURL   string   `json:"playlist_url,omitempty"`
	PreviewVideos []string `json:"preview_videos,omitempty"`
	Message       string   `json:"message,omitempty"`
	Error         string   `json:"error,omitempty"`
}
