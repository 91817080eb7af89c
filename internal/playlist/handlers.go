package playlist

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"

	"github.com/nrw/releasewall/internal/metrics"
)

// Handlers serves the playlist endpoint.
type Handlers struct {
	planner *Planner
}

// NewHandlers creates playlist handlers.
func NewHandlers(planner *Planner) *Handlers {
	return &Handlers{planner: planner}
}

// RegisterRoutes registers the playlist routes. mw wraps the create
// endpoint.
func (h *Handlers) RegisterRoutes(g *echo.Group, mw ...echo.MiddlewareFunc) {
	g.POST(PathCreate, h.Create, mw...)
}

// Create plans and optionally publishes a playlist.
// POST /create-youtube-playlist
func (h *Handlers) Create(c echo.Context) error {
	var req Request
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return c.JSON(http.StatusBadRequest, Result{Error: "Invalid request body"})
	}
	res := h.planner.Create(c.Request().Context(), req)
	recordRequest(req, res)
	return c.JSON(http.StatusOK, res)
}

func recordRequest(req Request, res Result) {
	mode := req.DateType
	if mode != ModeLastDays && mode != ModeDateRange {
		mode = "invalid"
	}
	if req.DryRun {
		mode += "-preview"
	}
	outcome := metrics.OutcomeSuccess
	if !res.Success {
		outcome = metrics.OutcomeFailure
	}
	metrics.PlaylistRequests.WithLabelValues(mode, outcome).Inc()
}
