package api

import (
	"bytes"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nrw/releasewall/internal/catalog"
	"github.com/nrw/releasewall/internal/dataset"
	"github.com/nrw/releasewall/internal/health"
	"github.com/nrw/releasewall/internal/wall"
	"github.com/nrw/releasewall/internal/websocket"
)

// wallPage renders the public wall from the published snapshot. Movies
// dated after today stay off the wall until their date arrives.
func (s *Server) wallPage(c echo.Context) error {
	page := wall.Page{}
	if s.deps.Library != nil {
		movies, err := s.deps.Library.Movies(c.Request().Context())
		switch {
		case errors.Is(err, fs.ErrNotExist):
			s.logger.Warn().Str("path", s.deps.Library.Path()).Msg("Snapshot missing, rendering empty wall")
		case err != nil:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to load movies").SetInternal(err)
		default:
			page.Movies = catalog.Visible(movies, time.Now())
		}
		if info, err := os.Stat(s.deps.Library.Path()); err == nil {
			page.GeneratedAt = info.ModTime()
		}
	}

	var buf bytes.Buffer
	if err := s.wall.RenderPage(&buf, page); err != nil {
		return err
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// getStatus reports the state of the snapshot and its consumers.
// GET /api/status
func (s *Server) getStatus(c echo.Context) error {
	response := map[string]any{
		"snapshotPath": s.cfg.Catalog.SnapshotPath,
		"regenerating": false,
		"clients":      0,
	}
	if s.deps.Regenerator != nil {
		response["regenerating"] = s.deps.Regenerator.Running()
	}
	if s.deps.Hub != nil {
		response["clients"] = s.deps.Hub.ClientCount()
	}
	if s.deps.Library != nil {
		if movies, err := s.deps.Library.Movies(c.Request().Context()); err == nil {
			response["movieCount"] = len(movies)
		}
		if info, err := os.Stat(s.deps.Library.Path()); err == nil {
			response["generatedAt"] = info.ModTime().UTC().Format(time.RFC3339)
		}
	}
	return c.JSON(http.StatusOK, response)
}

// onRegenerated drops the cached snapshot and tells open pages to reload.
func (s *Server) onRegenerated(res dataset.Result) {
	if s.deps.Library != nil {
		s.deps.Library.Invalidate()
	}
	if s.deps.Health != nil {
		s.deps.Health.ClearStatus(health.CategoryDataset, "snapshot")
	}
	if s.deps.Hub == nil {
		return
	}
	payload := map[string]any{
		"count":       res.Count,
		"hidden":      res.Hidden,
		"featured":    res.Featured,
		"generatedAt": res.GeneratedAt.UTC().Format(time.RFC3339),
	}
	if err := s.deps.Hub.Broadcast(websocket.EventDatasetRegenerated, payload); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to broadcast regeneration")
	}
}
