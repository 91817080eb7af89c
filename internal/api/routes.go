package api

import (
	"errors"
	"io/fs"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nrw/releasewall/internal/api/handlers"
	"github.com/nrw/releasewall/internal/curation"
	"github.com/nrw/releasewall/internal/health"
	"github.com/nrw/releasewall/internal/playlist"
)

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/", s.wallPage)
	s.echo.GET("/data.json", s.snapshot)

	if s.deps.Hub != nil {
		s.echo.GET("/ws", s.deps.Hub.HandleWebSocket)
	}
	if s.cfg.Server.Metrics {
		s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}
	if s.deps.Curation != nil {
		curation.NewHandlers(s.deps.Curation).RegisterRoutes(s.echo.Group(""), s.limiter.Middleware())
	}
	if s.deps.Planner != nil {
		playlist.NewHandlers(s.deps.Planner).RegisterRoutes(s.echo.Group(""), s.limiter.Middleware())
	}

	api := s.echo.Group("/api")
	api.GET("/status", s.getStatus)
	if s.deps.Logs != nil {
		NewLogsHandlers(s.deps.Logs).RegisterRoutes(api.Group("/logs"))
	}
	if s.deps.Health != nil {
		health.NewHandlers(s.deps.Health, s.deps.Checker).RegisterRoutes(api.Group("/health"))
	}
	if s.deps.Scheduler != nil {
		handlers.NewSchedulerHandler(s.deps.Scheduler).RegisterRoutes(api.Group("/scheduler"))
	}

	if s.deps.Assets != nil {
		if assets, err := fs.Sub(s.deps.Assets, "assets"); err == nil {
			s.echo.StaticFS("/assets", assets)
		}
	}
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// snapshot serves the published data.json.
func (s *Server) snapshot(c echo.Context) error {
	path := s.cfg.Catalog.SnapshotPath
	if s.deps.Library != nil {
		path = s.deps.Library.Path()
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return echo.NewHTTPError(http.StatusNotFound, "snapshot not generated yet")
	}
	return c.File(path)
}
