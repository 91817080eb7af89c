// Package api assembles the HTTP server: the public wall, the admin
// surface, playlist creation, websocket events and operational endpoints.
package api

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	apimw "github.com/nrw/releasewall/internal/api/middleware"
	"github.com/nrw/releasewall/internal/api/ratelimit"
	"github.com/nrw/releasewall/internal/config"
	"github.com/nrw/releasewall/internal/curation"
	"github.com/nrw/releasewall/internal/dataset"
	"github.com/nrw/releasewall/internal/health"
	"github.com/nrw/releasewall/internal/metrics"
	"github.com/nrw/releasewall/internal/playlist"
	"github.com/nrw/releasewall/internal/scheduler"
	"github.com/nrw/releasewall/internal/wall"
	"github.com/nrw/releasewall/internal/websocket"
)

// Deps are the services the server routes to. Scheduler, Health, Logs and
// Assets are optional.
type Deps struct {
	Config      *config.Config
	Hub         *websocket.Hub
	Regenerator *dataset.Regenerator
	Library     *dataset.Library
	Curation    *curation.Service
	Planner     *playlist.Planner
	Scheduler   *scheduler.Scheduler
	Health      *health.Service
	Checker     *health.Checker
	Logs        LogsProvider
	Assets      fs.FS
}

// Server handles HTTP requests for the release wall.
type Server struct {
	echo    *echo.Echo
	deps    Deps
	cfg     *config.Config
	wall    *wall.Renderer
	limiter *ratelimit.Limiter
	stop    chan struct{}
	logger  zerolog.Logger
}

// NewServer creates the HTTP server and registers every route.
func NewServer(deps Deps, logger zerolog.Logger) (*Server, error) {
	if deps.Config == nil {
		deps.Config = config.Default()
	}
	renderer, err := wall.NewRenderer(deps.Config.Catalog.Placeholder)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:    e,
		deps:    deps,
		cfg:     deps.Config,
		wall:    renderer,
		limiter: ratelimit.New(deps.Config.Server.RatePerMinute, deps.Config.Server.RateBurst),
		stop:    make(chan struct{}),
		logger:  logger.With().Str("component", "api").Logger(),
	}

	if deps.Regenerator != nil {
		deps.Regenerator.OnRegenerated(s.onRegenerated)
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

// setupMiddleware configures Echo middleware.
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())
	s.echo.Use(apimw.SecurityHeaders("/admin", "/data.json", "/api/"))
	s.echo.Use(middleware.BodyLimit("2M"))

	if len(s.cfg.Server.AllowedOrigins) > 0 {
		s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: s.cfg.Server.AllowedOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogRoutePath: true,
		LogStatus:    true,
		LogLatency:   true,
		LogMethod:    true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			metrics.RecordHTTPRequest(v.Method, routeLabel(v.RoutePath), v.Status, v.Latency)
			if v.Error != nil {
				s.logger.Error().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Err(v.Error).
					Msg("request error")
			} else {
				s.logger.Debug().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Msg("request")
			}
			return nil
		},
	}))
}

// routeLabel keeps metric cardinality bounded for unmatched paths.
func routeLabel(path string) string {
	if path == "" {
		return "unmatched"
	}
	return path
}

// Start begins listening for HTTP requests.
func (s *Server) Start(address string) error {
	s.logger.Info().Str("address", address).Msg("starting HTTP server")
	s.limiter.StartCleanup(time.Minute, s.stop)

	err := s.echo.Start(address)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	return s.echo.Shutdown(ctx)
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
