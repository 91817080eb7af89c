package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/nrw/releasewall/internal/api"
	"github.com/nrw/releasewall/internal/catalog"
	"github.com/nrw/releasewall/internal/config"
	"github.com/nrw/releasewall/internal/curation"
	"github.com/nrw/releasewall/internal/database"
	"github.com/nrw/releasewall/internal/dataset"
	"github.com/nrw/releasewall/internal/health"
	"github.com/nrw/releasewall/internal/logger"
	"github.com/nrw/releasewall/internal/playlist"
	"github.com/nrw/releasewall/internal/scheduler"
	"github.com/nrw/releasewall/internal/scheduler/tasks"
	"github.com/nrw/releasewall/internal/store"
	"github.com/nrw/releasewall/internal/websocket"
	"github.com/nrw/releasewall/web"
)

// snapshotMaxAge is how stale data.json may get before health warns.
const snapshotMaxAge = 36 * time.Hour

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to config file")
	envFile := flag.String("env", "", "Path to a .env file")
	regenerateOnly := flag.Bool("regenerate", false, "Regenerate data.json and exit")
	flag.Parse()

	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}
	cfg, err := config.Load(*configPath, envFiles...)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
		BufferSize: 1000,
	})
	defer log.Close()

	log.Info().
		Str("logLevel", cfg.Logging.Level).
		Str("tracking", cfg.Catalog.TrackingPath).
		Str("snapshot", cfg.Catalog.SnapshotPath).
		Msg("starting release wall")

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	log.Info().Msg("running database migrations")
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	overrides := store.New(db.Conn(), log.WithComponent("store"))
	catalogOpts := catalog.Options{
		ImageBaseURL: cfg.Catalog.ImageBaseURL,
		Placeholder:  cfg.Catalog.Placeholder,
	}
	regen := dataset.NewRegenerator(dataset.Config{
		TrackingPath: cfg.Catalog.TrackingPath,
		SnapshotPath: cfg.Catalog.SnapshotPath,
		DaysBack:     cfg.Catalog.DaysBack,
		Options:      catalogOpts,
	}, overrides, log.WithComponent("dataset"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *regenerateOnly {
		res, err := regen.Regenerate(ctx)
		if err != nil {
			return fmt.Errorf("regeneration failed: %w", err)
		}
		log.Info().Int("count", res.Count).Str("path", res.Path).Msg("data.json written")
		return nil
	}

	library := dataset.NewLibrary(cfg.Catalog.SnapshotPath, catalogOpts)

	hub := websocket.NewHub(log.WithComponent("websocket"), cfg.Server.AllowedOrigins...)
	go hub.Run(ctx)
	log.SetBroadcastHub(hub)

	curator := curation.NewService(overrides, regen, hub, curation.Options{
		DefaultAuthor: cfg.Admin.DefaultAuthor,
		Placeholder:   cfg.Catalog.Placeholder,
	}, log.WithComponent("curation"))

	healthSvc := health.NewService(log.Logger)
	healthSvc.SetBroadcaster(hub)
	checks := []health.Check{
		health.TrackingFileCheck(cfg.Catalog.TrackingPath),
		health.SnapshotCheck(cfg.Catalog.SnapshotPath, snapshotMaxAge),
		health.WritableDirCheck(filepath.Dir(cfg.Catalog.SnapshotPath)),
		health.DatabaseCheck(db.Conn()),
	}

	plannerOpts := []playlist.PlannerOption{playlist.WithSiteURL(cfg.Catalog.SiteURL)}
	if cfg.Playlist.PublisherURL != "" {
		publisher := playlist.NewBreakerPublisher(
			playlist.NewWebhookPublisher(cfg.Playlist.PublisherURL, cfg.Playlist.PublisherToken, cfg.Playlist.Timeout),
			playlist.BreakerSettings{
				ConsecutiveFailures: cfg.Playlist.BreakerFailures,
				OpenTimeout:         cfg.Playlist.BreakerOpenFor,
			},
			log.WithComponent("playlist"),
		)
		plannerOpts = append(plannerOpts, playlist.WithPublisher(publisher))
		checks = append(checks, health.PublisherCheck(publisher))
	} else {
		log.Info().Msg("playlist publisher not configured, previews only")
	}
	planner := playlist.NewPlanner(library, log.WithComponent("playlist"), plannerOpts...)
	checker := health.NewChecker(healthSvc, checks...)

	sched, err := scheduler.New(log.WithComponent("scheduler"))
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	if err := tasks.RegisterRegenerateTask(sched, regen, cfg.Schedule.RegenerateCron, cfg.Schedule.RunOnStart); err != nil {
		return fmt.Errorf("failed to register regeneration task: %w", err)
	}
	if err := tasks.RegisterHealthTask(sched, checker, ""); err != nil {
		return fmt.Errorf("failed to register health task: %w", err)
	}

	deps := api.Deps{
		Config:      cfg,
		Hub:         hub,
		Regenerator: regen,
		Library:     library,
		Curation:    curator,
		Planner:     planner,
		Scheduler:   sched,
		Health:      healthSvc,
		Checker:     checker,
		Logs:        log,
	}
	if assets, err := web.DistFS(); err == nil {
		deps.Assets = assets
	} else {
		log.Warn().Err(err).Msg("embedded assets unavailable")
	}

	server, err := api.NewServer(deps, log.Logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.Server.Address())
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("HTTP server stopped")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
	if err := sched.Stop(); err != nil {
		log.Error().Err(err).Msg("scheduler shutdown error")
	}

	log.Info().Msg("server stopped")
	return nil
}
