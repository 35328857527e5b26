package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/diewo77/festakit/auth"
	"github.com/diewo77/festakit/internal/cache"
	"github.com/diewo77/festakit/internal/db"
	"github.com/diewo77/festakit/internal/jobs"
	"github.com/diewo77/festakit/internal/search"
	"github.com/diewo77/festakit/internal/storage"
	"github.com/diewo77/festakit/internal/tracing"
	"github.com/diewo77/festakit/view"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server and the background jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	logger := log.Logger

	if cfg.App.SessionSecret == "" {
		if !cfg.IsDevelopment() {
			return errors.New("app.session_secret must be set outside development")
		}
		logger.Warn().Msg("session secret not set, using the development default")
	}
	view.SetDevMode(cfg.IsDevelopment())
	if cfg.App.TemplatesDir != "" {
		view.SetBaseDir(cfg.App.TemplatesDir)
	}

	conn, err := db.Connect(cfg.Database, logger)
	if err != nil {
		return err
	}
	if cfg.Database.Migrations {
		if err := db.Migrate(conn, cfg.Database, "migrations", false); err != nil {
			return err
		}
	}
	if err := db.Seed(conn, cfg.App.AdminEmail); err != nil {
		return err
	}

	deps, cleanup, err := buildDeps(logger)
	if err != nil {
		return err
	}
	defer cleanup()

	app := NewApp(cfg, conn, deps, logger)
	runner := jobs.NewRunner(cfg.Jobs, app.Subscriptions(), app.Accounts(), logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      app,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", srv.Addr).Str("env", cfg.Environment).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return runner.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutdown signal received")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	closeDB(conn)
	logger.Info().Msg("server stopped gracefully")
	return nil
}

// buildDeps connects the optional infrastructure. Redis and Elasticsearch
// failures degrade to the disabled clients.
func buildDeps(logger zerolog.Logger) (Deps, func(), error) {
	signingSecret := cfg.Storage.SigningSecret
	if signingSecret == "" {
		signingSecret = auth.Secret()
	}
	signer := storage.NewSigner(signingSecret)
	baseURL := cfg.Storage.PublicBaseURL

	files, err := storage.NewLocalBucket(cfg.Storage.Root, "materials", false, baseURL, signer)
	if err != nil {
		return Deps{}, nil, err
	}
	previews, err := storage.NewLocalBucket(cfg.Storage.Root, "previews", true, baseURL, signer)
	if err != nil {
		return Deps{}, nil, err
	}

	rc, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, reference data cache disabled")
		rc = cache.Disabled()
	}

	indexer, err := search.NewIndexer(cfg.Elastic)
	if err != nil {
		logger.Warn().Err(err).Msg("elasticsearch unavailable, material indexing disabled")
		indexer = search.Noop{}
	}

	tracer, err := tracing.NewTracer(cfg.Tracing)
	if err != nil {
		return Deps{}, nil, err
	}

	cleanup := func() {
		tracer.Shutdown()
		if err := rc.Close(); err != nil {
			logger.Warn().Err(err).Msg("redis close")
		}
	}
	return Deps{
		Cache:    rc,
		Indexer:  indexer,
		Tracer:   tracer,
		Files:    files,
		Previews: previews,
		Signer:   signer,
	}, cleanup, nil
}

func closeDB(conn *gorm.DB) {
	if sqlDB, err := conn.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
