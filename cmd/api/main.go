package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"jobtrack/api/internal/app"
	"jobtrack/api/internal/config"
	"jobtrack/api/internal/export"
	"jobtrack/api/internal/logging"
	"jobtrack/api/internal/search"
	"jobtrack/api/internal/session"
	"jobtrack/api/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		slog.Error("init logger", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("jobtrack api stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.DatabaseURL, store.DefaultPoolOptions())
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir)
	if err != nil {
		return err
	}
	for _, version := range applied {
		logger.Info("migration applied", slog.String("version", version))
	}

	dataStore := store.NewPostgresStore(db)
	deps := app.Deps{Logger: logger, Export: export.NewService()}

	pgSearch := search.NewPgSearch(db)
	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey, logger)
		defer meiliClient.Close()
	}
	deps.Search = search.NewService(meiliClient, pgSearch, logger)
	if meiliClient != nil {
		go deps.Search.ReindexAllFromPG(ctx)
	}

	if strings.TrimSpace(cfg.RedisURL) != "" {
		logger.Info("using redis for session storage")
		redisStore, err := session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisStore.Close()
		deps.Sessions = redisStore
	} else {
		logger.Info("using postgres for session storage")
		go pruneRevokedTokens(ctx, dataStore, logger)
	}

	if cfg.ArchiveEnabled() {
		archive, err := export.NewArchive(export.ArchiveConfig{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			UseSSL:    cfg.S3UseSSL,
			URLTTL:    cfg.ExportURLTTL,
		})
		if err != nil {
			return err
		}
		if err := archive.EnsureBucket(ctx); err != nil {
			logger.Warn("export archive unavailable", slog.String("error", err.Error()))
		} else {
			deps.Archive = archive
		}
	}

	service := app.New(cfg, dataStore, deps)
	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("jobtrack api listening", slog.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", slog.String("error", err.Error()))
	}
	return nil
}

// pruneRevokedTokens clears expired deny-list rows while sessions live in
// Postgres; Redis expires them on its own.
func pruneRevokedTokens(ctx context.Context, dataStore *store.PostgresStore, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := dataStore.PruneRevokedTokens(ctx)
			if err != nil {
				logger.Warn("prune revoked tokens", slog.String("error", err.Error()))
				continue
			}
			if n > 0 {
				logger.Debug("pruned revoked tokens", slog.Int64("count", n))
			}
		}
	}
}
