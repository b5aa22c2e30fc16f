package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"collablist/config"
	"collablist/config/database"
	authService "collablist/internal/auth/service"
	"collablist/internal/entry/repository"
	entryService "collablist/internal/entry/service"
	"collablist/migrations"
	"collablist/pkg/logger"
	"collablist/router"
	"collablist/socket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logger.Init(cfg.LogLevel)
	defer logger.Log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, closeRepo := openRepository(cfg)
	defer closeRepo()

	// The hub owns every live subscription; it runs until shutdown.
	hub := socket.NewHub(repo)
	go hub.Run(ctx)
	if cfg.Storage == config.StoragePostgres {
		go hub.SyncWorker(ctx, cfg.SyncInterval)
	}

	auth := authService.NewAuthService(cfg.JWTSecret, cfg.TokenIssuer, cfg.TokenTTL)
	entries := entryService.NewEntryService(repo, hub)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.Setup(hub, entries, auth),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Sugar.Infof("collablist store listening on :%s (storage: %s)", cfg.Port, cfg.Storage)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Sugar.Fatalf("Server failed: %v", err)
	}
	logger.Sugar.Info("Server stopped")
}

func openRepository(cfg *config.Config) (entryService.Repository, func()) {
	if cfg.Storage == config.StorageMemory {
		logger.Sugar.Warn("Using in-memory storage, entries are lost on restart")
		return repository.NewMemoryRepository(), func() {}
	}

	db, err := database.Connect(cfg.DB)
	if err != nil {
		logger.Sugar.Fatalf("Could not connect to database after retries: %v", err)
	}
	if err := migrations.Migrate(db); err != nil {
		logger.Sugar.Fatalf("Failed to migrate database: %v", err)
	}
	return repository.NewEntryRepository(db), func() { db.Close() }
}
