package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gravadigital/posterjudge-api/internal/auth"
	"github.com/gravadigital/posterjudge-api/internal/config"
	"github.com/gravadigital/posterjudge-api/internal/logger"
	"github.com/gravadigital/posterjudge-api/internal/ratelimit"
	"github.com/gravadigital/posterjudge-api/internal/server"
	"github.com/gravadigital/posterjudge-api/internal/services"
	"github.com/gravadigital/posterjudge-api/internal/storage"
	"github.com/gravadigital/posterjudge-api/internal/storage/objects"
)

func main() {
	cfg := config.Load()

	logger.Initialize(cfg.LogLevel)
	log := logger.Get()

	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", "error", err)
	}
	if cfg.Auth.JWTSecret == "" {
		log.Warn("JWT_SECRET is empty, every authenticated request will be rejected")
	}

	factory, err := storage.FromConfig(cfg)
	if err != nil {
		log.Fatal("Invalid storage configuration", "error", err)
	}
	store, err := factory.CreateContainer(cfg)
	if err != nil {
		log.Fatal("Failed to initialize storage", "type", cfg.Storage.Type, "error", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Failed to close storage", "error", err)
		}
	}()

	posters, err := objects.New(context.Background(), cfg)
	if err != nil {
		log.Fatal("Failed to initialize object storage", "error", err)
	}

	deps := server.Dependencies{
		Store:    store,
		Posters:  posters,
		Services: services.New(store, posters, cfg),
		Verifier: auth.NewVerifier(cfg),
	}

	rl, err := ratelimit.New(cfg)
	if err != nil {
		log.Fatal("Failed to initialize rate limiter", "error", err)
	}
	if rl != nil {
		deps.Limiter = rl
		defer rl.Close()
	} else {
		log.Warn("REDIS_ADDR is empty, admin grant rate limiting is disabled")
	}

	srv := server.New(cfg, deps)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("Server stopped", "error", err)
			os.Exit(1)
		}
	case sig := <-quit:
		log.Info("Shutdown signal received", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Stop(ctx); err != nil {
		log.Error("Graceful shutdown failed", "error", err)
	}
	log.Info("Server exited")
}
