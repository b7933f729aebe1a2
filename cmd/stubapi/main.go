// Package main boots the development storefront backend.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopfront/auth"
	"shopfront/config"
	"shopfront/db"
	"shopfront/obs"
	"shopfront/stubapi"
)

func main() {
	cfg := config.LoadStub()
	obs.InitLogger(os.Stderr, cfg.LogFormat, cfg.LogLevel)
	obs.Logger.Info("service_starting")

	ctx := context.Background()
	repo, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		obs.Logger.Error("bootstrap_repository_failed", "error", err)
		os.Exit(1)
	}
	defer closeRepo()

	svc := auth.NewService(repo, cfg.JWTSecret)
	if err := svc.Seed(ctx, stubapi.SeedAccounts()...); err != nil {
		obs.Logger.Error("seed_accounts_failed", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           stubapi.NewServer(stubapi.Options{Auth: svc}).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		obs.Logger.Info("http_listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			obs.Logger.Error("http_server_error", "error", err)
			os.Exit(1)
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigc
	obs.Logger.Info("shutdown_signal", "signal", s.String())

	ctxSrv, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctxSrv); err != nil {
		obs.Logger.Error("http_shutdown_error", "error", err)
	}
	obs.Logger.Info("service_stopped")
}

// openRepository uses PostgreSQL when DATABASE_URL is set and process memory
// otherwise.
func openRepository(ctx context.Context, cfg config.StubConfig) (auth.Repository, func(), error) {
	if cfg.DatabaseURL == "" {
		return auth.NewMemoryRepository(), func() {}, nil
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return auth.NewRepository(pool), pool.Close, nil
}
