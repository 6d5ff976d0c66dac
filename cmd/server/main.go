// Charette session server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charetteworks/charette/internal/api"
	"github.com/charetteworks/charette/internal/config"
	"github.com/charetteworks/charette/internal/fixtures"
	"github.com/charetteworks/charette/internal/live"
	"github.com/charetteworks/charette/internal/middleware"
	"github.com/charetteworks/charette/internal/session"
	"github.com/charetteworks/charette/internal/store"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize dependencies. All session state is in-memory and lives for
	// the process lifetime only.
	repo := store.NewMemory()
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	svc := session.New(repo, cfg.MaxMessageLength)

	if cfg.SeedDemo {
		if err := fixtures.Seed(context.Background(), repo, svc); err != nil {
			slog.Error("Failed to seed demo data", "error", err)
			os.Exit(1)
		}
		slog.Info("Demo fixtures seeded")
	}

	hub := live.NewHub()

	// Initialize handlers.
	baseHandler := api.NewHandler(svc)
	charetteHandler := api.NewCharetteHandler(baseHandler, hub)
	healthHandler := api.NewHealthHandler(repo)
	wsHandler := live.NewWebSocketHandler(svc, hub, cfg.FrontendURL, cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	healthHandler.RegisterHealth(r)
	charetteHandler.RegisterRoutes(r)

	// Metrics endpoint.
	r.Handle("/metrics", promhttp.Handler())

	// WebSocket endpoint.
	r.Get("/ws/charettes/{charetteID}", wsHandler.ServeHTTP)

	// Create server. WriteTimeout stays 0 so long-lived websocket
	// connections are not cut off.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
