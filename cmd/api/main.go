// Package main starts the HTTP server that discovers Snowflake compute
// pools, container services, notebooks and external access integrations
// and serves them as a visualization graph.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/snowscape/core/cmd/api/middleware"
	"github.com/snowscape/core/internal/discovery"
	"github.com/snowscape/core/internal/handlers"
	"github.com/snowscape/core/internal/snowflake"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Best effort: a missing .env just means the environment is already set.
	_ = godotenv.Load()

	logger := newLogger()
	slog.SetDefault(logger)

	cfg, err := snowflake.Load()
	if err != nil {
		return fmt.Errorf("loading connection config: %w", err)
	}

	session, err := snowflake.Open(cfg)
	if err != nil {
		return fmt.Errorf("opening session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("closing session", "error", err)
		}
	}()

	explorer := discovery.New(session, logger)

	handler := middleware.Cors(
		middleware.RequestID(
			middleware.Logging(logger)(newRouter(explorer)),
		),
	)

	addr := ":" + envOr("PORT", "8080")
	srv := &http.Server{Addr: addr, Handler: handler}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	logger.Info("server starting", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newRouter(explorer handlers.Explorer) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", handlers.Index)
	mux.HandleFunc("/health", handlers.HealthHandler)
	mux.HandleFunc("/api/graph", handlers.Graph(explorer))
	mux.HandleFunc("/api/compute-pools", handlers.ComputePools(explorer))
	mux.HandleFunc("/api/services", handlers.Services(explorer))
	mux.HandleFunc("/api/notebooks", handlers.Notebooks(explorer))
	mux.HandleFunc("/api/external-access-integrations", handlers.Integrations(explorer))
	return mux
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
