/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the budget-projection server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (optional) and read PREDIAL_* environment variables
  2. Configure structured logging
  3. Initialize SQLite session store
  4. Seed the demo upstream with the default scenario
  5. Start HTTP server with graceful shutdown

CONFIGURATION (environment):
  PREDIAL_ADDR          Listen address (default: :8080)
  PREDIAL_DB_PATH       SQLite database path (default: budget.db,
                        ":memory:" for ephemeral)
  PREDIAL_LOG_FORMAT    "text" or "json" (default: text)
  PREDIAL_CORS_ORIGINS  Comma-separated allowed origins (default: *)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  PREDIAL_DB_PATH=./data/budget.db ./server

  # Run fully in-memory
  PREDIAL_DB_PATH=":memory:" ./server

SEE ALSO:
  - api/server.go: Router configuration
  - api/scenarios.go: Demo datasets seeded at startup
  - store/sqlite/sqlite.go: Session persistence
*/
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

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/predial/budget-engine/api"
	"github.com/predial/budget-engine/store/sqlite"
	"github.com/predial/budget-engine/upstream/memory"
)

type config struct {
	Addr        string   `envconfig:"ADDR" default:":8080"`
	DBPath      string   `envconfig:"DB_PATH" default:"budget.db"`
	LogFormat   string   `envconfig:"LOG_FORMAT" default:"text"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`
}

func main() {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	var cfg config
	if err := envconfig.Process("PREDIAL", &cfg); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := newLogger(cfg.LogFormat)
	slog.SetDefault(logger)

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		logger.Error("failed to initialize database", slog.Any("error", err))
		os.Exit(1)
	}
	defer store.Close()

	// The vendor back office has no public sandbox, so the server runs
	// against the seeded in-memory upstream. A real deployment swaps in
	// an upstream.Client for the vendor API here.
	demo := memory.New()
	scenarioID := api.LoadDefaultScenario(demo)
	logger.Info("demo scenario loaded", slog.String("scenario", scenarioID))

	handler := api.NewHandler(demo, store, demo, logger)
	router := api.NewRouter(handler, cfg.CORSOrigins)

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			slog.String("addr", cfg.Addr),
			slog.String("db", cfg.DBPath))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func newLogger(format string) *slog.Logger {
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
