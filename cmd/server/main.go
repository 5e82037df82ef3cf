package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"rookery/internal/database/sqlitestore"
	"rookery/internal/feed"
	"rookery/internal/handlers"
	"rookery/internal/moderation"
	"rookery/internal/notifications"
	"rookery/internal/routing"
	"rookery/internal/sanitize"
	"rookery/internal/thread"
	"rookery/internal/tracing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Configure zerolog
	// Set log level from environment (default: info)
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info", "":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	// Use pretty console logging in development, JSON in production
	if os.Getenv("LOG_FORMAT") == "json" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	log.Info().Msg("Starting Rookery")

	port := os.Getenv("PORT")
	if port == "" {
		port = "18920"
	}

	dataDir := os.Getenv("ROOKERY_DATA_DIR")
	if dataDir == "" {
		base := os.Getenv("XDG_DATA_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to get home directory")
			}
			base = filepath.Join(home, ".local", "share")
		}
		dataDir = filepath.Join(base, "rookery")
	}

	dbPath := filepath.Join(dataDir, "rookery.db")
	store, err := sqlitestore.Open(sqlitestore.Options{Path: dbPath})
	if err != nil {
		log.Fatal().Err(err).Str("path", dbPath).Msg("Failed to open database")
	}
	defer store.Close()
	log.Info().Str("path", dbPath).Msg("Database opened")

	deliveryLogPath := filepath.Join(dataDir, "deliveries.db")
	deliveryLog, err := notifications.OpenLog(deliveryLogPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", deliveryLogPath).Msg("Failed to open delivery log")
	}
	defer deliveryLog.Close()
	log.Info().Str("path", deliveryLogPath).Msg("Delivery log opened")

	// Optional OTLP tracing
	tracingEnabled := os.Getenv("TRACING_ENABLED") == "true"
	if tracingEnabled {
		tp, err := tracing.Init(context.Background())
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize tracing")
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				log.Error().Err(err).Msg("Failed to shut down tracer provider")
			}
		}()
		log.Info().Msg("Tracing initialized")
	}

	moderationService := moderation.NewService(store)
	feedService := feed.NewService(store, moderationService, sanitize.HTML)
	threadService := thread.NewService(store, sanitize.HTML)
	notificationService := notifications.NewService(store, moderationService, deliveryLog)

	// Initialize handlers with all dependencies via constructor injection
	h := handlers.NewHandler(feedService, threadService, notificationService)

	handler := routing.SetupRouter(routing.Config{
		Handlers:       h,
		Logger:         log.Logger,
		TracingEnabled: tracingEnabled,
	})

	log.Info().
		Str("address", "0.0.0.0:"+port).
		Str("database", dbPath).
		Msg("Starting HTTP server")

	if err := http.ListenAndServe("0.0.0.0:"+port, handler); err != nil {
		log.Fatal().Err(err).Msg("Server failed to start")
	}
}
