package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/danielhkuo/olympiad/cliparse"
	"github.com/danielhkuo/olympiad/db"
	"github.com/danielhkuo/olympiad/events"
	"github.com/danielhkuo/olympiad/router"
	"github.com/danielhkuo/olympiad/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var err error

	// Load .env for local development; a missing file is fine
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	settings, err := cliparse.LoadSettings(cfg.SettingsPath)
	if err != nil {
		slog.Error("Error loading settings", "error", err)
		os.Exit(1)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(settings.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to the database
	dbConn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "type", cfg.DatabaseType, "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	// Event delivery: always log, publish to Kafka when brokers are set
	sinks := []events.Sink{events.NewLogSink(slog.Default())}
	var kafkaSink *events.KafkaSink
	if len(settings.KafkaBrokers) > 0 {
		kafkaSink, err = events.NewKafkaSink(settings.KafkaBrokers, settings.KafkaTopic)
		if err != nil {
			slog.Error("kafka sink setup failed", "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, kafkaSink)
		slog.Info("Publishing events to Kafka", "brokers", settings.KafkaBrokers, "topic", settings.KafkaTopic)
	}
	dispatcher := events.NewDispatcher(sinks,
		events.WithQueueSize(settings.EventQueueSize),
		events.WithLogger(slog.Default()),
	)
	dispatcher.Start(ctx)

	// Create router
	svc := router.NewServices(store.NewSQLStore(dbConn), settings, dispatcher)
	mux := router.NewRouter(svc, cfg)

	// Create server
	server := http.Server{
		Handler: router.Wrap(mux),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("server shutdown", "error", err)
		}
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}

	// Drain events committed before shutdown
	drainCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	if err := dispatcher.Shutdown(drainCtx); err != nil {
		slog.Warn("event drain incomplete", "error", err)
	}
	if kafkaSink != nil {
		if err := kafkaSink.Close(); err != nil {
			slog.Warn("failed to close kafka writer", "error", err)
		}
	}
}
