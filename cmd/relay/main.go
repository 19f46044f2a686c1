package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/noatdk/yt-stream-discord-sync/internal/config"
	"github.com/noatdk/yt-stream-discord-sync/internal/events"
	"github.com/noatdk/yt-stream-discord-sync/internal/journal"
	"github.com/noatdk/yt-stream-discord-sync/internal/relay"
	"github.com/noatdk/yt-stream-discord-sync/internal/telemetry"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Setup logger
	logger, err := newLogger(os.Getenv("YTSYNC_LOGGING_LEVEL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	// Load config
	cfg, err := config.Load(os.Getenv("YTSYNC_CONFIG"))
	if err != nil {
		logger.Error("failed to load config", zap.Error(err))
		return 1
	}

	logger.Info("configuration loaded",
		zap.String("port", cfg.Relay.Port),
		zap.String("journalPath", cfg.Relay.JournalPath),
		zap.Bool("eventsEnabled", cfg.Relay.EventsEnabled),
	)

	telemetry.Init()

	// Context for background components
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Journal (optional)
	var jw relay.Journal
	if cfg.Relay.JournalPath != "" {
		writer, err := journal.NewWriter(cfg.Relay.JournalPath)
		if err != nil {
			logger.Error("failed to open journal", zap.Error(err))
			return 1
		}
		defer func() { _ = writer.Close() }()
		jw = writer
		logger.Info("journal enabled", zap.String("path", cfg.Relay.JournalPath))
	}

	// Events hub (optional)
	var broadcaster relay.Broadcaster
	var wsHandler http.HandlerFunc
	if cfg.Relay.EventsEnabled {
		hub := events.NewHub(logger)
		go hub.Run(ctx)
		broadcaster = hub
		wsHandler = hub.HandleWS
	}

	state := relay.NewState(nil)
	server := relay.NewServer(state, jw, broadcaster, logger)
	router := relay.NewRouter(server, wsHandler, logger)

	service := relay.NewService(cfg.RelayAddr(), router, logger)
	if err := service.Start(); err != nil {
		// Port already in use (or otherwise unbindable): report and end in
		// a not-running state, no retry.
		logger.Error("failed to start relay", zap.Error(err))
		return 1
	}

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down relay...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := service.Shutdown(shutdownCtx); err != nil {
		logger.Error("relay shutdown error", zap.Error(err))
		return 1
	}

	logger.Info("relay stopped")
	return 0
}

func newLogger(level string) (*zap.Logger, error) {
	zapConfig := zap.NewProductionConfig()
	zapConfig.DisableStacktrace = true
	if level != "" {
		var l zapcore.Level
		if err := l.UnmarshalText([]byte(level)); err == nil {
			zapConfig.Level = zap.NewAtomicLevelAt(l)
		}
	}
	return zapConfig.Build()
}
