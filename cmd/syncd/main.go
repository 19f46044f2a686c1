package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/noatdk/yt-stream-discord-sync/internal/action"
	"github.com/noatdk/yt-stream-discord-sync/internal/config"
	"github.com/noatdk/yt-stream-discord-sync/internal/feed"
	"github.com/noatdk/yt-stream-discord-sync/internal/syncd"
	"github.com/noatdk/yt-stream-discord-sync/internal/telemetry"
)

// staticChannel satisfies syncd.ChannelSource for the daemon, where the
// synced channel comes from configuration rather than a live UI.
type staticChannel struct {
	id string
}

func (s staticChannel) CurrentChannel() string { return s.id }

func main() {
	os.Exit(run())
}

func run() int {
	// Setup logger
	logger, err := zap.NewProduction()
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

	if cfg.Sync.Channel == "" {
		logger.Error("sync.channel is required for the sync daemon")
		return 1
	}
	if cfg.Discord.BotToken == "" {
		logger.Error("discord.bot_token is required for the sync daemon")
		return 1
	}

	logger.Info("sync daemon configuration loaded",
		zap.String("relayURL", cfg.Sync.RelayURL),
		zap.Duration("interval", cfg.Sync.Interval),
		zap.String("channel", cfg.Sync.Channel),
		zap.String("bridgeURL", cfg.Sync.BridgeURL),
	)

	telemetry.Init()

	relayClient := syncd.NewClient(cfg.Sync.RelayURL, cfg.Sync.Interval, logger)
	discordFeed := feed.NewDiscordFeed(cfg.Discord.APIBase, cfg.Discord.BotToken, cfg.Discord.PageLimit, logger)

	var sink syncd.Sink = action.Noop{}
	if cfg.Sync.BridgeURL != "" {
		sink = action.NewBridge(cfg.Sync.BridgeURL, logger)
	} else {
		logger.Warn("no bridge URL configured; move decisions will be logged only")
	}

	driver := syncd.NewDriver(
		relayClient,
		discordFeed,
		staticChannel{id: cfg.Sync.Channel},
		sink,
		cfg.Sync.Interval,
		logger,
	)

	// Run until interrupted
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down sync daemon...")
		cancel()
	}()

	driver.Run(ctx)

	logger.Info("sync daemon stopped")
	return 0
}
