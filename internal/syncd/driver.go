// Package syncd runs the polling loop that keeps the message feed aligned
// with the relay's latest playback timestamp.
package syncd

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noatdk/yt-stream-discord-sync/internal/relay"
	"github.com/noatdk/yt-stream-discord-sync/internal/resolver"
	"github.com/noatdk/yt-stream-discord-sync/internal/telemetry"
	"github.com/noatdk/yt-stream-discord-sync/internal/timestamp"
)

// hysteresisMargin is how far forward the target must move before the
// remembered match is discarded. Small forward or any backward movement
// preserves the match-in-progress so a single minor correction does not
// throw away accumulated position.
const hysteresisMargin = time.Second

// RelayReader reads the latest timestamp record from the relay.
type RelayReader interface {
	Ping(ctx context.Context) (relay.Record, error)
}

// Feed returns the ordered candidate messages for a channel, ascending by
// timestamp.
type Feed interface {
	Messages(ctx context.Context, channelID string) ([]resolver.Candidate, error)
}

// ChannelSource reports which channel is currently being synced. An empty
// id pauses resolution.
type ChannelSource interface {
	CurrentChannel() string
}

// Sink performs the externally visible action: move/scroll to a message.
type Sink interface {
	MoveTo(ctx context.Context, channelID, messageID string) error
}

// Driver owns the resolver memory and the recurring poll. Ticks run on a
// single goroutine and never overlap; each tick gets its own timeout.
type Driver struct {
	relay    RelayReader
	feed     Feed
	channels ChannelSource
	sink     Sink
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	// Cross-poll memory. Touched only by the tick goroutine while running;
	// Disable clears it after the loop has stopped.
	lastGMT string
	target  time.Time
	mem     resolver.Memory
	channel string
}

func NewDriver(relay RelayReader, feed Feed, channels ChannelSource, sink Sink, interval time.Duration, logger *zap.Logger) *Driver {
	if interval <= 0 {
		interval = time.Second
	}
	return &Driver{
		relay:    relay,
		feed:     feed,
		channels: channels,
		sink:     sink,
		interval: interval,
		timeout:  interval,
		logger:   logger,
	}
}

// Enable starts the poll loop with one immediate tick. No-op when already
// running.
func (d *Driver) Enable() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.done = make(chan struct{})
	d.running = true

	d.logger.Info("sync enabled", zap.Duration("interval", d.interval))
	go d.loop(ctx)
}

// Disable stops the loop and clears all held memory, so re-enabling starts
// cold.
func (d *Driver) Disable() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	cancel, done := d.cancel, d.done
	d.mu.Unlock()

	cancel()
	<-done

	d.mu.Lock()
	d.running = false
	d.lastGMT = ""
	d.target = time.Time{}
	d.mem = resolver.Memory{}
	d.channel = ""
	d.mu.Unlock()

	d.logger.Info("sync disabled")
}

// Run enables the driver until ctx is cancelled, then disables it.
func (d *Driver) Run(ctx context.Context) {
	d.Enable()
	<-ctx.Done()
	d.Disable()
}

func (d *Driver) loop(ctx context.Context) {
	defer close(d.done)

	d.tick(ctx)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.tick(ctx)
		}
	}
}

func (d *Driver) tick(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, d.timeout)
	defer cancel()

	channel := d.channels.CurrentChannel()
	if channel != d.channel {
		// Feed context changed; accumulated position is meaningless.
		d.target = time.Time{}
		d.lastGMT = ""
		d.mem = resolver.Memory{}
		d.channel = channel
	}
	if channel == "" {
		return
	}

	target := d.target
	rec, err := d.relay.Ping(ctx)
	if err != nil {
		// Transient relay unavailability must not cancel an in-flight
		// sync: keep re-resolving the held target if there is one.
		if target.IsZero() {
			d.logger.Debug("no target yet", zap.Error(err))
			return
		}
		d.logger.Debug("relay unavailable, keeping held target", zap.Error(err))
	} else {
		gmt := rec.GMT()
		if gmt == d.lastGMT {
			return
		}
		parsed, perr := timestamp.Parse(gmt)
		if perr != nil {
			d.logger.Warn("relay returned unparseable gmt", zap.String("gmt", gmt))
			return
		}
		if !d.target.IsZero() && parsed.Sub(d.target) > hysteresisMargin {
			d.mem.LastMatchedID = ""
		}
		d.lastGMT = gmt
		target = parsed
	}

	candidates, err := d.feed.Messages(ctx, channel)
	if err != nil {
		d.logger.Warn("feed fetch failed", zap.String("channel", channel), zap.Error(err))
		return
	}

	// mem.LastTarget still holds the previous resolution's target here, so
	// the resolver can detect forward movement. It is advanced below.
	m, rerr := resolver.Resolve(target, candidates, d.mem)
	d.target = target
	d.mem.LastTarget = target
	if rerr != nil {
		if errors.Is(rerr, resolver.ErrNoCandidate) {
			// Transient: forget the seen gmt so the next tick retries even
			// if the target has not moved.
			d.lastGMT = ""
			d.logger.Debug("no candidate to match yet", zap.String("channel", channel))
			return
		}
		d.logger.Warn("resolution failed", zap.Error(rerr))
		return
	}

	if m.Settled || m.ID == d.mem.LastMatchedID {
		return
	}

	if err := d.sink.MoveTo(ctx, channel, m.ID); err != nil {
		// Leave LastMatchedID untouched so the move is retried next tick.
		d.logger.Warn("move action failed", zap.String("message", m.ID), zap.Error(err))
		return
	}

	telemetry.IncResolverMove()
	d.mem.LastMatchedID = m.ID
	d.logger.Info("moved to message",
		zap.String("channel", channel),
		zap.String("message", m.ID),
		zap.Int64("distanceMillis", m.Distance),
		zap.Bool("locallyMinimal", m.LocallyMinimal),
	)
}
