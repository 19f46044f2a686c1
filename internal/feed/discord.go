// Package feed fetches the candidate message sequence from a Discord
// channel, ordered ascending by timestamp as the resolver requires.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/noatdk/yt-stream-discord-sync/internal/resolver"
	"github.com/noatdk/yt-stream-discord-sync/internal/telemetry"
)

const defaultAPIBase = "https://discord.com/api/v10"

// message is the slice of the Discord message object we care about.
type message struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
}

// DiscordFeed reads channel messages over the Discord REST API. Requests are
// rate limited client-side and retried with exponential backoff on 429/5xx.
type DiscordFeed struct {
	httpClient *http.Client
	baseURL    string
	botToken   string
	pageLimit  int
	limiter    *rate.Limiter
	retryCount int
	retryDelay time.Duration
	logger     *zap.Logger
}

func NewDiscordFeed(baseURL, botToken string, pageLimit int, logger *zap.Logger) *DiscordFeed {
	if baseURL == "" {
		baseURL = defaultAPIBase
	}
	if pageLimit <= 0 || pageLimit > 100 {
		pageLimit = 100
	}
	return &DiscordFeed{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		botToken:   botToken,
		pageLimit:  pageLimit,
		limiter:    rate.NewLimiter(rate.Limit(2), 4),
		retryCount: 3,
		retryDelay: 500 * time.Millisecond,
		logger:     logger,
	}
}

// Messages returns the channel's most recent messages in ascending
// chronological order. Messages whose timestamp cannot be parsed keep a zero
// time and are skipped by the resolver.
func (f *DiscordFeed) Messages(ctx context.Context, channelID string) ([]resolver.Candidate, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	url := fmt.Sprintf("%s/channels/%s/messages?limit=%d", f.baseURL, channelID, f.pageLimit)
	telemetry.IncFeedFetch()

	body, err := f.get(ctx, url)
	if err != nil {
		telemetry.IncFeedError()
		return nil, err
	}

	var msgs []message
	if err := json.Unmarshal(body, &msgs); err != nil {
		telemetry.IncFeedError()
		return nil, fmt.Errorf("decoding messages: %w", err)
	}

	// Discord returns newest first; reverse into the ascending order the
	// resolver assumes.
	out := make([]resolver.Candidate, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		c := resolver.Candidate{ID: msgs[i].ID}
		if t, err := time.Parse(time.RFC3339, msgs[i].Timestamp); err == nil {
			c.Timestamp = t.UTC()
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *DiscordFeed) get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= f.retryCount; attempt++ {
		if attempt > 0 {
			delay := f.retryDelay * time.Duration(1<<(attempt-1))
			f.logger.Debug("retrying feed fetch", zap.Int("attempt", attempt), zap.Duration("delay", delay))

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		if f.botToken != "" {
			req.Header.Set("Authorization", "Bot "+f.botToken)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := f.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("feed status %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("feed status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return body, nil
	}
	return nil, fmt.Errorf("feed fetch failed after %d attempts: %w", f.retryCount+1, lastErr)
}
