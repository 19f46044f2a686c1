// Package action delivers the sync driver's "move to message" decision to
// the UI layer over a local bridge endpoint.
package action

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Bridge POSTs move commands to a local UI bridge.
type Bridge struct {
	httpClient *http.Client
	url        string
	logger     *zap.Logger
}

func NewBridge(url string, logger *zap.Logger) *Bridge {
	return &Bridge{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		url:        url,
		logger:     logger,
	}
}

// MoveTo asks the UI to scroll/jump to the given message.
func (b *Bridge) MoveTo(ctx context.Context, channelID, messageID string) error {
	payload, err := json.Marshal(map[string]string{
		"channelId": channelID,
		"messageId": messageID,
	})
	if err != nil {
		return fmt.Errorf("encoding move command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending move command: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Drain to allow connection reuse.
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("move command failed with status: %d", resp.StatusCode)
	}

	b.logger.Debug("move command sent",
		zap.String("channel", channelID),
		zap.String("message", messageID),
	)
	return nil
}

// Noop is used when no bridge URL is configured; decisions are still logged
// and counted, they just have nowhere to go.
type Noop struct{}

func (Noop) MoveTo(_ context.Context, _, _ string) error { return nil }
