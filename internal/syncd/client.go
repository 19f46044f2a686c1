package syncd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noatdk/yt-stream-discord-sync/internal/relay"
)

// Client talks to the local relay. The timeout is deliberately short: the
// relay lives on the loopback, and a slow or blocked call is treated as a
// transient transport failure, not a fatal error.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Ping fetches the latest timestamp record. A 404 maps to relay.ErrNoData;
// anything else unexpected is a transport-level error.
func (c *Client) Ping(ctx context.Context) (relay.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/ping", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("relay ping: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading ping response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, relay.ErrNoData
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("relay ping: unexpected status %d", resp.StatusCode)
	}

	var rec relay.Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("decoding ping response: %w", err)
	}
	return rec, nil
}

// Push sends a timestamp record to the relay and returns the redirect
// instruction if the acknowledgment carried one.
func (c *Client) Push(ctx context.Context, rec relay.Record) (redirect string, err error) {
	var ack struct {
		Success  bool   `json:"success"`
		Received string `json:"received"`
		Redirect string `json:"redirect"`
	}
	if err := c.post(ctx, "/update", rec, &ack); err != nil {
		return "", err
	}
	return ack.Redirect, nil
}

// Redirect arms a one-shot redirect instruction on the relay.
func (c *Client) Redirect(ctx context.Context, ts string) error {
	return c.post(ctx, "/redirect", map[string]any{"timestamp": ts}, nil)
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("relay %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("relay %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
