package syncd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/noatdk/yt-stream-discord-sync/internal/relay"
)

func TestClient_PingNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"No timestamp data found"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, zap.NewNop())
	_, err := c.Ping(context.Background())
	if !errors.Is(err, relay.ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestClient_PingReturnsRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ping" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"gmt":     "2025-01-01T00:00:08.000Z",
			"videoId": "abc",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, zap.NewNop())
	rec, err := c.Ping(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.GMT() != "2025-01-01T00:00:08.000Z" {
		t.Errorf("gmt = %q", rec.GMT())
	}
	if rec["videoId"] != "abc" {
		t.Errorf("videoId = %v", rec["videoId"])
	}
}

func TestClient_PingTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewClient(srv.URL, time.Second, zap.NewNop())
	_, err := c.Ping(context.Background())
	if err == nil {
		t.Fatal("expected a transport error")
	}
	if errors.Is(err, relay.ErrNoData) {
		t.Error("transport failure must not be reported as NoData")
	}
}

func TestClient_PushReturnsRedirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/update" || r.Method != http.MethodPost {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":  true,
			"received": "2025-01-01T00:00:08.000Z",
			"redirect": "2025-01-01T00:10:00.000Z",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, zap.NewNop())
	redirect, err := c.Push(context.Background(), relay.Record{"gmt": "2025-01-01T00:00:08.000Z"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if redirect != "2025-01-01T00:10:00.000Z" {
		t.Errorf("redirect = %q", redirect)
	}
}

func TestClient_RedirectErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Missing or invalid 'timestamp' field"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, zap.NewNop())
	if err := c.Redirect(context.Background(), "garbage"); err == nil {
		t.Error("expected an error for a rejected redirect")
	}
}
