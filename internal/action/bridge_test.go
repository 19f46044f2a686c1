package action

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestBridge_MoveTo(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	b := NewBridge(srv.URL, zap.NewNop())
	if err := b.MoveTo(context.Background(), "chan1", "msg42"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got["channelId"] != "chan1" || got["messageId"] != "msg42" {
		t.Errorf("payload = %v", got)
	}
}

func TestBridge_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	b := NewBridge(srv.URL, zap.NewNop())
	if err := b.MoveTo(context.Background(), "chan1", "msg42"); err == nil {
		t.Error("expected an error for a non-2xx response")
	}
}
