package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Relay.Port != "9210" {
		t.Errorf("port = %q", cfg.Relay.Port)
	}
	if cfg.Sync.Interval != time.Second {
		t.Errorf("interval = %v", cfg.Sync.Interval)
	}
	if cfg.Sync.RelayURL != "http://127.0.0.1:9210" {
		t.Errorf("relay_url = %q", cfg.Sync.RelayURL)
	}
	if cfg.Discord.PageLimit != 100 {
		t.Errorf("page_limit = %d", cfg.Discord.PageLimit)
	}
	if cfg.RelayAddr() != ":9210" {
		t.Errorf("RelayAddr = %q", cfg.RelayAddr())
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("YTSYNC_RELAY_PORT", "9999")
	t.Setenv("YTSYNC_SYNC_INTERVAL", "250ms")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Relay.Port != "9999" {
		t.Errorf("port = %q, want env override", cfg.Relay.Port)
	}
	if cfg.Sync.Interval != 250*time.Millisecond {
		t.Errorf("interval = %v", cfg.Sync.Interval)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing port", func(c *Config) { c.Relay.Port = "" }, "relay.port"},
		{"zero interval", func(c *Config) { c.Sync.Interval = 0 }, "sync.interval"},
		{"missing relay url", func(c *Config) { c.Sync.RelayURL = "" }, "sync.relay_url"},
		{"page limit too big", func(c *Config) { c.Discord.PageLimit = 200 }, "page_limit"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{
				Relay:   RelayConfig{Port: "9210"},
				Sync:    SyncConfig{RelayURL: "http://127.0.0.1:9210", Interval: time.Second},
				Discord: DiscordConfig{PageLimit: 100},
			}
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q should mention %q", err, tc.wantErr)
			}
		})
	}
}
