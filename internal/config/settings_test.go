package config

import (
	"os"
	"testing"
	"time"
)

func TestReadSettingsCreatesDefaultFile(t *testing.T) {
	t.Chdir(t.TempDir())

	ReadSettings()

	if _, err := os.Stat(settingsFilePath); err != nil {
		t.Fatalf("expected settings file to be created: %v", err)
	}

	cfg := GetConfig()
	if cfg.Security.RequestLimit != 30 {
		t.Errorf("expected default request limit 30, got %d", cfg.Security.RequestLimit)
	}
	if cfg.Security.RequestWindowSeconds != 60 {
		t.Errorf("expected default request window 60s, got %d", cfg.Security.RequestWindowSeconds)
	}
	if cfg.Security.PostBurstLimit != 10 {
		t.Errorf("expected default POST burst limit 10, got %d", cfg.Security.PostBurstLimit)
	}
	if cfg.Security.PostBurstWindowSeconds != 30 {
		t.Errorf("expected default POST burst window 30s, got %d", cfg.Security.PostBurstWindowSeconds)
	}
	if cfg.Security.BanDurationSeconds != 3600 {
		t.Errorf("expected default ban duration 3600s, got %d", cfg.Security.BanDurationSeconds)
	}
}

func TestSetConfigNormalizesZeroThresholds(t *testing.T) {
	t.Chdir(t.TempDir())
	if err := os.MkdirAll("data", 0o755); err != nil {
		t.Fatalf("failed to create settings directory: %v", err)
	}

	var cfg Config
	cfg.Site.Name = "lark"
	cfg.Security.RequestLimit = 50
	// Everything else left at zero must be backfilled from the defaults.

	SetConfig(cfg)

	applied := GetConfig()
	if applied.Security.RequestLimit != 50 {
		t.Errorf("explicit request limit should survive, got %d", applied.Security.RequestLimit)
	}
	if applied.Security.RequestWindowSeconds == 0 {
		t.Error("zero request window must be backfilled")
	}
	if applied.Security.BanDurationSeconds == 0 {
		t.Error("zero ban duration must be backfilled")
	}
	if applied.Security.CaptchaTTLSeconds == 0 {
		t.Error("zero captcha TTL must be backfilled")
	}
	if applied.Site.Name != "lark" {
		t.Errorf("site name should survive, got %q", applied.Site.Name)
	}
}

func TestDurationAccessors(t *testing.T) {
	var cfg Config
	cfg.Security.RequestWindowSeconds = 60
	cfg.Security.PostBurstWindowSeconds = 30
	cfg.Security.BanDurationSeconds = 3600
	cfg.Security.TrackingRetentionMinutes = 10
	cfg.Security.EventRetentionDays = 30
	cfg.Security.CaptchaTTLSeconds = 300
	cfg.Security.CSRFTTLSeconds = 3600

	cases := []struct {
		name string
		got  time.Duration
		want time.Duration
	}{
		{"request window", cfg.RequestWindow(), time.Minute},
		{"post burst window", cfg.PostBurstWindow(), 30 * time.Second},
		{"ban duration", cfg.BanDuration(), time.Hour},
		{"tracking retention", cfg.TrackingRetention(), 10 * time.Minute},
		{"event retention", cfg.EventRetention(), 30 * 24 * time.Hour},
		{"captcha ttl", cfg.CaptchaTTL(), 5 * time.Minute},
		{"csrf ttl", cfg.CSRFTTL(), time.Hour},
	}

	for _, c := range cases {
		if c.got != c.want {
			t.Errorf("%s: expected %v, got %v", c.name, c.want, c.got)
		}
	}
}
