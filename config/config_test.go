package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Port)
	}
	if cfg.TokenExpiry != 24*time.Hour {
		t.Errorf("Expected default token expiry 24h, got %v", cfg.TokenExpiry)
	}
	if !cfg.InsightEngineEnabled {
		t.Error("Expected insight engine enabled by default")
	}
	if len(cfg.DeviceTopics) != 1 || cfg.DeviceTopics[0] != "devices/+/telemetry" {
		t.Errorf("Expected default device topic, got %v", cfg.DeviceTopics)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("TOKEN_EXPIRY_HOURS", "72")
	t.Setenv("INSIGHT_ENGINE", "false")
	t.Setenv("DEVICE_TOPICS", "stadium/a/telemetry,stadium/b/telemetry")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Port)
	}
	if cfg.TokenExpiry != 72*time.Hour {
		t.Errorf("Expected token expiry 72h, got %v", cfg.TokenExpiry)
	}
	if cfg.InsightEngineEnabled {
		t.Error("Expected insight engine disabled")
	}
	if len(cfg.DeviceTopics) != 2 {
		t.Errorf("Expected 2 device topics, got %v", cfg.DeviceTopics)
	}
}

func TestGetEnvIntIgnoresGarbage(t *testing.T) {
	t.Setenv("STATS_REPORT_MINUTES", "not-a-number")

	cfg := Load()
	if cfg.StatsReportMinutes != 5 {
		t.Errorf("Expected default 5, got %d", cfg.StatsReportMinutes)
	}
}
