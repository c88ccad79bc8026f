package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	if cfg.ListenAddr != ":3000" {
		t.Errorf("expected default listen addr :3000, got %q", cfg.ListenAddr)
	}
	if cfg.InstagramAPIVersion != "v21.0" {
		t.Errorf("expected default api version v21.0, got %q", cfg.InstagramAPIVersion)
	}
	if !cfg.SchedulerEnabled {
		t.Error("expected scheduler enabled by default")
	}
	if cfg.SchedulerInterval != 30 {
		t.Errorf("expected default scheduler interval 30, got %d", cfg.SchedulerInterval)
	}
	if cfg.ProcessingWaitDuration() != 60*time.Second {
		t.Errorf("expected default processing wait 60s, got %v", cfg.ProcessingWaitDuration())
	}
	if cfg.FreeimageURL == "" {
		t.Error("expected default freeimage url")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SCHEDULER_ENABLED", "false")
	t.Setenv("SCHEDULER_INTERVAL_SECONDS", "5")
	t.Setenv("PROCESSING_WAIT_SECONDS", "1")
	t.Setenv("INSTAGRAM_API_VERSION", "v22.0")

	cfg := LoadConfig()

	if cfg.SchedulerEnabled {
		t.Error("expected scheduler disabled")
	}
	if cfg.SchedulerInterval != 5 {
		t.Errorf("expected interval 5, got %d", cfg.SchedulerInterval)
	}
	if cfg.ProcessingWaitDuration() != time.Second {
		t.Errorf("expected processing wait 1s, got %v", cfg.ProcessingWaitDuration())
	}
	if cfg.InstagramAPIVersion != "v22.0" {
		t.Errorf("expected api version override, got %q", cfg.InstagramAPIVersion)
	}
}

func TestInvalidNumericFallsBackToDefault(t *testing.T) {
	t.Setenv("SCHEDULER_INTERVAL_SECONDS", "not-a-number")

	cfg := LoadConfig()
	if cfg.SchedulerInterval != 30 {
		t.Errorf("expected fallback to default 30, got %d", cfg.SchedulerInterval)
	}
}
