package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Arena.ConfirmWindowSec != 120 || cfg.Arena.GameDurationSec != 60 {
		t.Errorf("unexpected arena defaults %+v", cfg.Arena)
	}
	if cfg.Stake.Enabled {
		t.Error("stake should default to disabled")
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("server:\n  port: \"9000\"\narena:\n  win_threshold: 75\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "9999")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9999" {
		t.Errorf("env should override file, got port %s", cfg.Server.Port)
	}
	if cfg.Arena.WinThreshold != 75 {
		t.Errorf("file value should apply, got threshold %d", cfg.Arena.WinThreshold)
	}
	if cfg.Arena.GameDurationSec != 60 {
		t.Errorf("unset fields keep defaults, got %d", cfg.Arena.GameDurationSec)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("malformed yaml should error")
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := ArenaConfig{ConfirmWindowSec: 120, GameDurationSec: 60, PostGameCooldownSec: 3}
	if cfg.ConfirmWindow().Seconds() != 120 {
		t.Errorf("confirm window: %v", cfg.ConfirmWindow())
	}
	if cfg.GameDuration().Seconds() != 60 {
		t.Errorf("game duration: %v", cfg.GameDuration())
	}
	if cfg.PostGameCooldown().Seconds() != 3 {
		t.Errorf("cooldown: %v", cfg.PostGameCooldown())
	}
}
