package model

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Backend.BaseURL != "https://api.sparkinventory.com" {
		t.Errorf("BaseURL = %q, want the default", cfg.Backend.BaseURL)
	}
	if cfg.Backend.TimeoutSec != 30 {
		t.Errorf("TimeoutSec = %d, want 30", cfg.Backend.TimeoutSec)
	}
	if cfg.Feed.PageSize != 20 {
		t.Errorf("PageSize = %d, want 20", cfg.Feed.PageSize)
	}
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("backend:\n  base_url: https://spark.internal.example\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Backend.BaseURL != "https://spark.internal.example" {
		t.Errorf("BaseURL = %q, want the file's value", cfg.Backend.BaseURL)
	}
	if cfg.Feed.PageSize != 20 {
		t.Errorf("PageSize = %d, want the default", cfg.Feed.PageSize)
	}
}

func TestLoadConfig_NonPositiveValuesCorrected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("backend:\n  timeout_sec: -5\nfeed:\n  page_size: 0\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Backend.TimeoutSec != 30 {
		t.Errorf("TimeoutSec = %d, want corrected to 30", cfg.Backend.TimeoutSec)
	}
	if cfg.Feed.PageSize != 20 {
		t.Errorf("PageSize = %d, want corrected to 20", cfg.Feed.PageSize)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	want := &AppConfig{
		Backend: BackendConfig{BaseURL: "https://spark.internal.example", TimeoutSec: 10},
		Feed:    FeedConfig{PageSize: 50},
		Display: DisplayConfig{Theme: "light"},
	}
	if err := SaveConfig(path, want); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if got.Backend.BaseURL != want.Backend.BaseURL {
		t.Errorf("BaseURL = %q, want %q", got.Backend.BaseURL, want.Backend.BaseURL)
	}
	if got.Backend.TimeoutSec != want.Backend.TimeoutSec {
		t.Errorf("TimeoutSec = %d, want %d", got.Backend.TimeoutSec, want.Backend.TimeoutSec)
	}
	if got.Feed.PageSize != want.Feed.PageSize {
		t.Errorf("PageSize = %d, want %d", got.Feed.PageSize, want.Feed.PageSize)
	}
	if got.Display.Theme != want.Display.Theme {
		t.Errorf("Theme = %q, want %q", got.Display.Theme, want.Display.Theme)
	}
}
