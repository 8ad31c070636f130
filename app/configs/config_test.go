package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestApplyDefaultsFillsEmptyConfig(t *testing.T) {
	cfg := Config{}

	applyDefaults(&cfg)

	if cfg.Coach.Name != "MissionTrack Coach" {
		t.Fatalf("unexpected coach name: %q", cfg.Coach.Name)
	}
	if cfg.Coach.HistoryLimit != 10 {
		t.Fatalf("unexpected history limit: %d", cfg.Coach.HistoryLimit)
	}
	if cfg.Model.ExtractionModel != "gpt-4o-mini" {
		t.Fatalf("unexpected extraction model: %q", cfg.Model.ExtractionModel)
	}
	if cfg.Model.MaxTokens != 1024 {
		t.Fatalf("unexpected max tokens: %d", cfg.Model.MaxTokens)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("unexpected port: %d", cfg.Server.Port)
	}
	if cfg.Sync.QueueBuffer != 64 {
		t.Fatalf("unexpected queue buffer: %d", cfg.Sync.QueueBuffer)
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := Config{
		Coach:  CoachConfig{Name: "Drill Sergeant", HistoryLimit: 4, CLIUserID: "u-9"},
		Server: ServerConfig{Port: 9090},
	}

	applyDefaults(&cfg)

	if cfg.Coach.Name != "Drill Sergeant" {
		t.Fatalf("coach name overwritten: %q", cfg.Coach.Name)
	}
	if cfg.Coach.HistoryLimit != 4 {
		t.Fatalf("history limit overwritten: %d", cfg.Coach.HistoryLimit)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("port overwritten: %d", cfg.Server.Port)
	}
}

func TestApplyDefaultsClampsInvalidPort(t *testing.T) {
	cfg := Config{Server: ServerConfig{Port: 70000}}

	applyDefaults(&cfg)

	if cfg.Server.Port != 8080 {
		t.Fatalf("expected port clamp to 8080, got %d", cfg.Server.Port)
	}
}

func TestManagerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "config.json")

	mgr, err := NewManager(path)
	if err != nil {
		t.Fatalf("new manager failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config file to be written: %v", err)
	}

	if _, err := mgr.Update(func(c *Config) {
		c.Sync.RemoteURL = "https://remote.example/rest/v1"
	}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	reloaded, err := NewManager(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if got := reloaded.Get().Sync.RemoteURL; got != "https://remote.example/rest/v1" {
		t.Fatalf("remote url not persisted: %q", got)
	}
}

func TestManagerRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("write malformed config: %v", err)
	}

	if _, err := NewManager(path); err == nil {
		t.Fatal("expected error for malformed config file")
	}

	// sanity: valid file loads
	valid, _ := json.Marshal(defaultConfig())
	if err := os.WriteFile(path, valid, 0644); err != nil {
		t.Fatalf("write valid config: %v", err)
	}
	if _, err := NewManager(path); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}
