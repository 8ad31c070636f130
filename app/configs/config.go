package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const apiKeyEnv = "MISSIONTRACK_OPENAI_API_KEY"

type Config struct {
	Coach  CoachConfig  `json:"coach"`
	Model  ModelConfig  `json:"model"`
	Server ServerConfig `json:"server"`
	Sync   SyncConfig   `json:"sync"`
}

type CoachConfig struct {
	Name         string `json:"name"`
	HistoryLimit int    `json:"history_limit"`
	CLIUserID    string `json:"cli_user_id"`
}

type ModelConfig struct {
	ExtractionModel   string `json:"extraction_model"`
	CoachingModel     string `json:"coaching_model"`
	MaxTokens         int64  `json:"max_tokens"`
	ExtractTimeoutSec int    `json:"extract_timeout_sec"`
	CoachTimeoutSec   int    `json:"coach_timeout_sec"`
	SummaryTimeoutSec int    `json:"summary_timeout_sec"`
	BaseURL           string `json:"base_url"`
}

type ServerConfig struct {
	Port int `json:"port"`
}

type SyncConfig struct {
	RemoteURL        string `json:"remote_url"`
	QueueBuffer      int    `json:"queue_buffer"`
	MirrorTimeoutSec int    `json:"mirror_timeout_sec"`
}

type Manager struct {
	path string
	mu   sync.RWMutex
	cfg  Config
}

func DefaultPath() string {
	return filepath.Join("config", "config.json")
}

// APIKey reads the model API key from the environment. Secrets never
// live in the config file.
func APIKey() string {
	return strings.TrimSpace(os.Getenv(apiKeyEnv))
}

func NewManager(path string) (*Manager, error) {
	cfg := defaultConfig()
	mgr := &Manager{
		path: path,
		cfg:  cfg,
	}
	if err := mgr.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	}
	if err := mgr.save(); err != nil {
		return nil, err
	}
	return mgr, nil
}

func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

func (m *Manager) Update(apply func(*Config)) (Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	apply(&m.cfg)
	applyDefaults(&m.cfg)
	if err := m.saveLocked(); err != nil {
		return Config{}, err
	}
	return m.cfg, nil
}

func (m *Manager) load() error {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return err
	}
	var fileCfg Config
	if err := json.Unmarshal(data, &fileCfg); err != nil {
		return err
	}
	m.cfg = fileCfg
	applyDefaults(&m.cfg)
	return nil
}

func (m *Manager) save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked()
}

func (m *Manager) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(m.cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, data, 0644)
}

func defaultConfig() Config {
	return Config{
		Coach: CoachConfig{
			Name:         "MissionTrack Coach",
			HistoryLimit: 10,
			CLIUserID:    "local_user",
		},
		Model: ModelConfig{
			ExtractionModel:   "gpt-4o-mini",
			CoachingModel:     "gpt-4o-mini",
			MaxTokens:         1024,
			ExtractTimeoutSec: 20,
			CoachTimeoutSec:   30,
			SummaryTimeoutSec: 30,
		},
		Server: ServerConfig{
			Port: 8080,
		},
		Sync: SyncConfig{
			QueueBuffer:      64,
			MirrorTimeoutSec: 10,
		},
	}
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Coach.Name) == "" {
		cfg.Coach.Name = "MissionTrack Coach"
	}
	if cfg.Coach.HistoryLimit <= 0 {
		cfg.Coach.HistoryLimit = 10
	}
	if strings.TrimSpace(cfg.Coach.CLIUserID) == "" {
		cfg.Coach.CLIUserID = "local_user"
	}
	if strings.TrimSpace(cfg.Model.ExtractionModel) == "" {
		cfg.Model.ExtractionModel = "gpt-4o-mini"
	}
	if strings.TrimSpace(cfg.Model.CoachingModel) == "" {
		cfg.Model.CoachingModel = "gpt-4o-mini"
	}
	if cfg.Model.MaxTokens <= 0 {
		cfg.Model.MaxTokens = 1024
	}
	if cfg.Model.ExtractTimeoutSec <= 0 {
		cfg.Model.ExtractTimeoutSec = 20
	}
	if cfg.Model.CoachTimeoutSec <= 0 {
		cfg.Model.CoachTimeoutSec = 30
	}
	if cfg.Model.SummaryTimeoutSec <= 0 {
		cfg.Model.SummaryTimeoutSec = 30
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		cfg.Server.Port = 8080
	}
	if cfg.Sync.QueueBuffer <= 0 {
		cfg.Sync.QueueBuffer = 64
	}
	if cfg.Sync.MirrorTimeoutSec <= 0 {
		cfg.Sync.MirrorTimeoutSec = 10
	}
}
