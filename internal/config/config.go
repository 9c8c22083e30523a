package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Config holds application configuration.
type Config struct {
	// ChatModel is the Gemini model used for KinBot conversations.
	ChatModel string `json:"chat_model,omitempty"`

	// ImageModel is the model used for Creative Studio image generation.
	ImageModel string `json:"image_model,omitempty"`

	// ChatTemperature controls sampling for chat replies.
	ChatTemperature float64 `json:"chat_temperature,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized (reduces "database is locked" errors).
	// 0 means use sql.DB default (unlimited). Only set if you experience contention.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// All tools are enabled by default. Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ChatModel:       "gemini-3-pro-preview",
		ImageModel:      "imagen-4.0-generate-001",
		ChatTemperature: 0.7,
	}
}

// BaseDir returns the default state directory (~/.kinsfolk), or "." if the
// home directory cannot be determined.
func BaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".kinsfolk")
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.kinsfolk.
func Load(baseDir string) (*Config, error) {
	raw, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), raw), nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// File doesn't exist, return zero config
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge overlays non-zero values from overlay onto base and returns the
// result. Neither argument is mutated.
func Merge(base, overlay *Config) *Config {
	if base == nil {
		base = &Config{}
	}
	merged := *base
	if overlay == nil {
		return &merged
	}

	if overlay.ChatModel != "" {
		merged.ChatModel = overlay.ChatModel
	}
	if overlay.ImageModel != "" {
		merged.ImageModel = overlay.ImageModel
	}
	if overlay.ChatTemperature != 0 {
		merged.ChatTemperature = overlay.ChatTemperature
	}
	if overlay.DBMaxOpenConns != 0 {
		merged.DBMaxOpenConns = overlay.DBMaxOpenConns
	}
	if overlay.DBMaxIdleConns != 0 {
		merged.DBMaxIdleConns = overlay.DBMaxIdleConns
	}
	if len(overlay.DisabledTools) > 0 {
		merged.DisabledTools = append([]string(nil), overlay.DisabledTools...)
	}

	return &merged
}
