package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"lifelog_agent/internal/logger"
)

// Config is the top-level configuration for the daily update service.
type Config struct {
	Model     ModelConfig     `yaml:"model"`
	Redis     RedisConfig     `yaml:"redis"`
	Storage   StorageConfig   `yaml:"storage"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Session   SessionConfig   `yaml:"session"`
	Server    ServerConfig    `yaml:"server"`
	Log       logger.Config   `yaml:"log"`
}

// ModelConfig holds the chat model connection settings.
type ModelConfig struct {
	Name        string  `yaml:"name"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// RedisConfig holds Redis connection settings for session storage.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// StorageConfig holds SQLite settings for entries and domain records.
type StorageConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

// RateLimitConfig configures the per-user AI call throttle.
type RateLimitConfig struct {
	Enabled              bool `yaml:"enabled"`
	DefaultRequests      int  `yaml:"default_requests"`
	DefaultWindowSeconds int  `yaml:"default_window_seconds"`
	ChatRequests         int  `yaml:"chat_requests"`
	ChatWindowSeconds    int  `yaml:"chat_window_seconds"`
}

// SessionConfig controls session TTL and history windowing.
type SessionConfig struct {
	TTLSeconds      int `yaml:"ttl_seconds"`
	HistoryMaxTurns int `yaml:"history_max_turns"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads configuration from a YAML file and merges environment variables.
// A .env file is loaded first when present.
func Load(filepath string) (*Config, error) {
	// .env is optional; the environment may already be populated
	_ = godotenv.Load()

	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := defaults()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing YAML: %w", err)
	}

	applyEnv(config)

	if config.Model.APIKey == "" {
		return nil, fmt.Errorf("model api key is required (set OPENROUTER_API_KEY or model.api_key)")
	}

	return config, nil
}

func defaults() *Config {
	return &Config{
		Model: ModelConfig{
			Name:        "openai/gpt-4o-mini",
			BaseURL:     "https://openrouter.ai/api/v1",
			MaxTokens:   1500,
			Temperature: 0.3,
		},
		Redis: RedisConfig{
			URL: "redis://localhost:6379",
		},
		Storage: StorageConfig{
			SQLitePath: "data/lifelog.db",
		},
		RateLimit: RateLimitConfig{
			Enabled:              true,
			DefaultRequests:      10,
			DefaultWindowSeconds: 60,
			ChatRequests:         20,
			ChatWindowSeconds:    300,
		},
		Session: SessionConfig{
			TTLSeconds:      24 * 3600,
			HistoryMaxTurns: 20,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: logger.Config{
			Level:  "info",
			Format: "console",
			Output: "stdout",
		},
	}
}

func applyEnv(config *Config) {
	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		config.Model.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); config.Model.APIKey == "" && v != "" {
		config.Model.APIKey = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		config.Redis.URL = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		config.Storage.SQLitePath = v
	}
}
