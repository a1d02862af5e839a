// Package config provides configuration for the chat relay.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the relay configuration.
type Config struct {
	// Server settings
	HTTPPort int `yaml:"http_port"`

	// Database
	DatabaseURL string `yaml:"database_url"`

	// Completion API (OpenAI-compatible)
	LLMBaseURL string        `yaml:"llm_base_url"`
	LLMAPIKey  string        `yaml:"llm_api_key"`
	LLMTimeout time.Duration `yaml:"-"`

	// Conversation settings
	DefaultModel  string `yaml:"default_model"`
	ContextWindow int    `yaml:"context_window"`
	HistoryLimit  int    `yaml:"history_limit"`

	// Model catalog
	ModelsPerPage int           `yaml:"models_per_page"`
	ModelCacheTTL time.Duration `yaml:"-"`

	// Access control: empty list means everyone is allowed.
	AllowedUsers []string `yaml:"allowed_users"`

	// Logging
	LogLevel string `yaml:"log_level"`
}

// Load loads configuration from an optional YAML file (CHATRELAY_CONFIG)
// layered under environment variables. Env always wins over the file,
// the file over built-in defaults.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort:      8080,
		DatabaseURL:   "file:chatrelay.db?cache=shared&mode=rwc",
		LLMBaseURL:    "",
		LLMAPIKey:     "",
		LLMTimeout:    120 * time.Second,
		DefaultModel:  "gpt-3.5-turbo",
		ContextWindow: 10,
		HistoryLimit:  10,
		ModelsPerPage: 5,
		ModelCacheTTL: 5 * time.Minute,
		LogLevel:      "info",
	}

	if path := os.Getenv("CHATRELAY_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.HTTPPort = getEnvInt("HTTP_PORT", cfg.HTTPPort)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.LLMBaseURL = getEnv("LLM_BASE_URL", cfg.LLMBaseURL)
	cfg.LLMAPIKey = getEnv("LLM_API_KEY", cfg.LLMAPIKey)
	cfg.LLMTimeout = time.Duration(getEnvInt("LLM_TIMEOUT_MS", int(cfg.LLMTimeout/time.Millisecond))) * time.Millisecond
	cfg.DefaultModel = getEnv("DEFAULT_MODEL", cfg.DefaultModel)
	cfg.ContextWindow = getEnvInt("CONTEXT_WINDOW", cfg.ContextWindow)
	cfg.HistoryLimit = getEnvInt("HISTORY_LIMIT", cfg.HistoryLimit)
	cfg.ModelsPerPage = getEnvInt("MODELS_PER_PAGE", cfg.ModelsPerPage)
	cfg.ModelCacheTTL = time.Duration(getEnvInt("MODEL_CACHE_TTL_S", int(cfg.ModelCacheTTL/time.Second))) * time.Second
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	if allowed := os.Getenv("ALLOWED_USERS"); allowed != "" {
		cfg.AllowedUsers = cfg.AllowedUsers[:0]
		for _, id := range strings.Split(allowed, ",") {
			if id = strings.TrimSpace(id); id != "" {
				cfg.AllowedUsers = append(cfg.AllowedUsers, id)
			}
		}
	}

	return cfg, nil
}

// Validate checks required settings.
func (c *Config) Validate() error {
	if c.LLMBaseURL == "" {
		return errors.New("LLM_BASE_URL is required")
	}
	if c.LLMAPIKey == "" {
		return errors.New("LLM_API_KEY is required")
	}
	if c.ContextWindow <= 0 {
		return errors.New("CONTEXT_WINDOW must be positive")
	}
	return nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	var file struct {
		Config        `yaml:",inline"`
		LLMTimeoutMs  int `yaml:"llm_timeout_ms"`
		ModelCacheTTL int `yaml:"model_cache_ttl_s"`
	}
	file.Config = *c
	if err := yaml.Unmarshal(data, &file); err != nil {
		return err
	}
	*c = file.Config
	if file.LLMTimeoutMs > 0 {
		c.LLMTimeout = time.Duration(file.LLMTimeoutMs) * time.Millisecond
	}
	if file.ModelCacheTTL > 0 {
		c.ModelCacheTTL = time.Duration(file.ModelCacheTTL) * time.Second
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
