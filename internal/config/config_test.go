package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.HTTPPort != 8080 {
		t.Errorf("HTTPPort = %d", cfg.HTTPPort)
	}
	if cfg.DefaultModel != "gpt-3.5-turbo" {
		t.Errorf("DefaultModel = %q", cfg.DefaultModel)
	}
	if cfg.ContextWindow != 10 || cfg.HistoryLimit != 10 {
		t.Errorf("window/history = %d/%d", cfg.ContextWindow, cfg.HistoryLimit)
	}
	if cfg.ModelsPerPage != 5 {
		t.Errorf("ModelsPerPage = %d", cfg.ModelsPerPage)
	}
	if cfg.ModelCacheTTL != 5*time.Minute {
		t.Errorf("ModelCacheTTL = %v", cfg.ModelCacheTTL)
	}
	if cfg.LLMTimeout != 120*time.Second {
		t.Errorf("LLMTimeout = %v", cfg.LLMTimeout)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("LLM_BASE_URL", "https://api.example.com")
	t.Setenv("LLM_API_KEY", "sk-test")
	t.Setenv("DEFAULT_MODEL", "gpt-4")
	t.Setenv("CONTEXT_WINDOW", "20")
	t.Setenv("LLM_TIMEOUT_MS", "5000")
	t.Setenv("ALLOWED_USERS", "alice, bob ,carol")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.HTTPPort != 9090 {
		t.Errorf("HTTPPort = %d", cfg.HTTPPort)
	}
	if cfg.LLMBaseURL != "https://api.example.com" {
		t.Errorf("LLMBaseURL = %q", cfg.LLMBaseURL)
	}
	if cfg.DefaultModel != "gpt-4" {
		t.Errorf("DefaultModel = %q", cfg.DefaultModel)
	}
	if cfg.ContextWindow != 20 {
		t.Errorf("ContextWindow = %d", cfg.ContextWindow)
	}
	if cfg.LLMTimeout != 5*time.Second {
		t.Errorf("LLMTimeout = %v", cfg.LLMTimeout)
	}
	if len(cfg.AllowedUsers) != 3 || cfg.AllowedUsers[1] != "bob" {
		t.Errorf("AllowedUsers = %v", cfg.AllowedUsers)
	}
}

func TestLoadYAMLFileUnderEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
http_port: 7070
default_model: file-model
llm_base_url: https://file.example.com
llm_timeout_ms: 30000
model_cache_ttl_s: 60
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("CHATRELAY_CONFIG", path)
	// Env still wins over the file.
	t.Setenv("DEFAULT_MODEL", "env-model")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.HTTPPort != 7070 {
		t.Errorf("HTTPPort = %d", cfg.HTTPPort)
	}
	if cfg.DefaultModel != "env-model" {
		t.Errorf("DefaultModel = %q", cfg.DefaultModel)
	}
	if cfg.LLMBaseURL != "https://file.example.com" {
		t.Errorf("LLMBaseURL = %q", cfg.LLMBaseURL)
	}
	if cfg.LLMTimeout != 30*time.Second {
		t.Errorf("LLMTimeout = %v", cfg.LLMTimeout)
	}
	if cfg.ModelCacheTTL != time.Minute {
		t.Errorf("ModelCacheTTL = %v", cfg.ModelCacheTTL)
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{ContextWindow: 10}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing LLM_BASE_URL")
	}

	cfg.LLMBaseURL = "https://api.example.com"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing LLM_API_KEY")
	}

	cfg.LLMAPIKey = "sk-test"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	cfg.ContextWindow = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for non-positive CONTEXT_WINDOW")
	}
}
