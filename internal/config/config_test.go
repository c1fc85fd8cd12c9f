package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}
	if cfg.Analysis.DefaultDepth != "standard" {
		t.Errorf("DefaultDepth = %q, want standard", cfg.Analysis.DefaultDepth)
	}
	if cfg.Analysis.TokenBudget != 100000 {
		t.Errorf("TokenBudget = %d, want 100000", cfg.Analysis.TokenBudget)
	}
	if cfg.Analysis.BatchSize != 5 {
		t.Errorf("BatchSize = %d, want 5", cfg.Analysis.BatchSize)
	}
	if cfg.Analysis.MaxFilesPerModule != 50 || cfg.Analysis.MaxFileBytes != 100000 {
		t.Errorf("unexpected file limits: %+v", cfg.Analysis)
	}
	if cfg.Cache.TTLSeconds != 3600 || cfg.Cache.Capacity != 50 {
		t.Errorf("unexpected cache defaults: %+v", cfg.Cache)
	}
	if !cfg.Analysis.RespectGitignore {
		t.Error("RespectGitignore should default to true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad version", func(c *Config) { c.Version = 9 }, "version"},
		{"bad depth", func(c *Config) { c.Analysis.DefaultDepth = "shallow" }, "analysis.defaultDepth"},
		{"zero budget", func(c *Config) { c.Analysis.TokenBudget = 0 }, "analysis.tokenBudget"},
		{"zero batch", func(c *Config) { c.Analysis.BatchSize = 0 }, "analysis.batchSize"},
		{"zero capacity", func(c *Config) { c.Cache.Capacity = 0 }, "cache.capacity"},
		{"unknown provider", func(c *Config) { c.Semantic.Provider = "bard" }, "semantic.provider"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigError, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.field)
			}
		})
	}
}

func TestConfigError_Error(t *testing.T) {
	err := &ConfigError{Field: "cache.ttlSeconds", Message: "must be positive"}
	want := "config error in field 'cache.ttlSeconds': must be positive"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestLoadConfig_Default(t *testing.T) {
	res, err := LoadConfigWithDetails(t.TempDir(), "")
	if err != nil {
		t.Fatalf("LoadConfigWithDetails failed: %v", err)
	}
	if !res.UsedDefaults {
		t.Error("expected defaults when no config file exists")
	}
	if res.Config.Analysis.TokenBudget != 100000 {
		t.Errorf("TokenBudget = %d, want 100000", res.Config.Analysis.TokenBudget)
	}
}

func TestLoadConfig_FromYAML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", `
version: 1
analysis:
  tokenBudget: 250000
  exclude:
    - "**/*.gen.go"
cache:
  capacity: 10
semantic:
  provider: gemini
`)

	res, err := LoadConfigWithDetails(dir, "")
	if err != nil {
		t.Fatalf("LoadConfigWithDetails failed: %v", err)
	}
	cfg := res.Config
	if res.UsedDefaults {
		t.Error("expected file config to be used")
	}
	if !strings.HasSuffix(res.ConfigPath, "config.yaml") {
		t.Errorf("ConfigPath = %q", res.ConfigPath)
	}
	if cfg.Analysis.TokenBudget != 250000 {
		t.Errorf("TokenBudget = %d, want 250000", cfg.Analysis.TokenBudget)
	}
	if len(cfg.Analysis.Exclude) != 1 || cfg.Analysis.Exclude[0] != "**/*.gen.go" {
		t.Errorf("Exclude = %v", cfg.Analysis.Exclude)
	}
	if cfg.Cache.Capacity != 10 {
		t.Errorf("Capacity = %d, want 10", cfg.Cache.Capacity)
	}
	// Unset keys keep their defaults.
	if cfg.Cache.TTLSeconds != 3600 {
		t.Errorf("TTLSeconds = %d, want default 3600", cfg.Cache.TTLSeconds)
	}
	if cfg.Semantic.Provider != "gemini" {
		t.Errorf("Provider = %q, want gemini", cfg.Semantic.Provider)
	}
}

func TestLoadConfig_FromTOML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", `
version = 1

[analysis]
defaultDepth = "deep"
batchSize = 3
`)

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Analysis.DefaultDepth != "deep" || cfg.Analysis.BatchSize != 3 {
		t.Errorf("unexpected analysis config: %+v", cfg.Analysis)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("ARCHLENS_ANALYSIS_TOKENBUDGET", "42000")
	t.Setenv("ARCHLENS_SEMANTIC_PROVIDER", "none")
	t.Setenv("ARCHLENS_ANALYSIS_RESPECTGITIGNORE", "false")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Analysis.TokenBudget != 42000 {
		t.Errorf("TokenBudget = %d, want 42000", cfg.Analysis.TokenBudget)
	}
	if cfg.Semantic.Provider != "none" {
		t.Errorf("Provider = %q, want none", cfg.Semantic.Provider)
	}
	if cfg.Analysis.RespectGitignore {
		t.Error("RespectGitignore should be overridden to false")
	}
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.json", `{"version": 1, "cache": {"capacity": -1}}`)

	_, err := LoadConfig(dir)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %v", err)
	}
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.json", `{not json`)

	if _, err := LoadConfig(dir); err == nil {
		t.Fatal("expected error for malformed config")
	}
}

func TestLoadConfigWithDetails_ExplicitPathMissing(t *testing.T) {
	_, err := LoadConfigWithDetails(t.TempDir(), filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected error for missing explicit config path")
	}
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Cache.Capacity = 7

	if err := cfg.Save(dir); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Cache.Capacity != 7 {
		t.Errorf("Capacity = %d, want 7", loaded.Cache.Capacity)
	}
}

func TestGetSupportedEnvVars(t *testing.T) {
	vars := GetSupportedEnvVars()
	want := map[string]bool{
		"ARCHLENS_ANALYSIS_TOKENBUDGET": false,
		"ARCHLENS_SEMANTIC_PROVIDER":    false,
		"ARCHLENS_CACHE_TTLSECONDS":     false,
	}
	for _, v := range vars {
		if _, ok := want[v]; ok {
			want[v] = true
		}
	}
	for k, found := range want {
		if !found {
			t.Errorf("expected %s in supported env vars", k)
		}
	}
}

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	configDir := filepath.Join(dir, ConfigDir)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, name), []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}
