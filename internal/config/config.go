package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ConfigDir is the per-project directory searched for config files.
const ConfigDir = ".archlens"

// EnvPrefix prefixes every environment override, e.g. ARCHLENS_SEMANTIC_PROVIDER.
const EnvPrefix = "ARCHLENS"

// Config represents the complete archlens configuration (v1 schema)
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	Analysis AnalysisConfig `json:"analysis" mapstructure:"analysis"`
	Cache    CacheConfig    `json:"cache" mapstructure:"cache"`
	Semantic SemanticConfig `json:"semantic" mapstructure:"semantic"`
	Source   SourceConfig   `json:"source" mapstructure:"source"`
	Logging  LoggingConfig  `json:"logging" mapstructure:"logging"`
	Metrics  MetricsConfig  `json:"metrics" mapstructure:"metrics"`
}

// AnalysisConfig contains pipeline defaults and limits
type AnalysisConfig struct {
	DefaultDepth      string   `json:"defaultDepth" mapstructure:"defaultDepth"`
	TokenBudget       int      `json:"tokenBudget" mapstructure:"tokenBudget"`
	BatchSize         int      `json:"batchSize" mapstructure:"batchSize"`
	MaxFilesPerModule int      `json:"maxFilesPerModule" mapstructure:"maxFilesPerModule"`
	MaxFileBytes      int64    `json:"maxFileBytes" mapstructure:"maxFileBytes"`
	RespectGitignore  bool     `json:"respectGitignore" mapstructure:"respectGitignore"`
	Exclude           []string `json:"exclude" mapstructure:"exclude"`
}

// CacheConfig contains result cache configuration
type CacheConfig struct {
	TTLSeconds int `json:"ttlSeconds" mapstructure:"ttlSeconds"`
	Capacity   int `json:"capacity" mapstructure:"capacity"`
}

// SemanticConfig contains the text-generation service configuration.
// Credentials are read from the environment (OPENAI_API_KEY, GEMINI_API_KEY), never from this file.
type SemanticConfig struct {
	Provider          string `json:"provider" mapstructure:"provider"`
	Model             string `json:"model" mapstructure:"model"`
	BaseURL           string `json:"baseUrl" mapstructure:"baseUrl"`
	MaxOutputTokens   int    `json:"maxOutputTokens" mapstructure:"maxOutputTokens"`
	TimeoutSeconds    int    `json:"timeoutSeconds" mapstructure:"timeoutSeconds"`
	MaxRetries        int    `json:"maxRetries" mapstructure:"maxRetries"`
	RequestsPerMinute int    `json:"requestsPerMinute" mapstructure:"requestsPerMinute"`
}

// SourceConfig contains source resolution settings
type SourceConfig struct {
	CloneDepth      int    `json:"cloneDepth" mapstructure:"cloneDepth"`
	WorkDir         string `json:"workDir" mapstructure:"workDir"`
	MaxArchiveBytes int64  `json:"maxArchiveBytes" mapstructure:"maxArchiveBytes"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
	File   string `json:"file" mapstructure:"file"`
}

// MetricsConfig contains Prometheus exposition settings
type MetricsConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Addr    string `json:"addr" mapstructure:"addr"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Analysis: AnalysisConfig{
			DefaultDepth:      "standard",
			TokenBudget:       100000,
			BatchSize:         5,
			MaxFilesPerModule: 50,
			MaxFileBytes:      100000,
			RespectGitignore:  true,
			Exclude:           []string{},
		},
		Cache: CacheConfig{
			TTLSeconds: 3600,
			Capacity:   50,
		},
		Semantic: SemanticConfig{
			Provider:          "openai",
			Model:             "gpt-4o-mini",
			MaxOutputTokens:   8192,
			TimeoutSeconds:    120,
			MaxRetries:        3,
			RequestsPerMinute: 30,
		},
		Source: SourceConfig{
			CloneDepth:      1,
			MaxArchiveBytes: 512 << 20,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9464",
		},
	}
}

// LoadResult describes where a configuration came from
type LoadResult struct {
	Config       *Config
	ConfigPath   string
	UsedDefaults bool
}

// LoadConfig loads configuration from .archlens/config.{json,yaml,toml} under dir,
// applying ARCHLENS_* environment overrides.
func LoadConfig(dir string) (*Config, error) {
	res, err := LoadConfigWithDetails(dir, "")
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

// LoadConfigWithDetails loads configuration and reports its origin.
// An explicit path takes precedence over the search in dir.
func LoadConfigWithDetails(dir, explicitPath string) (*LoadResult, error) {
	v := newViper()

	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(filepath.Join(dir, ConfigDir))
	}

	usedDefaults := false
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicitPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		usedDefaults = true
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &LoadResult{
		Config:       cfg,
		ConfigPath:   v.ConfigFileUsed(),
		UsedDefaults: usedDefaults,
	}, nil
}

// newViper returns a viper instance seeded with every default so that
// environment overrides apply even when no file exists.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := DefaultConfig()
	v.SetDefault("version", d.Version)
	v.SetDefault("analysis.defaultDepth", d.Analysis.DefaultDepth)
	v.SetDefault("analysis.tokenBudget", d.Analysis.TokenBudget)
	v.SetDefault("analysis.batchSize", d.Analysis.BatchSize)
	v.SetDefault("analysis.maxFilesPerModule", d.Analysis.MaxFilesPerModule)
	v.SetDefault("analysis.maxFileBytes", d.Analysis.MaxFileBytes)
	v.SetDefault("analysis.respectGitignore", d.Analysis.RespectGitignore)
	v.SetDefault("analysis.exclude", d.Analysis.Exclude)
	v.SetDefault("cache.ttlSeconds", d.Cache.TTLSeconds)
	v.SetDefault("cache.capacity", d.Cache.Capacity)
	v.SetDefault("semantic.provider", d.Semantic.Provider)
	v.SetDefault("semantic.model", d.Semantic.Model)
	v.SetDefault("semantic.baseUrl", d.Semantic.BaseURL)
	v.SetDefault("semantic.maxOutputTokens", d.Semantic.MaxOutputTokens)
	v.SetDefault("semantic.timeoutSeconds", d.Semantic.TimeoutSeconds)
	v.SetDefault("semantic.maxRetries", d.Semantic.MaxRetries)
	v.SetDefault("semantic.requestsPerMinute", d.Semantic.RequestsPerMinute)
	v.SetDefault("source.cloneDepth", d.Source.CloneDepth)
	v.SetDefault("source.workDir", d.Source.WorkDir)
	v.SetDefault("source.maxArchiveBytes", d.Source.MaxArchiveBytes)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
	return v
}

// GetSupportedEnvVars lists the environment variables that override config keys.
func GetSupportedEnvVars() []string {
	keys := newViper().AllKeys()
	vars := make([]string, 0, len(keys))
	for _, k := range keys {
		vars = append(vars, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(k, ".", "_")))
	}
	return vars
}

// Save writes the configuration to .archlens/config.json
func (c *Config) Save(dir string) error {
	configDir := filepath.Join(dir, ConfigDir)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(configDir, "config.json"), data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != 1 {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	switch c.Analysis.DefaultDepth {
	case "surface", "standard", "deep":
	default:
		return &ConfigError{Field: "analysis.defaultDepth", Message: "must be surface, standard or deep"}
	}
	if c.Analysis.TokenBudget <= 0 {
		return &ConfigError{Field: "analysis.tokenBudget", Message: "must be positive"}
	}
	if c.Analysis.BatchSize <= 0 {
		return &ConfigError{Field: "analysis.batchSize", Message: "must be positive"}
	}
	if c.Analysis.MaxFilesPerModule <= 0 {
		return &ConfigError{Field: "analysis.maxFilesPerModule", Message: "must be positive"}
	}
	if c.Analysis.MaxFileBytes <= 0 {
		return &ConfigError{Field: "analysis.maxFileBytes", Message: "must be positive"}
	}
	if c.Cache.TTLSeconds <= 0 {
		return &ConfigError{Field: "cache.ttlSeconds", Message: "must be positive"}
	}
	if c.Cache.Capacity <= 0 {
		return &ConfigError{Field: "cache.capacity", Message: "must be positive"}
	}
	switch c.Semantic.Provider {
	case "openai", "gemini", "none":
	default:
		return &ConfigError{Field: "semantic.provider", Message: "must be openai, gemini or none"}
	}
	if c.Semantic.MaxRetries < 0 {
		return &ConfigError{Field: "semantic.maxRetries", Message: "must not be negative"}
	}
	switch c.Logging.Format {
	case "human", "json":
	default:
		return &ConfigError{Field: "logging.format", Message: "must be human or json"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
