package semantic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"archlens/internal/config"
)

// NewClientFromConfig builds the configured provider wrapped in retry, rate limit
// and timeout middleware. A provider without a credential, or provider "none",
// yields a client that fails every call with ErrNoCredential.
func NewClientFromConfig(ctx context.Context, cfg config.SemanticConfig, logger *slog.Logger) (Client, error) {
	var (
		inner Client
		err   error
	)

	switch cfg.Provider {
	case "none", "":
		return noCredentialClient{provider: "none"}, nil
	case "openai":
		inner, err = NewOpenAIClient("", cfg.Model, cfg.BaseURL)
	case "gemini":
		model := cfg.Model
		if !strings.HasPrefix(model, "gemini") {
			model = DefaultGeminiModel
		}
		inner, err = NewGeminiClient(ctx, "", model, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("unknown semantic provider %q", cfg.Provider)
	}

	if errors.Is(err, ErrNoCredential) {
		logger.Debug("Semantic provider has no credential", "provider", cfg.Provider)
		return noCredentialClient{provider: cfg.Provider}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("creating %s client: %w", cfg.Provider, err)
	}

	return Wrap(inner,
		Retry(cfg.MaxRetries+1, 0, logger),
		RateLimit(cfg.RequestsPerMinute),
		Timeout(time.Duration(cfg.TimeoutSeconds)*time.Second),
	), nil
}
