// Package semantic asks an external text-generation service for the semantic
// layer of an analysis: architecture type, patterns, data models, endpoints and
// cross-file relationships. The layer is optional and every failure degrades.
package semantic

import (
	"context"
	"errors"
	"log/slog"

	"archlens/internal/analysis"
)

var (
	// ErrNoCredential is returned before any network attempt when no service credential is configured.
	ErrNoCredential = errors.New("semantic: no credential configured")
	// ErrServiceFailure is returned after the service failed and retries were exhausted.
	ErrServiceFailure = errors.New("semantic: service failure")
	// ErrBudgetExhausted is returned when no output tokens remain for the call.
	ErrBudgetExhausted = errors.New("semantic: token budget exhausted")
)

// Usage reports the tokens consumed by one service call
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

// Total returns input plus output tokens
func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// GenerateOptions bounds one service call
type GenerateOptions struct {
	MaxOutputTokens int
}

// Client is the boundary to the text-generation service.
type Client interface {
	Name() string
	GenerateStructuredAnalysis(ctx context.Context, pc PromptContext, opts GenerateOptions) (*analysis.SemanticReport, Usage, error)
}

// Analyzer runs the semantic layer over surface and structural output.
type Analyzer struct {
	client Client
	logger *slog.Logger
}

// NewAnalyzer creates an analyzer. A nil client behaves as an unconfigured service.
func NewAnalyzer(client Client, logger *slog.Logger) *Analyzer {
	return &Analyzer{client: client, logger: logger}
}

// Analyze builds the prompt context and calls the service once.
func (a *Analyzer) Analyze(ctx context.Context, surface *analysis.SurfaceReport, structural []analysis.StructuralReport, maxOutputTokens int) (*analysis.SemanticReport, Usage, error) {
	if a.client == nil {
		return nil, Usage{}, ErrNoCredential
	}
	if maxOutputTokens <= 0 {
		return nil, Usage{}, ErrBudgetExhausted
	}

	pc := NewPromptContext(surface, structural)
	a.logger.Debug("Requesting semantic analysis",
		"client", a.client.Name(),
		"modules", len(pc.Modules),
		"maxOutputTokens", maxOutputTokens,
	)

	report, usage, err := a.client.GenerateStructuredAnalysis(ctx, pc, GenerateOptions{MaxOutputTokens: maxOutputTokens})
	if err != nil {
		return nil, usage, err
	}

	a.logger.Debug("Semantic analysis complete",
		"architecture", report.ArchitectureType,
		"patterns", len(report.Patterns),
		"tokens", usage.Total(),
	)
	return report, usage, nil
}

// noCredentialClient stands in for a provider whose key is missing.
type noCredentialClient struct {
	provider string
}

func (c noCredentialClient) Name() string { return c.provider + ":unconfigured" }

func (c noCredentialClient) GenerateStructuredAnalysis(context.Context, PromptContext, GenerateOptions) (*analysis.SemanticReport, Usage, error) {
	return nil, Usage{}, ErrNoCredential
}
