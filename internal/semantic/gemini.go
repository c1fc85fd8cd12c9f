package semantic

import (
	"context"
	"errors"
	"os"

	"google.golang.org/genai"

	"archlens/internal/analysis"
)

// GeminiKeyEnvs are checked in order for a Gemini API key.
var GeminiKeyEnvs = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}

// DefaultGeminiModel is used when the configured model is not a Gemini model.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiClient is a thin wrapper around the genai client. Retries, rate limiting
// and timeouts are applied via Middleware.
type GeminiClient struct {
	cli   *genai.Client
	model string
}

// NewGeminiClient creates a client. An empty apiKey falls back to the environment;
// when no key is found ErrNoCredential is returned.
func NewGeminiClient(ctx context.Context, apiKey, model, baseURL string) (*GeminiClient, error) {
	if apiKey == "" {
		for _, env := range GeminiKeyEnvs {
			if v := os.Getenv(env); v != "" {
				apiKey = v
				break
			}
		}
	}
	if apiKey == "" {
		return nil, ErrNoCredential
	}

	cc := &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	cli, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &GeminiClient{cli: cli, model: model}, nil
}

// Name returns the provider and model
func (g *GeminiClient) Name() string { return "gemini:" + g.model }

// GenerateStructuredAnalysis asks for application/json and parses the first candidate.
func (g *GeminiClient) GenerateStructuredAnalysis(ctx context.Context, pc PromptContext, opts GenerateOptions) (*analysis.SemanticReport, Usage, error) {
	system, user, err := BuildPrompt(pc)
	if err != nil {
		return nil, Usage{}, Permanent(err)
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
		ResponseMIMEType:  "application/json",
	}
	if opts.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = int32(opts.MaxOutputTokens)
	}

	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Role: genai.RoleUser, Parts: []*genai.Part{{Text: user}}}},
		cfg,
	)
	if err != nil {
		return nil, Usage{}, err
	}

	var usage Usage
	if resp.UsageMetadata != nil {
		usage.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, usage, errors.New("gemini returned no candidates")
	}

	report, err := ParseReport(resp.Candidates[0].Content.Parts[0].Text)
	if err != nil {
		return nil, usage, err
	}
	return report, usage, nil
}
