package semantic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"archlens/internal/analysis"
)

// OpenAIKeyEnv is the environment variable holding the OpenAI API key.
const OpenAIKeyEnv = "OPENAI_API_KEY"

// OpenAIClient calls the chat completions API in JSON mode.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a client. An empty apiKey falls back to OPENAI_API_KEY;
// when neither is set ErrNoCredential is returned.
func NewOpenAIClient(apiKey, model, baseURL string) (*OpenAIClient, error) {
	if apiKey == "" {
		apiKey = os.Getenv(OpenAIKeyEnv)
	}
	if apiKey == "" {
		return nil, ErrNoCredential
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

// Name returns the provider and model
func (c *OpenAIClient) Name() string { return "openai:" + c.model }

// GenerateStructuredAnalysis sends one chat completion and parses its JSON content.
func (c *OpenAIClient) GenerateStructuredAnalysis(ctx context.Context, pc PromptContext, opts GenerateOptions) (*analysis.SemanticReport, Usage, error) {
	system, user, err := BuildPrompt(pc)
	if err != nil {
		return nil, Usage{}, Permanent(err)
	}

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}
	if opts.MaxOutputTokens > 0 {
		req.MaxCompletionTokens = opts.MaxOutputTokens
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, Usage{}, classifyOpenAIError(err)
	}
	usage := Usage{InputTokens: resp.Usage.PromptTokens, OutputTokens: resp.Usage.CompletionTokens}
	if len(resp.Choices) == 0 {
		return nil, usage, errors.New("openai returned no choices")
	}

	report, err := ParseReport(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, usage, err
	}
	return report, usage, nil
}

// classifyOpenAIError marks client errors other than rate limiting as permanent.
func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden {
			return Permanent(fmt.Errorf("openai rejected the credential: %w", err))
		}
		if apiErr.HTTPStatusCode >= 400 && apiErr.HTTPStatusCode < 500 && apiErr.HTTPStatusCode != http.StatusTooManyRequests {
			return Permanent(err)
		}
	}
	return err
}
