package quizgen

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// ClientConfig carries the model endpoint settings. It is built from the
// service configuration at startup and passed into NewOpenAIClient; nothing
// in this package reads the environment directly.
type ClientConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// CallOptions tune one completion request.
type CallOptions struct {
	Temperature float64
	MaxTokens   int
}

// Client is the single capability the generator needs from the model
// provider: one prompt in, raw text out. Transport failures come back as
// errors; the caller never retries.
type Client interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, opts CallOptions) (string, error)
}

// OpenAIClient talks to any OpenAI-compatible chat-completions endpoint.
// The default configuration points it at Gemini's compatibility surface,
// but the base URL is entirely caller-controlled.
type OpenAIClient struct {
	llm *openai.LLM
}

func NewOpenAIClient(cfg ClientConfig) (*OpenAIClient, error) {
	clientOpts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, openai.WithBaseURL(cfg.BaseURL))
	}

	llm, err := openai.New(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize completion client: %w", err)
	}
	return &OpenAIClient{llm: llm}, nil
}

func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt, userPrompt string, opts CallOptions) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(schema.ChatMessageTypeHuman, userPrompt),
	}

	callOpts := []llms.CallOption{llms.WithTemperature(opts.Temperature)}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}

	resp, err := c.llm.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Content, nil
}
