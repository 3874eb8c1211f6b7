package extract

import (
	"context"
	"fmt"
)

const (
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOpenAIModel   = "gpt-4o-mini"
)

// NewCompleter builds the client for provider: groq, openai, anthropic or
// gemini. An empty baseURL or model selects the provider default.
func NewCompleter(ctx context.Context, provider, apiKey, baseURL, model string) (Completer, error) {
	switch provider {
	case "groq", "":
		return NewOpenAIClient(apiKey, baseURL, model), nil
	case "openai":
		if baseURL == "" {
			baseURL = DefaultOpenAIBaseURL
		}
		if model == "" {
			model = DefaultOpenAIModel
		}
		return NewOpenAIClient(apiKey, baseURL, model), nil
	case "anthropic":
		return NewClaudeClient(apiKey, baseURL, model), nil
	case "gemini":
		return NewGeminiClient(ctx, apiKey, model)
	}
	return nil, fmt.Errorf("unknown llm provider %q", provider)
}
