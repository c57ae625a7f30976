package services

import (
	"context"
	"fmt"
	"strings"

	"jobfill/config"
)

// LLMTemperature keeps classification output stable between calls.
const LLMTemperature = 0.1

// LLMClient sends one system+user exchange and returns the model's raw JSON
// text. Provider errors come back as *UpstreamError.
type LLMClient interface {
	Provider() string
	CompleteJSON(ctx context.Context, system, user string) (string, error)
}

// NewLLMClient builds the client for the configured provider. A missing API
// key is not an error here: the returned client fails every call with
// ErrMissingCredentials so the server can still start and report it per
// request.
func NewLLMClient(ctx context.Context, cfg config.LLMConfig) (LLMClient, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "openai":
		if cfg.APIKey == "" {
			return missingCredentials{provider: "openai"}, nil
		}
		return NewOpenAIClient(cfg), nil
	case "gemini":
		if cfg.APIKey == "" {
			return missingCredentials{provider: "gemini"}, nil
		}
		return NewGeminiClient(ctx, cfg)
	}
	return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
}

type missingCredentials struct {
	provider string
}

func (m missingCredentials) Provider() string { return m.provider }

func (m missingCredentials) CompleteJSON(context.Context, string, string) (string, error) {
	return "", NewUpstreamError(m.provider, 0, ErrMissingCredentials.Error(), ErrMissingCredentials)
}

// cleanJSONBlock removes markdown code fences around a JSON payload.
func cleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```JSON")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
