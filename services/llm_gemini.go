package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"jobfill/config"
)

// GeminiClient calls Gemini with a JSON response MIME type.
type GeminiClient struct {
	client    *genai.Client
	model     string
	maxTokens int64
}

func NewGeminiClient(ctx context.Context, cfg config.LLMConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingCredentials
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: cfg.Model, maxTokens: cfg.MaxTokens}, nil
}

func (c *GeminiClient) Provider() string { return "gemini" }

func (c *GeminiClient) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(LLMTemperature)
	model.SetMaxOutputTokens(int32(c.maxTokens))
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}

	resp, err := model.GenerateContent(ctx, genai.Text(user))
	if err != nil {
		var gErr *googleapi.Error
		if errors.As(err, &gErr) {
			return "", NewUpstreamError(c.Provider(), gErr.Code, firstNonEmpty(gErr.Body, gErr.Message), err)
		}
		return "", NewUpstreamError(c.Provider(), 0, err.Error(), err)
	}

	text, err := geminiText(resp)
	if err != nil {
		return "", NewUpstreamError(c.Provider(), 0, err.Error(), err)
	}
	return text, nil
}

func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func geminiText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}
	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}
	return strings.Join(parts, ""), nil
}
