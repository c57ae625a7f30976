package services

import (
	"context"
	"errors"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared/constant"

	"jobfill/config"
)

// OpenAIClient calls the chat completions API in JSON mode.
type OpenAIClient struct {
	client    *openai.Client
	model     string
	maxTokens int64
}

func NewOpenAIClient(cfg config.LLMConfig, opts ...option.RequestOption) *OpenAIClient {
	client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(cfg.APIKey)}, opts...)...)
	return &OpenAIClient{
		client:    &client,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

func (c *OpenAIClient) Provider() string { return "openai" }

func (c *OpenAIClient) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Model: c.model,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{
				Type: constant.JSONObject("json_object"),
			},
		},
		Temperature: openai.Float(LLMTemperature),
		MaxTokens:   openai.Int(c.maxTokens),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", NewUpstreamError(c.Provider(), apiErr.StatusCode, apiErr.Error(), err)
		}
		return "", NewUpstreamError(c.Provider(), 0, err.Error(), err)
	}
	if len(completion.Choices) == 0 {
		return "", NewUpstreamError(c.Provider(), 0, "no choices in response", nil)
	}
	return completion.Choices[0].Message.Content, nil
}
