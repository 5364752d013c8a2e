package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/higress-group/docqa-bot/config"
	"github.com/higress-group/docqa-bot/schema"
)

// OpenAIProvider calls an OpenAI compatible endpoint with temperature 0 and no streaming.
// The SDK's own retries are disabled; a failure is reported once.
type OpenAIProvider struct {
	client    openai.Client
	model     string
	chat      bool
	maxTokens int
}

func NewOpenAIProvider(cfg config.LLMConfig) *OpenAIProvider {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAIProvider{
		client:    openai.NewClient(opts...),
		model:     cfg.Model,
		chat:      strings.EqualFold(cfg.API, "chat"),
		maxTokens: cfg.MaxTokens,
	}
}

func (o *OpenAIProvider) GetProviderType() string { return "openai" }

func (o *OpenAIProvider) GenerateCompletion(ctx context.Context, prompt string) (string, error) {
	var (
		text string
		err  error
	)
	if o.chat {
		text, err = o.chatCompletion(ctx, prompt)
	} else {
		text, err = o.completion(ctx, prompt)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", schema.ErrGenerationFailed, err)
	}
	return text, nil
}

func (o *OpenAIProvider) completion(ctx context.Context, prompt string) (string, error) {
	params := openai.CompletionNewParams{
		Model:       openai.CompletionNewParamsModel(o.model),
		Prompt:      openai.CompletionNewParamsPromptUnion{OfString: openai.String(prompt)},
		Temperature: openai.Float(0),
	}
	if o.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(o.maxTokens))
	}
	resp, err := o.client.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model %s returned no choices", o.model)
	}
	return resp.Choices[0].Text, nil
}

func (o *OpenAIProvider) chatCompletion(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(0),
	}
	if o.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(o.maxTokens))
	}
	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model %s returned no choices", o.model)
	}
	return resp.Choices[0].Message.Content, nil
}
