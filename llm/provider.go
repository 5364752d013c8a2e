package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/higress-group/docqa-bot/config"
)

// Provider is a prompt-in, text-out completion model.
type Provider interface {
	GenerateCompletion(ctx context.Context, prompt string) (string, error)
	GetProviderType() string
}

// NewLLMProvider creates the configured completion provider.
func NewLLMProvider(cfg config.LLMConfig) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return NewOpenAIProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
}
