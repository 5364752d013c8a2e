package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/higress-group/docqa-bot/common/httpx"
	"github.com/higress-group/docqa-bot/config"
	"github.com/higress-group/docqa-bot/schema"
)

// Provider turns sentences into fixed-dimension vectors. The returned slice has the
// same length and order as the input; on any failure the whole batch fails.
type Provider interface {
	Embed(ctx context.Context, sentences []string) ([][]float32, error)
	GetProviderType() string
}

// NewProvider selects an implementation from config.
func NewProvider(cfg config.EmbeddingConfig, hc *httpx.Client) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "http":
		return NewHTTPProvider(cfg, hc), nil
	case "openai":
		return NewOpenAIProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}

// checkBatch validates cardinality and dimensionality of a provider response.
func checkBatch(vectors [][]float32, want, dims int) error {
	if len(vectors) != want {
		return fmt.Errorf("%w: embedding service returned %d vectors for %d sentences", schema.ErrUpstreamUnavailable, len(vectors), want)
	}
	if dims <= 0 {
		return nil
	}
	for i, v := range vectors {
		if len(v) != dims {
			return fmt.Errorf("%w: vector %d has dimension %d, expected %d", schema.ErrUpstreamUnavailable, i, len(v), dims)
		}
	}
	return nil
}
