package embedding

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/higress-group/docqa-bot/config"
	"github.com/higress-group/docqa-bot/schema"
)

// OpenAIProvider calls an OpenAI compatible /embeddings endpoint.
type OpenAIProvider struct {
	client     openai.Client
	model      string
	dimensions int
}

func NewOpenAIProvider(cfg config.EmbeddingConfig) *OpenAIProvider {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAIProvider{
		client:     openai.NewClient(opts...),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}
}

func (p *OpenAIProvider) GetProviderType() string { return "openai" }

func (p *OpenAIProvider) Embed(ctx context.Context, sentences []string) ([][]float32, error) {
	if len(sentences) == 0 {
		return nil, schema.ErrEmptyInput
	}
	resp, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(p.model),
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: sentences},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: embedding request failed: %v", schema.ErrUpstreamUnavailable, err)
	}

	vectors := make([][]float32, len(sentences))
	for _, d := range resp.Data {
		idx := int(d.Index)
		if idx < 0 || idx >= len(vectors) {
			return nil, fmt.Errorf("%w: embedding index %d out of range", schema.ErrUpstreamUnavailable, d.Index)
		}
		vec := make([]float32, len(d.Embedding))
		for j, f := range d.Embedding {
			vec[j] = float32(f)
		}
		vectors[idx] = vec
	}
	if len(resp.Data) != len(sentences) {
		return nil, fmt.Errorf("%w: embedding service returned %d vectors for %d sentences", schema.ErrUpstreamUnavailable, len(resp.Data), len(sentences))
	}
	if err := checkBatch(vectors, len(sentences), p.dimensions); err != nil {
		return nil, err
	}
	return vectors, nil
}
