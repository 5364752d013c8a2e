package embedding

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/higress-group/docqa-bot/common/httpx"
	"github.com/higress-group/docqa-bot/config"
	"github.com/higress-group/docqa-bot/schema"
)

// HTTPProvider talks to a sentence-transformers sidecar exposing POST /encode.
type HTTPProvider struct {
	endpoint   string
	dimensions int
	client     *httpx.Client
}

type encodeRequest struct {
	Sentences []string `json:"sentences"`
}

func NewHTTPProvider(cfg config.EmbeddingConfig, hc *httpx.Client) *HTTPProvider {
	if hc == nil {
		hc = httpx.NewFromConfig(nil)
	}
	return &HTTPProvider{
		endpoint:   strings.TrimRight(cfg.BaseURL, "/") + "/encode",
		dimensions: cfg.Dimensions,
		client:     hc,
	}
}

func (p *HTTPProvider) GetProviderType() string { return "http" }

func (p *HTTPProvider) Embed(ctx context.Context, sentences []string) ([][]float32, error) {
	if len(sentences) == 0 {
		return nil, schema.ErrEmptyInput
	}
	body, err := p.client.JSON(ctx, http.MethodPost, p.endpoint, nil, encodeRequest{Sentences: sentences})
	if err != nil {
		return nil, fmt.Errorf("%w: embedding request failed: %v", schema.ErrUpstreamUnavailable, err)
	}

	res := gjson.GetBytes(body, "embeddings")
	if !res.IsArray() {
		return nil, fmt.Errorf("%w: embedding response has no embeddings array", schema.ErrUpstreamUnavailable)
	}
	vectors := make([][]float32, 0, len(sentences))
	for _, row := range res.Array() {
		nums := row.Array()
		vec := make([]float32, len(nums))
		for i, n := range nums {
			vec[i] = float32(n.Float())
		}
		vectors = append(vectors, vec)
	}
	if err := checkBatch(vectors, len(sentences), p.dimensions); err != nil {
		return nil, err
	}
	return vectors, nil
}
