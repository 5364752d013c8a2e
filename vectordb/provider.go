package vectordb

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/higress-group/docqa-bot/common/httpx"
	"github.com/higress-group/docqa-bot/config"
	"github.com/higress-group/docqa-bot/schema"
)

// Provider is a nearest-neighbour store of knowledge records.
//
// Search returns at most topK matches ordered most-similar first; an empty
// collection yields an empty slice and no error. EnsureCollection is idempotent.
// Prune deletes every record whose id is >= keep; a reload calls it after upserting
// ids 0..keep-1 so records removed from the source disappear.
type Provider interface {
	EnsureCollection(ctx context.Context) error
	Search(ctx context.Context, vector []float32, topK int) ([]schema.RetrievedMatch, error)
	Upsert(ctx context.Context, records []schema.KnowledgeRecord, vectors [][]float32) error
	Prune(ctx context.Context, keep int64) error
	GetProviderType() string
	Close() error
}

// NewProvider creates the configured store client. dims is the embedding dimensionality.
func NewProvider(ctx context.Context, cfg config.VectorDBConfig, dims int, hc *httpx.Client) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "qdrant":
		return NewQdrantProvider(cfg, dims, hc), nil
	case "milvus":
		return NewMilvusProvider(ctx, cfg, dims)
	case "pgvector":
		return NewPGVectorProvider(ctx, cfg, dims)
	case "memory":
		return NewMemoryProvider(dims), nil
	default:
		return nil, fmt.Errorf("unsupported vectordb provider: %s", cfg.Provider)
	}
}

func checkUpsert(records []schema.KnowledgeRecord, vectors [][]float32, dims int) error {
	if len(records) != len(vectors) {
		return fmt.Errorf("upsert: %d records but %d vectors", len(records), len(vectors))
	}
	for i, v := range vectors {
		if dims > 0 && len(v) != dims {
			return fmt.Errorf("upsert: record %d has vector dimension %d, expected %d", records[i].ID, len(v), dims)
		}
	}
	return nil
}

// rank sorts by score descending (ties by record id) and truncates to topK.
func rank(matches []schema.RetrievedMatch, topK int) []schema.RetrievedMatch {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].RecordID < matches[j].RecordID
	})
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}

func upstream(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", schema.ErrUpstreamUnavailable, op, err)
}
