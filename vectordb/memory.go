package vectordb

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/higress-group/docqa-bot/schema"
)

// MemoryProvider keeps records in process and ranks them by brute-force cosine similarity.
type MemoryProvider struct {
	mu      sync.RWMutex
	dims    int
	records map[int64]schema.KnowledgeRecord
	vectors map[int64][]float32
}

func NewMemoryProvider(dims int) *MemoryProvider {
	return &MemoryProvider{
		dims:    dims,
		records: make(map[int64]schema.KnowledgeRecord),
		vectors: make(map[int64][]float32),
	}
}

func (m *MemoryProvider) GetProviderType() string { return "memory" }

func (m *MemoryProvider) EnsureCollection(ctx context.Context) error { return nil }

func (m *MemoryProvider) Close() error { return nil }

func (m *MemoryProvider) Upsert(ctx context.Context, records []schema.KnowledgeRecord, vectors [][]float32) error {
	if err := checkUpsert(records, vectors, m.dims); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range records {
		vec := make([]float32, len(vectors[i]))
		copy(vec, vectors[i])
		ev := slots(r)
		r.Evidence = nonEmpty(ev[:]...)
		m.records[r.ID] = r
		m.vectors[r.ID] = vec
	}
	return nil
}

func (m *MemoryProvider) Prune(ctx context.Context, keep int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.records {
		if id >= keep {
			delete(m.records, id)
			delete(m.vectors, id)
		}
	}
	return nil
}

func (m *MemoryProvider) Search(ctx context.Context, vector []float32, topK int) ([]schema.RetrievedMatch, error) {
	if m.dims > 0 && len(vector) != m.dims {
		return nil, fmt.Errorf("%w: query vector dimension %d, expected %d", schema.ErrUpstreamUnavailable, len(vector), m.dims)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]schema.RetrievedMatch, 0, len(m.records))
	for id, r := range m.records {
		matches = append(matches, schema.RetrievedMatch{
			RecordID: id,
			Question: r.Question,
			Answer:   r.Answer,
			Evidence: append([]string(nil), r.Evidence...),
			Score:    cosine(vector, m.vectors[id]),
		})
	}
	return rank(matches, topK), nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
