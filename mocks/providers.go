package mocks

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/higress-group/docqa-bot/schema"
)

// MockLLMProvider returns a fixed response or error and counts calls.
type MockLLMProvider struct {
	mu       sync.Mutex
	Response string
	Err      error
	// Block, when set, is waited on before returning.
	Block   <-chan struct{}
	Prompts []string
}

func (m *MockLLMProvider) GenerateCompletion(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.Prompts = append(m.Prompts, prompt)
	m.mu.Unlock()
	if m.Block != nil {
		select {
		case <-m.Block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

func (m *MockLLMProvider) GetProviderType() string { return "mock" }

// Calls returns how many completions were requested.
func (m *MockLLMProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}

// MockEmbedder returns a constant vector per sentence.
type MockEmbedder struct {
	Vector []float32
	Err    error
}

func (m *MockEmbedder) Embed(ctx context.Context, sentences []string) ([][]float32, error) {
	if len(sentences) == 0 {
		return nil, schema.ErrEmptyInput
	}
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([][]float32, len(sentences))
	for i := range out {
		out[i] = append([]float32(nil), m.Vector...)
	}
	return out, nil
}

func (m *MockEmbedder) GetProviderType() string { return "mock" }

// MockRasterizer renders any page except those listed in Fail.
type MockRasterizer struct {
	Fail map[int]error
}

func (m *MockRasterizer) RenderPage(ctx context.Context, page int) (schema.PageImage, error) {
	if err := m.Fail[page]; err != nil {
		return schema.PageImage{}, err
	}
	if page > 1000 {
		return schema.PageImage{}, errors.New("page out of range")
	}
	return schema.PageImage{Page: strconv.Itoa(page), MIMEType: "image/jpeg", Data: []byte("jpeg:" + strconv.Itoa(page))}, nil
}

// MockVectorStore returns fixed matches or an error from Search.
type MockVectorStore struct {
	Matches []schema.RetrievedMatch
	Err     error

	mu       sync.Mutex
	searches int
}

func (m *MockVectorStore) EnsureCollection(ctx context.Context) error { return m.Err }

func (m *MockVectorStore) Search(ctx context.Context, vector []float32, topK int) ([]schema.RetrievedMatch, error) {
	m.mu.Lock()
	m.searches++
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := m.Matches
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return append([]schema.RetrievedMatch(nil), out...), nil
}

func (m *MockVectorStore) Upsert(ctx context.Context, records []schema.KnowledgeRecord, vectors [][]float32) error {
	return m.Err
}

func (m *MockVectorStore) Prune(ctx context.Context, keep int64) error { return m.Err }

func (m *MockVectorStore) GetProviderType() string { return "mock" }

// Searches returns how many searches were issued.
func (m *MockVectorStore) Searches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.searches
}

func (m *MockVectorStore) Close() error { return nil }
