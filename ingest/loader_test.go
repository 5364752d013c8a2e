package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/higress-group/docqa-bot/mocks"
	"github.com/higress-group/docqa-bot/schema"
	"github.com/higress-group/docqa-bot/vectordb"
)

// flakyEmbedder fails the first failures calls, then embeds by question length.
type flakyEmbedder struct {
	failures int32
	calls    atomic.Int32
}

func (f *flakyEmbedder) Embed(ctx context.Context, sentences []string) ([][]float32, error) {
	if f.calls.Add(1) <= f.failures {
		return nil, errors.New("embedding service restarting")
	}
	out := make([][]float32, len(sentences))
	for i, s := range sentences {
		out[i] = []float32{float32(len(s)), 1}
	}
	return out, nil
}

func sampleRecords(n int) []schema.KnowledgeRecord {
	out := make([]schema.KnowledgeRecord, n)
	for i := range out {
		out[i] = schema.KnowledgeRecord{ID: int64(i), Question: fmt.Sprintf("question %d", i), Answer: "answer"}
	}
	return out
}

func TestLoaderLoadsAllBatches(t *testing.T) {
	store := vectordb.NewMemoryProvider(2)
	l := &Loader{Embedder: &flakyEmbedder{}, Store: store, BatchSize: 2, Delay: time.Millisecond}

	report, err := l.Load(context.Background(), sampleRecords(5))
	require.NoError(t, err)
	assert.Equal(t, Report{Loaded: 5}, report)

	matches, err := store.Search(context.Background(), []float32{10, 1}, 10)
	require.NoError(t, err)
	assert.Len(t, matches, 5)
}

func TestLoaderRetriesTransientFailure(t *testing.T) {
	emb := &flakyEmbedder{failures: 2}
	l := &Loader{Embedder: emb, Store: vectordb.NewMemoryProvider(2), Attempts: 3, Delay: time.Millisecond}

	report, err := l.Load(context.Background(), sampleRecords(3))
	require.NoError(t, err)
	assert.Equal(t, 3, report.Loaded)
	assert.Equal(t, int32(3), emb.calls.Load())
}

func TestLoaderReportsFailedBatches(t *testing.T) {
	l := &Loader{
		Embedder: &mocks.MockEmbedder{Err: errors.New("boom")},
		Store:    vectordb.NewMemoryProvider(2),
		Attempts: 2, BatchSize: 2, Delay: time.Millisecond,
	}

	report, err := l.Load(context.Background(), sampleRecords(3))
	require.Error(t, err)
	assert.Equal(t, Report{Failed: 3}, report)
	assert.Contains(t, err.Error(), "records 0..1")
	assert.Contains(t, err.Error(), "records 2..2")
}

func TestLoaderEnsureCollectionFailure(t *testing.T) {
	l := &Loader{Embedder: &flakyEmbedder{}, Store: &mocks.MockVectorStore{Err: schema.ErrUpstreamUnavailable}}

	_, err := l.Load(context.Background(), sampleRecords(1))
	assert.ErrorIs(t, err, schema.ErrUpstreamUnavailable)
}

func TestLoaderReloadDropsRemovedRecords(t *testing.T) {
	store := vectordb.NewMemoryProvider(2)
	l := &Loader{Embedder: &flakyEmbedder{}, Store: store, Delay: time.Millisecond}

	_, err := l.Load(context.Background(), []schema.KnowledgeRecord{
		{ID: 0, Question: "a", Answer: "OLD-A"},
		{ID: 1, Question: "b", Answer: "OLD-B"},
		{ID: 2, Question: "c", Answer: "OLD-C"},
	})
	require.NoError(t, err)

	_, err = l.Load(context.Background(), []schema.KnowledgeRecord{{ID: 0, Question: "a", Answer: "NEW-A"}})
	require.NoError(t, err)

	matches, err := store.Search(context.Background(), []float32{1, 1}, 3)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "NEW-A", matches[0].Answer)
}

func TestLoaderEmptyFileClearsCollection(t *testing.T) {
	store := vectordb.NewMemoryProvider(2)
	l := &Loader{Embedder: &flakyEmbedder{}, Store: store, Delay: time.Millisecond}
	_, err := l.Load(context.Background(), sampleRecords(2))
	require.NoError(t, err)

	report, err := l.Load(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, Report{}, report)

	matches, err := store.Search(context.Background(), []float32{1, 1}, 3)
	require.NoError(t, err)
	assert.Empty(t, matches)
}
