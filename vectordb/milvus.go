package vectordb

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/higress-group/docqa-bot/common/logger"
	"github.com/higress-group/docqa-bot/config"
	"github.com/higress-group/docqa-bot/schema"
)

const (
	milvusIDField       = "id"
	milvusVectorField   = "vector"
	milvusTextMaxLength = 65535
	milvusPageMaxLength = 64
)

// MilvusProvider stores records in a Milvus collection with an HNSW cosine index.
type MilvusProvider struct {
	client     client.Client
	collection string
	dims       int
	fields     payloadFields
}

func NewMilvusProvider(ctx context.Context, cfg config.VectorDBConfig, dims int) (*MilvusProvider, error) {
	c, err := client.NewClient(ctx, client.Config{
		Address:  fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Username: cfg.Username,
		Password: cfg.Password,
		DBName:   cfg.Database,
		APIKey:   cfg.APIKey,
	})
	if err != nil {
		return nil, upstream("milvus connect", err)
	}
	return &MilvusProvider{
		client:     c,
		collection: cfg.Collection,
		dims:       dims,
		fields:     newPayloadFields(cfg.Mapping),
	}, nil
}

func (m *MilvusProvider) GetProviderType() string { return "milvus" }

func (m *MilvusProvider) Close() error { return m.client.Close() }

func (m *MilvusProvider) outputFields() []string {
	return append([]string{m.fields.question, m.fields.answer}, m.fields.evidence...)
}

func (m *MilvusProvider) EnsureCollection(ctx context.Context) error {
	has, err := m.client.HasCollection(ctx, m.collection)
	if err != nil {
		return upstream("milvus has collection", err)
	}
	if !has {
		if err := m.create(ctx); err != nil {
			return err
		}
		logger.Infof("milvus: created collection %s (dim=%d, metric=COSINE)", m.collection, m.dims)
	}
	if err := m.client.LoadCollection(ctx, m.collection, false); err != nil {
		return upstream("milvus load collection", err)
	}
	return nil
}

func (m *MilvusProvider) create(ctx context.Context) error {
	s := entity.NewSchema().
		WithName(m.collection).
		WithDescription("question/answer knowledge records").
		WithField(entity.NewField().WithName(milvusIDField).WithDataType(entity.FieldTypeInt64).WithIsPrimaryKey(true)).
		WithField(entity.NewField().WithName(m.fields.question).WithDataType(entity.FieldTypeVarChar).WithMaxLength(milvusTextMaxLength)).
		WithField(entity.NewField().WithName(m.fields.answer).WithDataType(entity.FieldTypeVarChar).WithMaxLength(milvusTextMaxLength))
	for _, name := range m.fields.evidence {
		s = s.WithField(entity.NewField().WithName(name).WithDataType(entity.FieldTypeVarChar).WithMaxLength(milvusPageMaxLength))
	}
	s = s.WithField(entity.NewField().WithName(milvusVectorField).WithDataType(entity.FieldTypeFloatVector).WithDim(int64(m.dims)))

	if err := m.client.CreateCollection(ctx, s, 1); err != nil {
		return upstream("milvus create collection", err)
	}
	idx, err := entity.NewIndexHNSW(entity.COSINE, 16, 200)
	if err != nil {
		return fmt.Errorf("milvus index params failed, err: %w", err)
	}
	if err := m.client.CreateIndex(ctx, m.collection, milvusVectorField, idx, false); err != nil {
		return upstream("milvus create index", err)
	}
	return nil
}

func (m *MilvusProvider) Search(ctx context.Context, vector []float32, topK int) ([]schema.RetrievedMatch, error) {
	sp, err := entity.NewIndexHNSWSearchParam(64)
	if err != nil {
		return nil, fmt.Errorf("milvus search params failed, err: %w", err)
	}
	results, err := m.client.Search(ctx, m.collection, nil, "", m.outputFields(),
		[]entity.Vector{entity.FloatVector(vector)}, milvusVectorField, entity.COSINE, topK, sp)
	if err != nil {
		return nil, upstream("milvus search", err)
	}
	if len(results) == 0 {
		return []schema.RetrievedMatch{}, nil
	}
	return milvusMatches(results[0], m.fields, topK)
}

// milvusMatches converts one search result set into ranked matches.
func milvusMatches(res client.SearchResult, fields payloadFields, topK int) ([]schema.RetrievedMatch, error) {
	if res.ResultCount > 0 && (res.IDs == nil || len(res.Scores) < res.ResultCount) {
		return nil, upstream("milvus read result", fmt.Errorf("%d hits but %d scores", res.ResultCount, len(res.Scores)))
	}
	matches := make([]schema.RetrievedMatch, 0, res.ResultCount)
	for i := 0; i < res.ResultCount; i++ {
		id, err := res.IDs.Get(i)
		if err != nil {
			return nil, upstream("milvus read id", err)
		}
		rid, _ := id.(int64)
		ev := make([]string, 0, len(fields.evidence))
		for _, name := range fields.evidence {
			ev = append(ev, columnString(res.Fields.GetColumn(name), i))
		}
		matches = append(matches, schema.RetrievedMatch{
			RecordID: rid,
			Question: columnString(res.Fields.GetColumn(fields.question), i),
			Answer:   columnString(res.Fields.GetColumn(fields.answer), i),
			Evidence: nonEmpty(ev...),
			Score:    float64(res.Scores[i]),
		})
	}
	return rank(matches, topK), nil
}

func columnString(col entity.Column, i int) string {
	if col == nil {
		return ""
	}
	v, err := col.Get(i)
	if err != nil || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func (m *MilvusProvider) Upsert(ctx context.Context, records []schema.KnowledgeRecord, vectors [][]float32) error {
	if err := checkUpsert(records, vectors, m.dims); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	ids := make([]int64, len(records))
	questions := make([]string, len(records))
	answers := make([]string, len(records))
	evidence := make([][]string, len(m.fields.evidence))
	for j := range evidence {
		evidence[j] = make([]string, len(records))
	}
	for i, r := range records {
		ids[i] = r.ID
		questions[i] = r.Question
		answers[i] = r.Answer
		s := slots(r)
		for j := range evidence {
			evidence[j][i] = s[j]
		}
	}

	columns := []entity.Column{
		entity.NewColumnInt64(milvusIDField, ids),
		entity.NewColumnVarChar(m.fields.question, questions),
		entity.NewColumnVarChar(m.fields.answer, answers),
	}
	for j, name := range m.fields.evidence {
		columns = append(columns, entity.NewColumnVarChar(name, evidence[j]))
	}
	columns = append(columns, entity.NewColumnFloatVector(milvusVectorField, m.dims, vectors))

	if _, err := m.client.Upsert(ctx, m.collection, "", columns...); err != nil {
		return upstream("milvus upsert", err)
	}
	if err := m.client.Flush(ctx, m.collection, false); err != nil {
		return upstream("milvus flush", err)
	}
	return nil
}

func (m *MilvusProvider) Prune(ctx context.Context, keep int64) error {
	if err := m.client.Delete(ctx, m.collection, "", fmt.Sprintf("%s >= %d", milvusIDField, keep)); err != nil {
		return upstream("milvus prune", err)
	}
	if err := m.client.Flush(ctx, m.collection, false); err != nil {
		return upstream("milvus flush", err)
	}
	return nil
}
