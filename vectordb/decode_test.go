package vectordb

import (
	"testing"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/higress-group/docqa-bot/config"
	"github.com/higress-group/docqa-bot/schema"
)

func strPtr(s string) *string { return &s }

func TestPGMatches(t *testing.T) {
	tests := []struct {
		name string
		rows []pgRow
		topK int
		want []schema.RetrievedMatch
	}{
		{
			name: "empty",
			rows: nil,
			topK: 3,
			want: []schema.RetrievedMatch{},
		},
		{
			name: "evidence slots and ordering",
			rows: []pgRow{
				{id: 4, question: "q4", answer: "a4", evidence1: strPtr("9"), score: 0.5},
				{id: 1, question: "q1", answer: "a1", evidence1: strPtr("12"), evidence2: strPtr("13"), score: 0.75},
				{id: 2, question: "q2", answer: "a2", evidence1: strPtr(" "), evidence2: nil, score: 0.5},
			},
			topK: 3,
			want: []schema.RetrievedMatch{
				{RecordID: 1, Question: "q1", Answer: "a1", Evidence: []string{"12", "13"}, Score: 0.75},
				{RecordID: 2, Question: "q2", Answer: "a2", Score: 0.5},
				{RecordID: 4, Question: "q4", Answer: "a4", Evidence: []string{"9"}, Score: 0.5},
			},
		},
		{
			name: "second slot only",
			rows: []pgRow{{id: 7, question: "q", answer: "a", evidence2: strPtr("3"), score: 0.25}},
			topK: 3,
			want: []schema.RetrievedMatch{{RecordID: 7, Question: "q", Answer: "a", Evidence: []string{"3"}, Score: 0.25}},
		},
		{
			name: "truncated to k",
			rows: []pgRow{{id: 1, score: 0.25}, {id: 2, score: 0.75}, {id: 3, score: 0.5}},
			topK: 2,
			want: []schema.RetrievedMatch{{RecordID: 2, Score: 0.75}, {RecordID: 3, Score: 0.5}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pgMatches(tt.rows, tt.topK))
		})
	}
}

func TestMilvusMatches(t *testing.T) {
	fields := newPayloadFields(config.MappingConfig{Fields: []config.FieldMapping{
		{StandardName: config.FieldEvidence1, RawName: "skr"},
		{StandardName: config.FieldEvidence2, RawName: "skr_2"},
	}})
	res := client.SearchResult{
		ResultCount: 3,
		IDs:         entity.NewColumnInt64(milvusIDField, []int64{5, 3, 8}),
		Scores:      []float32{0.5, 0.75, 0.25},
		Fields: client.ResultSet{
			entity.NewColumnVarChar("question", []string{"q5", "q3", "q8"}),
			entity.NewColumnVarChar("answer", []string{"a5", "a3", "a8"}),
			entity.NewColumnVarChar("skr", []string{"1", "", "4"}),
			entity.NewColumnVarChar("skr_2", []string{"2", "", "4"}),
		},
	}

	got, err := milvusMatches(res, fields, 3)
	require.NoError(t, err)
	assert.Equal(t, []schema.RetrievedMatch{
		{RecordID: 3, Question: "q3", Answer: "a3", Score: 0.75},
		{RecordID: 5, Question: "q5", Answer: "a5", Evidence: []string{"1", "2"}, Score: 0.5},
		{RecordID: 8, Question: "q8", Answer: "a8", Evidence: []string{"4", "4"}, Score: 0.25},
	}, got)

	top, err := milvusMatches(res, fields, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, int64(3), top[0].RecordID)
}

func TestMilvusMatchesMissingColumns(t *testing.T) {
	fields := newPayloadFields(config.MappingConfig{})
	res := client.SearchResult{
		ResultCount: 1,
		IDs:         entity.NewColumnInt64(milvusIDField, []int64{1}),
		Scores:      []float32{0.5},
		Fields:      client.ResultSet{entity.NewColumnVarChar("answer", []string{"a1"})},
	}
	got, err := milvusMatches(res, fields, 3)
	require.NoError(t, err)
	assert.Equal(t, []schema.RetrievedMatch{{RecordID: 1, Answer: "a1", Score: 0.5}}, got)

	res.Scores = nil
	_, err = milvusMatches(res, fields, 3)
	assert.ErrorIs(t, err, schema.ErrUpstreamUnavailable)
}
