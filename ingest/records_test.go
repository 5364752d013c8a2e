package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/higress-group/docqa-bot/schema"
)

func TestParseRecords(t *testing.T) {
	data := []byte(`[
		{"question": "How to reset password?", "answer": "Use Settings > Security.", "evidence": [12, "13"]},
		{"question": "Where is the log?", "answer": "In /var/log.", "evidence": []},
		{"question": "  padded  ", "answer": " yes ", "evidence": [""]}
	]`)
	records, err := ParseRecords(data)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, schema.KnowledgeRecord{
		ID: 0, Question: "How to reset password?", Answer: "Use Settings > Security.", Evidence: []string{"12", "13"},
	}, records[0])
	assert.Equal(t, int64(1), records[1].ID)
	assert.Empty(t, records[1].Evidence)
	assert.Equal(t, "padded", records[2].Question)
	assert.Equal(t, "yes", records[2].Answer)
	assert.Empty(t, records[2].Evidence)
}

func TestParseRecordsErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want []string
	}{
		{"not json", `{oops`, []string{"not valid JSON"}},
		{"not array", `{"question": "q"}`, []string{"JSON array"}},
		{
			"every bad record reported",
			`[{"question": "", "answer": "a"}, {"question": "q", "answer": ""}, {"question": "q", "answer": "a", "evidence": [1, 2, 3]}]`,
			[]string{"record 0: question is empty", "record 1: answer is empty", "record 2: 3 evidence pages"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRecords([]byte(tt.data))
			require.Error(t, err)
			for _, w := range tt.want {
				assert.Contains(t, err.Error(), w)
			}
		})
	}
}

func TestReadRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"question": "q", "answer": "a", "evidence": [5]}]`), 0o644))

	records, err := ReadRecords(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []string{"5"}, records[0].Evidence)

	_, err = ReadRecords(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
