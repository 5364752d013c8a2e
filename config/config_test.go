package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 3, cfg.Pipeline.TopK)
	assert.Equal(t, 3, cfg.Pipeline.HistorySize)
	assert.Equal(t, 4096, cfg.Pipeline.MaxMessageLength)
	assert.Equal(t, 7*time.Second, cfg.Pipeline.TypingInterval)
	assert.Equal(t, 384, cfg.Embedding.Dimensions)
}

func TestLoadOverlaysFileOnDefaults(t *testing.T) {
	path := writeConfig(t, `
llm:
  model: my-model
  api: chat
vectordb:
  provider: milvus
  host: milvus.local
  port: 19530
  collection: faq
  mapping:
    fields:
      - standard_name: evidence_1
        raw_name: skr
      - standard_name: evidence_2
        raw_name: skr_2
pipeline:
  typing_interval: 5s
timeouts:
  completion: 90s
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "my-model", cfg.LLM.Model)
	assert.Equal(t, "chat", cfg.LLM.API)
	// untouched fields keep their defaults
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "milvus", cfg.VectorDB.Provider)
	assert.Equal(t, 5*time.Second, cfg.Pipeline.TypingInterval)
	assert.Equal(t, 90*time.Second, cfg.Timeouts.Completion)
	assert.Equal(t, 10*time.Second, cfg.Timeouts.Embedding)
	assert.Equal(t, []string{"skr", "skr_2"}, cfg.VectorDB.Mapping.EvidenceFields())
	assert.Equal(t, "question", cfg.VectorDB.Mapping.RawName(FieldQuestion))
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv(EnvBotToken, "123:abc")
	t.Setenv(EnvLLMAPIKey, "sk-test")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.Bot.Token)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		fields []string
	}{
		{
			name:   "valid defaults",
			mutate: func(c *Config) {},
		},
		{
			name:   "unknown providers",
			mutate: func(c *Config) { c.LLM.Provider = "x"; c.Embedding.Provider = "y"; c.VectorDB.Provider = "z" },
			fields: []string{"llm.provider", "embedding.provider", "vectordb.provider"},
		},
		{
			name:   "pgvector without dsn",
			mutate: func(c *Config) { c.VectorDB.Provider = "pgvector" },
			fields: []string{"vectordb.dsn"},
		},
		{
			name: "pipeline bounds",
			mutate: func(c *Config) {
				c.Pipeline.TopK = 0
				c.Pipeline.MaxMessageLength = 5000
				c.Pipeline.TypingInterval = 0
			},
			fields: []string{"pipeline.top_k", "pipeline.max_message_length", "pipeline.typing_interval"},
		},
		{
			name:   "negative timeout",
			mutate: func(c *Config) { c.Timeouts.Render = -time.Second },
			fields: []string{"timeouts.render"},
		},
		{
			name: "duplicate raw mapping",
			mutate: func(c *Config) {
				c.VectorDB.Mapping.Fields = []FieldMapping{
					{StandardName: FieldEvidence1, RawName: "page"},
					{StandardName: FieldEvidence2, RawName: "page"},
				}
			},
			fields: []string{"vectordb.mapping.fields[1].raw_name"},
		},
		{
			name: "message templates with wrong verbs",
			mutate: func(c *Config) {
				c.Messages.Failure = "failed: %d"
				c.Messages.PageCaption = "page"
				c.Messages.PageFailed = "page %s failed"
			},
			fields: []string{"messages.failure", "messages.page_caption", "messages.page_failed"},
		},
		{
			name: "message templates with escaped percent",
			mutate: func(c *Config) {
				c.Messages.Failure = "100%% broken: %s"
				c.Messages.PageCaption = ""
			},
		},
		{
			name:   "trailing percent",
			mutate: func(c *Config) { c.Messages.PageCaption = "page %s %" },
			fields: []string{"messages.page_caption"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if len(tt.fields) == 0 {
				assert.NoError(t, err)
				return
			}
			var verrs ValidationErrors
			require.True(t, errors.As(err, &verrs), "expected ValidationErrors, got %v", err)
			var got []string
			for _, e := range verrs {
				got = append(got, e.Field)
			}
			assert.Equal(t, tt.fields, got)
			assert.Contains(t, err.Error(), "configuration error(s)")
		})
	}
}

func TestStringVerbs(t *testing.T) {
	tests := []struct {
		format string
		n      int
		ok     bool
	}{
		{"plain", 0, true},
		{"%s", 1, true},
		{"%s and %s", 2, true},
		{"50%% of %s", 1, true},
		{"%v", 0, false},
		{"%s %x", 1, false},
		{"end %", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			n, ok := stringVerbs(tt.format)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.n, n)
			}
		})
	}
}
