package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/higress-group/docqa-bot/config"
	"github.com/higress-group/docqa-bot/mocks"
	"github.com/higress-group/docqa-bot/orchestrator"
)

// upstream fakes both the sentence encoder and the completion endpoint.
type upstream struct {
	mu      sync.Mutex
	prompts []string
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/encode":
		var req struct {
			Sentences []string `json:"sentences"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		out := struct {
			Embeddings [][]float32 `json:"embeddings"`
		}{}
		for _, s := range req.Sentences {
			vec := []float32{0.1, 0.1, 0.1, 0.1}
			if strings.Contains(strings.ToLower(s), "password") {
				vec[0] = 1
			}
			out.Embeddings = append(out.Embeddings, vec)
		}
		_ = json.NewEncoder(w).Encode(out)
	case "/v1/completions":
		var body struct {
			Prompt string `json:"prompt"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		u.mu.Lock()
		u.prompts = append(u.prompts, body.Prompt)
		u.mu.Unlock()
		_, _ = w.Write([]byte(`{"id":"c","object":"text_completion","created":1,"model":"m",
			"choices":[{"index":0,"text":"Open Settings > Security.","finish_reason":"stop","logprobs":null}]}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func testConfig(srvURL string) *config.Config {
	cfg := config.Defaults()
	cfg.Embedding.BaseURL = srvURL
	cfg.Embedding.Dimensions = 4
	cfg.VectorDB.Provider = "memory"
	cfg.LLM.BaseURL = srvURL + "/v1/"
	cfg.LLM.APIKey = "k"
	cfg.LLM.Encoding = "none"
	cfg.Render.Document = ""
	return cfg
}

func writeRecords(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"question": "How to reset my password?", "answer": "Settings > Security > Reset.", "evidence": []},
		{"question": "Where are invoices?", "answer": "Billing tab.", "evidence": []}
	]`), 0o644))
	return path
}

func TestClientLoadAndAsk(t *testing.T) {
	up := &upstream{}
	srv := httptest.NewServer(up)
	defer srv.Close()

	c, err := NewClient(context.Background(), testConfig(srv.URL))
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.CreateCollection(context.Background()))
	report, err := c.LoadFile(context.Background(), writeRecords(t), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Loaded)

	sink := &mocks.RecordingSink{}
	outcome, err := c.Ask(context.Background(), "chat-1", "I forgot my password", sink)
	require.NoError(t, err)
	assert.Equal(t, orchestrator.OutcomeAnswered, outcome)
	assert.Equal(t, []string{"Open Settings > Security."}, sink.Texts())

	_, err = c.Ask(context.Background(), "chat-1", "And for invoices?", &mocks.RecordingSink{})
	require.NoError(t, err)
	require.Len(t, up.prompts, 2)
	assert.Contains(t, up.prompts[0], "Settings > Security > Reset.")
	assert.Contains(t, up.prompts[1], "Вопрос: I forgot my password\nОтвет: Open Settings > Security.")

	require.NoError(t, c.ClearHistory(context.Background(), "chat-1"))
	_, err = c.Ask(context.Background(), "chat-1", "password again", &mocks.RecordingSink{})
	require.NoError(t, err)
	assert.NotContains(t, up.prompts[2], "Ответ: Open Settings")
}

func TestClientWithoutLLM(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.LLM.Provider = ""
	c, err := NewClient(context.Background(), cfg)
	require.NoError(t, err)

	outcome, err := c.Ask(context.Background(), "s", "q", &mocks.RecordingSink{})
	assert.Error(t, err)
	assert.Equal(t, orchestrator.OutcomeFailed, outcome)
}

func TestClientMissingDocumentDisablesEvidence(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Render.Document = filepath.Join(t.TempDir(), "missing.pdf")
	c, err := NewClient(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, c.rasterizer)
}

func TestClientUnknownProvider(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.VectorDB.Provider = "faiss"
	_, err := NewClient(context.Background(), cfg)
	assert.ErrorContains(t, err, "create vector store provider failed")
}
