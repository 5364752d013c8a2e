package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/higress-group/docqa-bot/config"
	"github.com/higress-group/docqa-bot/schema"
)

func TestOpenAIProvider_Completions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "deepseek-ai/DeepSeek-V3", body["model"])
		assert.Equal(t, "the prompt", body["prompt"])
		assert.Equal(t, float64(0), body["temperature"])
		assert.NotEqual(t, true, body["stream"])
		_, _ = w.Write([]byte(`{"id":"c1","object":"text_completion","created":1,"model":"deepseek-ai/DeepSeek-V3",
			"choices":[{"index":0,"text":"Ответ:\n1. Нажмите","finish_reason":"stop","logprobs":null}]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(config.LLMConfig{APIKey: "sk-test", BaseURL: srv.URL, Model: "deepseek-ai/DeepSeek-V3"})
	out, err := p.GenerateCompletion(context.Background(), "the prompt")
	require.NoError(t, err)
	assert.Equal(t, "Ответ:\n1. Нажмите", out)
}

func TestOpenAIProvider_Chat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(0), body["temperature"])
		_, _ = w.Write([]byte(`{"id":"c2","object":"chat.completion","created":1,"model":"m",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(config.LLMConfig{APIKey: "k", BaseURL: srv.URL, Model: "m", API: "chat"})
	out, err := p.GenerateCompletion(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestOpenAIProvider_FailureIsNotRetried(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(config.LLMConfig{APIKey: "k", BaseURL: srv.URL, Model: "m"})
	_, err := p.GenerateCompletion(context.Background(), "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrGenerationFailed)
	assert.Contains(t, err.Error(), "overloaded")
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestNewLLMProvider(t *testing.T) {
	p, err := NewLLMProvider(config.LLMConfig{Provider: "OpenAI", Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, "openai", p.GetProviderType())

	_, err = NewLLMProvider(config.LLMConfig{Provider: "dashscope"})
	assert.Error(t, err)
}
