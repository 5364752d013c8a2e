package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/higress-group/docqa-bot/delivery"
	"github.com/higress-group/docqa-bot/orchestrator"
	"github.com/higress-group/docqa-bot/schema"
)

type stubAsker struct {
	session  string
	question string
	outcome  orchestrator.Outcome
	err      error
}

func (a *stubAsker) Ask(ctx context.Context, sessionID, question string, sink delivery.Sink) (orchestrator.Outcome, error) {
	a.session, a.question = sessionID, question
	if a.err != nil {
		_ = sink.SendText(ctx, "Произошла ошибка при выполнении запроса: "+a.err.Error())
		return a.outcome, a.err
	}
	_ = sink.SendProgress(ctx)
	_ = sink.SendText(ctx, "Нажмите 'Забыли пароль'")
	_ = sink.SendImage(ctx, schema.PageImage{Page: "12", MIMEType: "image/jpeg", Data: []byte("jpeg")}, "Страница 12")
	return a.outcome, nil
}

type stubHistory struct{ cleared []string }

func (h *stubHistory) ClearHistory(ctx context.Context, sessionID string) error {
	h.cleared = append(h.cleared, sessionID)
	return nil
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = "ask"
	req.Params.Arguments = args
	return req
}

func TestHandleAsk(t *testing.T) {
	asker := &stubAsker{outcome: orchestrator.OutcomeAnswered}
	res, err := HandleAsk(asker)(context.Background(), call(map[string]any{"question": "Как сбросить пароль?", "session_id": "s1"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "s1", asker.session)
	assert.Equal(t, "Как сбросить пароль?", asker.question)

	require.Len(t, res.Content, 3)
	assert.Equal(t, "Нажмите 'Забыли пароль'", res.Content[0].(mcp.TextContent).Text)
	assert.Equal(t, "Страница 12", res.Content[1].(mcp.TextContent).Text)
	img := res.Content[2].(mcp.ImageContent)
	assert.Equal(t, "image/jpeg", img.MIMEType)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("jpeg")), img.Data)
}

func TestHandleAskDefaultsSession(t *testing.T) {
	asker := &stubAsker{outcome: orchestrator.OutcomeNoMatch}
	res, err := HandleAsk(asker)(context.Background(), call(map[string]any{"question": "q"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "mcp", asker.session)
}

func TestHandleAskFailure(t *testing.T) {
	asker := &stubAsker{outcome: orchestrator.OutcomeFailed, err: errors.New("upstream down")}
	res, err := HandleAsk(asker)(context.Background(), call(map[string]any{"question": "q"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "upstream down")
}

func TestHandleAskInvalidArguments(t *testing.T) {
	for _, args := range []map[string]any{{}, {"question": "  "}} {
		asker := &stubAsker{}
		res, err := HandleAsk(asker)(context.Background(), call(args))
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Empty(t, asker.question)
	}
}

func TestHandleResetSession(t *testing.T) {
	h := &stubHistory{}
	res, err := HandleResetSession(h)(context.Background(), call(map[string]any{"session_id": "s9"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, []string{"s9"}, h.cleared)
}

func TestNewServerRegistersTools(t *testing.T) {
	s := NewServer("docqa", &stubAsker{}, &stubHistory{})
	resp := s.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"name":"ask"`)
	assert.Contains(t, string(raw), `"name":"reset-session"`)
}
