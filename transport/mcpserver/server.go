package mcpserver

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/higress-group/docqa-bot/common/logger"
	"github.com/higress-group/docqa-bot/delivery"
	"github.com/higress-group/docqa-bot/orchestrator"
	"github.com/higress-group/docqa-bot/schema"
)

const Version = "1.0.0"

// Asker answers a question for a session.
type Asker interface {
	Ask(ctx context.Context, sessionID, question string, sink delivery.Sink) (orchestrator.Outcome, error)
}

// NewServer exposes the question pipeline as MCP tools.
func NewServer(name string, asker Asker, history HistoryClearer) *server.MCPServer {
	s := server.NewMCPServer(
		name,
		Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("Answers questions about the product using the curated knowledge base and returns the supporting document pages"),
	)

	s.AddTool(
		mcp.NewTool("ask",
			mcp.WithDescription("Answer a question from the knowledge base. The answer text comes first, followed by the cited document pages as images"),
			mcp.WithString("question", mcp.Required(), mcp.Description("The user question")),
			mcp.WithString("session_id", mcp.Description("Conversation id; the last answered turns of this session are used as context")),
		),
		HandleAsk(asker),
	)
	if history != nil {
		s.AddTool(
			mcp.NewTool("reset-session",
				mcp.WithDescription("Forget the conversation history of a session"),
				mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation id")),
			),
			HandleResetSession(history),
		)
	}
	return s
}

// HistoryClearer drops a session's conversation history.
type HistoryClearer interface {
	ClearHistory(ctx context.Context, sessionID string) error
}

// ServeStdio serves MCP over stdin/stdout until ctx is done.
func ServeStdio(ctx context.Context, s *server.MCPServer, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s).Listen(ctx, in, out)
}

func HandleAsk(asker Asker) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := request.RequireString("question")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if strings.TrimSpace(question) == "" {
			return mcp.NewToolResultError("question must not be empty"), nil
		}
		sessionID := request.GetString("session_id", "mcp")

		sink := &resultSink{}
		outcome, err := asker.Ask(ctx, sessionID, question, sink)
		if err != nil {
			logger.Warnf("mcp: ask in session %s ended %s: %v", sessionID, outcome, err)
		}
		return &mcp.CallToolResult{
			Content: sink.Contents(),
			IsError: outcome == orchestrator.OutcomeFailed,
		}, nil
	}
}

func HandleResetSession(history HistoryClearer) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID, err := request.RequireString("session_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := history.ClearHistory(ctx, sessionID); err != nil {
			return nil, fmt.Errorf("clear session %s failed, err: %w", sessionID, err)
		}
		return mcp.NewToolResultText(fmt.Sprintf("session %s cleared", sessionID)), nil
	}
}

// resultSink buffers pipeline output as tool result content.
type resultSink struct {
	mu       sync.Mutex
	contents []mcp.Content
}

func (s *resultSink) SendText(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contents = append(s.contents, mcp.NewTextContent(text))
	return nil
}

func (s *resultSink) SendImage(ctx context.Context, img schema.PageImage, caption string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contents = append(s.contents,
		mcp.NewTextContent(caption),
		mcp.NewImageContent(base64.StdEncoding.EncodeToString(img.Data), img.MIMEType),
	)
	return nil
}

// SendProgress is a no-op, tool calls have no typing indicator.
func (s *resultSink) SendProgress(ctx context.Context) error { return nil }

func (s *resultSink) Contents() []mcp.Content {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mcp.Content(nil), s.contents...)
}
