package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"webskim/internal/adapter/tool"
	"webskim/internal/domain"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// echoTool returns its raw params, or a canned failure.
type echoTool struct {
	name    string
	failErr error
	toolErr string
}

func (t *echoTool) Name() string        { return t.name }
func (t *echoTool) Description() string { return "echo tool" }

func (t *echoTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        t.name,
		Description: t.Description(),
		Parameters:  json.RawMessage(`{"type":"object"}`),
	}
}

func (t *echoTool) Execute(_ context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	if t.failErr != nil {
		return nil, t.failErr
	}
	if t.toolErr != "" {
		return &domain.ToolResult{IsError: true, Content: t.toolErr}, nil
	}
	return &domain.ToolResult{Content: string(params)}, nil
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) != 1 {
		t.Fatalf("expected 1 content item, got %d", len(result.Content))
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", result.Content[0])
	}
	return tc.Text
}

func newTestServer(t *testing.T, tools ...domain.Tool) *Server {
	t.Helper()
	registry := tool.NewRegistry(nil)
	for _, tl := range tools {
		if err := registry.Register(tl); err != nil {
			t.Fatal(err)
		}
	}
	return New("webskim-test", "0.0.0", registry, nil, newTestLogger())
}

func TestHandlerForwardsArguments(t *testing.T) {
	echo := &echoTool{name: "echo"}
	s := newTestServer(t, echo)

	handler := s.handlerFor(echo)
	result, err := handler(context.Background(), callRequest("echo", map[string]any{"query": "golang"}))
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %v", result)
	}

	var got map[string]string
	if err := json.Unmarshal([]byte(textOf(t, result)), &got); err != nil {
		t.Fatal(err)
	}
	if got["query"] != "golang" {
		t.Errorf("forwarded args = %v", got)
	}
}

func TestHandlerMapsToolErrorToErrorResult(t *testing.T) {
	failing := &echoTool{name: "failing", toolErr: "query must not be empty"}
	s := newTestServer(t, failing)

	result, err := s.handlerFor(failing)(context.Background(), callRequest("failing", nil))
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Error("expected error result")
	}
	if textOf(t, result) != "query must not be empty" {
		t.Errorf("content = %q", textOf(t, result))
	}
}

func TestHandlerMapsGoErrorToErrorResult(t *testing.T) {
	broken := &echoTool{name: "broken", failErr: fmt.Errorf("boom")}
	s := newTestServer(t, broken)

	result, err := s.handlerFor(broken)(context.Background(), callRequest("broken", nil))
	if err != nil {
		t.Fatalf("Go errors must be mapped to error results, got %v", err)
	}
	if !result.IsError {
		t.Error("expected error result")
	}
}

func TestLevelFor(t *testing.T) {
	if got := levelFor(domain.EventSearchFailed); got != "warning" {
		t.Errorf("levelFor(search.failed) = %q", got)
	}
	if got := levelFor(domain.EventPageFetchFailed); got != "warning" {
		t.Errorf("levelFor(page.fetch.failed) = %q", got)
	}
	if got := levelFor(domain.EventSearchStarted); got != "info" {
		t.Errorf("levelFor(search.started) = %q", got)
	}
}
