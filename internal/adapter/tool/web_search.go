package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"webskim/internal/domain"
	"webskim/internal/infra/tracer"
	"webskim/internal/usecase"
)

// WebSearchTool searches the web and returns the scraped content of the top
// result pages as a JSON array.
type WebSearchTool struct {
	svc    *usecase.Service
	logger *slog.Logger
}

// NewWebSearchTool creates a web search tool backed by the search service.
func NewWebSearchTool(svc *usecase.Service, logger *slog.Logger) *WebSearchTool {
	return &WebSearchTool{svc: svc, logger: logger}
}

func (t *WebSearchTool) Name() string { return "web_search" }
func (t *WebSearchTool) Description() string {
	return "Search the web and return the content of the top result pages"
}

func (t *WebSearchTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {"type": "string", "description": "The search query"}
			},
			"required": ["query"]
		}`),
	}
}

type webSearchParams struct {
	Query string `json:"query"`
}

func (t *WebSearchTool) Execute(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	return Execute(ctx, "tool.web_search", t.logger, params,
		func(ctx context.Context, span trace.Span, p webSearchParams) (any, error) {
			if strings.TrimSpace(p.Query) == "" {
				return nil, fmt.Errorf("query must not be empty")
			}

			span.SetAttributes(tracer.StringAttr("tool.query", p.Query))

			results, err := t.svc.Search(ctx, p.Query)
			if err != nil {
				return nil, err
			}

			span.SetAttributes(tracer.IntAttr("tool.results", len(results)))
			t.logger.Debug("web search completed", "query", p.Query, "results", len(results))
			return JSONResult(results)
		},
	)
}
