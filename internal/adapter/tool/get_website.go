package tool

import (
	"context"
	"encoding/json"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"webskim/internal/domain"
	"webskim/internal/infra/tracer"
	"webskim/internal/usecase"
)

// GetWebsiteTool fetches a single page and returns its normalized content.
// The result is always a one-element JSON array; a fetch failure is reported
// inside that element so callers get a uniform shape.
type GetWebsiteTool struct {
	svc    *usecase.Service
	logger *slog.Logger
}

// NewGetWebsiteTool creates a single-page fetch tool backed by the search service.
func NewGetWebsiteTool(svc *usecase.Service, logger *slog.Logger) *GetWebsiteTool {
	return &GetWebsiteTool{svc: svc, logger: logger}
}

func (t *GetWebsiteTool) Name() string { return "get_website" }
func (t *GetWebsiteTool) Description() string {
	return "Fetch a web page and return its text content"
}

func (t *GetWebsiteTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"url": {"type": "string", "description": "The URL of the page to fetch"}
			},
			"required": ["url"]
		}`),
	}
}

type getWebsiteParams struct {
	URL string `json:"url"`
}

func (t *GetWebsiteTool) Execute(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	return Execute(ctx, "tool.get_website", t.logger, params,
		func(ctx context.Context, span trace.Span, p getWebsiteParams) (any, error) {
			if err := ValidateAll(
				RequireField("url", p.URL),
				ValidateURL("url", p.URL),
			); err != nil {
				return nil, err
			}

			span.SetAttributes(tracer.StringAttr("tool.url", p.URL))

			results := t.svc.GetPage(ctx, p.URL)
			t.logger.Debug("page fetch completed", "url", p.URL)
			return JSONResult(results)
		},
	)
}
