package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"webskim/internal/adapter/tool"
	"webskim/internal/domain"
)

// Server exposes registered tools over the MCP stdio transport. Progress and
// citation events from the bus are forwarded to clients as logging
// notifications so callers can surface scraping progress live.
type Server struct {
	mcp      *server.MCPServer
	registry *tool.Registry
	bus      domain.EventBus
	logger   *slog.Logger
	unsub    func()
}

// New builds an MCP server publishing every tool in the registry.
func New(name, version string, registry *tool.Registry, bus domain.EventBus, logger *slog.Logger) *Server {
	s := &Server{
		mcp: server.NewMCPServer(name, version,
			server.WithToolCapabilities(false),
			server.WithLogging(),
		),
		registry: registry,
		bus:      bus,
		logger:   logger,
	}

	for _, t := range registry.List() {
		schema := t.Schema()
		s.mcp.AddTool(
			mcp.NewToolWithRawSchema(schema.Name, schema.Description, schema.Parameters),
			s.handlerFor(t),
		)
		logger.Debug("mcp tool registered", "tool", schema.Name)
	}

	if bus != nil {
		s.unsub = bus.SubscribeAll(s.forwardEvent)
	}

	return s
}

// handlerFor adapts a domain.Tool to the MCP tool handler signature. Tool
// failures come back as error results, never as protocol errors.
func (s *Server) handlerFor(t domain.Tool) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := json.Marshal(req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		result, err := t.Execute(ctx, args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if result.IsError {
			return mcp.NewToolResultError(result.Content), nil
		}
		return mcp.NewToolResultText(result.Content), nil
	}
}

// forwardEvent relays a bus event to every connected client as a logging
// notification. Delivery is best effort.
func (s *Server) forwardEvent(_ context.Context, event domain.Event) {
	params := map[string]any{
		"level":  levelFor(event.Type),
		"logger": "webskim",
		"data": map[string]any{
			"type":       string(event.Type),
			"request_id": event.RequestID,
			"payload":    json.RawMessage(event.Payload),
		},
	}
	s.mcp.SendNotificationToAllClients("notifications/message", params)
}

func levelFor(typ domain.EventType) string {
	switch typ {
	case domain.EventSearchFailed, domain.EventPageFetchFailed:
		return "warning"
	default:
		return "info"
	}
}

// Serve runs the stdio transport until the client disconnects or ctx ends.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("mcp server listening on stdio")
	errCh := make(chan error, 1)
	go func() { errCh <- server.ServeStdio(s.mcp) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close detaches the server from the event bus.
func (s *Server) Close() {
	if s.unsub != nil {
		s.unsub()
	}
}
