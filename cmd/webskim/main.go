package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"webskim/internal/adapter/fetch"
	"webskim/internal/adapter/mcpserver"
	"webskim/internal/adapter/search"
	"webskim/internal/adapter/tool"
	"webskim/internal/domain"
	"webskim/internal/infra/config"
	"webskim/internal/infra/logger"
	"webskim/internal/infra/tracer"
	"webskim/internal/usecase"
	"webskim/internal/usecase/eventbus"
)

const version = "1.0.0"

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "--help", "-h", "help":
			showUsage()
			return
		}
	}

	if len(os.Args) < 2 {
		if err := runServe(); err != nil {
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			os.Exit(1)
		}
		return
	}

	switch os.Args[1] {
	case "serve":
		if err := runServe(); err != nil {
			fmt.Fprintf(os.Stderr, "serve: %v\n", err)
			os.Exit(1)
		}
	case "search":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: webskim search <query>")
			os.Exit(1)
		}
		if err := runSearch(strings.Join(os.Args[2:], " ")); err != nil {
			fmt.Fprintf(os.Stderr, "search: %v\n", err)
			os.Exit(1)
		}
	case "page":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: webskim page <url>")
			os.Exit(1)
		}
		if err := runPage(os.Args[2]); err != nil {
			fmt.Fprintf(os.Stderr, "page: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\nRun 'webskim --help' for usage information.\n", os.Args[1])
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println(`webskim - web search and page content extraction

USAGE:
    webskim [COMMAND] [ARGS]

COMMANDS:
    serve            Run the MCP server on stdio (default)
    search <query>   Search the web and print scraped results as JSON
    page <url>       Fetch one page and print its content as JSON

FLAGS:
    -h, --help       Show this help message

CONFIGURATION:
    Config file: ./config.yaml (override with WEBSKIM_CONFIG)
    Environment: WEBSKIM_* variables override config

EXAMPLES:
    webskim serve
    webskim search current weather in tokyo
    webskim page https://go.dev/doc/effective_go`)
}

// app bundles the wired pipeline and everything that needs tearing down.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	svc      *usecase.Service
	bus      *eventbus.Bus
	registry *tool.Registry

	logClose       func() error
	tracerShutdown func(context.Context) error
	fetchClose     func() error
}

// configPath returns the config file location, honoring WEBSKIM_CONFIG.
func configPath() string {
	if p := os.Getenv("WEBSKIM_CONFIG"); p != "" {
		return p
	}
	return "config.yaml"
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, err
	}

	log, logClose, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, err
	}

	tracerShutdown, err := tracer.Setup(ctx, cfg.Tracer)
	if err != nil {
		logClose()
		return nil, err
	}

	var backend search.Backend = search.NewSearXNGBackend(
		cfg.Search.BackendURL, cfg.Fetch.UserAgent, cfg.Search.QueryTimeout, log)
	if cfg.Search.Breaker.Enabled {
		backend = search.NewBreakerBackend(backend, cfg.Search.Breaker, log)
	}

	var fetcher fetch.Fetcher
	fetchClose := func() error { return nil }
	switch cfg.Fetch.Renderer {
	case "chromedp":
		rendered, err := fetch.NewRenderedFetcher(cfg.Fetch, log)
		if err != nil {
			tracerShutdown(ctx)
			logClose()
			return nil, fmt.Errorf("start renderer: %w", err)
		}
		fetcher = rendered
		fetchClose = rendered.Close
	default:
		fetcher = fetch.NewHTTPFetcher(cfg.Search.ReaderBaseURL, cfg.Fetch, log)
	}

	bus := eventbus.New(log)
	svc := usecase.NewService(backend, fetcher, cfg, bus, log)

	registry := tool.NewRegistry(log)
	if err := registry.Register(tool.NewWebSearchTool(svc, log)); err != nil {
		return nil, err
	}
	if err := registry.Register(tool.NewGetWebsiteTool(svc, log)); err != nil {
		return nil, err
	}

	return &app{
		cfg:            cfg,
		logger:         log,
		svc:            svc,
		bus:            bus,
		registry:       registry,
		logClose:       logClose,
		tracerShutdown: tracerShutdown,
		fetchClose:     fetchClose,
	}, nil
}

func (a *app) shutdown(ctx context.Context) {
	a.bus.Close()
	if err := a.fetchClose(); err != nil {
		a.logger.Warn("fetcher close error", "error", err)
	}
	if err := a.tracerShutdown(ctx); err != nil {
		a.logger.Warn("tracer shutdown error", "error", err)
	}
	a.logClose()
}

func runServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.shutdown(context.Background())

	srv := mcpserver.New("webskim", version, a.registry, a.bus, a.logger)
	defer srv.Close()

	a.logger.Info("starting webskim", "version", version, "backend", a.cfg.Search.BackendURL)

	if err := srv.Serve(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func runSearch(query string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.shutdown(ctx)
	defer a.logProgress()()

	results, err := a.svc.Search(ctx, query)
	if err != nil {
		return err
	}
	return printJSON(results)
}

func runPage(url string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.shutdown(ctx)
	defer a.logProgress()()

	return printJSON(a.svc.GetPage(ctx, url))
}

// logProgress mirrors bus events to the logger so one-shot commands show
// progress on stderr at debug level. Returns the unsubscribe function.
func (a *app) logProgress() func() {
	return a.bus.SubscribeAll(func(_ context.Context, e domain.Event) {
		a.logger.Debug("progress",
			"type", string(e.Type),
			"request_id", e.RequestID,
			"payload", string(e.Payload),
		)
	})
}

func printJSON(v any) error {
	result, err := tool.JSONResult(v)
	if err != nil {
		return err
	}
	fmt.Println(result.Content)
	return nil
}
