package tool

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"webskim/internal/domain"
	"webskim/internal/infra/config"
	"webskim/internal/usecase"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubBackend implements search.Backend with canned candidates.
type stubBackend struct {
	candidates []domain.Candidate
	err        error
}

func (b *stubBackend) Search(_ context.Context, _ string, _ int) ([]domain.Candidate, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.candidates, nil
}

func (b *stubBackend) Name() string { return "stub" }

// stubFetcher implements fetch.Fetcher from a URL to content map.
type stubFetcher struct {
	pages map[string]string
}

func (f *stubFetcher) Fetch(_ context.Context, pageURL string) (string, error) {
	content, ok := f.pages[pageURL]
	if !ok {
		return "", fmt.Errorf("no such page")
	}
	return content, nil
}

func (f *stubFetcher) Name() string { return "stub" }

func newTestService(backend *stubBackend, fetcher *stubFetcher) *usecase.Service {
	cfg := config.Defaults()
	cfg.Search.QueryTimeout = 5 * time.Second
	cfg.Fetch.PageTimeout = time.Second
	cfg.Fetch.SinglePageTimeout = time.Second
	return usecase.NewService(backend, fetcher, cfg, nil, newTestLogger())
}
