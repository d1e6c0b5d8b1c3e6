package search

import (
	"context"

	"webskim/internal/domain"
)

// Backend abstracts a web search engine.
//
// count is forwarded to the engine as a result-count hint only; engines are
// free to return more or fewer entries. The caller applies its own candidate
// cap, keeping the backend hint and the local cap as two separate knobs.
type Backend interface {
	// Search performs a web search and returns candidate descriptors in
	// backend rank order. A transport failure or non-2xx response fails the
	// whole call: no partial candidate list is ever returned.
	Search(ctx context.Context, query string, count int) ([]domain.Candidate, error)
	// Name returns the backend identifier (e.g. "searxng").
	Name() string
}
