package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/trace"

	"webskim/internal/adapter/fetch"
	"webskim/internal/adapter/search"
	"webskim/internal/domain"
	"webskim/internal/extract"
	"webskim/internal/infra/config"
	"webskim/internal/infra/tracer"
)

// Service runs the search-and-scrape pipeline: dispatch a query to the
// search backend, fetch candidate pages concurrently, normalize their
// content, and return the first pages that succeed.
type Service struct {
	backend search.Backend
	fetcher fetch.Fetcher
	cfg     *config.Config
	bus     domain.EventBus
	logger  *slog.Logger
}

// NewService wires the pipeline. bus may be nil when no observer cares about
// progress events.
func NewService(backend search.Backend, fetcher fetch.Fetcher, cfg *config.Config, bus domain.EventBus, logger *slog.Logger) *Service {
	return &Service{
		backend: backend,
		fetcher: fetcher,
		cfg:     cfg,
		bus:     bus,
		logger:  logger,
	}
}

// Search runs a web search for query and returns up to the configured number
// of successfully scraped result pages, in completion order. Individual page
// failures are skipped silently; only a backend failure fails the call.
func (s *Service) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	requestID := ulid.Make().String()

	ctx, span := tracer.StartSpan(ctx, "usecase.search",
		trace.WithAttributes(tracer.StringAttr("search.query", query)))
	defer span.End()

	if strings.TrimSpace(query) == "" {
		err := domain.NewDomainError("Service.Search", domain.ErrInvalidInput, "query must not be empty")
		tracer.RecordError(span, err)
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Search.QueryTimeout)
	defer cancel()

	// The returned-pages knob is clamped to the candidate cap per request so
	// a misordered pair of settings degrades instead of failing.
	want := s.cfg.Search.ReturnedPages
	if want > s.cfg.Search.MaxPages {
		want = s.cfg.Search.MaxPages
	}

	s.emitStatus(ctx, requestID, domain.EventSearchStarted, domain.StatusPayload{
		Description: fmt.Sprintf("Searching the web for: %s", query),
		Status:      domain.StatusInProgress,
	})

	s.emitStatus(ctx, requestID, domain.EventQuerySent, domain.StatusPayload{
		Description: fmt.Sprintf("Sending query to %s", s.backend.Name()),
		Status:      domain.StatusInProgress,
		Action:      "web_search_queries_generated",
	})

	candidates, err := s.backend.Search(ctx, query, want)
	if err != nil {
		s.emitStatus(ctx, requestID, domain.EventSearchFailed, domain.StatusPayload{
			Description: fmt.Sprintf("Search failed for: %s", query),
			Status:      domain.StatusError,
			Done:        true,
		})
		tracer.RecordError(span, err)
		return nil, err
	}

	if len(candidates) > s.cfg.Search.MaxPages {
		candidates = candidates[:s.cfg.Search.MaxPages]
	}

	s.emitStatus(ctx, requestID, domain.EventResultsFound, domain.StatusPayload{
		Description: fmt.Sprintf("Found %d search results", len(candidates)),
		Status:      domain.StatusInProgress,
		Action:      "web_search_results_received",
		URLs:        candidateURLs(candidates),
	})

	results := s.reduceCandidates(ctx, requestID, candidates, want)

	if s.cfg.Search.Citations {
		for _, r := range results {
			s.emitCitation(ctx, requestID, r)
		}
	}

	s.emitStatus(ctx, requestID, domain.EventSearchComplete, domain.StatusPayload{
		Description: fmt.Sprintf("Searched %d pages", len(results)),
		Status:      domain.StatusComplete,
		Done:        true,
		URLs:        resultURLs(results),
	})

	span.SetAttributes(tracer.IntAttr("search.results", len(results)))
	tracer.SetOK(span)
	s.logger.Info("search completed", "query", query, "results", len(results), "request_id", requestID)
	return results, nil
}

// reduceCandidates fetches the non-ignored candidates concurrently and
// collects the first want successes in completion order. Every worker sends
// exactly once on a channel buffered to the worker count, so stragglers
// finish into the buffer and never leak after the early return.
func (s *Service) reduceCandidates(ctx context.Context, requestID string, candidates []domain.Candidate, want int) []domain.SearchResult {
	fetchCtx, cancelFetches := context.WithCancel(ctx)
	defer cancelFetches()

	ignored := s.cfg.Search.IgnoredSites()

	launched := 0
	ch := make(chan *domain.SearchResult, len(candidates))
	for _, c := range candidates {
		if isIgnored(c.URL, ignored) {
			s.logger.Debug("skipping ignored site", "url", c.URL, "request_id", requestID)
			continue
		}
		launched++
		go func(c domain.Candidate) {
			ch <- s.processCandidate(fetchCtx, c)
		}(c)
	}

	results := make([]domain.SearchResult, 0, want)
	for done := 0; done < launched && len(results) < want; done++ {
		r := <-ch
		if r == nil {
			continue
		}
		results = append(results, *r)
		s.emitStatus(ctx, requestID, domain.EventPageProcessed, domain.StatusPayload{
			Description: fmt.Sprintf("Processed %s", r.URL),
			Status:      domain.StatusInProgress,
			URLs:        []string{r.URL},
		})
	}
	return results
}

// processCandidate fetches and normalizes one result page. A nil return
// means the page is dropped; the cause is logged, never propagated.
func (s *Service) processCandidate(ctx context.Context, c domain.Candidate) *domain.SearchResult {
	fctx, cancel := context.WithTimeout(ctx, s.cfg.Fetch.PageTimeout)
	defer cancel()

	raw, err := s.fetcher.Fetch(fctx, c.URL)
	if err != nil {
		s.logger.Debug("page fetch failed", "url", c.URL, "error", err)
		return nil
	}

	content := s.normalize(raw)
	if content == "" {
		s.logger.Debug("page produced no content", "url", c.URL)
		return nil
	}

	return &domain.SearchResult{
		Title:   extract.StripSymbols(c.Title),
		URL:     c.URL,
		Content: extract.TruncateWords(content, s.cfg.Search.PageWordLimit),
		Snippet: extract.StripSymbols(c.Content),
	}
}

// GetPage fetches a single page and returns exactly one entry. A fetch
// failure is reported inside the entry rather than as an error, so callers
// always have something to show for the URL.
func (s *Service) GetPage(ctx context.Context, pageURL string) []domain.PageResult {
	requestID := ulid.Make().String()

	ctx, span := tracer.StartSpan(ctx, "usecase.get_page",
		trace.WithAttributes(tracer.StringAttr("page.url", pageURL)))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Fetch.SinglePageTimeout)
	defer cancel()

	s.emitStatus(ctx, requestID, domain.EventPageFetchStarted, domain.StatusPayload{
		Description: fmt.Sprintf("Fetching %s", pageURL),
		Status:      domain.StatusInProgress,
		URLs:        []string{pageURL},
	})

	raw, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		s.emitStatus(ctx, requestID, domain.EventPageFetchFailed, domain.StatusPayload{
			Description: fmt.Sprintf("Failed to fetch %s", pageURL),
			Status:      domain.StatusError,
			Done:        true,
			URLs:        []string{pageURL},
		})
		tracer.RecordError(span, err)
		return []domain.PageResult{{
			URL:     pageURL,
			Content: "Failed to fetch content: " + err.Error(),
		}}
	}

	title := extract.CleanTitle(extract.TitleOf(raw))
	if title == "" {
		title = "No title found"
	}

	content := s.normalize(raw)
	excerpt := extract.Excerpt(content, extract.DefaultExcerptLength)
	truncated := extract.TruncateWords(content, s.cfg.Search.PageWordLimit)

	if s.cfg.Search.Citations {
		s.emitCitation(ctx, requestID, domain.SearchResult{
			Title:   title,
			URL:     pageURL,
			Content: truncated,
		})
	}

	s.emitStatus(ctx, requestID, domain.EventPageFetchComplete, domain.StatusPayload{
		Description: fmt.Sprintf("Fetched %s", pageURL),
		Status:      domain.StatusComplete,
		Done:        true,
		URLs:        []string{pageURL},
	})

	tracer.SetOK(span)
	return []domain.PageResult{{
		Title:   title,
		URL:     pageURL,
		Content: truncated,
		Excerpt: excerpt,
	}}
}

// normalize turns a raw fetched body into clean text. Markup is stripped
// unconditionally: direct and rendered fetches return HTML, and stripping is
// a no-op on the plain text a reader proxy returns.
func (s *Service) normalize(raw string) string {
	text, err := extract.Text(raw)
	if err != nil {
		s.logger.Debug("content extraction failed", "error", err)
		return ""
	}
	return extract.Clean(text, s.cfg.Search.RemoveLinks)
}

// isIgnored reports whether the URL's scheme://host contains any of the
// ignore tokens. Matching is a case-insensitive substring check, so a token
// like "reddit.com" covers every subdomain.
func isIgnored(rawURL string, tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}
	site := strings.ToLower(u.Scheme + "://" + u.Host)
	for _, token := range tokens {
		if strings.Contains(site, strings.ToLower(token)) {
			return true
		}
	}
	return false
}

func (s *Service) emitStatus(ctx context.Context, requestID string, typ domain.EventType, p domain.StatusPayload) {
	if s.bus == nil {
		return
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return
	}
	s.bus.Publish(ctx, domain.Event{
		Type:      typ,
		Timestamp: time.Now(),
		RequestID: requestID,
		Payload:   payload,
	})
}

func (s *Service) emitCitation(ctx context.Context, requestID string, r domain.SearchResult) {
	if s.bus == nil {
		return
	}
	payload, err := json.Marshal(domain.CitationPayload{
		Document: []string{r.Content},
		Metadata: []domain.CitationMetadata{{Source: r.URL}},
		Source:   domain.CitationSource{Name: r.Title},
	})
	if err != nil {
		return
	}
	s.bus.Publish(ctx, domain.Event{
		Type:      domain.EventCitation,
		Timestamp: time.Now(),
		RequestID: requestID,
		Payload:   payload,
	})
}

func candidateURLs(candidates []domain.Candidate) []string {
	urls := make([]string, 0, len(candidates))
	for _, c := range candidates {
		urls = append(urls, c.URL)
	}
	return urls
}

func resultURLs(results []domain.SearchResult) []string {
	urls := make([]string, 0, len(results))
	for _, r := range results {
		urls = append(urls, r.URL)
	}
	return urls
}
