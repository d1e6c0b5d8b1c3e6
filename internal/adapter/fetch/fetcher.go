package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"webskim/internal/domain"
	"webskim/internal/infra/config"
)

const defaultMaxBodySize = 4 * 1024 * 1024 // 4MB

// Fetcher retrieves the raw content of a web page. The returned string is
// whatever the transport delivers: HTML for a direct fetch, extracted text
// when a reader proxy sits in front.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
	Name() string
}

// HTTPFetcher fetches pages over plain HTTP, optionally through a reader
// proxy that converts pages to text. A shared rate limiter throttles all
// outbound fetches so concurrent page reduction cannot hammer the proxy.
type HTTPFetcher struct {
	client        *http.Client
	readerBaseURL string
	userAgent     string
	maxBodySize   int64
	limiter       *rate.Limiter
	logger        *slog.Logger
}

// NewHTTPFetcher builds a fetcher from cfg. When cfg.RateLimit is zero the
// limiter is disabled. Per-fetch deadlines come from the caller's context,
// not from the client, so bulk and single-page fetches can differ.
func NewHTTPFetcher(readerBaseURL string, cfg config.FetchConfig, logger *slog.Logger) *HTTPFetcher {
	maxBody := cfg.MaxBodySize
	if maxBody <= 0 {
		maxBody = defaultMaxBodySize
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	return &HTTPFetcher{
		client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		readerBaseURL: readerBaseURL,
		userAgent:     cfg.UserAgent,
		maxBodySize:   maxBody,
		limiter:       limiter,
		logger:        logger,
	}
}

func (f *HTTPFetcher) Name() string { return "http" }

// Fetch retrieves pageURL, prepending the reader base URL when one is
// configured. The target URL is appended verbatim so the reader proxy sees
// the original scheme and path.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return "", domain.NewDomainError("HTTPFetcher.Fetch", domain.ErrTimeout, err.Error())
		}
	}

	target := pageURL
	if f.readerBaseURL != "" {
		target = f.readerBaseURL + pageURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", domain.NewDomainError("HTTPFetcher.Fetch", domain.ErrFetch, err.Error())
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", domain.NewDomainError("HTTPFetcher.Fetch", domain.ErrTimeout, err.Error())
		}
		return "", domain.NewDomainError("HTTPFetcher.Fetch", domain.ErrFetch, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return "", domain.NewDomainError("HTTPFetcher.Fetch", domain.ErrFetch,
			fmt.Sprintf("read body: %v", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		sentinel := domain.ErrFetch
		if resp.StatusCode == http.StatusTooManyRequests {
			sentinel = domain.ErrRateLimit
		}
		return "", domain.NewDomainError("HTTPFetcher.Fetch", sentinel,
			fmt.Sprintf("HTTP %d fetching %s", resp.StatusCode, pageURL))
	}

	f.logger.Debug("page fetched", "url", pageURL, "size", len(body))
	return string(body), nil
}

// ViaReader reports whether fetched content passes through a reader proxy.
// Reader output is already text; direct fetches still carry HTML markup.
func (f *HTTPFetcher) ViaReader() bool {
	return strings.TrimSpace(f.readerBaseURL) != ""
}

var _ Fetcher = (*HTTPFetcher)(nil)
