package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"webskim/internal/domain"
)

const maxSearchBodySize = 512 * 1024 // 512KB

// searxngResponse models the relevant portion of the SearXNG JSON response.
type searxngResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
	NumberOfResults int `json:"number_of_results"`
}

// SearXNGBackend queries a SearXNG instance's JSON API.
type SearXNGBackend struct {
	client     *http.Client
	backendURL string
	userAgent  string
	logger     *slog.Logger
}

// NewSearXNGBackend creates a search backend for the given SearXNG search
// endpoint. timeout bounds the whole query round trip.
func NewSearXNGBackend(backendURL, userAgent string, timeout time.Duration, logger *slog.Logger) *SearXNGBackend {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &SearXNGBackend{
		client:     &http.Client{Timeout: timeout},
		backendURL: strings.TrimRight(backendURL, "/"),
		userAgent:  userAgent,
		logger:     logger,
	}
}

func (b *SearXNGBackend) Name() string { return "searxng" }

func (b *SearXNGBackend) Search(ctx context.Context, query string, count int) ([]domain.Candidate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.backendURL, nil)
	if err != nil {
		return nil, domain.NewDomainError("SearXNGBackend.Search", domain.ErrBackend, err.Error())
	}

	q := req.URL.Query()
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("number_of_results", strconv.Itoa(count))
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/json")
	if b.userAgent != "" {
		req.Header.Set("User-Agent", b.userAgent)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, domain.NewDomainError("SearXNGBackend.Search", domain.ErrBackend, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSearchBodySize))
	if err != nil {
		return nil, domain.NewDomainError("SearXNGBackend.Search", domain.ErrBackend,
			fmt.Sprintf("read response: %v", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, domain.NewDomainError("SearXNGBackend.Search", domain.ErrBackend,
			fmt.Sprintf("HTTP %d: %s", resp.StatusCode, truncateForLog(body)))
	}

	var searxResp searxngResponse
	if err := json.Unmarshal(body, &searxResp); err != nil {
		return nil, domain.NewDomainError("SearXNGBackend.Search", domain.ErrBackend,
			fmt.Sprintf("parse response: %v", err))
	}

	candidates := make([]domain.Candidate, 0, len(searxResp.Results))
	for _, r := range searxResp.Results {
		candidates = append(candidates, domain.Candidate{
			Title:   r.Title,
			URL:     r.URL,
			Content: r.Content,
		})
	}

	b.logger.Debug("searxng query completed", "query", query, "candidates", len(candidates))
	return candidates, nil
}

var _ Backend = (*SearXNGBackend)(nil)

func truncateForLog(body []byte) string {
	const max = 256
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
