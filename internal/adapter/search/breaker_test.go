package search

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"

	"webskim/internal/domain"
	"webskim/internal/infra/config"
)

// flakyBackend fails until the failure budget is spent, then succeeds.
type flakyBackend struct {
	failures  int
	callCount int
}

func (f *flakyBackend) Search(_ context.Context, _ string, _ int) ([]domain.Candidate, error) {
	f.callCount++
	if f.callCount <= f.failures {
		return nil, fmt.Errorf("backend down")
	}
	return []domain.Candidate{{Title: "ok", URL: "https://example.com"}}, nil
}

func (f *flakyBackend) Name() string { return "flaky" }

func testBreakerConfig() config.BreakerConfig {
	return config.BreakerConfig{
		Enabled:     true,
		MaxFailures: 3,
		Timeout:     50 * time.Millisecond,
		Interval:    time.Minute,
	}
}

func TestBreakerPassesThroughSuccess(t *testing.T) {
	b := NewBreakerBackend(&flakyBackend{}, testBreakerConfig(), newTestLogger())

	candidates, err := b.Search(context.Background(), "q", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if b.Name() != "flaky" {
		t.Errorf("Name() = %q, want inner name", b.Name())
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &flakyBackend{failures: 100}
	b := NewBreakerBackend(inner, testBreakerConfig(), newTestLogger())

	for i := 0; i < 3; i++ {
		if _, err := b.Search(context.Background(), "q", 3); err == nil {
			t.Fatal("expected failure")
		}
	}
	if b.State() != gobreaker.StateOpen {
		t.Fatalf("state = %v, want open", b.State())
	}

	calls := inner.callCount
	_, err := b.Search(context.Background(), "q", 3)
	if err == nil {
		t.Fatal("expected fail-fast error while open")
	}
	if !errors.Is(err, domain.ErrBackend) {
		t.Errorf("open circuit should surface as a backend error, got %v", err)
	}
	if inner.callCount != calls {
		t.Error("open circuit must not reach the backend")
	}
}

func TestBreakerRecoversAfterTimeout(t *testing.T) {
	inner := &flakyBackend{failures: 3}
	b := NewBreakerBackend(inner, testBreakerConfig(), newTestLogger())

	for i := 0; i < 3; i++ {
		b.Search(context.Background(), "q", 3)
	}
	if b.State() != gobreaker.StateOpen {
		t.Fatalf("state = %v, want open", b.State())
	}

	time.Sleep(80 * time.Millisecond) // half-open probe allowed

	candidates, err := b.Search(context.Background(), "q", 3)
	if err != nil {
		t.Fatalf("probe should succeed: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
}
