package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the domain layer.
var (
	// ErrBackend marks a failed search dispatch. Backend failures are
	// atomic: no partial result set is ever produced from them.
	ErrBackend = fmt.Errorf("search backend request failed")
	// ErrFetch marks a failed page retrieval (timeout, transport error or
	// non-2xx status). Dropped silently in bulk search, surfaced as a
	// degraded result for single-page fetches.
	ErrFetch = fmt.Errorf("page fetch failed")
	// ErrNormalize marks content that could not be extracted from a page.
	// Treated identically to ErrFetch.
	ErrNormalize = fmt.Errorf("content normalization failed")

	ErrTimeout      = fmt.Errorf("operation timed out")
	ErrInvalidInput = fmt.Errorf("invalid input")
	ErrToolNotFound = fmt.Errorf("tool not found")
	ErrRateLimit    = fmt.Errorf("rate limit exceeded")
)

// DomainError wraps a sentinel error with context.
type DomainError struct {
	Op     string // operation name (e.g., "Backend.Search")
	Err    error  // underlying sentinel or wrapped error
	Detail string // human-readable detail
}

func (e *DomainError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }

// NewDomainError creates a new DomainError.
func NewDomainError(op string, err error, detail string) *DomainError {
	return &DomainError{Op: op, Err: err, Detail: detail}
}

// WrapOp adds operation context to an error using fmt.Errorf wrapping.
// Returns nil if err is nil, enabling idiomatic use: return domain.WrapOp("op", err)
func WrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// IsRetryableError reports whether err is a transient error that may succeed
// on retry.
func IsRetryableError(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrRateLimit)
}
