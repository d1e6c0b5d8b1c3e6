package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"

	"webskim/internal/domain"
	"webskim/internal/infra/config"
)

// RenderedFetcher fetches pages through a real browser so that
// JavaScript-rendered content is present in the returned HTML. It keeps a
// single browser alive across fetches and serializes access to its one tab.
type RenderedFetcher struct {
	mu          sync.Mutex
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	timeout     time.Duration
	logger      *slog.Logger
}

// NewRenderedFetcher launches or connects to a browser per cfg. When
// cfg.ChromeCDPURL is set the fetcher attaches to a running Chrome over the
// DevTools protocol; otherwise it spawns a local instance.
func NewRenderedFetcher(cfg config.FetchConfig, logger *slog.Logger) (*RenderedFetcher, error) {
	timeout := cfg.PageTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	f := &RenderedFetcher{timeout: timeout, logger: logger}

	var allocCtx context.Context
	if cfg.ChromeCDPURL != "" {
		allocCtx, f.allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.ChromeCDPURL)
		logger.Info("connecting to remote browser", "url", cfg.ChromeCDPURL)
	} else {
		opts := make([]chromedp.ExecAllocatorOption, len(chromedp.DefaultExecAllocatorOptions))
		copy(opts, chromedp.DefaultExecAllocatorOptions[:])
		opts = append(opts,
			chromedp.Flag("headless", cfg.ChromeHeadless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)
		if cfg.UserAgent != "" {
			opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
		}
		allocCtx, f.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
		logger.Info("launching local browser", "headless", cfg.ChromeHeadless)
	}

	f.tabCtx, f.tabCancel = chromedp.NewContext(allocCtx)

	// Start the browser with an empty run. The tab context must not be
	// wrapped in a timeout here: chromedp binds the CDP session to the
	// context of the first Run, and canceling a derived context would kill
	// the session.
	startDone := make(chan error, 1)
	go func() { startDone <- chromedp.Run(f.tabCtx) }()
	select {
	case err := <-startDone:
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("start browser: %w", err)
		}
	case <-time.After(timeout):
		f.Close()
		return nil, fmt.Errorf("start browser: timed out after %v", timeout)
	}

	logger.Info("rendered fetcher ready")
	return f, nil
}

func (f *RenderedFetcher) Name() string { return "chromedp" }

// Fetch navigates the browser tab to pageURL, waits for the body to be
// ready, and returns the rendered document HTML.
func (f *RenderedFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	timeout := f.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	tctx, cancel := context.WithTimeout(f.tabCtx, timeout)
	defer cancel()

	var html string
	err := chromedp.Run(tctx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(actx context.Context) error {
			node, err := dom.GetDocument().Do(actx)
			if err != nil {
				return err
			}
			html, err = dom.GetOuterHTML().WithNodeID(node.NodeID).Do(actx)
			return err
		}),
	)
	if err != nil {
		if tctx.Err() == context.DeadlineExceeded {
			return "", domain.NewDomainError("RenderedFetcher.Fetch", domain.ErrTimeout, err.Error())
		}
		return "", domain.NewDomainError("RenderedFetcher.Fetch", domain.ErrFetch, err.Error())
	}

	f.logger.Debug("page rendered", "url", pageURL, "size", len(html))
	return html, nil
}

// Close shuts down the browser and releases its resources.
func (f *RenderedFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.tabCancel != nil {
		f.tabCancel()
	}
	if f.allocCancel != nil {
		f.allocCancel()
	}
	f.logger.Info("rendered fetcher closed")
	return nil
}

var _ Fetcher = (*RenderedFetcher)(nil)
