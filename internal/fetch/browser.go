package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	appLog "linkcal/internal/log"
)

// BrowserFetcher retrieves pages through headless Chromium so that
// script-rendered event listings produce usable markup. It trades speed and
// a Chromium dependency for fidelity; plain HTTP is the default strategy.
type BrowserFetcher struct {
	timeout time.Duration
}

// NewBrowserFetcher creates a BrowserFetcher with the given per-page timeout.
// A non-positive timeout falls back to twice DefaultTimeout, since a full
// page load is slower than a plain GET.
func NewBrowserFetcher(timeout time.Duration) *BrowserFetcher {
	if timeout <= 0 {
		timeout = 2 * DefaultTimeout
	}
	return &BrowserFetcher{timeout: timeout}
}

// Fetch navigates to url in a fresh headless browser context, waits for the
// document body to be ready, and returns the rendered outer HTML.
//
// Status classification is unavailable here: Chromium does not surface the
// HTTP status of the main navigation through this path, so every failure is
// reported as ErrFailed.
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (*Response, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty url", ErrFailed)
	}

	bctx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	bctx, timeoutCancel := context.WithTimeout(bctx, f.timeout)
	defer timeoutCancel()

	appLog.Debug("browser fetch start", "url", RedactURL(url))

	var html string
	tasks := chromedp.Tasks{
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		// Small extra delay so late-arriving event widgets settle.
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}

	if err := chromedp.Run(bctx, tasks); err != nil {
		return nil, fmt.Errorf("%w: chromedp run: %v", ErrFailed, err)
	}

	appLog.Debug("browser fetch success", "url", RedactURL(url), "bytes", len(html))

	return &Response{
		URL:    url,
		Status: 200,
		Body:   []byte(html),
	}, nil
}
