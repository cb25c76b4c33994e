// Package fetch retrieves remote documents for the extraction pipeline.
//
// Two strategies are provided: a plain HTTP fetcher and a headless-Chromium
// fetcher for script-heavy pages. Both classify HTTP 401/403/404 as blocked
// (terminal for that single link) and other failures as generic fetch errors.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	appLog "linkcal/internal/log"
)

// DefaultTimeout bounds a single fetch when the caller does not configure one.
const DefaultTimeout = 15 * time.Second

// ErrBlocked wraps HTTP statuses that indicate the site refused the request
// (401, 403, 404). The concrete status is carried by StatusError.
var ErrBlocked = errors.New("fetch blocked")

// ErrFailed covers network errors and non-2xx statuses other than the
// blocked set.
var ErrFailed = errors.New("fetch failed")

// StatusError records the HTTP status behind a blocked or failed fetch.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: HTTP %d", RedactURL(e.URL), e.StatusCode)
}

// Unwrap classifies the status into ErrBlocked or ErrFailed so callers can
// branch with errors.Is.
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return ErrBlocked
	default:
		return ErrFailed
	}
}

// Response is the outcome of one successful fetch.
type Response struct {
	URL    string
	Status int
	Header http.Header
	Body   []byte
}

// Fetcher retrieves a single remote document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Response, error)
}

// HTTPFetcher fetches documents with a plain HTTP GET, sending browser-like
// headers to reduce spurious anti-bot rejections.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates an HTTPFetcher with the given per-request timeout.
// A non-positive timeout falls back to DefaultTimeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// browserHeaders mimic a desktop browser request. Several event sites reject
// the default Go user agent outright.
var browserHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.5",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
	"Cache-Control":             "max-age=0",
}

// Fetch performs a GET against url and returns the response body on 2xx.
// 401/403/404 map to ErrBlocked via StatusError, other non-2xx and network
// errors map to ErrFailed.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Response, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty url", ErrFailed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailed, err)
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	appLog.Debug("fetch start", "url", RedactURL(url))

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrFailed, err)
	}

	appLog.Debug("fetch success", "url", RedactURL(url), "status", resp.StatusCode, "bytes", len(body))

	return &Response{
		URL:    url,
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   body,
	}, nil
}

// RedactURL hides sensitive parts of a URL for logging purposes.
//
//	https://example.com/path?token=abcd -> https://example.com/...(redacted)
func RedactURL(u string) string {
	const redactedSuffix = "/...(redacted)"

	// Find scheme separator.
	i := -1
	for idx := 0; idx+2 < len(u); idx++ {
		if u[idx:idx+3] == "://" {
			i = idx + 3
			break
		}
	}
	if i == -1 {
		return "url://...(redacted)"
	}

	// Find next slash after host.
	j := i
	for j < len(u) && u[j] != '/' {
		j++
	}

	host := u[:j]
	return host + redactedSuffix
}
