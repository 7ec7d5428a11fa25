// Package fetch retrieves HTML pages from the scraped sites.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Fetcher retrieves one page and returns its body decoded to UTF-8.
// A non-2xx status or a transport failure is reported as *Error.
type Fetcher interface {
	Get(ctx context.Context, rawURL string) ([]byte, error)
}

// Error is the failure of a single outbound fetch: either a non-2xx status or a
// transport problem (timeout, refused connection, decode failure).
type Error struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.IsStatus():
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	case e.StatusCode > 0:
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsStatus reports whether the server answered with a non-2xx status,
// as opposed to the request never completing or a 2xx body failing to decode.
func (e *Error) IsStatus() bool {
	return e.StatusCode > 0 && (e.StatusCode < 200 || e.StatusCode >= 300)
}

// AsError attempts to unwrap an error into an *Error.
func AsError(err error) (*Error, bool) {
	var fetchErr *Error
	if errors.As(err, &fetchErr) {
		return fetchErr, true
	}
	return nil, false
}

// siteOf returns the host used as the metrics label.
func siteOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Hostname()
}

// New returns the fetcher named by kind: "http" or "browser".
func New(kind, userAgent string, timeout time.Duration, headers map[string]string) (Fetcher, error) {
	switch kind {
	case "", "http":
		return NewHTTPFetcher(userAgent, timeout, headers), nil
	case "browser":
		return NewBrowserFetcher(userAgent, timeout), nil
	default:
		return nil, fmt.Errorf("unknown fetcher %q", kind)
	}
}
