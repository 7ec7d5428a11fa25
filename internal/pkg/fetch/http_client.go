package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/net/html/charset"

	"github.com/Vodeneev/keibabot/internal/pkg/telemetry"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// maxBodySize caps a single page; listing pages are well below 2 MiB.
const maxBodySize = 8 << 20

// HTTPFetcher fetches pages with a plain GET and a browser-like user agent.
type HTTPFetcher struct {
	userAgent string
	headers   map[string]string
	client    *http.Client
}

// NewHTTPFetcher creates an HTTP fetcher. Extra headers override the defaults.
func NewHTTPFetcher(userAgent string, timeout time.Duration, headers map[string]string) *HTTPFetcher {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = http.ProxyFromEnvironment

	return &HTTPFetcher{
		userAgent: userAgent,
		headers:   headers,
		client:    &http.Client{Timeout: timeout, Transport: transport},
	}
}

// Get fetches rawURL once. There are no retries: a failure is reported to the caller as *Error.
func (f *HTTPFetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	site := siteOf(rawURL)
	ctx, span := telemetry.StartSpan(ctx, "fetch.Get", attribute.String("url", rawURL))
	defer span.End()

	start := time.Now()
	body, status, err := f.do(ctx, rawURL)
	telemetry.ObserveFetch(site, status, time.Since(start))
	if status > 0 {
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return body, nil
}

func (f *HTTPFetcher) do(ctx context.Context, rawURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, &Error{URL: rawURL, Err: err}
	}
	f.setHeaders(req)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, &Error{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, resp.StatusCode, &Error{URL: rawURL, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return f.handleErrorResponse(resp, raw, rawURL)
	}

	body, err := decodeBody(raw, resp.Header.Get("Content-Encoding"), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, resp.StatusCode, &Error{URL: rawURL, StatusCode: resp.StatusCode, Err: err}
	}
	return body, resp.StatusCode, nil
}

// setHeaders sets HTTP headers for requests
func (f *HTTPFetcher) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ja,en-US;q=0.8,en;q=0.6")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br, zstd")
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}
}

// handleErrorResponse logs a non-2xx answer and reports its status.
// The body is only decoded for the log preview; a broken body does not hide the status.
func (f *HTTPFetcher) handleErrorResponse(resp *http.Response, raw []byte, rawURL string) ([]byte, int, error) {
	preview := "<undecodable>"
	if body, err := decodeBody(raw, resp.Header.Get("Content-Encoding"), resp.Header.Get("Content-Type")); err == nil {
		preview = string(body)
		if len(preview) > 300 {
			preview = preview[:300] + "..."
		}
	}
	slog.Warn("Fetch: HTTP error response",
		"url", rawURL,
		"status", resp.StatusCode,
		"body_preview", preview)

	return nil, resp.StatusCode, &Error{URL: rawURL, StatusCode: resp.StatusCode}
}

// decodeBody undoes Content-Encoding and converts the declared or sniffed charset to UTF-8.
func decodeBody(raw []byte, contentEncoding, contentType string) ([]byte, error) {
	var r io.Reader = bytes.NewReader(raw)
	switch strings.ToLower(strings.TrimSpace(contentEncoding)) {
	case "", "identity":
	case "gzip":
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer gz.Close()
		r = gz
	case "deflate":
		zr, err := zlib.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("deflate reader: %w", err)
		}
		defer zr.Close()
		r = zr
	case "br":
		r = brotli.NewReader(r)
	case "zstd":
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		defer zr.Close()
		r = zr
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", contentEncoding)
	}

	decoded, err := charset.NewReader(io.LimitReader(r, maxBodySize), contentType)
	if err != nil {
		return nil, fmt.Errorf("charset reader: %w", err)
	}
	body, err := io.ReadAll(decoded)
	if err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	return body, nil
}
