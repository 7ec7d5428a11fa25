package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Vodeneev/keibabot/internal/pkg/telemetry"
)

// chromeMu serializes all Chrome usage so only one instance runs at a time
var chromeMu sync.Mutex

// BrowserFetcher renders pages in headless Chrome. It is meant for deployments
// where a plain GET gets bot-blocked; it is much slower than HTTPFetcher.
type BrowserFetcher struct {
	userAgent string
	timeout   time.Duration
}

// NewBrowserFetcher creates a headless-browser fetcher.
func NewBrowserFetcher(userAgent string, timeout time.Duration) *BrowserFetcher {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &BrowserFetcher{userAgent: userAgent, timeout: timeout}
}

// Get navigates to rawURL and returns the rendered document HTML.
// Chrome does not surface the HTTP status, so failures carry StatusCode 0.
func (f *BrowserFetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	ctx, span := telemetry.StartSpan(ctx, "fetch.BrowserGet", attribute.String("url", rawURL))
	defer span.End()

	start := time.Now()
	html, err := f.render(ctx, rawURL)
	if err != nil {
		telemetry.ObserveFetch(siteOf(rawURL), 0, time.Since(start))
		telemetry.RecordError(span, err)
		return nil, &Error{URL: rawURL, Err: err}
	}
	telemetry.ObserveFetch(siteOf(rawURL), 200, time.Since(start))
	return []byte(html), nil
}

func (f *BrowserFetcher) render(ctx context.Context, rawURL string) (string, error) {
	chromeMu.Lock()
	defer chromeMu.Unlock()

	chromeDir, err := os.MkdirTemp("", "keibabot_chrome_")
	if err != nil {
		return "", fmt.Errorf("create chrome temp dir: %w", err)
	}
	defer os.RemoveAll(chromeDir)

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.UserDataDir(chromeDir),
		chromedp.UserAgent(f.userAgent),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	ctx, cancel = chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, v ...interface{}) {
		slog.Debug("chromedp", "message", fmt.Sprintf(format, v...))
	}))
	defer cancel()

	var html string
	err = chromedp.Run(ctx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("chromedp render: %w", err)
	}
	return html, nil
}
