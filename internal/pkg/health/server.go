// Package health serves the bot's HTTP surface: liveness, metrics, stats and the webhook.
package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Vodeneev/keibabot/internal/pkg/health/handlers"
)

// Options configures the HTTP server
type Options struct {
	Addr              string
	Service           string
	ReadHeaderTimeout time.Duration

	// Webhook is mounted at WebhookPath when both are set
	WebhookPath string
	Webhook     http.Handler
}

// NewMux builds the route table
func NewMux(opts Options) *http.ServeMux {
	mux := http.NewServeMux()

	// Health endpoints
	mux.HandleFunc("/ping", handlers.HandlePing)
	mux.HandleFunc("/health", handlers.HealthHandler(opts.Service))

	// Prometheus metrics and command timings
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/stats", handlers.HandleStats)

	if opts.Webhook != nil && opts.WebhookPath != "" {
		mux.Handle(opts.WebhookPath, opts.Webhook)
	}
	return mux
}

// Run starts the server in the background and shuts it down when ctx is done.
// The returned channel receives the listen error, if any, and is closed on exit.
func Run(ctx context.Context, opts Options) (<-chan error, error) {
	if opts.ReadHeaderTimeout <= 0 {
		return nil, fmt.Errorf("read_header_timeout must be specified in config")
	}

	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           NewMux(opts),
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		slog.Info("HTTP server listening", "service", opts.Service, "addr", opts.Addr, "webhook", opts.WebhookPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "service", opts.Service, "error", err)
			errCh <- err
		}
	}()
	return errCh, nil
}

func AddrFor(port int) (string, error) {
	if port <= 0 {
		return "", fmt.Errorf("port must be greater than 0")
	}
	return fmt.Sprintf(":%d", port), nil
}
