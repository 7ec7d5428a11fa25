package bot

import (
	"context"
	"crypto/subtle"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/Vodeneev/keibabot/internal/pkg/telemetry"
)

const (
	secretHeader = "X-Telegram-Bot-Api-Secret-Token"
	maxBodySize  = 1 << 20
)

// EventHandler handles one decoded event
type EventHandler interface {
	Handle(ctx context.Context, ev Event) error
}

// WebhookHandler accepts Telegram webhook calls. Every authenticated call is
// answered 200 "OK" whatever happens to its events, so Telegram never retries.
type WebhookHandler struct {
	handler EventHandler
	secret  string
}

// NewWebhookHandler creates the handler; an empty secret disables the header check.
func NewWebhookHandler(handler EventHandler, secret string) *WebhookHandler {
	return &WebhookHandler{handler: handler, secret: secret}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	corrID := uuid.NewString()
	ctx := telemetry.WithCorrelation(r.Context(), corrID)
	logger := telemetry.LoggerWithCorr(ctx)

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.secret != "" && subtle.ConstantTimeCompare([]byte(r.Header.Get(secretHeader)), []byte(h.secret)) != 1 {
		logger.Warn("Webhook: secret token mismatch", slog.String("remote", r.RemoteAddr))
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		logger.Warn("Webhook: failed to read body", slog.Any("error", err))
		writeOK(w)
		return
	}

	events, errs := DecodeUpdates(body)
	for _, err := range errs {
		logger.Warn("Webhook: skipping update", slog.Any("error", err))
		telemetry.CountWebhookEvent("skipped")
	}

	for _, ev := range events {
		if err := h.handler.Handle(ctx, ev); err != nil {
			logger.Error("Webhook: reply failed",
				slog.String("kind", string(ev.Kind)),
				slog.Int64("chat_id", ev.Handle),
				slog.Any("error", err))
		}
	}
	logger.Debug("Webhook handled", slog.Int("events", len(events)), slog.Int("skipped", len(errs)))
	writeOK(w)
}

func writeOK(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
