package bot

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Vodeneev/keibabot/internal/pkg/telemetry"
)

// maxCallbackData is Telegram's limit on callback_data, in bytes
const maxCallbackData = 64

// TelegramReplier renders replies with the Bot API: cards become inline
// keyboards and quick replies a persistent reply keyboard.
type TelegramReplier struct {
	api *tgbotapi.BotAPI
}

// NewTelegramReplier authorizes the token. apiEndpoint may be empty for api.telegram.org.
func NewTelegramReplier(token, apiEndpoint string, timeout time.Duration) (*TelegramReplier, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}
	if apiEndpoint == "" {
		apiEndpoint = tgbotapi.APIEndpoint
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	api, err := tgbotapi.NewBotAPIWithClient(token, apiEndpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	api.Debug = false

	slog.Info("Telegram bot authorized", "username", api.Self.UserName)
	return &TelegramReplier{api: api}, nil
}

// Send delivers the messages in order and stops at the first failure.
// A pending callback is acknowledged first so the client stops its spinner.
func (t *TelegramReplier) Send(ctx context.Context, reply Reply) error {
	if reply.AckID != "" {
		if _, err := t.api.Request(tgbotapi.NewCallback(reply.AckID, "")); err != nil {
			telemetry.LoggerWithCorr(ctx).Warn("Telegram: callback answer failed", slog.Any("error", err))
		}
	}

	for i, m := range reply.Messages {
		if err := ctx.Err(); err != nil {
			return err
		}
		cfg := renderMessage(ctx, reply.Handle, m)
		if _, err := t.api.Send(cfg); err != nil {
			return fmt.Errorf("send message %d/%d to chat %d: %w", i+1, len(reply.Messages), reply.Handle, err)
		}
	}
	return nil
}

func renderMessage(ctx context.Context, chatID int64, m Message) tgbotapi.MessageConfig {
	text := m.Text
	if m.Kind == KindCard {
		text = m.Title
		if m.Text != "" {
			text += "\n" + m.Text
		}
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true

	switch {
	case m.Kind == KindCard && len(m.Items) > 0:
		msg.ReplyMarkup = inlineKeyboard(ctx, m.Items)
	case len(m.QuickReplies) > 0:
		msg.ReplyMarkup = replyKeyboard(m.QuickReplies)
	}
	return msg
}

// inlineKeyboard puts one button per row, the way the cards list races
func inlineKeyboard(ctx context.Context, items []Item) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(items))
	for _, it := range items {
		var btn tgbotapi.InlineKeyboardButton
		switch it.Action {
		case ActionOpenURL:
			btn = tgbotapi.NewInlineKeyboardButtonURL(it.Label, it.Value)
		case ActionSendText:
			btn = tgbotapi.NewInlineKeyboardButtonData(it.Label, payloadText+"="+it.Value)
		default:
			btn = tgbotapi.NewInlineKeyboardButtonData(it.Label, it.Value)
		}
		if btn.CallbackData != nil && len(*btn.CallbackData) > maxCallbackData {
			telemetry.LoggerWithCorr(ctx).Warn("Telegram: callback data too long, button dropped",
				slog.String("label", it.Label), slog.Int("bytes", len(*btn.CallbackData)))
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(btn))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// replyKeyboard shows quick replies as one row of buttons that send their label
func replyKeyboard(items []Item) tgbotapi.ReplyKeyboardMarkup {
	buttons := make([]tgbotapi.KeyboardButton, 0, len(items))
	for _, it := range items {
		buttons = append(buttons, tgbotapi.NewKeyboardButton(it.Value))
	}
	return tgbotapi.NewReplyKeyboard(tgbotapi.NewKeyboardButtonRow(buttons...))
}
