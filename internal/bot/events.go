package bot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// EventKind classifies inbound events
type EventKind string

const (
	EventText    EventKind = "text"
	EventPayload EventKind = "payload"
	EventOther   EventKind = "other"
)

// Event is one inbound chat event reduced to what the router needs
type Event struct {
	Kind       EventKind
	Handle     int64  // chat to reply to
	Text       string // EventText
	Payload    string // EventPayload, "key=value"
	CallbackID string // EventPayload
	UpdateID   int
}

var errNoHandle = errors.New("update has no chat to reply to")

// DecodeUpdates accepts one update object or a JSON array of them.
// Elements that fail to decode or carry nothing to answer are skipped and
// reported in errs; the remaining events keep their order.
func DecodeUpdates(body []byte) (events []Event, errs []error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, []error{errors.New("empty body")}
	}

	var raws []json.RawMessage
	if body[0] == '[' {
		if err := json.Unmarshal(body, &raws); err != nil {
			return nil, []error{fmt.Errorf("decode update batch: %w", err)}
		}
	} else {
		raws = []json.RawMessage{body}
	}

	for i, raw := range raws {
		var u tgbotapi.Update
		if err := json.Unmarshal(raw, &u); err != nil {
			errs = append(errs, fmt.Errorf("update %d: %w", i, err))
			continue
		}
		ev, err := eventFromUpdate(u)
		if err != nil {
			errs = append(errs, fmt.Errorf("update %d (id %d): %w", i, u.UpdateID, err))
			continue
		}
		events = append(events, ev)
	}
	return events, errs
}

func eventFromUpdate(u tgbotapi.Update) (Event, error) {
	switch {
	case u.CallbackQuery != nil:
		cq := u.CallbackQuery
		ev := Event{Kind: EventPayload, Payload: cq.Data, CallbackID: cq.ID, UpdateID: u.UpdateID}
		switch {
		case cq.Message != nil && cq.Message.Chat != nil:
			ev.Handle = cq.Message.Chat.ID
		case cq.From != nil:
			// private chats share the user's id
			ev.Handle = cq.From.ID
		default:
			return Event{}, errNoHandle
		}
		return ev, nil

	case u.Message != nil:
		m := u.Message
		if m.Chat == nil {
			return Event{}, errNoHandle
		}
		if m.Text == "" {
			return Event{Kind: EventOther, Handle: m.Chat.ID, UpdateID: u.UpdateID}, nil
		}
		return Event{Kind: EventText, Handle: m.Chat.ID, Text: m.Text, UpdateID: u.UpdateID}, nil

	default:
		return Event{}, errNoHandle
	}
}
