package bot

import "context"

// MessageKind distinguishes plain text from cards with tappable items
type MessageKind string

const (
	KindText MessageKind = "text"
	KindCard MessageKind = "card"
)

// Action is what tapping an Item does
type Action string

const (
	ActionSendText    Action = "send_text"    // the label/value is sent back as a user message
	ActionSendPayload Action = "send_payload" // Value is delivered as a payload event
	ActionOpenURL     Action = "open_url"     // Value is opened in the browser
)

// Item is one tappable element
type Item struct {
	Label  string `json:"label"`
	Action Action `json:"action"`
	Value  string `json:"value"`
}

// Message is one outbound message. Cards carry Items; QuickReplies attach to any kind.
type Message struct {
	Kind         MessageKind `json:"kind"`
	Title        string      `json:"title,omitempty"`
	Text         string      `json:"text,omitempty"`
	Items        []Item      `json:"items,omitempty"`
	QuickReplies []Item      `json:"quick_replies,omitempty"`
}

// Reply is everything sent back for one event
type Reply struct {
	Handle   int64     `json:"handle"`
	AckID    string    `json:"ack_id,omitempty"` // callback to acknowledge, if the event was a tap
	Messages []Message `json:"messages"`
}

// Replier delivers replies to the chat transport
type Replier interface {
	Send(ctx context.Context, reply Reply) error
}
