package websocket

import (
	"encoding/json"

	"github.com/0xmhha/forge-indexer-go/events"
)

// Client request actions
const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
)

// Server frame types besides the topic names themselves
const (
	TypeSubscribed   = "subscribed"
	TypeUnsubscribed = "unsubscribed"
	TypeError        = "error"
)

// Message is the envelope for every frame the server sends. Notification
// frames use the bus topic as Type; control frames use the Type* constants.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Request is what clients send: an action plus the topics it applies to
type Request struct {
	Action string   `json:"action"`
	Topics []string `json:"topics"`
}

// Ack confirms a subscribe or unsubscribe
type Ack struct {
	Topics []string `json:"topics"`
}

// ErrorPayload reports a rejected request
type ErrorPayload struct {
	Error string `json:"error"`
}

// parseTopic validates a topic string from a client request
func parseTopic(s string) (events.Topic, bool) {
	switch t := events.Topic(s); t {
	case events.TopicJournalAppended, events.TopicScanCompleted:
		return t, true
	default:
		return "", false
	}
}
