package notify

import (
	"context"
	"time"
)

// Routing keys on the push exchange.
const (
	RoutingKeyChatMessage = "push.chat_message"
	RoutingKeyOpportunity = "push.opportunity"
)

// Envelope is the wire format consumed by the push delivery worker. The
// topic is the room id; the worker fans out to devices subscribed to it.
type Envelope struct {
	SchemaVersion int               `json:"schema_version"`
	Event         string            `json:"event"`
	OccurredAt    string            `json:"occurred_at"`
	Topic         string            `json:"topic"`
	Title         string            `json:"title"`
	Body          string            `json:"body"`
	Data          map[string]string `json:"data,omitempty"`
}

// Emitter builds and publishes the notification payloads the original
// delivery endpoint produced.
type Emitter struct {
	publisher Publisher
}

// NewEmitter wraps a publisher.
func NewEmitter(publisher Publisher) *Emitter {
	return &Emitter{publisher: publisher}
}

// MessageSent announces a chat message to the room's push topic. Bodies
// over 100 characters are truncated. Errors are the caller's to log;
// message delivery is best-effort end to end.
func (e *Emitter) MessageSent(ctx context.Context, roomID, roomName, sender, text string) error {
	if e == nil || e.publisher == nil {
		return nil
	}
	body := text
	if len(body) > 100 {
		body = body[:97] + "..."
	}
	return e.publisher.Publish(ctx, RoutingKeyChatMessage, Envelope{
		SchemaVersion: 1,
		Event:         "chat_message",
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Topic:         roomID,
		Title:         "Pesan baru di #" + roomName,
		Body:          sender + ": " + body,
		Data: map[string]string{
			"roomId": roomID,
			"sender": sender,
			"type":   "chat_message",
		},
	})
}

// Opportunity announces newly trending coins to the opportunity room's
// push topic.
func (e *Emitter) Opportunity(ctx context.Context, roomID, roomName, body string) error {
	if e == nil || e.publisher == nil {
		return nil
	}
	return e.publisher.Publish(ctx, RoutingKeyOpportunity, Envelope{
		SchemaVersion: 1,
		Event:         "opportunity",
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Topic:         roomID,
		Title:         "📈 Peluang Pasar Baru!",
		Body:          body,
		Data: map[string]string{
			"roomId":   roomID,
			"roomName": roomName,
			"sender":   "RT Crypto AI",
		},
	})
}
