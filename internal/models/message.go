package models

// Message kinds stored under messages/{roomId}/{messageId}.
const (
	MessageTypeUser   = "user"
	MessageTypeSystem = "system"
	MessageTypeNews   = "news"
)

// ChatMessage is a single entry in a room's message list. User and system
// messages carry Timestamp in unix milliseconds; mirrored news articles
// carry PublishedOn in unix seconds instead.
type ChatMessage struct {
	ID               string              `json:"id,omitempty"`
	Type             string              `json:"type,omitempty"`
	UID              string              `json:"uid,omitempty"`
	Sender           string              `json:"sender,omitempty"`
	Text             string              `json:"text,omitempty"`
	FileURL          string              `json:"fileURL,omitempty"`
	FileName         string              `json:"fileName,omitempty"`
	Timestamp        int64               `json:"timestamp,omitempty"`
	PublishedOn      int64               `json:"published_on,omitempty"`
	Source           string              `json:"source,omitempty"`
	Reactions        map[string][]string `json:"reactions,omitempty"`
	UserCreationDate int64               `json:"userCreationDate,omitempty"`
}

// EffectiveTimestamp normalizes both message layouts to unix milliseconds.
func (m ChatMessage) EffectiveTimestamp() int64 {
	if m.PublishedOn > 0 {
		return m.PublishedOn * 1000
	}
	return m.Timestamp
}

// Kind infers the message type for records written without an explicit one.
func (m ChatMessage) Kind() string {
	if m.Type != "" {
		return m.Type
	}
	if m.PublishedOn > 0 && m.Source != "" {
		return MessageTypeNews
	}
	if m.Sender == "system" {
		return MessageTypeSystem
	}
	if m.Sender != "" {
		return MessageTypeUser
	}
	return ""
}
