package domain

import "time"

// MessageType classifies a chat message's payload.
type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageVideo MessageType = "video"
	MessageAudio MessageType = "audio"
)

// ChatMessage is one entry in a chat stream. Messages are append-only from
// the client's perspective: ordering is by Timestamp, identity (and
// deduplication) is by ID. A locally rendered provisional message and the
// authoritative broker copy share the same ID and collapse to one entry.
type ChatMessage struct {
	ID         string      `json:"id"`
	ChatPath   string      `json:"chat_path"`
	Content    string      `json:"content"`
	SenderID   string      `json:"sender_id"`
	SenderName string      `json:"sender_name"`
	Type       MessageType `json:"type"`
	MediaURL   string      `json:"media_url,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

// TypingState is the flag a participant publishes while composing. It
// auto-expires client-side: the sender republishes IsTyping=false after the
// typing timeout unless renewed.
type TypingState struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	IsTyping bool   `json:"is_typing"`
}

// Presence marks a chat participant as online or offline.
type Presence struct {
	UserID   string    `json:"user_id"`
	UserName string    `json:"user_name"`
	Online   bool      `json:"online"`
	LastSeen time.Time `json:"last_seen"`
}
