package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Role is who authored a chat message. Only two roles exist in this domain.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole maps "user" to RoleUser and everything else (including the
// legacy "ai" spelling) to RoleAssistant.
func ParseRole(s string) Role {
	if s == string(RoleUser) {
		return RoleUser
	}
	return RoleAssistant
}

// ChatMessage is one immutable entry of a session history
type ChatMessage struct {
	Role Role   `json:"role" bson:"role" validate:"required,oneof=user assistant ai"`
	Text string `json:"text" bson:"text" validate:"required"`
}

// UserMessage builds a message authored by the user
func UserMessage(text string) ChatMessage {
	return ChatMessage{Role: RoleUser, Text: text}
}

// AssistantMessage builds a message authored by the model
func AssistantMessage(text string) ChatMessage {
	return ChatMessage{Role: RoleAssistant, Text: text}
}

// Normalized returns the message with a canonical role.
func (m ChatMessage) Normalized() ChatMessage {
	return ChatMessage{Role: ParseRole(string(m.Role)), Text: m.Text}
}

// SessionKey identifies a conversation thread
type SessionKey struct {
	UserID    string
	SessionID string
}

// MessagesPayload accepts either a single message object or a list of them
// and always holds a slice once decoded.
type MessagesPayload []ChatMessage

func (p *MessagesPayload) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*p = nil
		return nil
	}

	switch trimmed[0] {
	case '{':
		var single ChatMessage
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return fmt.Errorf("messages: %w", err)
		}
		*p = MessagesPayload{single}
	case '[':
		var list []ChatMessage
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return fmt.Errorf("messages: %w", err)
		}
		*p = MessagesPayload(list)
	default:
		return fmt.Errorf("messages must be a message object or a list of messages")
	}
	return nil
}

// ChatRequest is the body of POST /chatBot
type ChatRequest struct {
	SessionID string          `json:"id_session" validate:"required"`
	UserID    string          `json:"user_id" validate:"required"`
	Messages  MessagesPayload `json:"messages" validate:"required,min=1,dive"`
}

// Key returns the session the request belongs to
func (r *ChatRequest) Key() SessionKey {
	return SessionKey{UserID: r.UserID, SessionID: r.SessionID}
}

// ChatReply is the response of POST /chatBot
type ChatReply struct {
	Message string  `json:"message"`
	PDFURL  *string `json:"pdf_url"`
}

// SessionSummary describes one stored conversation of a user
type SessionSummary struct {
	UserID       string    `json:"user_id" bson:"user_id"`
	SessionID    string    `json:"id_session" bson:"id_session"`
	MessageCount int       `json:"message_count" bson:"message_count"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}
