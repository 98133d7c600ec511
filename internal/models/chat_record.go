package models

import (
	"time"

	"gorm.io/gorm"
)

// ChatSessionRecord is the PostgreSQL row for one conversation thread
type ChatSessionRecord struct {
	gorm.Model
	UserID    string              `gorm:"not null;uniqueIndex:idx_chat_session_key"`
	SessionID string              `gorm:"not null;uniqueIndex:idx_chat_session_key"`
	Messages  []ChatMessageRecord `gorm:"foreignKey:ChatSessionID;constraint:OnDelete:CASCADE"`
}

func (ChatSessionRecord) TableName() string {
	return "chat_sessions"
}

// ChatMessageRecord is one appended message. Insertion order is the
// auto-increment ID.
type ChatMessageRecord struct {
	ID            uint      `gorm:"primaryKey"`
	ChatSessionID uint      `gorm:"not null;index"`
	Role          string    `gorm:"not null;size:16"`
	Text          string    `gorm:"type:text;not null"`
	CreatedAt     time.Time
}

func (ChatMessageRecord) TableName() string {
	return "chat_messages"
}

// ToMessage converts the row into a domain message
func (r ChatMessageRecord) ToMessage() ChatMessage {
	return ChatMessage{Role: ParseRole(r.Role), Text: r.Text}
}
