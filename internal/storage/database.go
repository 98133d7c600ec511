package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Ananth-NQI/market-analyst-backend/internal/models"
)

// DatabaseStore keeps chat memory in PostgreSQL through gorm
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a chat store over an open gorm connection
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

// Migrate creates or updates the chat tables.
func (s *DatabaseStore) Migrate() error {
	return s.db.AutoMigrate(&models.ChatSessionRecord{}, &models.ChatMessageRecord{})
}

func (s *DatabaseStore) Append(ctx context.Context, key models.SessionKey, msgs ...models.ChatMessage) error {
	if err := validKey(key); err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session models.ChatSessionRecord
		if err := tx.Where(models.ChatSessionRecord{UserID: key.UserID, SessionID: key.SessionID}).
			FirstOrCreate(&session).Error; err != nil {
			return err
		}

		records := make([]models.ChatMessageRecord, 0, len(msgs))
		for _, m := range normalize(msgs) {
			records = append(records, models.ChatMessageRecord{
				ChatSessionID: session.ID,
				Role:          string(m.Role),
				Text:          m.Text,
			})
		}
		if err := tx.Create(&records).Error; err != nil {
			return err
		}

		// touch updated_at so listings order by latest activity
		return tx.Model(&session).Update("updated_at", gorm.Expr("NOW()")).Error
	})
	if err != nil {
		return fmt.Errorf("append chat messages: %w", err)
	}
	return nil
}

func (s *DatabaseStore) GetHistory(ctx context.Context, key models.SessionKey) ([]models.ChatMessage, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	var session models.ChatSessionRecord
	err := db.Where("user_id = ? AND session_id = ?", key.UserID, key.SessionID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []models.ChatMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load chat session: %w", err)
	}

	var records []models.ChatMessageRecord
	if err := db.Where("chat_session_id = ?", session.ID).Order("id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("load chat history: %w", err)
	}

	out := make([]models.ChatMessage, 0, len(records))
	for _, r := range records {
		out = append(out, r.ToMessage())
	}
	return out, nil
}

func (s *DatabaseStore) ListSessions(ctx context.Context, userID string) ([]models.SessionSummary, error) {
	out := []models.SessionSummary{}
	err := s.db.WithContext(ctx).
		Model(&models.ChatSessionRecord{}).
		Select("chat_sessions.user_id, chat_sessions.session_id, COUNT(chat_messages.id) AS message_count, chat_sessions.created_at, chat_sessions.updated_at").
		Joins("LEFT JOIN chat_messages ON chat_messages.chat_session_id = chat_sessions.id").
		Where("chat_sessions.user_id = ?", userID).
		Group("chat_sessions.id").
		Order("chat_sessions.updated_at DESC, chat_sessions.session_id ASC").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list chat sessions: %w", err)
	}
	return out, nil
}

func (s *DatabaseStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
