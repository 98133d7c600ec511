package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Ananth-NQI/market-analyst-backend/internal/models"
)

type memorySession struct {
	messages  []models.ChatMessage
	createdAt time.Time
	updatedAt time.Time
}

// MemoryStore holds all chat histories in memory (tests and local runs)
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[models.SessionKey]*memorySession
	now      func() time.Time
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[models.SessionKey]*memorySession),
		now:      time.Now,
	}
}

func (m *MemoryStore) Append(_ context.Context, key models.SessionKey, msgs ...models.ChatMessage) error {
	if err := validKey(key); err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	sess, exists := m.sessions[key]
	if !exists {
		sess = &memorySession{createdAt: now}
		m.sessions[key] = sess
	}
	sess.messages = append(sess.messages, normalize(msgs)...)
	sess.updatedAt = now
	return nil
}

func (m *MemoryStore) GetHistory(_ context.Context, key models.SessionKey) ([]models.ChatMessage, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, exists := m.sessions[key]
	if !exists {
		return []models.ChatMessage{}, nil
	}
	out := make([]models.ChatMessage, len(sess.messages))
	copy(out, sess.messages)
	return out, nil
}

func (m *MemoryStore) ListSessions(_ context.Context, userID string) ([]models.SessionSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []models.SessionSummary{}
	for key, sess := range m.sessions {
		if key.UserID != userID {
			continue
		}
		out = append(out, models.SessionSummary{
			UserID:       key.UserID,
			SessionID:    key.SessionID,
			MessageCount: len(sess.messages),
			CreatedAt:    sess.createdAt,
			UpdatedAt:    sess.updatedAt,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].SessionID < out[j].SessionID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (m *MemoryStore) Ping(context.Context) error {
	return nil
}
