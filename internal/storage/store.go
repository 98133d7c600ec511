package storage

import (
	"context"
	"errors"

	"github.com/Ananth-NQI/market-analyst-backend/internal/models"
)

// ErrEmptyKey is returned when a session key lacks the user or session id
var ErrEmptyKey = errors.New("user_id and id_session are required")

// ChatStore persists chat histories keyed by (user_id, id_session).
// Implementations must be safe for concurrent use.
type ChatStore interface {
	// Append adds messages to the end of the session, creating it if needed.
	Append(ctx context.Context, key models.SessionKey, msgs ...models.ChatMessage) error
	// GetHistory returns the session messages in insertion order. A missing
	// session yields an empty slice and no error.
	GetHistory(ctx context.Context, key models.SessionKey) ([]models.ChatMessage, error)
	// ListSessions returns the sessions of a user, most recently updated first.
	ListSessions(ctx context.Context, userID string) ([]models.SessionSummary, error)
	Pinger
}

// Pinger is implemented by backends that can report their reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

func validKey(key models.SessionKey) error {
	if key.UserID == "" || key.SessionID == "" {
		return ErrEmptyKey
	}
	return nil
}

func normalize(msgs []models.ChatMessage) []models.ChatMessage {
	out := make([]models.ChatMessage, len(msgs))
	for i, m := range msgs {
		out[i] = m.Normalized()
	}
	return out
}
