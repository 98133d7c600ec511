package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ananth-NQI/market-analyst-backend/internal/models"
)

// runChatStoreSuite checks the behaviour every ChatStore backend shares.
func runChatStoreSuite(t *testing.T, newStore func(t *testing.T) ChatStore) {
	ctx := context.Background()

	t.Run("append preserves order", func(t *testing.T) {
		s := newStore(t)
		key := uniqueKey(t, "order")

		m1 := models.UserMessage("first")
		m2 := models.AssistantMessage("second")
		require.NoError(t, s.Append(ctx, key, m1))
		require.NoError(t, s.Append(ctx, key, m2))

		got, err := s.GetHistory(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []models.ChatMessage{m1, m2}, got)
	})

	t.Run("append many keeps batch order", func(t *testing.T) {
		s := newStore(t)
		key := uniqueKey(t, "batch")

		batch := []models.ChatMessage{models.UserMessage("a"), models.UserMessage("b"), models.UserMessage("c")}
		require.NoError(t, s.Append(ctx, key, batch...))
		require.NoError(t, s.Append(ctx, key, models.AssistantMessage("d")))

		got, err := s.GetHistory(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, append(batch, models.AssistantMessage("d")), got)
	})

	t.Run("missing session is empty", func(t *testing.T) {
		s := newStore(t)

		got, err := s.GetHistory(ctx, uniqueKey(t, "missing"))
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("sessions are isolated per user", func(t *testing.T) {
		s := newStore(t)
		alice := uniqueKey(t, "shared")
		bob := models.SessionKey{UserID: alice.UserID + "-bob", SessionID: alice.SessionID}

		require.NoError(t, s.Append(ctx, alice, models.UserMessage("from alice")))
		require.NoError(t, s.Append(ctx, bob, models.UserMessage("from bob")))

		got, err := s.GetHistory(ctx, bob)
		require.NoError(t, err)
		assert.Equal(t, []models.ChatMessage{models.UserMessage("from bob")}, got)
	})

	t.Run("legacy role is normalized", func(t *testing.T) {
		s := newStore(t)
		key := uniqueKey(t, "legacy")

		require.NoError(t, s.Append(ctx, key, models.ChatMessage{Role: "ai", Text: "hi"}))

		got, err := s.GetHistory(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []models.ChatMessage{models.AssistantMessage("hi")}, got)
	})

	t.Run("empty key is rejected", func(t *testing.T) {
		s := newStore(t)

		err := s.Append(ctx, models.SessionKey{UserID: "u"}, models.UserMessage("x"))
		assert.ErrorIs(t, err, ErrEmptyKey)
	})

	t.Run("list sessions counts messages", func(t *testing.T) {
		s := newStore(t)
		first := uniqueKey(t, "list")
		second := models.SessionKey{UserID: first.UserID, SessionID: first.SessionID + "-2"}

		require.NoError(t, s.Append(ctx, first, models.UserMessage("a"), models.AssistantMessage("b")))
		time.Sleep(10 * time.Millisecond)
		require.NoError(t, s.Append(ctx, second, models.UserMessage("c")))

		got, err := s.ListSessions(ctx, first.UserID)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, second.SessionID, got[0].SessionID)
		assert.Equal(t, 1, got[0].MessageCount)
		assert.Equal(t, first.SessionID, got[1].SessionID)
		assert.Equal(t, 2, got[1].MessageCount)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, newStore(t).Ping(ctx))
	})
}

func uniqueKey(t *testing.T, label string) models.SessionKey {
	return models.SessionKey{
		UserID:    fmt.Sprintf("user-%s-%d", label, time.Now().UnixNano()),
		SessionID: "session-" + label,
	}
}

func TestMemoryStore(t *testing.T) {
	runChatStoreSuite(t, func(t *testing.T) ChatStore { return NewMemoryStore() })
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	key := models.SessionKey{UserID: "u", SessionID: "s"}
	require.NoError(t, s.Append(ctx, key, models.UserMessage("hello")))

	got, err := s.GetHistory(ctx, key)
	require.NoError(t, err)
	got[0].Text = "mutated"

	again, err := s.GetHistory(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "hello", again[0].Text)
}

func TestMemoryStoreConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	key := models.SessionKey{UserID: "u", SessionID: "s"}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Append(ctx, key, models.UserMessage(fmt.Sprint(i))))
		}(i)
	}
	wg.Wait()

	got, err := s.GetHistory(ctx, key)
	require.NoError(t, err)
	assert.Len(t, got, 50)
}

func TestBackendsImplementChatStore(t *testing.T) {
	for _, s := range []ChatStore{
		NewMemoryStore(),
		(*MongoStore)(nil),
		(*DatabaseStore)(nil),
	} {
		assert.Implements(t, (*Pinger)(nil), s)
	}
}
