package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Ananth-NQI/market-analyst-backend/internal/metrics"
	"github.com/Ananth-NQI/market-analyst-backend/internal/models"
	"github.com/Ananth-NQI/market-analyst-backend/internal/storage"
)

// ChatbotService runs one chat turn: persist the user input, replay the
// session history to the model, persist and return the reply.
type ChatbotService struct {
	store          storage.ChatStore
	model          *ModelService
	reports        *ReportLibrary
	storageTimeout time.Duration
	locks          *sessionLocks
	log            zerolog.Logger
	metrics        *metrics.Metrics
}

func NewChatbotService(store storage.ChatStore, model *ModelService, reports *ReportLibrary, storageTimeout time.Duration, log zerolog.Logger, m *metrics.Metrics) *ChatbotService {
	return &ChatbotService{
		store:          store,
		model:          model,
		reports:        reports,
		storageTimeout: storageTimeout,
		locks:          newSessionLocks(),
		log:            log.With().Str("component", "chatbot").Logger(),
		metrics:        m,
	}
}

// Chat handles one turn of the conversation identified by req.Key().
func (s *ChatbotService) Chat(ctx context.Context, req *models.ChatRequest) (reply *models.ChatReply, err error) {
	defer func() { s.metrics.ObserveChatTurn(err) }()

	key := req.Key()
	if err := validSessionKey(key); err != nil {
		return nil, err
	}
	if len(req.Messages) == 0 {
		return nil, &ValidationError{Field: "messages", Reason: "at least one message is required"}
	}

	unlock := s.locks.lock(key)
	defer unlock()

	if err := s.append(ctx, key, req.Messages...); err != nil {
		return nil, err
	}

	history, err := s.history(ctx, key)
	if err != nil {
		return nil, err
	}

	if err := s.model.EnsureLoaded(ctx); err != nil {
		return nil, err
	}
	text, err := s.model.Generate(ctx, history)
	if err != nil {
		return nil, err
	}

	if err := s.append(ctx, key, models.AssistantMessage(text)); err != nil {
		return nil, err
	}

	reply = &models.ChatReply{Message: text}
	if s.reports != nil {
		if name, ok := s.reports.FindReference(text); ok {
			link := DownloadURL(name)
			reply.PDFURL = &link
		}
	}

	s.log.Info().
		Str("user_id", key.UserID).
		Str("id_session", key.SessionID).
		Int("history", len(history)).
		Bool("pdf", reply.PDFURL != nil).
		Msg("chat turn completed")
	return reply, nil
}

// History returns the stored messages of one session.
func (s *ChatbotService) History(ctx context.Context, key models.SessionKey) ([]models.ChatMessage, error) {
	if err := validSessionKey(key); err != nil {
		return nil, err
	}
	return s.history(ctx, key)
}

// Sessions lists the conversations of a user.
func (s *ChatbotService) Sessions(ctx context.Context, userID string) ([]models.SessionSummary, error) {
	if userID == "" {
		return nil, &ValidationError{Field: "user_id", Reason: "is required"}
	}
	ctx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	sessions, err := s.store.ListSessions(ctx, userID)
	if err != nil {
		return nil, &StorageError{Op: "list sessions", Err: err}
	}
	return sessions, nil
}

func (s *ChatbotService) append(ctx context.Context, key models.SessionKey, msgs ...models.ChatMessage) error {
	ctx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	if err := s.store.Append(ctx, key, msgs...); err != nil {
		return &StorageError{Op: "append", Err: err}
	}
	return nil
}

func (s *ChatbotService) history(ctx context.Context, key models.SessionKey) ([]models.ChatMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	history, err := s.store.GetHistory(ctx, key)
	if err != nil {
		return nil, &StorageError{Op: "get history", Err: err}
	}
	return history, nil
}

func validSessionKey(key models.SessionKey) error {
	if key.UserID == "" {
		return &ValidationError{Field: "user_id", Reason: "is required"}
	}
	if key.SessionID == "" {
		return &ValidationError{Field: "id_session", Reason: "is required"}
	}
	return nil
}

// sessionLocks serializes turns of the same session so a concurrent
// request cannot interleave its append with another turn's history read.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[models.SessionKey]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[models.SessionKey]*sessionLock)}
}

func (l *sessionLocks) lock(key models.SessionKey) func() {
	l.mu.Lock()
	sl, ok := l.locks[key]
	if !ok {
		sl = &sessionLock{}
		l.locks[key] = sl
	}
	sl.refs++
	l.mu.Unlock()

	sl.mu.Lock()
	return func() {
		sl.mu.Unlock()

		l.mu.Lock()
		sl.refs--
		if sl.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}
