package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/Ananth-NQI/market-analyst-backend/internal/llm"
	"github.com/Ananth-NQI/market-analyst-backend/internal/metrics"
	"github.com/Ananth-NQI/market-analyst-backend/internal/models"
)

var (
	ErrModelNotLoaded = errors.New("model is not loaded")
	ErrNoModelHandle  = errors.New("loader returned no model handle")
	ErrEmptyResponse  = errors.New("model returned an empty response")
)

// Loader produces the model handle. It may be slow and is called at most
// once per successful load.
type Loader func(ctx context.Context) (llm.Client, error)

// OpenAILoader builds an OpenAI compatible client and, when probe is set,
// checks that the model is served before handing it out.
func OpenAILoader(apiKey, baseURL, model string, probe bool) Loader {
	return func(ctx context.Context) (llm.Client, error) {
		client := llm.NewOpenAI(apiKey, baseURL, model)
		if probe {
			if err := client.Probe(ctx); err != nil {
				return nil, err
			}
		}
		return client, nil
	}
}

// ModelService owns the lazily loaded model handle and turns chat
// histories into model calls.
type ModelService struct {
	loader       Loader
	systemPrompt string
	timeout      time.Duration
	log          zerolog.Logger
	metrics      *metrics.Metrics

	loads  singleflight.Group
	mu     sync.RWMutex
	client llm.Client
}

func NewModelService(loader Loader, systemPrompt string, timeout time.Duration, log zerolog.Logger, m *metrics.Metrics) *ModelService {
	return &ModelService{
		loader:       loader,
		systemPrompt: systemPrompt,
		timeout:      timeout,
		log:          log.With().Str("component", "model").Logger(),
		metrics:      m,
	}
}

func (s *ModelService) handle() llm.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

// Loaded reports whether the handle is ready.
func (s *ModelService) Loaded() bool {
	return s.handle() != nil
}

// EnsureLoaded loads the model handle if it is absent. Concurrent callers
// share a single load; a failed load leaves the handle absent so the next
// call retries.
func (s *ModelService) EnsureLoaded(ctx context.Context) error {
	if s.Loaded() {
		return nil
	}

	_, err, _ := s.loads.Do("model", func() (interface{}, error) {
		if c := s.handle(); c != nil {
			return c, nil
		}

		// The load is shared by every waiting caller, so it must not die
		// with the first caller's request.
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()

		start := time.Now()
		c, err := s.loader(loadCtx)
		if err == nil && c == nil {
			err = ErrNoModelHandle
		}
		s.metrics.ObserveModelLoad(err)
		if err != nil {
			s.log.Error().Err(err).Msg("model load failed")
			return nil, &ModelLoadError{Err: err}
		}

		s.mu.Lock()
		s.client = c
		s.mu.Unlock()

		s.log.Info().Dur("took", time.Since(start)).Msg("model loaded")
		return c, nil
	})
	return err
}

// BuildMessages prefixes the history with the system prompt and maps the
// two domain roles onto backend roles.
func (s *ModelService) BuildMessages(history []models.ChatMessage) []llm.Message {
	out := make([]llm.Message, 0, len(history)+1)
	out = append(out, llm.Message{Role: llm.RoleSystem, Content: s.systemPrompt})
	for _, m := range history {
		role := llm.RoleAssistant
		if m.Role == models.RoleUser {
			role = llm.RoleUser
		}
		out = append(out, llm.Message{Role: role, Content: m.Text})
	}
	return out
}

// Generate sends the full history to the model and returns the text of the
// final response message.
func (s *ModelService) Generate(ctx context.Context, history []models.ChatMessage) (string, error) {
	client := s.handle()
	if client == nil {
		return "", &GenerationError{Err: ErrModelNotLoaded}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	resp, err := client.Invoke(ctx, s.BuildMessages(history))
	s.metrics.ObserveGeneration(time.Since(start))
	if err != nil {
		return "", &GenerationError{Err: err}
	}

	answer, err := finalAnswer(resp)
	if err != nil {
		return "", &GenerationError{Err: err}
	}

	s.log.Debug().
		Int("history", len(history)).
		Int("total_tokens", resp.TotalTokens).
		Dur("took", time.Since(start)).
		Msg("generated reply")
	return answer, nil
}

func finalAnswer(resp llm.Response) (string, error) {
	if len(resp.Messages) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Messages[len(resp.Messages)-1].Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
