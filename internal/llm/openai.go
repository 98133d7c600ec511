package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// ErrEmptyCompletion is returned when the backend answers without choices
var ErrEmptyCompletion = errors.New("completion returned no choices")

// OpenAIClient talks to any OpenAI compatible chat completion endpoint
type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAI(apiKey, baseURL, model string) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// Probe checks that the configured model is served by the backend.
func (c *OpenAIClient) Probe(ctx context.Context) error {
	if _, err := c.client.GetModel(ctx, c.model); err != nil {
		return fmt.Errorf("model %q unavailable: %w", c.model, err)
	}
	return nil
}

func (c *OpenAIClient) Invoke(ctx context.Context, messages []Message) (Response, error) {
	oaMsgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		oaMsgs = append(oaMsgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: oaMsgs,
	})
	if err != nil {
		return Response{}, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, ErrEmptyCompletion
	}

	out := Response{
		Messages:         make([]Message, 0, len(messages)+1),
		Model:            resp.Model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	out.Messages = append(out.Messages, messages...)
	msg := resp.Choices[0].Message
	out.Messages = append(out.Messages, Message{Role: msg.Role, Content: msg.Content})
	return out, nil
}
