package llm

import "context"

// Chat roles understood by the backend
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

// Response carries the conversation as seen by the model after the call:
// the request messages followed by the generated ones. The answer is the
// last message.
type Response struct {
	Messages         []Message
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

type Client interface {
	Invoke(ctx context.Context, messages []Message) (Response, error)
}
