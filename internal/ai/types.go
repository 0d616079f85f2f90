package ai

import (
	"context"
)

// Message is one entry of the conversation history sent to the provider
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// StreamResponse represents a chunk of streaming response
type StreamResponse struct {
	Content string
	Done    bool
	Err     error
}

// Provider is the completion provider boundary: an ordered message list and
// a model name in, a lazy forward-only fragment sequence out. The channel is
// closed after Done or an error; cancelling ctx stops the stream.
type Provider interface {
	StreamChat(ctx context.Context, messages []Message, model string) (<-chan StreamResponse, error)
}
