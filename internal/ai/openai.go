package ai

import (
	"context"
	"errors"
	"fmt"
	"io"

	"chatbot-api/backend/pkg/config"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider streams chat completions from the OpenAI API
type OpenAIProvider struct {
	client      *openai.Client
	maxTokens   int
	temperature float32
}

// NewOpenAIProvider creates a provider from the application configuration
func NewOpenAIProvider() (*OpenAIProvider, error) {
	cfg := config.Get()
	if cfg.Provider.APIKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}

	clientConfig := openai.DefaultConfig(cfg.Provider.APIKey)
	if cfg.Provider.BaseURL != "" {
		clientConfig.BaseURL = cfg.Provider.BaseURL
	}

	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(clientConfig),
		maxTokens:   cfg.Provider.MaxTokens,
		temperature: float32(cfg.Provider.Temperature),
	}, nil
}

// StreamChat implements streaming chat completion
func (p *OpenAIProvider) StreamChat(ctx context.Context, messages []Message, model string) (<-chan StreamResponse, error) {
	responseChan := make(chan StreamResponse)

	openaiMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		openaiMessages = append(openaiMessages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    openaiMessages,
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
		Stream:      true,
	}

	go func() {
		defer close(responseChan)

		// The relay may stop reading at any moment, so every send must
		// also watch ctx or the goroutine leaks
		send := func(r StreamResponse) bool {
			select {
			case responseChan <- r:
				return true
			case <-ctx.Done():
				return false
			}
		}

		stream, err := p.client.CreateChatCompletionStream(ctx, req)
		if err != nil {
			send(StreamResponse{Err: fmt.Errorf("failed to create stream: %w", err)})
			return
		}
		defer stream.Close()

		for {
			response, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				send(StreamResponse{Done: true})
				return
			}
			if err != nil {
				// ctx cancellation surfaces here as well; the relay has
				// already stopped reading in that case
				send(StreamResponse{Err: fmt.Errorf("stream error: %w", err)})
				return
			}

			if len(response.Choices) > 0 {
				content := response.Choices[0].Delta.Content
				if content != "" && !send(StreamResponse{Content: content}) {
					return
				}
			}
		}
	}()

	return responseChan, nil
}
