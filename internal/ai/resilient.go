package ai

import (
	"context"

	"chatbot-api/backend/pkg/logger"
	"chatbot-api/backend/pkg/resilience"
)

// ResilientProvider guards stream initiation with a circuit breaker. Only
// the opening call is guarded; once a stream is established, mid-stream
// errors belong to that stream alone.
type ResilientProvider struct {
	inner   Provider
	breaker *resilience.CircuitBreaker
}

func NewResilientProvider(inner Provider, log *logger.Logger) *ResilientProvider {
	return &ResilientProvider{
		inner:   inner,
		breaker: resilience.New(resilience.DefaultConfig("completion-provider"), log),
	}
}

func (p *ResilientProvider) StreamChat(ctx context.Context, messages []Message, model string) (<-chan StreamResponse, error) {
	var out <-chan StreamResponse
	err := p.breaker.Execute(func() error {
		ch, err := p.inner.StreamChat(ctx, messages, model)
		if err != nil {
			return err
		}
		out = ch
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
