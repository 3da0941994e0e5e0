package providers

import (
	"context"
	"fmt"
)

// GenerateRequest contains one single-shot generation call.
type GenerateRequest struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// GenerateResponse contains the raw response from a provider.
type GenerateResponse struct {
	Content    string
	TokensUsed int
}

// Client is the provider abstraction interface.
type Client interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
	Name() string
	Model() string
}

// New creates a provider by name.
func New(provider, model string) (Client, error) {
	switch provider {
	case "openai":
		return NewOpenAI(model)
	case "anthropic":
		return NewAnthropic(model)
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}
