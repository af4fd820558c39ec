package llm

import (
	"context"
	"errors"
)

// ErrMissingAPIKey is returned when a provider is built without credentials.
var ErrMissingAPIKey = errors.New("language model api key is empty")

// Options are the sampling parameters of a single call.
type Options struct {
	SystemPrompt    string
	Temperature     float64
	TopP            float64
	TopK            int
	MaxOutputTokens int
}

// Client sends a prompt to a language model and returns its text reply.
type Client interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, prompt string, opts Options) (string, error)

func (f ClientFunc) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	return f(ctx, prompt, opts)
}
