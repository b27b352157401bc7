package llm

import "context"

type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// StreamCallback receives one chunk of generated text. Returning an
// error aborts the stream.
type StreamCallback func(chunk string) error

// Client defines the standard interface for any LLM backend.
type Client interface {
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)
	GenerateStream(ctx context.Context, prompt string, params GenerationParams, cb StreamCallback) error
}
