// Package llm abstracts the language-model providers behind a single
// generate contract. Three variants exist: a deterministic mock and two
// OpenAI-compatible chat-completions backends (Groq, OpenAI).
package llm

import (
	"context"
	"errors"
)

// ErrEmptyCompletion is returned when a provider answered but carried no
// usable text content.
var ErrEmptyCompletion = errors.New("provider returned empty completion")

// Prompt is a fully rendered request for one answer. Question and Context
// repeat information already embedded in System/User so the mock provider
// can work without parsing prompt text back apart.
type Prompt struct {
	System   string
	User     string
	Question string
	Context  string
}

// Provider produces one completion for a prompt. Implementations make a
// single synchronous call; callers own fallback behavior.
type Provider interface {
	Name() string
	Generate(ctx context.Context, p Prompt) (string, error)
}
