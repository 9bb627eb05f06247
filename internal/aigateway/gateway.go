// Package aigateway is the boundary to hosted text-generation models.
//
// Everything above this package sees a single method, Generate(prompt) ->
// text. Provider adapters (Gemini on Vertex AI, AWS Bedrock, OpenAI) translate
// their SDK errors so that quota exhaustion surfaces as ErrRateLimited and
// everything else as an opaque failure the caller recovers from locally.
package aigateway

import (
	"context"
	"errors"
	"strings"
)

// Generator produces free-form text for a prompt. Implementations must be
// safe for concurrent use.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Func adapts an ordinary function to the Generator interface.
type Func func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f Func) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

var (
	// ErrRateLimited marks provider quota or 429 responses.
	ErrRateLimited = errors.New("ai provider rate limited")
	// ErrNoProvider is returned when no provider is configured.
	ErrNoProvider = errors.New("no ai provider configured")
	// ErrEmptyResponse is returned when a provider answers with no text.
	ErrEmptyResponse = errors.New("ai provider returned empty response")
)

// IsRateLimited reports whether err signals a rate-limit condition.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// rateLimitedText is the last-resort classifier for SDK errors that carry
// no typed status code.
func rateLimitedText(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "resource exhausted") ||
		strings.Contains(msg, "resource_exhausted") ||
		strings.Contains(msg, "quota")
}

// Static returns the same text (or error) for every prompt and records the
// prompts it saw. Used by tests and the offline CLI.
type Static struct {
	Text string
	Err  error

	prompts chan string
}

// NewStatic returns a Static generator answering with text.
func NewStatic(text string) *Static {
	return &Static{Text: text, prompts: make(chan string, 64)}
}

// NewFailing returns a Static generator that always fails with err.
func NewFailing(err error) *Static {
	return &Static{Err: err, prompts: make(chan string, 64)}
}

// Generate returns s.Text or s.Err.
func (s *Static) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.prompts != nil {
		select {
		case s.prompts <- prompt:
		default:
		}
	}
	if s.Err != nil {
		return "", s.Err
	}
	return s.Text, nil
}

// LastPrompt returns the most recent recorded prompt, or "" if none.
func (s *Static) LastPrompt() string {
	var last string
	for {
		select {
		case p := <-s.prompts:
			last = p
		default:
			return last
		}
	}
}

// Disabled is the Generator used when no provider is configured. Every call
// fails fast with ErrNoProvider so callers go straight to their fallback.
type Disabled struct{}

// Generate always returns ErrNoProvider.
func (Disabled) Generate(context.Context, string) (string, error) {
	return "", ErrNoProvider
}
