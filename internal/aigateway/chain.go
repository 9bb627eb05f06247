package aigateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/ignite/loyalty-crm/internal/pkg/logger"
)

// Provider is a named Generator inside a Chain.
type Provider struct {
	Name      string
	Generator Generator
}

// Chain tries each provider in order and returns the first successful,
// non-empty answer.
type Chain struct {
	providers []Provider
}

// NewChain builds a Chain. An empty chain behaves like Disabled.
func NewChain(providers ...Provider) *Chain {
	return &Chain{providers: providers}
}

// Len returns the number of providers in the chain.
func (c *Chain) Len() int { return len(c.providers) }

// Generate tries each provider in order. When all fail, the returned error
// joins every provider error. It matches ErrRateLimited only if every
// provider was rate limited.
func (c *Chain) Generate(ctx context.Context, prompt string) (string, error) {
	if len(c.providers) == 0 {
		return "", ErrNoProvider
	}

	var errs []error
	allLimited := true
	for _, p := range c.providers {
		text, err := p.Generator.Generate(ctx, prompt)
		if err == nil && text == "" {
			err = ErrEmptyResponse
		}
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		logger.Warn("ai provider failed, trying next", "provider", p.Name, "error", err)
		if !IsRateLimited(err) {
			allLimited = false
		}
		errs = append(errs, fmt.Errorf("%s: %v", p.Name, err))
	}

	joined := errors.Join(errs...)
	if allLimited {
		return "", fmt.Errorf("%w: %v", ErrRateLimited, joined)
	}
	return "", joined
}
