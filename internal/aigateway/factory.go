package aigateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/ignite/loyalty-crm/internal/config"
	"github.com/ignite/loyalty-crm/internal/pkg/httpretry"
	"github.com/ignite/loyalty-crm/internal/pkg/logger"
)

// FromConfig builds the provider chain named by cfg.Providers. Providers
// that cannot be constructed are skipped with a warning. With nothing usable
// the result is Disabled.
func FromConfig(ctx context.Context, cfg config.AIConfig) Generator {
	httpClient := httpretry.NewClient(cfg.Timeout(), cfg.MaxRetries)

	var providers []Provider
	for _, name := range cfg.Providers {
		var (
			g   Generator
			err error
		)
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "gemini":
			g, err = NewGemini(ctx, GeminiOptions{
				Model:      cfg.Gemini.Model,
				Project:    cfg.Gemini.Project,
				Location:   cfg.Gemini.Location,
				APIKey:     cfg.Gemini.APIKey,
				HTTPClient: httpClient,
			})
		case "bedrock":
			g, err = NewBedrock(ctx, cfg.Bedrock.Region, cfg.Bedrock.ModelID)
		case "openai":
			g, err = NewOpenAI(cfg.OpenAI.APIKey, cfg.OpenAI.Model, "", httpClient)
		default:
			err = fmt.Errorf("unknown provider %q", name)
		}
		if err != nil {
			logger.Warn("ai provider unavailable", "provider", name, "error", err)
			continue
		}
		providers = append(providers, Provider{Name: name, Generator: g})
		logger.Info("ai provider enabled", "provider", name)
	}

	if len(providers) == 0 {
		logger.Warn("no ai provider configured, using deterministic fallbacks only")
		return Disabled{}
	}
	return NewChain(providers...)
}
