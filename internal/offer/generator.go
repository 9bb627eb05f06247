// Package offer produces personalized promotional offers: AI first, with
// deterministic fallbacks when the model is unreachable or answers with
// something that is not an offer.
package offer

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ignite/loyalty-crm/internal/aigateway"
	"github.com/ignite/loyalty-crm/internal/domain"
	"github.com/ignite/loyalty-crm/internal/pkg/logger"
	"github.com/ignite/loyalty-crm/internal/prompt"
	"github.com/ignite/loyalty-crm/internal/scoring"
)

// Strategy selects the deterministic offer used when the AI answer cannot
// be parsed.
type Strategy string

const (
	StrategyRich    Strategy = "rich"
	StrategyBasic   Strategy = "basic"
	StrategySalvage Strategy = "salvage"
)

// ParseStrategy maps a config value to a Strategy; unknown values give
// StrategyRich.
func ParseStrategy(s string) Strategy {
	switch Strategy(s) {
	case StrategyBasic, StrategySalvage:
		return Strategy(s)
	default:
		return StrategyRich
	}
}

// Sources reported by GenerateWithSource.
const (
	SourceAI        = "ai"
	SourceFallback  = "fallback"
	SourceEmergency = "emergency"
)

// Generator builds offers for scored profiles.
type Generator struct {
	gen           aigateway.Generator
	prompts       *prompt.Renderer
	parseFallback Strategy
	now           func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithParseFallback selects the offer used when the AI answer is unparsable.
func WithParseFallback(s Strategy) Option {
	return func(g *Generator) { g.parseFallback = s }
}

// WithClock overrides time.Now for expiration dates.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithRenderer overrides the prompt renderer.
func WithRenderer(r *prompt.Renderer) Option {
	return func(g *Generator) { g.prompts = r }
}

// NewGenerator creates a Generator. A nil gateway means every offer comes
// from BasicFallback.
func NewGenerator(gen aigateway.Generator, opts ...Option) *Generator {
	if gen == nil {
		gen = aigateway.Disabled{}
	}
	g := &Generator{
		gen:           gen,
		prompts:       prompt.Default(),
		parseFallback: StrategyRich,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns an offer for p. It never fails: gateway errors yield
// BasicFallback, unparsable answers the configured parse fallback, and a
// parsed answer is repaired with Validate.
func (g *Generator) Generate(ctx context.Context, p domain.CustomerProfile) domain.Offer {
	o, _ := g.GenerateWithSource(ctx, p)
	return o
}

// GenerateWithSource is Generate plus where the offer came from.
func (g *Generator) GenerateWithSource(ctx context.Context, p domain.CustomerProfile) (domain.Offer, string) {
	p = scoring.Normalize(p)
	if !p.Category.Valid() {
		r := scoring.Compute(p)
		p.LoyaltyScore, p.Category = r.Score, r.Category
	}
	now := g.now()

	text, err := g.ask(ctx, p)
	if err != nil {
		logger.Warn("offer generation failed, using emergency offer", "category", string(p.Category), "error", err)
		return BasicFallback(p, now), SourceEmergency
	}

	var o domain.Offer
	if err := aigateway.ExtractJSON(text, &o); err != nil {
		logger.Warn("offer response unparsable, using fallback", "category", string(p.Category), "strategy", string(g.parseFallback), "error", err)
		return g.fallback(text, p, now), SourceFallback
	}
	return Validate(o, p, now), SourceAI
}

func (g *Generator) ask(ctx context.Context, p domain.CustomerProfile) (string, error) {
	text, err := g.prompts.Render(prompt.Offer, bindings(p))
	if err != nil {
		return "", fmt.Errorf("build offer prompt: %w", err)
	}
	return g.gen.Generate(ctx, text)
}

func (g *Generator) fallback(text string, p domain.CustomerProfile, now time.Time) domain.Offer {
	switch g.parseFallback {
	case StrategyBasic:
		return BasicFallback(p, now)
	case StrategySalvage:
		return Salvage(text, p, now)
	default:
		return RichFallback(p, now)
	}
}

func bindings(p domain.CustomerProfile) map[string]interface{} {
	return map[string]interface{}{
		"loyalty_score":          p.LoyaltyScore,
		"category":               string(p.Category),
		"days_inactive":          math.Round(p.DaysInactive),
		"total_spent":            p.TotalSpent,
		"avg_order_value":        p.AvgOrderValue,
		"purchase_frequency":     p.PurchaseFrequency,
		"purchase_count":         p.PurchaseCount,
		"segment":                BehavioralSegment(p),
		"preferred_categories":   p.PreferredCategories,
		"insights":               Insights(p),
		"suggested_discount":     SuggestedDiscount(p),
		"timing_strategy":        TimingStrategy(p),
		"recommended_categories": RecommendedCategories(p),
	}
}
