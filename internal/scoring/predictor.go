package scoring

import (
	"context"
	"math"
	"regexp"
	"strconv"

	"github.com/ignite/loyalty-crm/internal/aigateway"
	"github.com/ignite/loyalty-crm/internal/domain"
	"github.com/ignite/loyalty-crm/internal/pkg/logger"
	"github.com/ignite/loyalty-crm/internal/prompt"
)

// Prediction sources.
const (
	SourceAI  = "ai"
	SourceRFM = "rfm"
)

// Prediction is an AI or RFM loyalty score.
type Prediction struct {
	Score  int    `json:"loyaltyScore"`
	Source string `json:"source"`
}

// noNumberScore is used when the model answers without any number.
const noNumberScore = 50

var firstNumber = regexp.MustCompile(`\d+(\.\d+)?`)

// Predictor asks the AI gateway for a loyalty score and falls back to
// RFMScore when the call fails.
type Predictor struct {
	gen     aigateway.Generator
	prompts *prompt.Renderer
}

// NewPredictor creates a Predictor. A nil generator means RFM only.
func NewPredictor(gen aigateway.Generator) *Predictor {
	if gen == nil {
		gen = aigateway.Disabled{}
	}
	return &Predictor{gen: gen, prompts: prompt.Default()}
}

// Predict returns the AI score when the gateway answers, otherwise the RFM
// score. It never fails.
func (p *Predictor) Predict(ctx context.Context, profile domain.CustomerProfile) Prediction {
	profile = Normalize(profile)

	text, err := p.prompts.Render(prompt.Loyalty, loyaltyBindings(profile))
	if err == nil {
		text, err = p.gen.Generate(ctx, text)
	}
	if err != nil {
		logger.Warn("loyalty prediction falling back to RFM", "error", err)
		return Prediction{Score: RFMScore(profile), Source: SourceRFM}
	}

	return Prediction{Score: parseScore(text), Source: SourceAI}
}

func parseScore(text string) int {
	m := firstNumber.FindString(text)
	if m == "" {
		return noNumberScore
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return noNumberScore
	}
	return clampScore(math.Round(math.Max(0, math.Min(100, v))))
}

// RFMScore is the traditional recency/frequency/monetary score, weighted with
// engagement and feedback and scaled down for customers younger than a year.
func RFMScore(p domain.CustomerProfile) int {
	p = Normalize(p)

	recency := math.Max(0, 100-p.DaysInactive*2)
	frequency := math.Min(100, float64(p.PurchaseCount)*20)
	monetary := math.Min(100, p.TotalSpent/1000*50)
	engagement := p.EngagementScore * 100
	feedback := p.FeedbackScore / 5 * 100

	lifetime := p.CustomerLifetime
	if lifetime <= 0 {
		lifetime = 1
	}
	clv := math.Min(1, lifetime/365)

	score := (recency*0.3 + frequency*0.25 + monetary*0.2 + engagement*0.15 + feedback*0.1) * clv
	return clampScore(math.Round(score))
}

func loyaltyBindings(p domain.CustomerProfile) map[string]interface{} {
	returnRate := 0.0
	if p.Returns > 0 && p.PurchaseCount > 0 {
		returnRate = float64(p.Returns) / float64(p.PurchaseCount) * 100
	}
	return map[string]interface{}{
		"purchase_count":     p.PurchaseCount,
		"total_spent":        p.TotalSpent,
		"avg_order_value":    p.AvgOrderValue,
		"purchase_frequency": p.PurchaseFrequency,
		"customer_lifetime":  p.CustomerLifetime,
		"return_rate":        returnRate,
		"days_inactive":      math.Round(p.DaysInactive),
		"engagement_score":   p.EngagementScore,
		"feedback_score":     p.FeedbackScore,
	}
}
