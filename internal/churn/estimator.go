// Package churn estimates how likely a customer is to stop buying. The AI
// gateway is asked first; its answer is accepted only when it parses and does
// not look like a canned default, otherwise Fallback decides.
package churn

import (
	"context"
	"fmt"
	"math"

	"github.com/ignite/loyalty-crm/internal/aigateway"
	"github.com/ignite/loyalty-crm/internal/domain"
	"github.com/ignite/loyalty-crm/internal/pkg/logger"
	"github.com/ignite/loyalty-crm/internal/prompt"
)

// Sources reported by EstimateWithSource.
const (
	SourceAI       = "ai"
	SourceFallback = "fallback"
)

// Probabilities the model tends to return when it did not look at the data.
var sentinelProbabilities = map[float64]bool{0: true, 95: true}

// Estimator produces churn estimates.
type Estimator struct {
	gen     aigateway.Generator
	prompts *prompt.Renderer
}

// NewEstimator creates an Estimator. A nil gateway means fallback only.
func NewEstimator(gen aigateway.Generator) *Estimator {
	if gen == nil {
		gen = aigateway.Disabled{}
	}
	return &Estimator{gen: gen, prompts: prompt.Default()}
}

// Estimate never fails: any gateway or parse problem yields Fallback.
func (e *Estimator) Estimate(ctx context.Context, s domain.ChurnSignals) domain.ChurnRisk {
	r, _ := e.EstimateWithSource(ctx, s)
	return r
}

// aiChurnRisk mirrors domain.ChurnRisk but accepts fractional
// probabilities from the model.
type aiChurnRisk struct {
	ChurnProbability    *float64 `json:"churnProbability"`
	RiskLevel           string   `json:"riskLevel"`
	KeyRiskFactors      []string `json:"keyRiskFactors"`
	RetentionStrategies []string `json:"retentionStrategies"`
}

// EstimateWithSource is Estimate plus where the result came from.
func (e *Estimator) EstimateWithSource(ctx context.Context, s domain.ChurnSignals) (domain.ChurnRisk, string) {
	s = NormalizeSignals(s)

	text, err := e.prompts.Render(prompt.Churn, bindings(s))
	if err == nil {
		text, err = e.gen.Generate(ctx, text)
	}
	if err != nil {
		logger.Warn("churn estimation failed, using fallback", "error", err)
		return Fallback(s), SourceFallback
	}

	risk, err := parse(text)
	if err != nil {
		logger.Warn("churn response rejected, using fallback", "error", err)
		return Fallback(s), SourceFallback
	}
	return risk, SourceAI
}

func parse(text string) (domain.ChurnRisk, error) {
	var raw aiChurnRisk
	if err := aigateway.ExtractJSON(text, &raw); err != nil {
		return domain.ChurnRisk{}, err
	}
	if raw.ChurnProbability == nil {
		return domain.ChurnRisk{}, fmt.Errorf("churnProbability missing")
	}
	if sentinelProbabilities[*raw.ChurnProbability] {
		return domain.ChurnRisk{}, fmt.Errorf("churnProbability %v looks like a default", *raw.ChurnProbability)
	}

	prob := ClampProbability(*raw.ChurnProbability)
	risk := domain.ChurnRisk{
		ChurnProbability:    prob,
		RiskLevel:           domain.RiskLevelFor(prob),
		KeyRiskFactors:      raw.KeyRiskFactors,
		RetentionStrategies: raw.RetentionStrategies,
	}
	if risk.KeyRiskFactors == nil {
		risk.KeyRiskFactors = []string{}
	}
	if len(risk.RetentionStrategies) == 0 {
		risk.RetentionStrategies = Strategies(risk.KeyRiskFactors)
	}
	return risk, nil
}

func bindings(s domain.ChurnSignals) map[string]interface{} {
	var special []string
	if s.PurchaseCount == 0 {
		special = append(special, "Customer has made no purchases yet")
	}
	if s.PurchaseFrequency == 0 {
		special = append(special, "Purchase frequency is zero")
	}
	if s.DaysInactive > 90 {
		special = append(special, fmt.Sprintf("Customer inactive for %d days", int(math.Round(s.DaysInactive))))
	}

	return map[string]interface{}{
		"days_inactive":      math.Round(s.DaysInactive),
		"purchase_count":     s.PurchaseCount,
		"engagement_score":   s.EngagementScore,
		"avg_order_value":    math.Round(s.AvgOrderValue*100) / 100,
		"purchase_frequency": math.Round(s.PurchaseFrequency*100) / 100,
		"special_context":    special,
	}
}
