package churn

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ignite/loyalty-crm/internal/aigateway"
	"github.com/ignite/loyalty-crm/internal/domain"
)

var dormant = domain.ChurnSignals{PurchaseCount: 5, DaysInactive: 95, EngagementScore: 0.1}

func TestEstimate_AcceptsAI(t *testing.T) {
	gen := aigateway.NewStatic(`Here is the analysis: {"churnProbability": 64.4, "riskLevel": "high", "keyRiskFactors": ["Long inactivity"], "retentionStrategies": ["Call them"]}`)
	got, source := NewEstimator(gen).EstimateWithSource(context.Background(), dormant)

	assert.Equal(t, SourceAI, source)
	assert.Equal(t, domain.ChurnRisk{
		ChurnProbability:    64,
		RiskLevel:           domain.RiskMedium,
		KeyRiskFactors:      []string{"Long inactivity"},
		RetentionStrategies: []string{"Call them"},
	}, got)
}

func TestEstimate_ClampsAI(t *testing.T) {
	gen := aigateway.NewStatic(`{"churnProbability": 180, "riskLevel": "low", "keyRiskFactors": []}`)
	got := NewEstimator(gen).Estimate(context.Background(), dormant)
	assert.Equal(t, 100, got.ChurnProbability)
	assert.Equal(t, domain.RiskHigh, got.RiskLevel)
	assert.Equal(t, []string{StrategyRequestFeedback, StrategyHighlightNew}, got.RetentionStrategies)
}

func TestEstimate_RejectsSentinels(t *testing.T) {
	for _, body := range []string{
		`{"churnProbability": 95, "riskLevel": "high"}`,
		`{"churnProbability": 0, "riskLevel": "low"}`,
		`{"riskLevel": "low"}`,
		`not json at all`,
		`{"churnProbability": "high"}`,
	} {
		got, source := NewEstimator(aigateway.NewStatic(body)).EstimateWithSource(context.Background(), dormant)
		assert.Equal(t, SourceFallback, source, body)
		assert.Equal(t, Fallback(dormant), got, body)
	}
}

func TestEstimate_GatewayFailure(t *testing.T) {
	got, source := NewEstimator(aigateway.NewFailing(errors.New("timeout"))).EstimateWithSource(context.Background(), dormant)
	assert.Equal(t, SourceFallback, source)
	assert.Equal(t, 100, got.ChurnProbability)
	assert.Equal(t, domain.RiskHigh, got.RiskLevel)
}

func TestEstimate_NilGateway(t *testing.T) {
	got := NewEstimator(nil).Estimate(context.Background(), domain.ChurnSignals{DaysInactive: 3})
	assert.Equal(t, 50, got.ChurnProbability)
}

func TestEstimate_PromptAnnotations(t *testing.T) {
	gen := aigateway.NewStatic("{}")
	NewEstimator(gen).Estimate(context.Background(), domain.ChurnSignals{DaysInactive: 120.4})

	p := gen.LastPrompt()
	assert.Contains(t, p, "Customer has made no purchases yet")
	assert.Contains(t, p, "Purchase frequency is zero")
	assert.Contains(t, p, "Customer inactive for 120 days")
	assert.Contains(t, p, "Days since last purchase: 120\n")
}
