package churn

import (
	"math"

	"github.com/ignite/loyalty-crm/internal/domain"
)

// Risk factor descriptions. Strategies are looked up by these exact strings.
const (
	FactorNewNoPurchases      = "New user with no purchase history"
	FactorNoPurchases         = "No purchases despite being registered for some time"
	FactorExtendedInactivity  = "Extended inactivity (90+ days)"
	FactorSignificantInactive = "Significant inactivity (60+ days)"
	FactorModerateInactivity  = "Moderate inactivity (30+ days)"
	FactorVeryLowEngagement   = "Very low engagement score"
	FactorLowEngagement       = "Below average engagement"
	FactorStoppedPurchasing   = "Customer has stopped making purchases"
	FactorVeryLowFrequency    = "Very low purchase frequency"
	FactorInfrequent          = "Infrequent purchasing pattern"
	FactorLowOrderValue       = "Low average order value"
)

// Generic strategies appended when the factors produce fewer than two.
const (
	StrategyRequestFeedback = "Request feedback to understand pain points"
	StrategyHighlightNew    = "Highlight new products or features since last visit"
)

// NormalizeSignals zeroes negative, NaN and infinite values and clamps
// engagement to [0,1]. Missing signals stay zero.
func NormalizeSignals(s domain.ChurnSignals) domain.ChurnSignals {
	if s.PurchaseCount < 0 {
		s.PurchaseCount = 0
	}
	s.DaysInactive = nonNegative(s.DaysInactive)
	s.EngagementScore = math.Min(nonNegative(s.EngagementScore), 1)
	s.AvgOrderValue = nonNegative(s.AvgOrderValue)
	s.PurchaseFrequency = nonNegative(s.PurchaseFrequency)
	return s
}

// Fallback is the deterministic churn estimate.
//
// Customers without purchases start at 50, rising by half a point per
// inactive day after the first week (capped at 95). Everyone else sums an
// inactivity factor (20/40/60 past 30/60/90 days), an engagement factor
// (15 below 0.5, 30 below 0.2) and a purchase-frequency factor (20 when
// purchases stopped, 15 below 0.3/month, 10 below 0.7/month). An average
// order value in (0,10) adds 10 in both cases.
func Fallback(s domain.ChurnSignals) domain.ChurnRisk {
	s = NormalizeSignals(s)

	var p float64
	factors := []string{}

	if s.PurchaseCount == 0 {
		if s.DaysInactive < 7 {
			p = 50
			factors = append(factors, FactorNewNoPurchases)
		} else {
			p = math.Min(50+s.DaysInactive/2, 95)
			factors = append(factors, FactorNoPurchases)
		}
	} else {
		switch {
		case s.DaysInactive > 90:
			p += 60
			factors = append(factors, FactorExtendedInactivity)
		case s.DaysInactive > 60:
			p += 40
			factors = append(factors, FactorSignificantInactive)
		case s.DaysInactive > 30:
			p += 20
			factors = append(factors, FactorModerateInactivity)
		}

		switch {
		case s.EngagementScore < 0.2:
			p += 30
			factors = append(factors, FactorVeryLowEngagement)
		case s.EngagementScore < 0.5:
			p += 15
			factors = append(factors, FactorLowEngagement)
		}

		switch {
		case s.PurchaseFrequency == 0:
			p += 20
			factors = append(factors, FactorStoppedPurchasing)
		case s.PurchaseFrequency < 0.3:
			p += 15
			factors = append(factors, FactorVeryLowFrequency)
		case s.PurchaseFrequency < 0.7:
			p += 10
			factors = append(factors, FactorInfrequent)
		}
	}

	if s.AvgOrderValue > 0 && s.AvgOrderValue < 10 {
		p += 10
		factors = append(factors, FactorLowOrderValue)
	}

	prob := ClampProbability(p)
	return domain.ChurnRisk{
		ChurnProbability:    prob,
		RiskLevel:           domain.RiskLevelFor(prob),
		KeyRiskFactors:      factors,
		RetentionStrategies: Strategies(factors),
	}
}

// Strategies maps triggered risk factors to retention strategies, padding
// with the two generic strategies when fewer than two apply.
func Strategies(factors []string) []string {
	has := make(map[string]bool, len(factors))
	for _, f := range factors {
		has[f] = true
	}

	var out []string
	switch {
	case has[FactorExtendedInactivity] || has[FactorSignificantInactive]:
		out = append(out,
			"Send re-engagement email with special offer",
			"Provide significant win-back discount",
		)
	case has[FactorModerateInactivity]:
		out = append(out, "Send reminder email with personalized recommendations")
	}
	if has[FactorVeryLowEngagement] || has[FactorLowEngagement] {
		out = append(out,
			"Improve product onboarding experience",
			"Offer personalized content based on past purchases",
		)
	}
	if has[FactorVeryLowFrequency] || has[FactorInfrequent] {
		out = append(out, "Create time-limited offers to encourage immediate purchase")
	}
	if has[FactorLowOrderValue] {
		out = append(out, "Provide bundle discounts to increase order value")
	}

	if len(out) < 2 {
		out = append(out, StrategyRequestFeedback, StrategyHighlightNew)
	}
	return out
}

// ClampProbability rounds p and clamps it to [0,100].
func ClampProbability(p float64) int {
	if math.IsNaN(p) {
		return 0
	}
	return int(math.Max(0, math.Min(100, math.Round(p))))
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
