// Package scoring turns customer signals into a bounded loyalty score and a
// lifecycle category.
//
// Everything here is a pure function of its inputs: no I/O, no clock, no
// shared state. Normalize is the only place missing or out-of-range signals
// are defaulted; Compute and the helpers assume a normalized profile and
// normalize again when handed a raw one.
package scoring

import (
	"math"

	"github.com/ignite/loyalty-crm/internal/domain"
)

const (
	// DefaultEngagement stands in for a missing engagement score.
	DefaultEngagement = 0.5

	MaxScore = 100

	// Inactivity beyond this many days decays the score and forces at
	// least At-Risk.
	InactivityGraceDays = 30

	churnedBelow = 30
	atRiskBelow  = 50
)

// Result is the output of Compute.
type Result struct {
	Score    int
	Category domain.Category
}

// Normalize returns a copy of p with every signal in range: negative or NaN
// numbers become zero, a non-positive engagement becomes DefaultEngagement,
// engagement is clamped to [0,1] and feedback to [0,5]. AvgOrderValue and
// PurchaseFrequency are derived when not supplied.
func Normalize(p domain.CustomerProfile) domain.CustomerProfile {
	if p.PurchaseCount < 0 {
		p.PurchaseCount = 0
	}
	if p.Returns < 0 {
		p.Returns = 0
	}
	p.TotalSpent = nonNegative(p.TotalSpent)
	p.DaysInactive = nonNegative(p.DaysInactive)
	p.FeedbackScore = math.Min(nonNegative(p.FeedbackScore), 5)
	p.AvgOrderValue = nonNegative(p.AvgOrderValue)
	p.PurchaseFrequency = nonNegative(p.PurchaseFrequency)
	p.CustomerLifetime = nonNegative(p.CustomerLifetime)

	p.EngagementScore = nonNegative(p.EngagementScore)
	if p.EngagementScore == 0 {
		p.EngagementScore = DefaultEngagement
	}
	p.EngagementScore = math.Min(p.EngagementScore, 1)

	if p.AvgOrderValue == 0 && p.PurchaseCount > 0 {
		p.AvgOrderValue = p.TotalSpent / float64(p.PurchaseCount)
	}
	if p.PurchaseFrequency == 0 && p.CustomerLifetime > 0 {
		p.PurchaseFrequency = float64(p.PurchaseCount) / p.CustomerLifetime * 30
	}
	return p
}

// Compute scores a profile and assigns its category.
func Compute(p domain.CustomerProfile) Result {
	p = Normalize(p)

	score := Score(p)
	return Result{
		Score:    score,
		Category: Categorize(score, p.EngagementScore, p.DaysInactive),
	}
}

// Score is the loyalty score alone:
//
//	purchases*10 + feedback*4 + engagement*50 + min(spent/10, 100)
//
// decayed by max(0.5, 1-(days-30)/60) past 30 inactive days, rounded and
// clamped to [0,100].
func Score(p domain.CustomerProfile) int {
	p = Normalize(p)

	base := float64(p.PurchaseCount)*10 +
		p.FeedbackScore*4 +
		p.EngagementScore*50 +
		math.Min(p.TotalSpent/10, 100)

	if p.DaysInactive > InactivityGraceDays {
		base *= math.Max(0.5, 1-(p.DaysInactive-InactivityGraceDays)/60)
	}

	return clampScore(math.Round(base))
}

// Categorize maps a score and the engagement/recency signals to a category.
// Churned takes precedence over At-Risk.
func Categorize(score int, engagement, daysInactive float64) domain.Category {
	switch {
	case score < churnedBelow:
		return domain.CategoryChurned
	case score < atRiskBelow, engagement < 0.5, daysInactive > InactivityGraceDays:
		return domain.CategoryAtRisk
	default:
		return domain.CategoryLoyal
	}
}

func clampScore(v float64) int {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > MaxScore:
		return MaxScore
	default:
		return int(v)
	}
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
