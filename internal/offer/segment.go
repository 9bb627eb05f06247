package offer

import (
	"strings"

	"github.com/ignite/loyalty-crm/internal/domain"
)

// BehavioralSegment names the customer's purchase pattern for the prompt.
func BehavioralSegment(p domain.CustomerProfile) string {
	switch {
	case p.LoyaltyScore >= 80 && p.PurchaseCount > 5:
		return "High-Value Regular"
	case p.LoyaltyScore >= 60 && p.DaysInactive < 30:
		return "Active Loyal"
	case p.DaysInactive > 60 && p.LoyaltyScore > 50:
		return "Dormant High-Value"
	case p.DaysInactive > 30 && p.DaysInactive <= 60:
		return "Recent Churner"
	case p.PurchaseCount <= 2 && p.DaysInactive < 30:
		return "New Customer"
	case p.EngagementScore < 0.3:
		return "Low Engagement Browser"
	default:
		return "Standard Customer"
	}
}

// SuggestedDiscount is the discount band the model is steered towards.
func SuggestedDiscount(p domain.CustomerProfile) string {
	if p.DaysInactive > 90 {
		return "25-30%"
	}
	switch p.Category {
	case domain.CategoryLoyal:
		if p.TotalSpent > 500 {
			return "15-20%"
		}
		return "10-15%"
	case domain.CategoryAtRisk:
		return "15-20%"
	default:
		return "20-25%"
	}
}

// TimingStrategy suggests how long the offer should run.
func TimingStrategy(p domain.CustomerProfile) string {
	switch {
	case p.PurchaseFrequency > 1:
		return "Short timeframe (3-5 days) to create urgency"
	case p.DaysInactive > 60:
		return "Extended timeframe (14 days) with reminder"
	default:
		return "Standard timeframe (7 days)"
	}
}

// RecommendedCategories are the preferred categories, or a generic pair when
// the customer has none.
func RecommendedCategories(p domain.CustomerProfile) []string {
	if len(p.PreferredCategories) > 0 {
		return append([]string(nil), p.PreferredCategories...)
	}
	return []string{"bestsellers", "new arrivals"}
}

// Insights summarizes what the prompt should keep in mind about the customer.
func Insights(p domain.CustomerProfile) string {
	var insights []string
	if p.Category == domain.CategoryLoyal && p.PurchaseCount > 5 {
		insights = append(insights, "This is a high-value repeat customer who responds well to exclusivity and premium offers")
	}
	if p.Category == domain.CategoryAtRisk && p.DaysInactive > 30 {
		insights = append(insights, "This customer is showing signs of disengagement and needs a compelling reason to return")
	}
	if p.Category == domain.CategoryChurned {
		insights = append(insights, "This customer has likely moved to a competitor and needs a strong incentive to reconsider")
	}
	if p.EngagementScore < 0.3 {
		insights = append(insights, "Low engagement with marketing communications suggests need for a different approach")
	}
	if len(insights) == 0 {
		return "Standard customer profile"
	}
	return strings.Join(insights, "; ")
}
