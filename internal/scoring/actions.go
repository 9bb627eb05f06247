package scoring

import "github.com/ignite/loyalty-crm/internal/domain"

var recommendedActions = map[domain.Category][]string{
	domain.CategoryLoyal: {
		"Offer premium loyalty rewards",
		"Invite to beta test new features",
		"Provide exclusive discounts",
		"Send personalized product recommendations",
		"Offer early access to sales",
	},
	domain.CategoryAtRisk: {
		"Send re-engagement email campaign",
		"Offer special time-limited discount",
		"Request feedback on last purchase",
		"Showcase new products since last visit",
		"Provide personalized product recommendations",
	},
	domain.CategoryChurned: {
		"Send win-back campaign with major incentive",
		"Offer significant discount with expiration",
		"Request feedback on why they left",
		"Highlight new improvements since last visit",
		"Provide free shipping or gift with purchase",
	},
}

// RecommendedActions returns the five suggested next steps for a category.
// Anything that is not Loyal or At-Risk gets the Churned list. The returned
// slice is a fresh copy.
func RecommendedActions(c domain.Category) []string {
	list, ok := recommendedActions[c]
	if !ok {
		list = recommendedActions[domain.CategoryChurned]
	}
	return append([]string(nil), list...)
}
