package offer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ignite/loyalty-crm/internal/domain"
)

func TestBehavioralSegment(t *testing.T) {
	tests := []struct {
		profile domain.CustomerProfile
		want    string
	}{
		{domain.CustomerProfile{LoyaltyScore: 85, PurchaseCount: 6, EngagementScore: 0.9}, "High-Value Regular"},
		{domain.CustomerProfile{LoyaltyScore: 65, PurchaseCount: 3, DaysInactive: 10, EngagementScore: 0.9}, "Active Loyal"},
		{domain.CustomerProfile{LoyaltyScore: 55, DaysInactive: 70, EngagementScore: 0.9}, "Dormant High-Value"},
		{domain.CustomerProfile{LoyaltyScore: 40, DaysInactive: 45, EngagementScore: 0.9}, "Recent Churner"},
		{domain.CustomerProfile{LoyaltyScore: 40, PurchaseCount: 1, DaysInactive: 3, EngagementScore: 0.9}, "New Customer"},
		{domain.CustomerProfile{LoyaltyScore: 20, PurchaseCount: 8, DaysInactive: 100, EngagementScore: 0.1}, "Low Engagement Browser"},
		{domain.CustomerProfile{LoyaltyScore: 20, PurchaseCount: 8, DaysInactive: 100, EngagementScore: 0.5}, "Standard Customer"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, BehavioralSegment(tt.profile))
		})
	}
}

func TestSuggestedDiscount(t *testing.T) {
	assert.Equal(t, "10-15%", SuggestedDiscount(domain.CustomerProfile{Category: domain.CategoryLoyal}))
	assert.Equal(t, "15-20%", SuggestedDiscount(domain.CustomerProfile{Category: domain.CategoryLoyal, TotalSpent: 501}))
	assert.Equal(t, "15-20%", SuggestedDiscount(domain.CustomerProfile{Category: domain.CategoryAtRisk}))
	assert.Equal(t, "20-25%", SuggestedDiscount(domain.CustomerProfile{Category: domain.CategoryChurned}))
	assert.Equal(t, "25-30%", SuggestedDiscount(domain.CustomerProfile{Category: domain.CategoryLoyal, DaysInactive: 91}))
}

func TestTimingStrategy(t *testing.T) {
	assert.Equal(t, "Short timeframe (3-5 days) to create urgency", TimingStrategy(domain.CustomerProfile{PurchaseFrequency: 2, DaysInactive: 90}))
	assert.Equal(t, "Extended timeframe (14 days) with reminder", TimingStrategy(domain.CustomerProfile{DaysInactive: 61}))
	assert.Equal(t, "Standard timeframe (7 days)", TimingStrategy(domain.CustomerProfile{}))
}

func TestRecommendedCategories(t *testing.T) {
	assert.Equal(t, []string{"bestsellers", "new arrivals"}, RecommendedCategories(domain.CustomerProfile{}))
	assert.Equal(t, []string{"books"}, RecommendedCategories(domain.CustomerProfile{PreferredCategories: []string{"books"}}))
}

func TestInsights(t *testing.T) {
	assert.Equal(t, "Standard customer profile", Insights(domain.CustomerProfile{Category: domain.CategoryLoyal, EngagementScore: 0.8}))
	got := Insights(domain.CustomerProfile{Category: domain.CategoryChurned, EngagementScore: 0.1})
	assert.Contains(t, got, "moved to a competitor")
	assert.Contains(t, got, "; Low engagement")
}
