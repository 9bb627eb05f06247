package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/loyalty-crm/internal/domain"
)

func rewardIDs(rs []domain.Reward) []string {
	ids := make([]string, 0, len(rs))
	for _, r := range rs {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestRewards(t *testing.T) {
	tests := []struct {
		name   string
		result domain.LoyaltyResult
		want   []string
	}{
		{
			name:   "loyal high value",
			result: domain.LoyaltyResult{Category: domain.CategoryLoyal, LoyaltyScore: 90, TotalSpent: 800},
			want:   []string{"reward2", "reward3", "reward4", "reward5"},
		},
		{
			name:   "loyal modest",
			result: domain.LoyaltyResult{Category: domain.CategoryLoyal, LoyaltyScore: 80, TotalSpent: 500},
			want:   []string{"reward2", "reward3"},
		},
		{
			name:   "at risk",
			result: domain.LoyaltyResult{Category: domain.CategoryAtRisk, LoyaltyScore: 95, TotalSpent: 5000},
			want:   []string{"reward6"},
		},
		{
			name:   "churned",
			result: domain.LoyaltyResult{Category: domain.CategoryChurned},
			want:   []string{"reward9"},
		},
		{
			name: "offer goes first",
			result: domain.LoyaltyResult{
				Category: domain.CategoryAtRisk,
				AIOffer:  &domain.Offer{Name: "MISSYOU", Discount: "25%"},
			},
			want: []string{"ai-offer", "reward6"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rewardIDs(Rewards(tt.result)))
		})
	}
}

func TestRewards_OfferDefaults(t *testing.T) {
	rs := Rewards(domain.LoyaltyResult{Category: domain.CategoryChurned, AIOffer: &domain.Offer{}})
	require.Len(t, rs, 2)
	assert.Equal(t, domain.Reward{
		ID:          "ai-offer",
		Name:        "Special Offer",
		Description: "Personalized offer just for you",
		Expiration:  "Limited time offer",
	}, rs[0])
}
