package scoring

import "github.com/ignite/loyalty-crm/internal/domain"

// Rewards lists the perks for a loyalty result: the personalized offer
// first, when there is one, then the category perks.
func Rewards(r domain.LoyaltyResult) []domain.Reward {
	var rewards []domain.Reward

	if r.AIOffer != nil {
		rewards = append(rewards, domain.Reward{
			ID:          "ai-offer",
			Name:        orDefault(r.AIOffer.Name, "Special Offer"),
			Discount:    r.AIOffer.Discount,
			Description: orDefault(r.AIOffer.Description, "Personalized offer just for you"),
			Expiration:  orDefault(r.AIOffer.Expiration, "Limited time offer"),
		})
	}

	switch r.Category {
	case domain.CategoryLoyal:
		rewards = append(rewards,
			domain.Reward{ID: "reward2", Name: "Free Shipping", Description: "On all orders"},
			domain.Reward{ID: "reward3", Name: "Early Access", Description: "To new products"},
		)
		if r.LoyaltyScore > 80 {
			rewards = append(rewards, domain.Reward{ID: "reward4", Name: "VIP Support", Description: "Priority customer service"})
		}
		if r.TotalSpent > 500 {
			rewards = append(rewards, domain.Reward{ID: "reward5", Name: "10% Lifetime Discount", Description: "On all future purchases"})
		}
	case domain.CategoryAtRisk:
		rewards = append(rewards, domain.Reward{ID: "reward6", Name: "Free Gift", Description: "With next purchase over $50"})
	default:
		rewards = append(rewards, domain.Reward{ID: "reward9", Name: "Free Product", Description: "With purchase over $75"})
	}
	return rewards
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
