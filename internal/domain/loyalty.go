package domain

import "time"

// Category is a customer's lifecycle bucket.
type Category string

const (
	CategoryLoyal   Category = "Loyal"
	CategoryAtRisk  Category = "At-Risk"
	CategoryChurned Category = "Churned"
)

// Categories lists every valid category in display order.
var Categories = []Category{CategoryLoyal, CategoryAtRisk, CategoryChurned}

// Valid reports whether c is one of the three lifecycle categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryLoyal, CategoryAtRisk, CategoryChurned:
		return true
	}
	return false
}

// LoyaltyResult is recomputed on every calculation, never updated in place.
type LoyaltyResult struct {
	UserID             string    `json:"userId,omitempty"`
	LoyaltyScore       int       `json:"loyaltyScore"`
	Category           Category  `json:"category"`
	LastPurchase       time.Time `json:"lastPurchase"`
	PurchaseCount      int       `json:"purchaseCount"`
	TotalSpent         float64   `json:"totalSpent"`
	DaysInactive       int       `json:"daysInactive"`
	RecommendedActions []string  `json:"recommendedActions"`
	AIOffer            *Offer    `json:"aiOffer"`
}

// Reward is a perk shown to the customer alongside their loyalty status.
type Reward struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Discount    string `json:"discount,omitempty"`
	Description string `json:"description"`
	Expiration  string `json:"expiration,omitempty"`
}

// CategoryStats is the admin overview of how customers are distributed.
type CategoryStats struct {
	Total      int              `json:"total"`
	ByCategory map[Category]int `json:"byCategory"`
	Unscored   int              `json:"unscored"`
}
