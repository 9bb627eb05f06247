package domain

// Offer is a promotional offer, either generated by the AI model or produced
// by a deterministic fallback.
type Offer struct {
	Name                   string `json:"name" dynamodbav:"name"`
	Discount               string `json:"discount" dynamodbav:"discount"`
	Description            string `json:"description" dynamodbav:"description"`
	Expiration             string `json:"expiration" dynamodbav:"expiration"`
	TargetedCategory       string `json:"targetedCategory" dynamodbav:"targetedCategory"`
	ExpectedConversionRate string `json:"expectedConversionRate" dynamodbav:"expectedConversionRate"`
}
