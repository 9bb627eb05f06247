package domain

// SentimentAnalysis is the structured reading of a free-text feedback comment.
type SentimentAnalysis struct {
	SentimentScore     float64  `json:"sentimentScore"`
	KeyThemes          []string `json:"keyThemes"`
	ActionableInsights []string `json:"actionableInsights"`
	Priority           string   `json:"priority"`
}
