package domain

// RiskLevel buckets a churn probability.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// RiskLevelFor maps a churn probability (0-100) to its risk level:
// above 70 is high, above 40 is medium, anything else is low.
func RiskLevelFor(probability int) RiskLevel {
	switch {
	case probability > 70:
		return RiskHigh
	case probability > 40:
		return RiskMedium
	default:
		return RiskLow
	}
}

// ChurnRisk is the churn estimate persisted on the customer record.
type ChurnRisk struct {
	ChurnProbability    int       `json:"churnProbability" dynamodbav:"churnProbability"`
	RiskLevel           RiskLevel `json:"riskLevel" dynamodbav:"riskLevel"`
	KeyRiskFactors      []string  `json:"keyRiskFactors" dynamodbav:"keyRiskFactors"`
	RetentionStrategies []string  `json:"retentionStrategies" dynamodbav:"retentionStrategies"`
}

// Clone returns a deep copy.
func (c ChurnRisk) Clone() ChurnRisk {
	out := c
	out.KeyRiskFactors = append([]string(nil), c.KeyRiskFactors...)
	out.RetentionStrategies = append([]string(nil), c.RetentionStrategies...)
	return out
}

// ChurnSignals are the behavioral inputs of the churn estimator.
type ChurnSignals struct {
	DaysInactive      float64 `json:"daysInactive"`
	PurchaseCount     int     `json:"purchaseCount"`
	EngagementScore   float64 `json:"engagementScore"`
	AvgOrderValue     float64 `json:"avgOrderValue"`
	PurchaseFrequency float64 `json:"purchaseFrequency"`
}

// SignalsFromProfile extracts the churn-relevant fields of a profile.
func SignalsFromProfile(p CustomerProfile) ChurnSignals {
	return ChurnSignals{
		DaysInactive:      p.DaysInactive,
		PurchaseCount:     p.PurchaseCount,
		EngagementScore:   p.EngagementScore,
		AvgOrderValue:     p.AvgOrderValue,
		PurchaseFrequency: p.PurchaseFrequency,
	}
}
