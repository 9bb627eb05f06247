package domain

import "time"

// CustomerRecord is the persisted per-customer document, keyed by an opaque
// user id. Numeric fields are optional in storage; readers treat a missing
// value as zero.
type CustomerRecord struct {
	UID              string           `json:"uid" db:"uid" dynamodbav:"uid"`
	Purchases        int              `json:"purchases" db:"purchases" dynamodbav:"purchases"`
	TotalSpent       float64          `json:"totalSpent" db:"total_spent" dynamodbav:"totalSpent"`
	LastActivity     string           `json:"lastActivity" db:"last_activity" dynamodbav:"lastActivity"`
	FeedbackScore    float64          `json:"feedbackScore" db:"feedback_score" dynamodbav:"feedbackScore"`
	FeedbackComments string           `json:"feedbackComments,omitempty" db:"feedback_comments" dynamodbav:"feedbackComments,omitempty"`
	EngagementScore  float64          `json:"engagementScore" db:"engagement_score" dynamodbav:"engagementScore"`
	PurchaseHistory  []PurchaseRecord `json:"purchaseHistory" db:"purchase_history" dynamodbav:"purchaseHistory"`
	CreatedAt        string           `json:"createdAt,omitempty" db:"created_at" dynamodbav:"createdAt,omitempty"`

	// Written back by the loyalty calculation.
	LoyaltyScore   int        `json:"loyaltyScore,omitempty" db:"loyalty_score" dynamodbav:"loyaltyScore,omitempty"`
	Category       Category   `json:"category,omitempty" db:"category" dynamodbav:"category,omitempty"`
	LastCalculated string     `json:"lastCalculated,omitempty" db:"last_calculated" dynamodbav:"lastCalculated,omitempty"`
	AIOffer        *Offer     `json:"aiOffer,omitempty" db:"ai_offer" dynamodbav:"aiOffer,omitempty"`
	ChurnRisk      *ChurnRisk `json:"churnRisk,omitempty" db:"churn_risk" dynamodbav:"churnRisk,omitempty"`
}

// LastActivityTime parses LastActivity. ok is false when the field is empty
// or not an RFC 3339 timestamp.
func (r *CustomerRecord) LastActivityTime() (t time.Time, ok bool) {
	if r.LastActivity == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, r.LastActivity)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// PurchaseRecord is one entry of a customer's append-only purchase history.
type PurchaseRecord struct {
	ID          string  `json:"id,omitempty" dynamodbav:"id,omitempty"`
	ProductID   string  `json:"productId" dynamodbav:"productId"`
	ProductName string  `json:"productName" dynamodbav:"productName"`
	Category    string  `json:"category,omitempty" dynamodbav:"category,omitempty"`
	Quantity    int     `json:"quantity" dynamodbav:"quantity"`
	Amount      float64 `json:"amount" dynamodbav:"amount"`
	Timestamp   string  `json:"timestamp" dynamodbav:"timestamp"`
}

// CustomerUpdate is a partial write. Nil fields are left untouched.
type CustomerUpdate struct {
	Purchases        *int
	TotalSpent       *float64
	LastActivity     *string
	FeedbackScore    *float64
	FeedbackComments *string
	EngagementScore  *float64
	LoyaltyScore     *int
	Category         *Category
	LastCalculated   *string
	AIOffer          *Offer
	ChurnRisk        *ChurnRisk
}

// Apply copies every non-nil field of u onto r.
func (u CustomerUpdate) Apply(r *CustomerRecord) {
	if u.Purchases != nil {
		r.Purchases = *u.Purchases
	}
	if u.TotalSpent != nil {
		r.TotalSpent = *u.TotalSpent
	}
	if u.LastActivity != nil {
		r.LastActivity = *u.LastActivity
	}
	if u.FeedbackScore != nil {
		r.FeedbackScore = *u.FeedbackScore
	}
	if u.FeedbackComments != nil {
		r.FeedbackComments = *u.FeedbackComments
	}
	if u.EngagementScore != nil {
		r.EngagementScore = *u.EngagementScore
	}
	if u.LoyaltyScore != nil {
		r.LoyaltyScore = *u.LoyaltyScore
	}
	if u.Category != nil {
		r.Category = *u.Category
	}
	if u.LastCalculated != nil {
		r.LastCalculated = *u.LastCalculated
	}
	if u.AIOffer != nil {
		o := *u.AIOffer
		r.AIOffer = &o
	}
	if u.ChurnRisk != nil {
		c := u.ChurnRisk.Clone()
		r.ChurnRisk = &c
	}
}

// CustomerProfile is the scoring input. It is a value type: heuristics take
// it by value and never mutate the caller's copy.
type CustomerProfile struct {
	PurchaseCount       int      `json:"purchaseCount"`
	TotalSpent          float64  `json:"totalSpent"`
	DaysInactive        float64  `json:"daysInactive"`
	EngagementScore     float64  `json:"engagementScore"`
	FeedbackScore       float64  `json:"feedbackScore"`
	AvgOrderValue       float64  `json:"avgOrderValue"`
	PurchaseFrequency   float64  `json:"purchaseFrequency"`
	CustomerLifetime    float64  `json:"customerLifetime"`
	Returns             int      `json:"returns,omitempty"`
	PreferredCategories []string `json:"preferredCategories"`

	// Set once the profile has been scored; offer prompts and fallbacks key
	// off them.
	LoyaltyScore int      `json:"loyaltyScore,omitempty"`
	Category     Category `json:"category,omitempty"`
}
