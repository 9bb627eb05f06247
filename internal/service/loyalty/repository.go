package loyalty

import (
	"context"

	"github.com/ignite/loyalty-crm/internal/domain"
)

// Repository defines the data access contract for customer records.
type Repository interface {
	// Get returns the record for uid, or ErrNotFound.
	Get(ctx context.Context, uid string) (*domain.CustomerRecord, error)

	// Set creates or replaces the whole record.
	Set(ctx context.Context, rec *domain.CustomerRecord) error

	// Update applies a partial write. Returns ErrNotFound if the record
	// doesn't exist.
	Update(ctx context.Context, uid string, u domain.CustomerUpdate) error

	// AppendPurchase atomically adds p to the purchase history, increments
	// purchases by one and totalSpent by p.Amount, and sets lastActivity to
	// p.Timestamp. A purchase whose ID is already in the history is a no-op.
	// Returns ErrNotFound if the record doesn't exist.
	AppendPurchase(ctx context.Context, uid string, p domain.PurchaseRecord) error

	// List returns records matching the filter, ordered by uid.
	List(ctx context.Context, filter ListFilter) ([]domain.CustomerRecord, error)
}

// ListFilter controls pagination and filtering for customer lists.
type ListFilter struct {
	Category domain.Category
	Limit    int
	Offset   int
}

// ResultCache stores recent loyalty results. Implementations may be lossy.
type ResultCache interface {
	Get(ctx context.Context, uid string) (*domain.LoyaltyResult, bool)
	Set(ctx context.Context, uid string, r *domain.LoyaltyResult)
	Invalidate(ctx context.Context, uid string)
}

// OfferGenerator produces an offer for a scored profile.
type OfferGenerator interface {
	GenerateWithSource(ctx context.Context, p domain.CustomerProfile) (domain.Offer, string)
}

// ChurnEstimator produces a churn estimate.
type ChurnEstimator interface {
	Estimate(ctx context.Context, s domain.ChurnSignals) domain.ChurnRisk
}
