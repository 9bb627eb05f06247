package loyalty

import (
	"errors"

	"github.com/ignite/loyalty-crm/internal/aigateway"
)

// Sentinel errors for the loyalty service layer.
var (
	ErrNotFound        = errors.New("customer not found")
	ErrInvalidFeedback = errors.New("feedback score must be between 1 and 5")
	ErrInvalidPurchase = errors.New("purchase amount must be positive")
	ErrInvalidUserID   = errors.New("user id is required")
	ErrInvalidCategory = errors.New("unknown category")
	// ErrThrottled is returned by repositories when the backing store
	// rejects a call for capacity reasons.
	ErrThrottled = errors.New("storage throttled")
)

// IsRateLimited reports whether err is worth retrying after a pause.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrThrottled) || aigateway.IsRateLimited(err)
}
