package offer

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ignite/loyalty-crm/internal/domain"
)

// Minimum plausible lengths for AI-produced fields, in characters.
const (
	minNameLen       = 3
	minDiscountLen   = 2
	minExpirationLen = 5
	minTargetLen     = 2
)

const missedYouPrefix = "We've missed you! "

// Validate repairs an AI-produced offer field by field. Each field that is
// missing or implausibly short is replaced with the RichFallback value for
// the same profile; the rest are kept. Customers inactive for more than 60
// days get "We've missed you! " in front of the description.
func Validate(o domain.Offer, p domain.CustomerProfile, now time.Time) domain.Offer {
	def := RichFallback(p, now)

	o.Name = strings.TrimSpace(o.Name)
	if tooShort(o.Name, minNameLen) {
		o.Name = def.Name
	}
	if tooShort(strings.TrimSpace(o.Discount), minDiscountLen) {
		o.Discount = def.Discount
	}
	if strings.TrimSpace(o.Description) == "" {
		o.Description = def.Description
	}
	if tooShort(strings.TrimSpace(o.Expiration), minExpirationLen) {
		o.Expiration = def.Expiration
	}
	if tooShort(strings.TrimSpace(o.TargetedCategory), minTargetLen) {
		o.TargetedCategory = def.TargetedCategory
	}
	if strings.TrimSpace(o.ExpectedConversionRate) == "" {
		o.ExpectedConversionRate = def.ExpectedConversionRate
	}

	if p.DaysInactive > 60 && !strings.HasPrefix(o.Description, missedYouPrefix) {
		o.Description = missedYouPrefix + o.Description
	}
	return o
}

func tooShort(s string, n int) bool {
	return utf8.RuneCountInString(s) < n
}
