package offer

import (
	"regexp"
	"strings"
	"time"

	"github.com/ignite/loyalty-crm/internal/domain"
)

var (
	salvageDiscount   = regexp.MustCompile(`\d+%`)
	salvageName       = regexp.MustCompile(`\b([A-Z]{3,})\b`)
	salvageExpiration = regexp.MustCompile(`(?i)(?:valid for|expires in) (\d+) days`)
)

// Salvage pulls what it can out of a free-text answer: a percentage, an
// all-caps word on the first line as the name, the first long line as the
// description and a "valid for N days" phrase. Anything not found comes from
// RichFallback.
func Salvage(text string, p domain.CustomerProfile, now time.Time) domain.Offer {
	o := RichFallback(p, now)

	if m := salvageDiscount.FindString(text); m != "" {
		o.Discount = m
	}

	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) > 0 {
		if m := salvageName.FindStringSubmatch(lines[0]); m != nil {
			o.Name = m[1]
		}
	}
	for _, l := range lines {
		lower := strings.ToLower(l)
		if len(l) > 20 && !strings.Contains(lower, "name") && !strings.Contains(lower, "discount") {
			o.Description = l
			break
		}
	}
	if m := salvageExpiration.FindStringSubmatch(text); m != nil {
		o.Expiration = "Valid for " + m[1] + " days"
	}
	return o
}
