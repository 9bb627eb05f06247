package scoring

import (
	"math"
	"sort"
	"time"

	"github.com/ignite/loyalty-crm/internal/domain"
)

const maxPreferredCategories = 3

// ProfileFromRecord builds a normalized profile from a stored record as of
// now. An empty or unparsable lastActivity counts as activity at now. The
// returned time is the last-activity instant used.
func ProfileFromRecord(rec *domain.CustomerRecord, now time.Time) (domain.CustomerProfile, time.Time) {
	p, last := rawProfile(rec, now)
	return Normalize(p), last
}

// ManualProfile completes a hand-entered profile the way the admin what-if
// panel does: the customer is assumed to have been around for a year, so
// lifetime is 365 minus the inactive days (at least one day).
func ManualProfile(p domain.CustomerProfile) domain.CustomerProfile {
	return Normalize(withManualLifetime(p))
}

// SignalsFromRecord derives churn signals from a stored record. Average
// order value and frequency are derived as in ProfileFromRecord, but a
// missing engagement score stays 0 rather than taking the scoring default.
func SignalsFromRecord(rec *domain.CustomerRecord, now time.Time) domain.ChurnSignals {
	p, _ := rawProfile(rec, now)
	return churnSignals(p)
}

// ManualSignals is SignalsFromRecord for a hand-entered profile.
func ManualSignals(p domain.CustomerProfile) domain.ChurnSignals {
	return churnSignals(withManualLifetime(p))
}

func churnSignals(raw domain.CustomerProfile) domain.ChurnSignals {
	s := domain.SignalsFromProfile(Normalize(raw))
	s.EngagementScore = nonNegative(raw.EngagementScore)
	return s
}

func withManualLifetime(p domain.CustomerProfile) domain.CustomerProfile {
	if p.CustomerLifetime <= 0 {
		p.CustomerLifetime = math.Max(365-p.DaysInactive, 1)
	}
	return p
}

func rawProfile(rec *domain.CustomerRecord, now time.Time) (domain.CustomerProfile, time.Time) {
	last, ok := rec.LastActivityTime()
	if !ok || last.After(now) {
		last = now
	}

	p := domain.CustomerProfile{
		PurchaseCount:       rec.Purchases,
		TotalSpent:          rec.TotalSpent,
		DaysInactive:        now.Sub(last).Hours() / 24,
		EngagementScore:     rec.EngagementScore,
		FeedbackScore:       rec.FeedbackScore,
		PreferredCategories: PreferredCategories(rec.PurchaseHistory),
	}

	if created, err := time.Parse(time.RFC3339Nano, rec.CreatedAt); err == nil && created.Before(now) {
		p.CustomerLifetime = now.Sub(created).Hours() / 24
	}
	return p, last
}

// PreferredCategories ranks the categories in a purchase history by how many
// purchases fell into them, ties broken by first appearance.
func PreferredCategories(history []domain.PurchaseRecord) []string {
	counts := make(map[string]int)
	var order []string
	for _, h := range history {
		if h.Category == "" {
			continue
		}
		if _, seen := counts[h.Category]; !seen {
			order = append(order, h.Category)
		}
		counts[h.Category]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > maxPreferredCategories {
		order = order[:maxPreferredCategories]
	}
	return order
}
