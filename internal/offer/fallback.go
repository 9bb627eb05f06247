package offer

import (
	"strings"
	"time"

	"github.com/ignite/loyalty-crm/internal/domain"
)

const defaultTargetCategory = "bestsellers"

// ExpirationDays is how long an offer stays valid for each category.
func ExpirationDays(c domain.Category) int {
	switch c {
	case domain.CategoryLoyal:
		return 7
	case domain.CategoryAtRisk:
		return 10
	default:
		return 14
	}
}

// ExpirationText renders "Valid until M/D/YYYY" for now plus the category's
// validity window.
func ExpirationText(c domain.Category, now time.Time) string {
	return "Valid until " + now.AddDate(0, 0, ExpirationDays(c)).Format("1/2/2006")
}

// TargetCategory is the first preferred category, or "bestsellers".
func TargetCategory(p domain.CustomerProfile) string {
	if len(p.PreferredCategories) > 0 && p.PreferredCategories[0] != "" {
		return p.PreferredCategories[0]
	}
	return defaultTargetCategory
}

// BasicFallback is the offer used when the AI gateway cannot be reached. It
// depends on the category alone, apart from the target category.
func BasicFallback(p domain.CustomerProfile, now time.Time) domain.Offer {
	var name, discount, kind, conversion string
	switch p.Category {
	case domain.CategoryLoyal:
		name, discount, kind, conversion = "LOYALVIP", "15%", "loyalty", "25%"
	case domain.CategoryAtRisk:
		name, discount, kind, conversion = "COMEBACK", "20%", "comeback", "15%"
	default:
		name, discount, kind, conversion = "WELCOME", "25%", "welcome", "10%"
	}

	return domain.Offer{
		Name:                   name,
		Discount:               discount,
		Description:            "Special " + kind + " offer just for you! Use this exclusive discount on your next purchase.",
		Expiration:             ExpirationText(p.Category, now),
		TargetedCategory:       TargetCategory(p),
		ExpectedConversionRate: conversion,
	}
}

// RichFallback is the offer used when the AI answered but its answer could
// not be parsed. Spend and inactivity refine the category defaults.
func RichFallback(p domain.CustomerProfile, now time.Time) domain.Offer {
	var name, discount, conversion string
	switch p.Category {
	case domain.CategoryLoyal:
		discount = "15%"
		if p.TotalSpent > 500 {
			discount = "20%"
		}
		name = "LOYALIST"
		if p.TotalSpent > 1000 {
			name = "VIPSTATUS"
		}
		conversion = "30-40%"
	case domain.CategoryAtRisk:
		discount = "25%"
		name = "MISSYOU"
		if p.DaysInactive > 60 {
			name = "COMEBACK"
		}
		conversion = "15-25%"
	default:
		name, discount, conversion = "WELCOME", "30%", "5-15%"
	}

	var description string
	if len(p.PreferredCategories) > 0 && p.PreferredCategories[0] != "" {
		description = "Exclusive " + discount + " discount on " + p.PreferredCategories[0] + " products just for you."
	} else {
		category := string(p.Category)
		if category == "" {
			category = string(domain.CategoryChurned)
		}
		description = "Enjoy " + discount + " off your next purchase as a valued " + strings.ToLower(category) + " customer."
	}

	return domain.Offer{
		Name:                   name,
		Discount:               discount,
		Description:            description,
		Expiration:             ExpirationText(p.Category, now),
		TargetedCategory:       TargetCategory(p),
		ExpectedConversionRate: conversion,
	}
}
