package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ignite/loyalty-crm/internal/domain"
	"github.com/ignite/loyalty-crm/internal/service/loyalty"
)

const (
	defaultCustomerPageSize = 50
	maxCustomerPageSize     = 500
)

// customerQuery is the parsed query string of GET /api/customers.
type customerQuery struct {
	Category domain.Category
	Page     int
	Limit    int
}

// parseCustomerQuery reads page, limit and category. The category matches
// case-insensitively ("at-risk" selects At-Risk); anything unrecognized is
// passed through so the service can reject it.
func parseCustomerQuery(r *http.Request) customerQuery {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultCustomerPageSize
	}
	limit = min(limit, maxCustomerPageSize)

	category := domain.Category(strings.TrimSpace(q.Get("category")))
	for _, c := range domain.Categories {
		if strings.EqualFold(string(c), string(category)) {
			category = c
			break
		}
	}
	return customerQuery{Category: category, Page: page, Limit: limit}
}

func (q customerQuery) filter() loyalty.ListFilter {
	return loyalty.ListFilter{
		Category: q.Category,
		Limit:    q.Limit,
		Offset:   (q.Page - 1) * q.Limit,
	}
}

// customerPage is one page of the admin customer list.
type customerPage struct {
	Data       []domain.CustomerRecord `json:"data"`
	Category   domain.Category         `json:"category,omitempty"`
	Pagination PaginationMeta          `json:"pagination"`
}

type PaginationMeta struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasMore    bool `json:"has_more"`
}

// newCustomerPage takes the total from the category distribution, so a
// filtered page counts only that category and unscored customers only
// appear in the unfiltered total.
func newCustomerPage(customers []domain.CustomerRecord, q customerQuery, stats *domain.CategoryStats) customerPage {
	if customers == nil {
		customers = []domain.CustomerRecord{}
	}
	total := stats.Total
	if q.Category != "" {
		total = stats.ByCategory[q.Category]
	}
	totalPages := max((total+q.Limit-1)/q.Limit, 1)
	return customerPage{
		Data:     customers,
		Category: q.Category,
		Pagination: PaginationMeta{
			Page:       q.Page,
			Limit:      q.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasMore:    q.Page < totalPages,
		},
	}
}
