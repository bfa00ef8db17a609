package policy

import "github.com/shahdolbazaar/marketplace-go-app/internal/models"

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// PageBounds normalizes page/limit and returns the slice bounds for total items.
func PageBounds(total, page, limit int) (start, end int, p models.Pagination) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}

	// compare before multiplying so a huge page cannot overflow
	if page-1 > total/limit {
		start = total
	} else {
		start = min((page-1)*limit, total)
	}
	end = min(start+limit, total)

	return start, end, models.Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

// Paginate applies pagination after filtering.
func Paginate[T any](items []T, page, limit int) ([]T, models.Pagination) {
	start, end, p := PageBounds(len(items), page, limit)
	return items[start:end], p
}
