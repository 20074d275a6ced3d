package projection

import "slices"

// PageSizes are the page sizes a console table offers.
var PageSizes = []int{5, 10, 20, 50}

const DefaultPageSize = 10

// Pager is the pagination cursor of one projection. Page is 1-based.
type Pager struct {
	Page int `json:"page"`
	Size int `json:"size"`
}

func NewPager(size int) Pager {
	return Pager{Page: 1, Size: ValidSize(size, DefaultPageSize)}
}

// ValidSize returns size when it is one of PageSizes, otherwise def (or
// DefaultPageSize when def is not valid either).
func ValidSize(size, def int) int {
	if slices.Contains(PageSizes, size) {
		return size
	}
	if slices.Contains(PageSizes, def) {
		return def
	}
	return DefaultPageSize
}

type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	Size       int `json:"size"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func paginate[T any](items []T, p Pager) Page[T] {
	size := ValidSize(p.Size, DefaultPageSize)
	total := len(items)
	totalPages := (total + size - 1) / size
	if totalPages == 0 {
		totalPages = 1
	}

	page := p.Page
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * size
	end := min(start+size, total)
	out := make([]T, 0, end-start)
	out = append(out, items[start:end]...)

	return Page[T]{
		Items:      out,
		Page:       page,
		Size:       size,
		Total:      total,
		TotalPages: totalPages,
	}
}
