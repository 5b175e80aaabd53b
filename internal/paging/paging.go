// Package paging slices filtered lists into fixed-size, 1-indexed pages.
package paging

// DefaultSize is the page size used by every list view.
const DefaultSize = 5

// Page is one page of a filtered list.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	TotalPages int `json:"total_pages"`
	Total      int `json:"total"`
}

// TotalPages returns ceil(n/size).
func TotalPages(n, size int) int {
	if size <= 0 || n <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

// Clamp forces page into [1, totalPages], or 1 when there are no pages.
func Clamp(page, totalPages int) int {
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page
}

// Paginate returns the requested page of items after clamping it.
func Paginate[T any](items []T, page, size int) Page[T] {
	if size <= 0 {
		size = DefaultSize
	}
	total := len(items)
	pages := TotalPages(total, size)
	page = Clamp(page, pages)

	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}

	out := make([]T, end-start)
	copy(out, items[start:end])
	return Page[T]{
		Items:      out,
		Page:       page,
		TotalPages: pages,
		Total:      total,
	}
}
