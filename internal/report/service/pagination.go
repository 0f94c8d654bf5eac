package service

import "math"

// Pagination is the slice-by-page arithmetic applied on top of the report
// builders. Pure arithmetic, no business logic.
type Pagination struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// NewPagination computes pagination metadata.
func NewPagination(page, perPage int, total int64) Pagination {
	if perPage <= 0 {
		perPage = 50
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// Offset returns the zero-based index of the first row on the page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// pageSlice cuts one page out of an already-built row set. Balances and
// summaries were computed over the full set, so slicing is the last step.
func pageSlice[T any](rows []T, p Pagination) []T {
	start := p.Offset()
	if start >= len(rows) {
		return []T{}
	}
	end := start + p.PerPage
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}
