package shared

import "math"

// PerPage is the fixed page size of every paginated listing.
const PerPage = 10

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// NewPagination computes pagination metadata. TotalPages is never below 1 so
// an empty listing still reports a single (empty) page. page is capped so the
// row offset always fits in an int.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = PerPage
	}
	if page <= 0 {
		page = 1
	}
	if maxPage := math.MaxInt / perPage; page > maxPage {
		page = maxPage
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	if totalPages < 1 {
		totalPages = 1
	}
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// Offset returns the number of rows preceding the current page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// From returns the 1-based position of the first item on the page, or 0 when
// the page is empty.
func (p Pagination) From(count int) int {
	if count == 0 {
		return 0
	}
	return p.Offset() + 1
}

// To returns the 1-based position of the last item on the page, or 0 when the
// page is empty.
func (p Pagination) To(count int) int {
	if count == 0 {
		return 0
	}
	return p.Offset() + count
}

// Page is one page of a listing together with its metadata.
type Page[T any] struct {
	Items []T
	Pagination
}
