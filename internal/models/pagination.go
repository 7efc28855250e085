package models

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// NormalizePage clamps a requested page and page size to the values list
// queries actually use.
func NormalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return page, size
}

// NewPagination builds list metadata from the requested page and size.
func NewPagination(page, size, total int) *Pagination {
	page, size = NormalizePage(page, size)
	return &Pagination{Page: page, PageSize: size, TotalCount: total}
}
