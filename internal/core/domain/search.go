package domain

import "time"

// CategoryUncategorized is the sentinel callers send to filter for documents
// whose ai_classification is null or empty, as opposed to not filtering at all.
const CategoryUncategorized = "__uncategorized__"

// SearchFilter describes one filtered, paginated document query.
// All populated filters are conjunctive.
type SearchFilter struct {
	Query    string
	Category string
	FileType string
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	PageSize int
}

// Offset is the pagination window start for the 1-based page number.
func (f SearchFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// SearchResult is one page of matches plus the pre-pagination total.
type SearchResult struct {
	Documents []Document `json:"documents"`
	Total     int        `json:"total"`
}
