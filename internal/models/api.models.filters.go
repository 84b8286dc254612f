// FilePath: internal/models/api.models.filters.go
package models

import "time"

// HistoryFilters defines the query options for the reading history endpoint.
// Decoded from the URL query with gorilla/schema; Start/End are RFC3339.
type HistoryFilters struct {
	FacilityID string    `schema:"facility_id"`
	Start      time.Time `schema:"start"`
	End        time.Time `schema:"end"`
	Limit      int       `schema:"limit"`
	Page       int       `schema:"page"`
	Order      string    `schema:"order"`
}

// ApplyDefaults clamps pagination and normalizes the sort order.
func (f *HistoryFilters) ApplyDefaults() {
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 50
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Order != "asc" {
		f.Order = "desc"
	}
}

// Offset returns the row offset for the current page.
func (f *HistoryFilters) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Pagination describes the page window of a history response.
type Pagination struct {
	CurrentPage  int   `json:"current_page"`
	TotalPages   int   `json:"total_pages"`
	TotalRecords int64 `json:"total_records"`
	HasNextPage  bool  `json:"has_next_page"`
	HasPrevPage  bool  `json:"has_prev_page"`
}

// ReadingPage is a single page of history results.
type ReadingPage struct {
	History    []*Reading `json:"history"`
	Pagination Pagination `json:"pagination"`
}

// NewPagination computes the page window for a total row count.
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalRecords: total,
		HasNextPage:  int64(page)*int64(limit) < total,
		HasPrevPage:  page > 1,
	}
}
