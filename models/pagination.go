package models

import (
	"bitbucket.org/mmdatafocus/condopal_backend/config"
)

// OffsetPage is the page envelope for all listings. Pages are 1-based and
// the page size is fixed (config.PaymentsPageSize).
type OffsetPage[T any] struct {
	Rows       []*T  `json:"rows"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalCount int64 `json:"totalCount"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
}

// NormalizePage clamps a requested page number to 1-based.
func NormalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// PageOffset is the row offset of a 1-based page.
func PageOffset(page int, pageSize int) int {
	return (NormalizePage(page) - 1) * pageSize
}

// NewOffsetPage builds the page envelope from a fetched slice and the total
// matching row count. hasNext is true iff rows exist past this page, and
// totalPages is ceil(totalCount / pageSize).
func NewOffsetPage[T any](rows []*T, totalCount int64, page int, pageSize int) *OffsetPage[T] {
	page = NormalizePage(page)
	if pageSize <= 0 {
		pageSize = config.PaymentsPageSize
	}

	totalPages := int(totalCount) / pageSize
	if int(totalCount)%pageSize != 0 {
		totalPages++
	}

	if rows == nil {
		rows = []*T{}
	}

	return &OffsetPage[T]{
		Rows:       rows,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
		HasNext:    totalCount > int64(PageOffset(page, pageSize)+pageSize),
	}
}
