package utils

import (
	"github.com/yukikurage/task-graphql-api/internal/constants"
)

// PaginationParams holds the pagination parameters
type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// PageInfo represents the pagination metadata returned with a list
type PageInfo struct {
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
	HasNext bool  `json:"hasNext"`
}

// NewPaginationParams validates optional page/limit arguments. It returns
// nil when neither is given, meaning "no pagination".
func NewPaginationParams(page, limit *int) *PaginationParams {
	if page == nil && limit == nil {
		return nil
	}

	p := constants.MinPageSize
	if page != nil && *page >= constants.MinPageSize {
		p = *page
	}

	l := constants.DefaultPageSize
	if limit != nil && *limit >= constants.MinPageSize && *limit <= constants.MaxPageSize {
		l = *limit
	}

	return &PaginationParams{
		Page:   p,
		Limit:  l,
		Offset: (p - 1) * l,
	}
}

// Info builds the page metadata for a result set of size total.
func (p PaginationParams) Info(total int64) PageInfo {
	return PageInfo{
		Page:    p.Page,
		Limit:   p.Limit,
		Total:   total,
		HasNext: int64(p.Offset+p.Limit) < total,
	}
}
